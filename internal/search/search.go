package search

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Zuo-Peng/edl-session-search/internal/index"
)

type Result struct {
	SessionKey string  `json:"session_key"`
	EntryID    int     `json:"entry_id"` // -1 for session rows from ListAll
	Kind       string  `json:"kind"`
	Label      string  `json:"label"`
	Location   string  `json:"location,omitempty"`
	Name       string  `json:"name"`
	FilePath   string  `json:"file_path"`
	Summary    string  `json:"summary"`
	Snippet    string  `json:"snippet"`
	LineNumber int     `json:"line_number"`
	Mtime      int64   `json:"mtime"`
	Rank       float64 `json:"rank"`
}

// KindSession marks ListAll results.
const KindSession = "session"

type Options struct {
	Query   string
	Kind    string // "" = all, or an entry kind such as "marker"
	Session string // "" = all, else a session key or a substring of the session name
	Since   string // "" = no filter, e.g. "2024-01-01", compared with file mtime
	Limit   int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// useLike reports whether the query should bypass FTS5: CJK text has no word
// breaks for unicode61, and timecodes contain FTS5 column syntax.
func useLike(q string) bool {
	return containsCJK(q) || strings.ContainsAny(q, ":;")
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 || len(lower) != len(text) {
		// no match, return head
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qRunes := []rune(query)
	// find rune position of idx
	runePos := len([]rune(text[:idx]))
	start := max(runePos-contextChars, 0)
	end := min(runePos+len(qRunes)+contextChars, len(runes))
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if useLike(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	// Deduplicate: the same clip is usually placed many times on a track,
	// keep the best-ranked hit per session, kind and label.
	type dedupKey struct{ session, kind, label string }
	seen := make(map[dedupKey]bool)
	var deduped []Result
	for _, r := range results {
		k := dedupKey{r.SessionKey, r.Kind, strings.ToLower(r.Label)}
		if seen[k] {
			continue
		}
		seen[k] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

// filters builds the conditions shared by both search paths.
func filters(opts Options) ([]string, []any, error) {
	var conditions []string
	var args []any

	// kind filter
	if opts.Kind != "" {
		conditions = append(conditions, "e.kind = ?")
		args = append(args, opts.Kind)
	}

	// session filter
	if opts.Session != "" {
		conditions = append(conditions, "(s.session_key = ? OR s.name LIKE ?)")
		args = append(args, opts.Session, "%"+opts.Session+"%")
	}

	// since filter
	if opts.Since != "" {
		since, err := parseSince(opts.Since)
		if err != nil {
			return nil, nil, err
		}
		conditions = append(conditions, "s.mtime >= ?")
		args = append(args, since)
	}
	return conditions, args, nil
}

func parseSince(s string) (int64, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid --since %q, want YYYY-MM-DD: %w", s, err)
	}
	return t.Unix(), nil
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions, args, err := filters(opts)
	if err != nil {
		return nil, err
	}

	// FTS match
	conditions = append([]string{"entries_fts MATCH ?"}, conditions...)
	args = append([]any{opts.Query}, args...)

	where := strings.Join(conditions, " AND ")

	query := fmt.Sprintf(`
		SELECT
			e.session_key,
			e.entry_id,
			e.kind,
			e.label,
			e.location,
			s.name,
			s.file_path,
			s.summary,
			snippet(entries_fts, 0, '>>>','<<<', '...', 24) as snip,
			e.line_number,
			s.mtime,
			bm25(entries_fts, 1.0) as rank
		FROM entries_fts
		JOIN entries e ON entries_fts.rowid = e.rowid
		JOIN sessions s ON e.session_key = s.session_key
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, where)

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions, args, err := filters(opts)
	if err != nil {
		return nil, err
	}

	// LIKE match for CJK and timecode substring search
	conditions = append([]string{"(e.text LIKE ? OR e.location LIKE ?)"}, conditions...)
	pattern := "%" + opts.Query + "%"
	args = append([]any{pattern, pattern}, args...)

	where := strings.Join(conditions, " AND ")

	query := fmt.Sprintf(`
		SELECT
			e.session_key,
			e.entry_id,
			e.kind,
			e.label,
			e.location,
			s.name,
			s.file_path,
			s.summary,
			e.text,
			e.line_number,
			s.mtime
		FROM entries e
		JOIN sessions s ON e.session_key = s.session_key
		WHERE %s
		ORDER BY s.mtime DESC, e.entry_id
		LIMIT ?
	`, where)

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(
			&r.SessionKey, &r.EntryID, &r.Kind, &r.Label, &r.Location,
			&r.Name, &r.FilePath, &r.Summary,
			&fullText, &r.LineNumber, &r.Mtime,
		); err != nil {
			return nil, err
		}
		if strings.Contains(strings.ToLower(fullText), strings.ToLower(opts.Query)) {
			r.Snippet = makeSnippet(fullText, opts.Query, 30)
		} else {
			r.Snippet = makeSnippet(r.Location+" "+fullText, opts.Query, 30)
		}
		r.Rank = 0
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.SessionKey, &r.EntryID, &r.Kind, &r.Label, &r.Location,
			&r.Name, &r.FilePath, &r.Summary,
			&r.Snippet, &r.LineNumber, &r.Mtime, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListAll returns indexed sessions, most recently modified first. A non-empty
// opts.Query filters on session name and file path.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	var conditions []string
	var args []any
	if q := strings.TrimSpace(opts.Query); q != "" {
		conditions = append(conditions, "(name LIKE ? OR file_path LIKE ?)")
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if opts.Since != "" {
		since, err := parseSince(opts.Since)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, "mtime >= ?")
		args = append(args, since)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT %s FROM sessions %s ORDER BY mtime DESC, session_key LIMIT ?`,
		index.SessionColumns, where)
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		s, err := index.ScanSession(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{
			SessionKey: s.SessionKey,
			EntryID:    -1,
			Kind:       KindSession,
			Label:      s.Name,
			Location:   s.StartTimecode,
			Name:       s.Name,
			FilePath:   s.FilePath,
			Summary:    s.Summary,
			Snippet:    s.Summary,
			Mtime:      s.Mtime,
		})
	}
	return results, rows.Err()
}
