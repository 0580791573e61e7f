package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Zuo-Peng/edl-session-search/internal/edl"
	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS sessions (
    session_key    TEXT PRIMARY KEY,
    file_path      TEXT NOT NULL,
    name           TEXT NOT NULL DEFAULT '',
    frame_rate     TEXT NOT NULL DEFAULT '',
    sample_rate    TEXT NOT NULL DEFAULT '',
    bit_depth      TEXT NOT NULL DEFAULT '',
    start_timecode TEXT NOT NULL DEFAULT '',
    track_count    INTEGER NOT NULL DEFAULT 0,
    event_count    INTEGER NOT NULL DEFAULT 0,
    marker_count   INTEGER NOT NULL DEFAULT 0,
    summary        TEXT NOT NULL DEFAULT '',
    data           TEXT NOT NULL DEFAULT '{}',
    mtime          INTEGER NOT NULL DEFAULT 0,
    size           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS entries (
    session_key TEXT NOT NULL,
    entry_id    INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    label       TEXT NOT NULL DEFAULT '',
    location    TEXT NOT NULL DEFAULT '',
    ticks       INTEGER NOT NULL DEFAULT 0,
    text        TEXT NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (session_key, entry_id)
);

CREATE INDEX IF NOT EXISTS entries_kind ON entries(kind);

CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
    text,
    content=entries,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
    INSERT INTO entries_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;

CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, text) VALUES('delete', old.rowid, old.text);
    INSERT INTO entries_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

type DB struct {
	db   *sql.DB
	path string
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db, path: dbPath}
	d.migrateSchemaVersion()

	return d, nil
}

// schemaVersion should be bumped whenever entry flattening or the stored
// session JSON changes, to force a full re-index.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		// force re-index by resetting all session mtime/size to 0
		d.db.Exec("UPDATE sessions SET mtime = 0, size = 0")
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

// Path is the database file the DB was opened from.
func (d *DB) Path() string {
	return d.path
}

type SessionInfo struct {
	Mtime int64
	Size  int64
}

func (d *DB) GetSessionInfo(sessionKey string) (*SessionInfo, error) {
	var info SessionInfo
	err := d.db.QueryRow(
		"SELECT mtime, size FROM sessions WHERE session_key = ?",
		sessionKey,
	).Scan(&info.Mtime, &info.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) AllSessionKeys() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT session_key FROM sessions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteSession(sessionKey string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteSession(tx, sessionKey); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteSession(tx *sql.Tx, sessionKey string) error {
	if _, err := tx.Exec("DELETE FROM entries WHERE session_key = ?", sessionKey); err != nil {
		return err
	}
	_, err := tx.Exec("DELETE FROM sessions WHERE session_key = ?", sessionKey)
	return err
}

func (d *DB) SessionCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n)
	return n, err
}

func (d *DB) EntryCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&n)
	return n, err
}

// FTSCount is the number of rows in the full text index. It matches
// EntryCount while the triggers keep the two in sync.
func (d *DB) FTSCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM entries_fts").Scan(&n)
	return n, err
}

type SessionRow struct {
	SessionKey    string `json:"session_key"`
	FilePath      string `json:"file_path"`
	Name          string `json:"name"`
	FrameRate     string `json:"frame_rate"`
	SampleRate    string `json:"sample_rate"`
	BitDepth      string `json:"bit_depth"`
	StartTimecode string `json:"start_timecode"`
	TrackCount    int    `json:"track_count"`
	EventCount    int    `json:"event_count"`
	MarkerCount   int    `json:"marker_count"`
	Summary       string `json:"summary"`
	Mtime         int64  `json:"mtime"`
	Size          int64  `json:"size"`
}

// SessionColumns is the column list ScanSession expects, in order.
const SessionColumns = `session_key, file_path, name, frame_rate, sample_rate, bit_depth,
	start_timecode, track_count, event_count, marker_count, summary, mtime, size`

type scanner interface {
	Scan(dest ...any) error
}

// ScanSession reads one row selected with SessionColumns.
func ScanSession(row scanner) (SessionRow, error) {
	var s SessionRow
	err := row.Scan(&s.SessionKey, &s.FilePath, &s.Name, &s.FrameRate, &s.SampleRate, &s.BitDepth,
		&s.StartTimecode, &s.TrackCount, &s.EventCount, &s.MarkerCount, &s.Summary, &s.Mtime, &s.Size)
	return s, err
}

func (d *DB) GetSessionByKey(sessionKey string) (*SessionRow, error) {
	s, err := ScanSession(d.db.QueryRow(
		"SELECT "+SessionColumns+" FROM sessions WHERE session_key = ?",
		sessionKey,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSession decodes the stored session. It returns nil, nil for an
// unknown key.
func (d *DB) LoadSession(sessionKey string) (*edl.Session, error) {
	var data string
	err := d.db.QueryRow("SELECT data FROM sessions WHERE session_key = ?", sessionKey).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s edl.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionKey, err)
	}
	s.Rebind()
	return &s, nil
}

type EntryRow struct {
	SessionKey string `json:"session_key"`
	EntryID    int    `json:"entry_id"`
	Kind       string `json:"kind"`
	Label      string `json:"label"`
	Location   string `json:"location,omitempty"`
	Ticks      int64  `json:"ticks"`
	Text       string `json:"text"`
	LineNumber int    `json:"line_number"`
}

const entryColumns = "session_key, entry_id, kind, label, location, ticks, text, line_number"

func scanEntry(row scanner) (EntryRow, error) {
	var e EntryRow
	err := row.Scan(&e.SessionKey, &e.EntryID, &e.Kind, &e.Label, &e.Location, &e.Ticks, &e.Text, &e.LineNumber)
	return e, err
}

func (d *DB) GetEntries(sessionKey string) ([]EntryRow, error) {
	rows, err := d.db.Query(
		"SELECT "+entryColumns+" FROM entries WHERE session_key = ? ORDER BY entry_id",
		sessionKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []EntryRow
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetEntry returns one entry, or nil when it does not exist.
func (d *DB) GetEntry(sessionKey string, entryID int) (*EntryRow, error) {
	e, err := scanEntry(d.db.QueryRow(
		"SELECT "+entryColumns+" FROM entries WHERE session_key = ? AND entry_id = ?",
		sessionKey, entryID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
