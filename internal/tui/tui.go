// Package tui is the interactive browser behind "edls search" and
// "edls list": a result list on the left, the rendered session on the right.
package tui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/edl-session-search/internal/index"
	"github.com/Zuo-Peng/edl-session-search/internal/parse"
	"github.com/Zuo-Peng/edl-session-search/internal/search"
)

const debounceDelay = 200 * time.Millisecond

type tuiMode int

const (
	modeSearch tuiMode = iota
	modeList
)

type searchResultMsg struct {
	query   string
	results []search.Result
	err     error
}

type debounceTickMsg struct {
	query string
}

type model struct {
	db         *index.DB
	searchOpts search.Options
	mode       tuiMode
	query      string

	results    []search.Result
	cursor     int
	listOffset int

	// scope, when set, restricts searches to one session key
	scope     string
	scopeName string

	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string // "sessionKey:entryID" of the preview on screen

	width  int
	height int
	ready  bool

	quitting bool
	chosen   *search.Result
}

func newModel(db *index.DB, mode tuiMode, query string, opts search.Options) model {
	ti := textinput.New()
	ti.Placeholder = "Search markers, clips, tracks..."
	if mode == modeList {
		ti.Placeholder = "Filter..."
	}
	ti.Focus()
	ti.SetValue(query)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		db:          db,
		searchOpts:  opts,
		mode:        mode,
		query:       query,
		filterInput: ti,
		preview:     viewport.New(0, 0),
	}
}

// Run starts the search TUI and blocks until it exits. Enter copies the
// chosen hit's location to the clipboard.
func Run(db *index.DB, query string, opts search.Options) error {
	return run(db, newModel(db, modeSearch, query, opts))
}

// RunList starts the TUI on the session list, most recently modified first.
// Typing switches to searching inside the sessions.
func RunList(db *index.DB, opts search.Options) error {
	return run(db, newModel(db, modeList, "", opts))
}

func run(db *index.DB, m model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if fm := final.(model); fm.chosen != nil {
		return copyLocation(db, *fm.chosen)
	}
	return nil
}

// copyLocation copies "path:line @ timecode" for the chosen result, or
// prints it when no clipboard is available.
func copyLocation(db *index.DB, r search.Result) error {
	session, err := db.GetSessionByKey(r.SessionKey)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("session not found: %s", r.SessionKey)
	}

	text := locationText(session.FilePath, r)
	if err := clipboard.WriteAll(text); err != nil {
		fmt.Println(text)
		return nil
	}
	fmt.Printf("Copied to clipboard: %s\n", text)
	return nil
}

func locationText(filePath string, r search.Result) string {
	text := filePath
	if r.LineNumber > 0 {
		text = fmt.Sprintf("%s:%d", filePath, r.LineNumber)
	}
	if r.Location != "" {
		text += " @ " + r.Location
	}
	return text
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.mode == modeList || m.query != "" {
		cmds = append(cmds, m.refresh())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		lay := m.layout()
		m.preview = newViewport(lay.previewW, lay.panelH)
		m.previewKey = ""
		return m, m.loadCurrentPreview()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case debounceTickMsg:
		// stale ticks are dropped: the query moved on
		if msg.query != m.query {
			return m, nil
		}
		return m, m.refresh()

	case searchResultMsg:
		return m.handleResults(msg)

	case previewRenderedMsg:
		return m.handlePreview(msg), nil
	}
	return m, nil
}

func (m model) selected() (search.Result, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return search.Result{}, false
	}
	return m.results[m.cursor], true
}

// refresh re-runs the current query: the session list when in list mode
// with an empty filter, a search otherwise.
func (m model) refresh() tea.Cmd {
	db := m.db
	query := m.query
	opts := m.searchOpts
	opts.Query = query
	if m.scope != "" {
		opts.Session = m.scope
	}
	listAll := m.mode == modeList && query == ""

	return func() tea.Msg {
		switch {
		case listAll:
			results, err := search.ListAll(db, opts)
			return searchResultMsg{query: query, results: results, err: err}
		case query == "":
			return searchResultMsg{query: query}
		}
		results, err := search.Search(db, opts)
		return searchResultMsg{query: query, results: results, err: err}
	}
}

func scheduleDebouncedSearch(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

func (m model) loadCurrentPreview() tea.Cmd {
	r, ok := m.selected()
	if !ok {
		return nil
	}
	if previewCacheKey(r.SessionKey, r.EntryID) == m.previewKey {
		return nil
	}
	return loadPreviewCmd(m.db, r, m.query, m.layout().previewW)
}

func previewCacheKey(sessionKey string, entryID int) string {
	return fmt.Sprintf("%s:%d", sessionKey, entryID)
}

// nextKind cycles the kind filter: all, then each entry kind in turn.
func nextKind(kind string) string {
	if kind == "" {
		return parse.Kinds[0]
	}
	for i, k := range parse.Kinds {
		if k == kind && i+1 < len(parse.Kinds) {
			return parse.Kinds[i+1]
		}
	}
	return ""
}
