package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Enter):
		if r, ok := m.selected(); ok {
			m.chosen = &r
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, keys.Up):
		return m.moveCursor(m.cursor - 1)

	case key.Matches(msg, keys.Down):
		return m.moveCursor(m.cursor + 1)

	case key.Matches(msg, keys.Kind):
		m.searchOpts.Kind = nextKind(m.searchOpts.Kind)
		return m, m.refresh()

	case key.Matches(msg, keys.Scope):
		m.toggleScope()
		return m, m.refresh()

	case key.Matches(msg, keys.PreviewUp):
		m.preview.LineUp(m.layout().panelH / 2)
		return m, nil

	case key.Matches(msg, keys.PreviewDn):
		m.preview.LineDown(m.layout().panelH / 2)
		return m, nil

	case key.Matches(msg, keys.PageUp):
		m.preview.LineUp(m.layout().panelH)
		return m, nil

	case key.Matches(msg, keys.PageDown):
		m.preview.LineDown(m.layout().panelH)
		return m, nil
	}

	var cmds []tea.Cmd
	var tiCmd tea.Cmd
	m.filterInput, tiCmd = m.filterInput.Update(msg)
	cmds = append(cmds, tiCmd)

	if q := m.filterInput.Value(); q != m.query {
		m.query = q
		cmds = append(cmds, scheduleDebouncedSearch(q))
	}
	return m, tea.Batch(cmds...)
}

// toggleScope pins searches to the selected result's session, or unpins.
func (m *model) toggleScope() {
	if m.scope != "" {
		m.scope, m.scopeName = "", ""
		return
	}
	if r, ok := m.selected(); ok {
		m.scope, m.scopeName = r.SessionKey, r.Name
	}
}

func (m model) moveCursor(to int) (tea.Model, tea.Cmd) {
	if to < 0 || to >= len(m.results) || to == m.cursor {
		return m, nil
	}
	m.cursor = to
	m.adjustListScroll(m.layout().panelH)
	return m, m.loadCurrentPreview()
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready || len(m.results) == 0 {
		return m, nil
	}

	region, item := m.hitTest(msg.X, msg.Y)
	wheel := msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown

	switch {
	case region == regionList && msg.Button == tea.MouseButtonWheelUp:
		m.listOffset = max(m.listOffset-1, 0)
		return m, nil

	case region == regionList && msg.Button == tea.MouseButtonWheelDown:
		visible := m.layout().panelH / linesPerItem
		m.listOffset = min(m.listOffset+1, max(len(m.results)-visible, 0))
		return m, nil

	case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		return m.moveCursor(item)

	case region == regionPreview && wheel:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleResults(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if msg.query != m.query {
		return m, nil
	}
	m.cursor = 0
	m.listOffset = 0
	m.previewKey = ""
	if msg.err != nil {
		m.results = nil
		m.preview.SetContent("Error: " + msg.err.Error())
		return m, nil
	}
	m.results = msg.results
	if len(m.results) == 0 {
		m.preview.SetContent("")
		return m, nil
	}
	return m, m.loadCurrentPreview()
}

func (m model) handlePreview(msg previewRenderedMsg) model {
	cacheKey := previewCacheKey(msg.sessionKey, msg.entryID)
	if cacheKey == m.previewKey {
		return m
	}
	// drop renders for a selection the cursor has already left
	if r, ok := m.selected(); ok && previewCacheKey(r.SessionKey, r.EntryID) != cacheKey {
		return m
	}

	if msg.err != nil {
		m.preview.SetContent("Preview error: " + msg.err.Error())
	} else {
		m.preview.SetContent(msg.content)
		if msg.hitLine > 0 {
			// keep a little context above the hit
			m.preview.SetYOffset(max(msg.hitLine-2, 0))
		} else {
			m.preview.GotoTop()
		}
	}
	m.previewKey = cacheKey
	return m
}
