package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// layout holds the panel sizes for the current terminal size. Widths and
// heights are of panel content, inside the borders.
type layout struct {
	listW    int
	previewW int
	panelH   int
}

const (
	listPercent = 40
	minPanelW   = 20
	minPanelH   = 5
	// input row, status bar and the top and bottom borders of both rows
	chromeRows = 6
)

func (m model) layout() layout {
	if m.width <= 0 || m.height <= 0 {
		return layout{listW: 40, previewW: 60, panelH: 20}
	}
	return layout{
		listW:    max(m.width*listPercent/100-4, minPanelW),
		previewW: max(m.width*(100-listPercent)/100-4, minPanelW),
		panelH:   max(m.height-chromeRows, minPanelH),
	}
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}
	lay := m.layout()

	listPanel := stylePanelBorder.
		Width(lay.listW).
		Height(lay.panelH).
		Render(m.renderList(lay.listW, lay.panelH))

	m.preview.Width = lay.previewW
	m.preview.Height = lay.panelH
	previewPanel := styleActiveBorder.
		Width(lay.previewW).
		Height(lay.panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)
	return lipgloss.JoinVertical(lipgloss.Left, m.filterInput.View(), panels, m.statusBar())
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	lay := m.layout()
	top := 2 // input row, then the panel's top border
	if y < top || y >= top+lay.panelH {
		return regionNone, -1
	}

	// col 0 is the list's left border, content runs 1..listW
	switch {
	case x >= 1 && x <= lay.listW:
		return regionList, m.listOffset + (y-top)/linesPerItem
	case x > lay.listW+2:
		return regionPreview, -1
	}
	return regionNone, -1
}

func (m model) statusBar() string {
	parts := []string{fmt.Sprintf("%d results", len(m.results))}

	kind := m.searchOpts.Kind
	if kind == "" {
		kind = "all"
	}
	parts = append(parts, "Tab kind: "+kind)
	if m.scope != "" {
		parts = append(parts, "C-s in: "+m.scopeName)
	} else {
		parts = append(parts, "C-s this session")
	}
	parts = append(parts, "up/dn C-u/C-d", "Enter copy location", "Esc quit")
	return styleStatusBar.Render(strings.Join(parts, " | "))
}
