package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorSecondary = lipgloss.Color("10")  // bright green
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorBorder    = lipgloss.Color("238") // dark gray
	colorMarker    = lipgloss.Color("13")  // bright magenta
	colorMedia     = lipgloss.Color("14")  // bright cyan

	// Input area
	styleInput = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	// List items
	styleListSelected = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Bold(true)

	styleListKind = lipgloss.NewStyle().
			Width(7)

	// Panels
	stylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder)

	styleActiveBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	// Status bar
	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)
)

// kindColors colors the kind column of the result list.
var kindColors = map[string]lipgloss.Color{
	"session": colorHighlight,
	"track":   colorPrimary,
	"event":   colorSecondary,
	"marker":  colorMarker,
	"clip":    colorMedia,
	"file":    colorMedia,
	"plugin":  colorDim,
}

func kindStyle(kind string) lipgloss.Style {
	style := styleListKind
	if c, ok := kindColors[kind]; ok {
		style = style.Foreground(c)
	}
	return style
}
