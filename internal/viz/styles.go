package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

type styles struct {
	panel  lipgloss.Style
	header lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
}

func stylesFor(t Theme) styles {
	return styles{
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(40),
		header: lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		graph:  lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		ok:     lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		warn:   lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		bad:    lipgloss.NewStyle().Foreground(t.Error).Bold(true),
	}
}

// ProgressBar renders a bar width cells wide, percent clamped to [0, 1].
func (s styles) ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case percent > 0.8:
		return s.ok.Render(bar)
	case percent > 0.4:
		return s.warn.Render(bar)
	}
	return s.bad.Render(bar)
}
