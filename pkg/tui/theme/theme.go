package theme

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/lucasb-eyer/go-colorful"

	"tableflip.dev/zeit/pkg/entry"
)

// Theme centralizes Lip Gloss styles for the Bubble Tea UI.
type Theme struct {
	Header   HeaderTheme
	Calendar CalendarTheme
	Panel    PanelTheme
	Footer   FooterTheme
	Modal    ModalTheme
}

// HeaderTheme styles the top line with week and timer.
type HeaderTheme struct {
	Title   lipgloss.Style
	Week    lipgloss.Style
	Running lipgloss.Style
	Idle    lipgloss.Style
	Online  lipgloss.Style
	Offline lipgloss.Style
}

// CalendarTheme styles the week grid.
type CalendarTheme struct {
	Gutter     lipgloss.Style
	DayHeader  lipgloss.Style
	DropTarget lipgloss.Style
	Today      lipgloss.Style
	Empty      lipgloss.Style
	HourLine   lipgloss.Style
	Indicator  lipgloss.Style
}

// PanelTheme styles the sidebar panels.
type PanelTheme struct {
	Title    lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
}

// FooterTheme styles the bottom status line.
type FooterTheme struct {
	Help    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Failure lipgloss.Style
}

// ModalTheme styles centered modal overlays such as the entry form.
type ModalTheme struct {
	Frame  lipgloss.Style
	Title  lipgloss.Style
	Label  lipgloss.Style
	Active lipgloss.Style
	Hint   lipgloss.Style
}

// Default returns the built-in theme used across the UI.
func Default() Theme {
	accent := lipgloss.Color(entry.DefaultColor)
	muted := lipgloss.Color("244")

	return Theme{
		Header: HeaderTheme{
			Title:   lipgloss.NewStyle().Foreground(accent).Bold(true),
			Week:    lipgloss.NewStyle().Bold(true),
			Running: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
			Idle:    lipgloss.NewStyle().Foreground(muted),
			Online:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
			Offline: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		},
		Calendar: CalendarTheme{
			Gutter:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
			DayHeader:  lipgloss.NewStyle().Bold(true),
			DropTarget: lipgloss.NewStyle().Bold(true).Reverse(true),
			Today:      lipgloss.NewStyle().Bold(true).Underline(true),
			Empty:      lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
			HourLine:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
			Indicator:  lipgloss.NewStyle().Background(accent).Foreground(lipgloss.Color("#ffffff")).Bold(true),
		},
		Panel: PanelTheme{
			Title:    lipgloss.NewStyle().Bold(true).Underline(true),
			Body:     lipgloss.NewStyle(),
			Muted:    lipgloss.NewStyle().Foreground(muted),
			Selected: lipgloss.NewStyle().Reverse(true),
		},
		Footer: FooterTheme{
			Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("28")).Padding(0, 1),
			Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Padding(0, 1),
			Failure: lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("160")).Padding(0, 1),
		},
		Modal: ModalTheme{
			Frame: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(accent).
				Padding(1, 2),
			Title:  lipgloss.NewStyle().Bold(true),
			Label:  lipgloss.NewStyle().Foreground(muted).Width(14),
			Active: lipgloss.NewStyle().Foreground(accent).Bold(true).Width(14),
			Hint:   lipgloss.NewStyle().Foreground(muted).Italic(true),
		},
	}
}

// Block returns the style of a calendar block for a project color.
func Block(hex string) lipgloss.Style {
	bg, fg := ProjectColors(hex)
	return lipgloss.NewStyle().Background(lipgloss.Color(bg)).Foreground(lipgloss.Color(fg))
}

// ProjectColors returns the normalized background and a readable
// foreground for a project color. Unparseable colors use the default.
func ProjectColors(hex string) (bg, fg string) {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(entry.DefaultColor)
	}
	l, _, _ := c.Lab()
	if l > 0.6 {
		return c.Hex(), "#1a1a1a"
	}
	return c.Hex(), "#ffffff"
}
