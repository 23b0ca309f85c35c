package printers

import (
	"github.com/muesli/termenv"

	"tableflip.dev/zeit/pkg/tui/theme"
)

// Swatch paints text on a project color with a readable foreground.
type Swatch struct {
	Profile termenv.Profile
}

// NewSwatch uses the color profile of the environment, honoring NO_COLOR.
func NewSwatch() *Swatch {
	return &Swatch{Profile: termenv.EnvColorProfile()}
}

// Paint renders text on the background hex.
func (s *Swatch) Paint(text, hex string) string {
	if s.Profile == termenv.Ascii {
		return text
	}
	bg, fg := theme.ProjectColors(hex)
	return termenv.String(" " + text + " ").
		Background(s.Profile.Color(bg)).
		Foreground(s.Profile.Color(fg)).
		String()
}
