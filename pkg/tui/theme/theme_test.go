package theme

import (
	"testing"

	"tableflip.dev/zeit/pkg/entry"
)

func TestProjectColorsContrast(t *testing.T) {
	if _, fg := ProjectColors("#ffff00"); fg != "#1a1a1a" {
		t.Fatalf("expected dark text on yellow, got %s", fg)
	}
	if _, fg := ProjectColors("#1e1e8c"); fg != "#ffffff" {
		t.Fatalf("expected light text on navy, got %s", fg)
	}
	if bg, _ := ProjectColors("not-a-color"); bg != entry.DefaultColor {
		t.Fatalf("expected default color fallback, got %s", bg)
	}
}
