// Package timeline maps entry times onto the fixed 6:00-22:00 day column
// and back. Offsets are percentages of the column height.
package timeline

import (
	"fmt"
	"math"
	"sort"
	"time"

	"tableflip.dev/zeit/pkg/entry"
)

const (
	// StartHour is the top of every day column.
	StartHour = 6.0
	// EndHour is the bottom of every day column.
	EndHour = 22.0
	// WindowHours is the vertical scale: 17 hour slots labelled 6:00
	// through 22:00.
	WindowHours = 17.0
	// MinHeight keeps short entries visible and clickable.
	MinHeight = 2.0
	// LatestCreateStart bounds long-press creation so the default one hour
	// entry still fits a quarter before the end of the window.
	LatestCreateStart = 21.75
)

// Clamp limits h to [StartHour, EndHour].
func Clamp(h float64) float64 {
	return math.Max(StartHour, math.Min(EndHour, h))
}

// TimeToOffset maps a clock hour to a percentage of the column height.
func TimeToOffset(h float64) float64 {
	return (Clamp(h) - StartHour) / WindowHours * 100
}

// RoundQuarter rounds an hour value to the nearest quarter hour, halves
// away from zero.
func RoundQuarter(h float64) float64 {
	return math.Round(h*60/15) * 15 / 60
}

// OffsetToTime maps a vertical position inside a column of the given height
// to a clock hour rounded to the quarter hour.
func OffsetToTime(y, height float64) float64 {
	if height <= 0 {
		return StartHour
	}
	return RoundQuarter(StartHour + y/height*WindowHours)
}

// DropStart is the start hour of an entry of durationHours dropped at y. The
// result keeps the whole entry inside the window.
func DropStart(y, height, durationHours float64) float64 {
	return FitStart(OffsetToTime(y, height), durationHours)
}

// FitStart rounds h to the quarter hour and pulls it back so an entry of
// durationHours stays inside the window.
func FitStart(h, durationHours float64) float64 {
	return math.Max(StartHour, math.Min(EndHour-durationHours, RoundQuarter(h)))
}

// CreateRange is the default one hour range for an entry created by
// long-pressing at y.
func CreateRange(y, height float64) (float64, float64) {
	start := math.Max(StartHour, math.Min(LatestCreateStart, OffsetToTime(y, height)))
	return start, math.Min(EndHour, start+1)
}

// HourOf returns t's local clock time as fractional hours.
func HourOf(t time.Time) float64 {
	t = t.Local()
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// At returns day's date at clock hour h in the local zone.
func At(day time.Time, h float64) time.Time {
	day = day.Local()
	minutes := int(math.Round(h * 60))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minutes, 0, 0, time.Local)
}

// FormatHour renders an hour value as "HH:MM".
func FormatHour(h float64) string {
	minutes := int(math.Round(h * 60))
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatRange renders "HH:MM - HH:MM".
func FormatRange(start, end float64) string {
	return FormatHour(start) + " - " + FormatHour(end)
}

// Block is an entry's position within a day column.
type Block struct {
	Entry  entry.Entry
	Top    float64
	Height float64
}

// Bottom is Top + Height.
func (b Block) Bottom() float64 {
	return b.Top + b.Height
}

// Layout positions one day's entries. Running entries and entries that lie
// completely outside the window are skipped. Display values are clamped to
// the window; the entries themselves are not modified.
func Layout(entries []entry.Entry) []Block {
	sorted := make([]entry.Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsRunning() || e.End == nil {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start.Time)
	})

	blocks := make([]Block, 0, len(sorted))
	for _, e := range sorted {
		start, end := HourOf(e.Start.Time), HourOf(e.End.Time)
		if !e.Start.SameDay(e.End.Time) {
			end = EndHour
		}
		instant := start == end && start >= StartHour && start <= EndHour
		if Clamp(end) <= Clamp(start) && !instant {
			continue
		}
		top := TimeToOffset(start)
		height := math.Max(TimeToOffset(end)-top, MinHeight)
		if top+height > 100 {
			top = 100 - height
		}
		blocks = append(blocks, Block{Entry: e, Top: top, Height: height})
	}
	return blocks
}

// Hit returns the block covering offset y (a percentage), preferring the
// block that starts last when blocks overlap.
func Hit(blocks []Block, y float64) (Block, bool) {
	for i := len(blocks) - 1; i >= 0; i-- {
		if y >= blocks[i].Top && y < blocks[i].Bottom() {
			return blocks[i], true
		}
	}
	return Block{}, false
}
