package teaui

import (
	"math"
	"time"

	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/timeline"
	"tableflip.dev/zeit/pkg/timeutil"
)

const (
	gutterWidth = 6
	// headerRows are the title line and the day header line above the
	// timeline.
	headerRows = 2
	footerRows = 1
	minRows    = 8
	minColumn  = 8
	// sidebarBreakpoint is the terminal width from which the sidebar is
	// shown next to the calendar.
	sidebarBreakpoint = 100
)

// grid maps terminal cells onto the week calendar. It implements
// drag.Geometry.
type grid struct {
	week     timeutil.Week
	left     int
	top      int
	colWidth int
	rows     int
	blocks   [timeutil.WorkDays][]timeline.Block
}

func newGrid(week timeutil.Week, width, height int) grid {
	calWidth := width
	if width >= sidebarBreakpoint {
		calWidth = width * 2 / 3
	}
	colWidth := (calWidth - gutterWidth) / timeutil.WorkDays
	if colWidth < minColumn {
		colWidth = minColumn
	}
	rows := height - headerRows - footerRows
	if rows < minRows {
		rows = minRows
	}
	return grid{
		week:     week,
		left:     gutterWidth,
		top:      headerRows,
		colWidth: colWidth,
		rows:     rows,
	}
}

// width is the rendered width of gutter and columns.
func (g grid) width() int {
	return g.left + g.colWidth*timeutil.WorkDays
}

func (g grid) DayAt(x, y int) int {
	if y < g.top || y >= g.top+g.rows || x < g.left || g.colWidth <= 0 {
		return -1
	}
	day := (x - g.left) / g.colWidth
	if day >= timeutil.WorkDays {
		return -1
	}
	return day
}

// ColumnY measures from the top of the timeline to the middle of row y.
func (g grid) ColumnY(y int) float64 {
	return float64(y-g.top) + 0.5
}

func (g grid) ColumnHeight() float64 {
	return float64(g.rows)
}

func (g grid) EntryAt(x, y int) (entry.Entry, bool) {
	day := g.DayAt(x, y)
	if day < 0 {
		return entry.Entry{}, false
	}
	pct := g.ColumnY(y) / g.ColumnHeight() * 100
	b, ok := timeline.Hit(g.blocks[day], pct)
	return b.Entry, ok
}

func (g grid) Date(day int) time.Time {
	return g.week.Day(day)
}

// rowSpan is the percentage range of the column covered by row r.
func (g grid) rowSpan(r int) (float64, float64) {
	h := g.ColumnHeight()
	return float64(r) / h * 100, float64(r+1) / h * 100
}

// blockAt returns the block drawn on row r of day. Overlapping blocks are
// resolved like timeline.Hit, the later start wins.
func (g grid) blockAt(day, r int) (timeline.Block, bool) {
	from, to := g.rowSpan(r)
	blocks := g.blocks[day]
	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Top < to && blocks[i].Bottom() > from {
			return blocks[i], true
		}
	}
	return timeline.Block{}, false
}

// firstRow is the row on which a block's label starts.
func (g grid) firstRow(b timeline.Block) int {
	return int(math.Floor(b.Top / 100 * g.ColumnHeight()))
}

// hourLabel returns the hour starting on row r, if any.
func (g grid) hourLabel(r int) (string, bool) {
	at := func(r int) float64 {
		return timeline.StartHour + float64(r)/g.ColumnHeight()*timeline.WindowHours
	}
	h := math.Ceil(at(r))
	if h >= at(r+1) || h > timeline.EndHour {
		return "", false
	}
	return timeline.FormatHour(h), true
}
