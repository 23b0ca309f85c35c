// Package timeutil holds the calendar-week selector and clock formatting
// shared by the CLI and the TUI.
package timeutil

import (
	"fmt"
	"time"
)

// WeeksPerYear is the rollover point used for week navigation. ISO years
// with 53 weeks are not modelled; week 53 is only reachable through Current.
const WeeksPerYear = 52

// WorkDays is the number of calendar columns (Monday to Friday).
const WorkDays = 5

// DayNames are the short column labels, Monday first.
var DayNames = [...]string{"Mo", "Di", "Mi", "Do", "Fr", "Sa", "So"}

// Week identifies the visible calendar range.
type Week struct {
	Year   int
	Number int
}

// Current returns the ISO week containing now.
func Current(now time.Time) Week {
	y, w := now.ISOWeek()
	return Week{Year: y, Number: w}
}

// Next moves one week forward, rolling from week 52 into week 1 of the
// following year.
func (w Week) Next() Week {
	w.Number++
	if w.Number > WeeksPerYear {
		w.Year++
		w.Number = 1
	}
	return w
}

// Prev moves one week back, rolling from week 1 into week 52 of the
// previous year.
func (w Week) Prev() Week {
	w.Number--
	if w.Number < 1 {
		w.Year--
		w.Number = WeeksPerYear
	}
	return w
}

// Shift moves by delta weeks using the same rollover rules.
func (w Week) Shift(delta int) Week {
	for ; delta > 0; delta-- {
		w = w.Next()
	}
	for ; delta < 0; delta++ {
		w = w.Prev()
	}
	return w
}

// Monday returns local midnight of the week's Monday. Week 1 is the week
// holding January 4th.
func (w Week) Monday() time.Time {
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.Local)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset+(w.Number-1)*7)
}

// Day returns local midnight of the i-th day of the week (0 = Monday).
func (w Week) Day(i int) time.Time {
	return w.Monday().AddDate(0, 0, i)
}

// Contains reports whether t falls inside the week.
func (w Week) Contains(t time.Time) bool {
	start := w.Monday()
	end := start.AddDate(0, 0, 7)
	t = t.In(time.Local)
	return !t.Before(start) && t.Before(end)
}

// Range returns the dates of Monday and Sunday.
func (w Week) Range() (time.Time, time.Time) {
	start := w.Monday()
	return start, start.AddDate(0, 0, 6)
}

// Label renders the week for headers, e.g. "KW 23 / 2024".
func (w Week) Label() string {
	return fmt.Sprintf("KW %d / %d", w.Number, w.Year)
}

// FileName is the suggested name of the week's CSV export.
func (w Week) FileName() string {
	return fmt.Sprintf("zeiterfassung_KW%d_%d.csv", w.Number, w.Year)
}

func (w Week) String() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Number)
}

// ParseWeek reads "2024-W23" or "2024-23".
func ParseWeek(v string) (Week, error) {
	var w Week
	if _, err := fmt.Sscanf(v, "%d-W%d", &w.Year, &w.Number); err != nil {
		if _, err := fmt.Sscanf(v, "%d-%d", &w.Year, &w.Number); err != nil {
			return Week{}, fmt.Errorf("invalid week %q, expected YYYY-Www", v)
		}
	}
	if w.Number < 1 || w.Number > 53 {
		return Week{}, fmt.Errorf("invalid week number %d", w.Number)
	}
	return w, nil
}
