package entry

import (
	"fmt"
	"math"
	"sort"
)

// RunningLabel is shown instead of a duration while an entry runs.
const RunningLabel = "Läuft..."

// DurationLabel renders an entry's duration for lists.
func DurationLabel(e Entry) string {
	if e.IsRunning() {
		return RunningLabel
	}
	return MinutesLabel(e.Duration)
}

// MinutesLabel renders minutes as "N Min".
func MinutesLabel(minutes float64) string {
	return fmt.Sprintf("%d Min", int(math.Round(minutes)))
}

// HoursLabel renders minutes as hours with one decimal, e.g. "1.5h".
func HoursLabel(minutes float64) string {
	return fmt.Sprintf("%.1fh", minutes/60)
}

// ShortName trims project names for narrow calendar blocks.
func ShortName(project string) string {
	r := []rune(project)
	if len(r) > 6 {
		return string(r[:6]) + "..."
	}
	return project
}

// SortForList orders entries running first, then by ascending start.
func SortForList(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := entries[i].IsRunning(), entries[j].IsRunning()
		if ri != rj {
			return ri
		}
		return entries[i].Start.Before(entries[j].Start.Time)
	})
}

// FilterWeekday keeps entries starting on the Monday-based weekday day.
// A negative day keeps every entry. The input is not modified.
func FilterWeekday(entries []Entry, day int) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if day < 0 || e.Weekday() == day {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the entry with the given id.
func Find(entries []Entry, id int) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// FindRunning returns the first running entry.
func FindRunning(entries []Entry) (Entry, bool) {
	for _, e := range entries {
		if e.IsRunning() {
			return e, true
		}
	}
	return Entry{}, false
}
