package timeutil

import (
	"fmt"
	"time"
)

// FormatClock renders an elapsed duration as HH:MM:SS. Negative durations
// render as 00:00:00.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// DateLayout and ClockLayout are the server's form field formats.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ParseDateClock combines a form date and clock into a local time.
func ParseDateClock(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time %q %q: %w", date, clock, err)
	}
	return t, nil
}
