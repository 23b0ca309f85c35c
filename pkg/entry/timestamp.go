package entry

import (
	"encoding/json"
	"fmt"
	"time"
)

// The server writes naive local timestamps (Python isoformat), optionally
// with microseconds. RFC 3339 is accepted as well.
var layouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339Nano,
}

// ParseTime parses a server timestamp. Zone-less values are read in the
// local zone.
func ParseTime(v string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("entry: unrecognized timestamp %q", v)
}

// Timestamp is a time that round trips through the server's JSON format.
type Timestamp struct {
	time.Time
}

// At wraps t.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// Ptr wraps t and returns a pointer, handy for optional end times.
func Ptr(t time.Time) *Timestamp {
	ts := At(t)
	return &ts
}

func (t Timestamp) SameDay(then time.Time) bool {
	a, b := t.Local(), then.Local()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(fmt.Sprintf("%q", t.Local().Format("2006-01-02T15:04:05"))), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var timestamp string
	if err := json.Unmarshal(b, &timestamp); err != nil {
		return err
	}
	if timestamp == "" {
		t.Time = time.Time{}
		return nil
	}
	var err error
	t.Time, err = ParseTime(timestamp)
	return err
}

func (t Timestamp) String() string {
	return t.Local().Format("02.01.2006 15:04")
}
