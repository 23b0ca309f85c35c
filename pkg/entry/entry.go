// Package entry holds the client-side copies of the tracker's records:
// time entries, projects and weekly statistics.
package entry

import (
	"time"
)

// Entry is one recorded or in-progress block of tracked time.
type Entry struct {
	ID          int        `json:"id"`
	Project     string     `json:"project"`
	Description string     `json:"description,omitempty"`
	Start       Timestamp  `json:"start_time"`
	End         *Timestamp `json:"end_time"`
	Duration    float64    `json:"duration_minutes"`
	Running     bool       `json:"is_running"`
}

// IsRunning reports whether the entry is still accumulating time. An entry
// flagged running that already carries an end time counts as stopped.
func (e Entry) IsRunning() bool {
	return e.Running && (e.End == nil || e.End.IsZero())
}

// EndTime returns the end of the entry, or the zero time when running.
func (e Entry) EndTime() time.Time {
	if e.End == nil {
		return time.Time{}
	}
	return e.End.Time
}

// DurationHours is the stored duration in hours.
func (e Entry) DurationHours() float64 {
	return e.Duration / 60
}

// Span is the length a rescheduled entry keeps: the stored duration, or
// the recorded range when no duration was stored.
func (e Entry) Span() time.Duration {
	if e.Duration <= 0 && e.End != nil {
		return e.End.Sub(e.Start.Time)
	}
	return time.Duration(e.Duration * float64(time.Minute))
}

// Weekday returns the Monday-based weekday index of the entry start
// (0 = Monday, 6 = Sunday).
func (e Entry) Weekday() int {
	return WeekdayIndex(e.Start.Local())
}

// WeekdayIndex converts t's weekday into a Monday-based index.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Project is a named, colored bucket entries are attributed to.
type Project struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DefaultColor is used for new projects when none is chosen.
const DefaultColor = "#667eea"

// Catalog maps project names to projects for color lookups.
type Catalog map[string]Project

// NewCatalog indexes projects by name.
func NewCatalog(projects []Project) Catalog {
	c := make(Catalog, len(projects))
	for _, p := range projects {
		c[p.Name] = p
	}
	return c
}

// Color returns the project's color, or "" when the project is unknown.
func (c Catalog) Color(name string) string {
	if p, ok := c[name]; ok {
		return p.Color
	}
	return ""
}

// Stats summarises one calendar week.
type Stats struct {
	Year         int                `json:"year"`
	Week         int                `json:"week"`
	TotalHours   float64            `json:"total_hours"`
	TotalMinutes float64            `json:"total_minutes"`
	Projects     map[string]float64 `json:"projects"`
	StartDate    string             `json:"start_date,omitempty"`
	EndDate      string             `json:"end_date,omitempty"`
}

// Started is the server's reply to a timer start.
type Started struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// Stopped is the server's reply to a timer stop.
type Stopped struct {
	Message  string  `json:"message"`
	Duration float64 `json:"duration"`
}

// Saved is the server's reply to a manual create or an update.
type Saved struct {
	Message  string  `json:"message"`
	Duration float64 `json:"duration"`
}

// ProjectSaved is the server's reply to a project create or update.
type ProjectSaved struct {
	Message        string `json:"message"`
	ID             int    `json:"id"`
	UpdatedEntries int    `json:"updated_entries"`
}
