package entry

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUnmarshalServerEntry(t *testing.T) {
	raw := `{"id":7,"project":"Design","description":"mockups","start_time":"2024-06-03T09:00:00.123456","end_time":null,"duration_minutes":null,"is_running":true}`
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != 7 || e.Project != "Design" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.End != nil {
		t.Fatalf("expected nil end, got %v", e.End)
	}
	if !e.IsRunning() {
		t.Fatalf("expected running entry")
	}
	if e.Start.Hour() != 9 || e.Start.Minute() != 0 {
		t.Fatalf("expected 09:00 local, got %v", e.Start)
	}
}

func TestRunningFlagWithEndIsStopped(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local)
	e := Entry{Running: true, Start: At(start), End: Ptr(start.Add(time.Hour)), Duration: 60}
	if e.IsRunning() {
		t.Fatalf("expected entry with end time to count as stopped")
	}
	if got := DurationLabel(e); got != "60 Min" {
		t.Fatalf("expected 60 Min, got %q", got)
	}
}

func TestDurationLabel(t *testing.T) {
	if got := DurationLabel(Entry{Running: true}); got != RunningLabel {
		t.Fatalf("expected %q, got %q", RunningLabel, got)
	}
	if got := DurationLabel(Entry{Duration: 44.6, End: Ptr(time.Now())}); got != "45 Min" {
		t.Fatalf("expected 45 Min, got %q", got)
	}
	if got := DurationLabel(Entry{End: Ptr(time.Now())}); got != "0 Min" {
		t.Fatalf("expected 0 Min, got %q", got)
	}
}

func TestSpanPrefersStoredDuration(t *testing.T) {
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local)
	e := Entry{Start: At(start), End: Ptr(start.Add(90 * time.Minute)), Duration: 60}
	if got := e.Span(); got != time.Hour {
		t.Fatalf("expected 1h, got %v", got)
	}
	e.Duration = 0
	if got := e.Span(); got != 90*time.Minute {
		t.Fatalf("expected 1h30m, got %v", got)
	}
}

func TestSortForListRunningFirst(t *testing.T) {
	base := time.Date(2024, 6, 3, 8, 0, 0, 0, time.Local)
	entries := []Entry{
		{ID: 1, Start: At(base.Add(2 * time.Hour)), End: Ptr(base.Add(3 * time.Hour))},
		{ID: 2, Start: At(base.Add(5 * time.Hour)), Running: true},
		{ID: 3, Start: At(base), End: Ptr(base.Add(time.Hour))},
	}
	SortForList(entries)
	want := []int{2, 3, 1}
	for i, id := range want {
		if entries[i].ID != id {
			t.Fatalf("position %d: expected id %d, got %d", i, id, entries[i].ID)
		}
	}
}

func TestFilterWeekday(t *testing.T) {
	monday := time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local)
	entries := []Entry{
		{ID: 1, Start: At(monday)},
		{ID: 2, Start: At(monday.AddDate(0, 0, 1))},
		{ID: 3, Start: At(monday.AddDate(0, 0, 6))},
	}
	if got := FilterWeekday(entries, 0); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected only monday entry, got %+v", got)
	}
	if got := FilterWeekday(entries, 6); len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("expected only sunday entry, got %+v", got)
	}
	if got := FilterWeekday(entries, -1); len(got) != 3 {
		t.Fatalf("expected all entries, got %d", len(got))
	}
}

func TestShortName(t *testing.T) {
	if got := ShortName("Design"); got != "Design" {
		t.Fatalf("expected Design, got %q", got)
	}
	if got := ShortName("Marketing"); got != "Market..." {
		t.Fatalf("expected Market..., got %q", got)
	}
}

func TestCatalogColor(t *testing.T) {
	c := NewCatalog([]Project{{ID: 1, Name: "Design", Color: "#ff0000"}})
	if got := c.Color("Design"); got != "#ff0000" {
		t.Fatalf("expected #ff0000, got %q", got)
	}
	if got := c.Color("Other"); got != "" {
		t.Fatalf("expected empty color, got %q", got)
	}
}
