package mcp

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"tableflip.dev/zeit/pkg/api"
	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/timeutil"
)

// memoryBackend keeps entries in process and applies updates like the server.
type memoryBackend struct {
	entries  []entry.Entry
	projects []entry.Project
	started  []string
}

func (m *memoryBackend) Projects(context.Context) ([]entry.Project, error) {
	return m.projects, nil
}

func (m *memoryBackend) CreateProject(context.Context, string, string) (entry.ProjectSaved, error) {
	return entry.ProjectSaved{}, errors.New("not implemented")
}

func (m *memoryBackend) UpdateProject(context.Context, int, string, string) (entry.ProjectSaved, error) {
	return entry.ProjectSaved{}, errors.New("not implemented")
}

func (m *memoryBackend) DeleteProject(context.Context, int) error { return errors.New("not implemented") }

func (m *memoryBackend) Entries(context.Context) ([]entry.Entry, error) {
	return append([]entry.Entry(nil), m.entries...), nil
}

func (m *memoryBackend) Start(_ context.Context, project, description string) (entry.Started, error) {
	m.started = append(m.started, project)
	id := len(m.entries) + 1
	m.entries = append(m.entries, entry.Entry{ID: id, Project: project, Description: description, Start: entry.At(time.Now()), Running: true})
	return entry.Started{Message: "Timer gestartet", ID: id}, nil
}

func (m *memoryBackend) Stop(context.Context) (entry.Stopped, error) {
	return entry.Stopped{}, &api.Error{Status: 404, Detail: "Kein laufender Timer gefunden"}
}

func (m *memoryBackend) CreateEntry(context.Context, api.EntryForm) (entry.Saved, error) {
	return entry.Saved{}, errors.New("not implemented")
}

func (m *memoryBackend) UpdateEntry(_ context.Context, id int, form api.EntryForm) (entry.Saved, error) {
	start, err := timeutil.ParseDateClock(form.Date, form.StartTime)
	if err != nil {
		return entry.Saved{}, err
	}
	end, err := timeutil.ParseDateClock(form.Date, form.EndTime)
	if err != nil {
		return entry.Saved{}, err
	}
	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries[i].Project = form.Project
			m.entries[i].Start = entry.At(start)
			m.entries[i].End = entry.Ptr(end)
			m.entries[i].Duration = end.Sub(start).Minutes()
			return entry.Saved{Duration: m.entries[i].Duration}, nil
		}
	}
	return entry.Saved{}, &api.Error{Status: 404, Detail: "Eintrag nicht gefunden"}
}

func (m *memoryBackend) DeleteEntry(context.Context, int) error { return errors.New("not implemented") }

func (m *memoryBackend) WeekStats(_ context.Context, year, week int) (entry.Stats, error) {
	return entry.Stats{Year: year, Week: week, TotalHours: 1.5, TotalMinutes: 90, Projects: map[string]float64{"Design": 90}}, nil
}

func (m *memoryBackend) ExportCSV(context.Context, string, string, io.Writer) (int64, error) {
	return 0, nil
}

var monday9 = time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local)

func newTestService(backend *memoryBackend) *Service {
	log := logrus.New()
	log.Out = io.Discard
	return NewService(app.NewService(backend, nil, log))
}

func designEntry() entry.Entry {
	return entry.Entry{ID: 7, Project: "Design", Description: "Mockups", Start: entry.At(monday9), End: entry.Ptr(monday9.Add(90 * time.Minute)), Duration: 90}
}

func TestServiceListEntriesByDay(t *testing.T) {
	backend := &memoryBackend{entries: []entry.Entry{designEntry()}}
	svc := newTestService(backend)
	w := timeutil.Week{Year: 2024, Number: 23}

	all, err := svc.ListEntries(context.Background(), w, -1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].Duration != "90 Min" || all[0].Weekday != "Mo" {
		t.Fatalf("unexpected entries %+v", all)
	}

	tuesday, err := svc.ListEntries(context.Background(), w, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tuesday) != 0 {
		t.Fatalf("expected no entries on tuesday, got %d", len(tuesday))
	}
}

func TestServiceMoveEntryKeepsDuration(t *testing.T) {
	backend := &memoryBackend{entries: []entry.Entry{designEntry()}}
	svc := newTestService(backend)

	dto, err := svc.MoveEntry(context.Background(), 7, "2024-06-06", "13:05")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	moved := backend.entries[0]
	if got := moved.Start.Format("2006-01-02 15:04"); got != "2024-06-06 13:00" {
		t.Fatalf("expected quarter rounded start on thursday, got %s", got)
	}
	if moved.Duration != 90 {
		t.Fatalf("expected 90 minutes kept, got %v", moved.Duration)
	}
	if dto.Project != "Design" || dto.Weekday != "Do" {
		t.Fatalf("unexpected dto %+v", dto)
	}
}

func TestServiceMoveEntryClampsToWindow(t *testing.T) {
	backend := &memoryBackend{entries: []entry.Entry{designEntry()}}
	svc := newTestService(backend)

	if _, err := svc.MoveEntry(context.Background(), 7, "2024-06-04", "21:45"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := backend.entries[0].EndTime().Format("15:04"); got != "22:00" {
		t.Fatalf("expected end clamped to 22:00, got %s", got)
	}
}

func TestServiceMoveEntryUsesStoredDuration(t *testing.T) {
	e := designEntry()
	e.Duration = 60
	backend := &memoryBackend{entries: []entry.Entry{e}}
	svc := newTestService(backend)

	if _, err := svc.MoveEntry(context.Background(), 7, "2024-06-04", "21:45"); err != nil {
		t.Fatalf("move: %v", err)
	}
	moved := backend.entries[0]
	if got := moved.Start.Format("15:04"); got != "21:00" {
		t.Fatalf("expected start 21:00 for a one hour entry, got %s", got)
	}
	if moved.Duration != 60 {
		t.Fatalf("expected 60 minutes kept, got %v", moved.Duration)
	}
}

func TestServiceMoveEntryUnknown(t *testing.T) {
	svc := newTestService(&memoryBackend{})
	if _, err := svc.MoveEntry(context.Background(), 99, "2024-06-04", "10:00"); err == nil {
		t.Fatalf("expected error for unknown entry")
	}
}

func TestServiceStartAndStop(t *testing.T) {
	backend := &memoryBackend{}
	svc := newTestService(backend)

	dto, err := svc.StartTimer(context.Background(), "Ops", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if dto.Running == nil || dto.Running.Project != "Ops" || dto.Message != "Timer gestartet" {
		t.Fatalf("unexpected timer %+v", dto)
	}

	if _, err := svc.StartTimer(context.Background(), "  ", ""); err == nil || err.Error() != "Bitte Projekt auswählen" {
		t.Fatalf("expected validation message, got %v", err)
	}

	_, err = svc.StopTimer(context.Background())
	if err == nil || err.Error() != "Kein laufender Timer gefunden" {
		t.Fatalf("expected server detail, got %v", err)
	}
}

func TestServiceWeek(t *testing.T) {
	backend := &memoryBackend{entries: []entry.Entry{designEntry()}}
	svc := newTestService(backend)

	dto, err := svc.Week(context.Background(), timeutil.Week{Year: 2024, Number: 23}, true)
	if err != nil {
		t.Fatalf("week: %v", err)
	}
	if dto.Label != "KW 23 / 2024" || dto.StartDate != "2024-06-03" || dto.EndDate != "2024-06-09" {
		t.Fatalf("unexpected week header %+v", dto)
	}
	if dto.Days["Mo"] != 90 || dto.Projects["Design"] != 90 || len(dto.Entries) != 1 {
		t.Fatalf("unexpected totals %+v", dto)
	}
}

func TestWeekFromArguments(t *testing.T) {
	w, err := weekFromArguments(map[string]any{"year": "2024", "week": []string{"23"}})
	if err != nil || w != (timeutil.Week{Year: 2024, Number: 23}) {
		t.Fatalf("unexpected week %v %v", w, err)
	}
	if _, err := weekFromArguments(map[string]any{"year": "2024", "week": "60"}); err == nil {
		t.Fatalf("expected error for week 60")
	}
	if d, err := dayArg("Fr"); err != nil || d != 4 {
		t.Fatalf("expected friday index 4, got %d %v", d, err)
	}
}
