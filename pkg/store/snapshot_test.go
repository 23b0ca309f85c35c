package store

import (
	"errors"
	"testing"
	"time"

	"tableflip.dev/zeit/pkg/entry"
)

func TestSnapshotRoundTrip(t *testing.T) {
	base := t.TempDir()
	s, err := Open(base, "http://localhost:8000")
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := s.LoadEntries(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty before the first save, got %v", err)
	}

	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local)
	entries := []entry.Entry{
		{ID: 1, Project: "Design", Start: entry.At(start), End: entry.Ptr(start.Add(time.Hour)), Duration: 60},
		{ID: 2, Project: "Ops", Start: entry.At(start.Add(2 * time.Hour)), Running: true},
	}
	if err := s.SaveEntries(entries); err != nil {
		t.Fatalf("save entries: %v", err)
	}
	if err := s.SaveProjects([]entry.Project{{ID: 1, Name: "Design", Color: "#667eea"}}); err != nil {
		t.Fatalf("save projects: %v", err)
	}

	// A fresh handle reads from disk rather than the in-memory cache.
	again, err := Open(base, "http://localhost:8000")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := again.LoadEntries()
	if err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(got) != 2 || got[0].Duration != 60 || !got[0].Start.Equal(start) {
		t.Fatalf("unexpected entries %+v", got)
	}
	if !got[1].IsRunning() {
		t.Fatalf("expected second entry running")
	}
	projects, err := again.LoadProjects()
	if err != nil || len(projects) != 1 || projects[0].Color != "#667eea" {
		t.Fatalf("unexpected projects %+v %v", projects, err)
	}
	if at, err := again.SavedAt(); err != nil || at.IsZero() {
		t.Fatalf("expected save time, got %v %v", at, err)
	}
}

func TestSnapshotPerServer(t *testing.T) {
	base := t.TempDir()
	a, _ := Open(base, "http://a:8000")
	b, _ := Open(base, "https://b.example.com")
	if err := a.SaveProjects([]entry.Project{{ID: 1, Name: "A"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := b.LoadProjects(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("servers must not share snapshots, got %v", err)
	}
	if err := a.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := a.LoadProjects(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected cleared snapshot, got %v", err)
	}
}
