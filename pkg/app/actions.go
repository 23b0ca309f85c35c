package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"tableflip.dev/zeit/pkg/api"
	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/timeutil"
)

// Level of a notice.
type Level int

const (
	Success Level = iota
	Failure
	// Warning is shown only while no other notice is visible.
	Warning
)

// Reload is a set of cache slices to refetch.
type Reload int

const (
	ReloadEntries Reload = 1 << iota
	ReloadProjects
	ReloadStats

	// ReloadWeek refetches everything the calendar shows.
	ReloadWeek = ReloadEntries | ReloadProjects | ReloadStats
)

// Has reports whether r includes every slice of o.
func (r Reload) Has(o Reload) bool { return r&o == o }

// Notice is a short message for the user and the slices to refetch after
// the action that produced it.
type Notice struct {
	Level  Level
	Text   string
	Reload Reload
}

// IsZero reports an empty notice.
func (n Notice) IsZero() bool { return n.Text == "" }

func ok(text string, reload Reload) Notice {
	return Notice{Level: Success, Text: text, Reload: reload}
}

// failure turns err into a notice. Server replies are shown verbatim;
// anything else gets the generic message for the action.
func failure(err error, generic string) (Notice, error) {
	var apiErr *api.Error
	var verr validationError
	switch {
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		return Notice{Level: Failure, Text: apiErr.Detail}, err
	case errors.As(err, &verr):
		return Notice{Level: Failure, Text: verr.msg}, err
	case errors.Is(err, ErrNotFound):
		return Notice{Level: Failure, Text: "Eintrag nicht gefunden"}, err
	}
	return Notice{Level: Failure, Text: generic}, err
}

type validationError struct{ msg string }

func (v validationError) Error() string { return ErrValidation.Error() + ": " + v.msg }
func (v validationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error { return validationError{msg: msg} }

// StartTimer starts tracking project.
func (s *Service) StartTimer(ctx context.Context, project, description string) (Notice, error) {
	project = strings.TrimSpace(project)
	description = strings.TrimSpace(description)
	if project == "" {
		return failure(invalid("Bitte Projekt auswählen"), "")
	}
	started, err := s.Backend.Start(ctx, project, description)
	if err != nil {
		return failure(err, "Fehler beim Starten")
	}
	s.mu.Lock()
	s.running = &entry.Entry{
		ID:          started.ID,
		Project:     project,
		Description: description,
		Start:       entry.At(s.now()),
		Running:     true,
	}
	// Fetches issued before the start would clear the timer again.
	s.invalidate(SliceEntries)
	s.mu.Unlock()
	return ok("Timer gestartet", ReloadEntries), nil
}

// StopTimer stops the running timer.
func (s *Service) StopTimer(ctx context.Context) (Notice, error) {
	stopped, err := s.Backend.Stop(ctx)
	if err != nil {
		return failure(err, "Fehler beim Stoppen")
	}
	s.mu.Lock()
	s.running = nil
	s.invalidate(SliceEntries)
	s.mu.Unlock()
	return ok(fmt.Sprintf("Timer gestoppt: %d Min", minutes(stopped.Duration)), ReloadWeek), nil
}

// EntryForm is a manual entry as typed by the user.
type EntryForm = api.EntryForm

func validateForm(f EntryForm) (EntryForm, error) {
	f.Project = strings.TrimSpace(f.Project)
	f.Description = strings.TrimSpace(f.Description)
	if f.Project == "" || f.Date == "" || f.StartTime == "" || f.EndTime == "" {
		return f, invalid("Bitte alle Pflichtfelder ausfüllen")
	}
	return f, nil
}

// CreateEntry adds a finished entry.
func (s *Service) CreateEntry(ctx context.Context, form EntryForm) (Notice, error) {
	form, err := validateForm(form)
	if err != nil {
		return failure(err, "")
	}
	saved, err := s.Backend.CreateEntry(ctx, form)
	if err != nil {
		return failure(err, "Fehler beim Speichern")
	}
	return ok(fmt.Sprintf("Eintrag erstellt: %d Min", minutes(saved.Duration)), ReloadWeek), nil
}

// UpdateEntry replaces an entry.
func (s *Service) UpdateEntry(ctx context.Context, id int, form EntryForm) (Notice, error) {
	form, err := validateForm(form)
	if err != nil {
		return failure(err, "")
	}
	saved, err := s.Backend.UpdateEntry(ctx, id, form)
	if err != nil {
		return failure(err, "Fehler beim Speichern")
	}
	return ok(fmt.Sprintf("Eintrag aktualisiert: %d Min", minutes(saved.Duration)), ReloadWeek), nil
}

// DeleteEntry removes an entry.
func (s *Service) DeleteEntry(ctx context.Context, id int) (Notice, error) {
	if err := s.Backend.DeleteEntry(ctx, id); err != nil {
		return failure(err, "Fehler beim Löschen")
	}
	return ok("Eintrag gelöscht", ReloadWeek), nil
}

// MoveEntry reschedules a cached entry to [start, end], keeping its project
// and description.
func (s *Service) MoveEntry(ctx context.Context, id int, start, end time.Time) (Notice, error) {
	s.mu.Lock()
	e, found := entry.Find(s.entries, id)
	s.mu.Unlock()
	if !found {
		return failure(fmt.Errorf("%w: %d", ErrNotFound, id), "")
	}
	start, end = start.Local(), end.Local()
	form := EntryForm{
		Project:     e.Project,
		Description: e.Description,
		Date:        start.Format(timeutil.DateLayout),
		StartTime:   start.Format(timeutil.ClockLayout),
		EndTime:     end.Format(timeutil.ClockLayout),
	}
	if _, err := s.Backend.UpdateEntry(ctx, id, form); err != nil {
		return failure(err, "Fehler beim Verschieben")
	}
	return ok("Eintrag verschoben", ReloadWeek), nil
}

// CreateProject adds a project. An empty color uses the default.
func (s *Service) CreateProject(ctx context.Context, name, color string) (Notice, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return failure(invalid("Bitte Projektname eingeben"), "")
	}
	if color == "" {
		color = entry.DefaultColor
	}
	if _, err := s.Backend.CreateProject(ctx, name, color); err != nil {
		return failure(err, "Fehler beim Erstellen")
	}
	return ok("Projekt erstellt", ReloadProjects), nil
}

// UpdateProject renames or recolors a project.
func (s *Service) UpdateProject(ctx context.Context, id int, name, color string) (Notice, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return failure(invalid("Bitte Projektname eingeben"), "")
	}
	if color == "" {
		color = entry.DefaultColor
	}
	saved, err := s.Backend.UpdateProject(ctx, id, name, color)
	if err != nil {
		return failure(err, "Fehler beim Aktualisieren")
	}
	text := saved.Message
	if text == "" {
		text = "Projekt aktualisiert"
	}
	return ok(text, ReloadProjects|ReloadEntries), nil
}

// DeleteProject deactivates a project. Its entries stay.
func (s *Service) DeleteProject(ctx context.Context, id int) (Notice, error) {
	if err := s.Backend.DeleteProject(ctx, id); err != nil {
		return failure(err, "Fehler beim Löschen")
	}
	return ok("Projekt gelöscht", ReloadProjects), nil
}

// ExportCSV writes the CSV export of week w to out.
func (s *Service) ExportCSV(ctx context.Context, out io.Writer, w timeutil.Week) (Notice, error) {
	monday, sunday := w.Range()
	n, err := s.Backend.ExportCSV(ctx, monday.Format(timeutil.DateLayout), sunday.Format(timeutil.DateLayout), out)
	if err != nil {
		return failure(err, "Fehler beim Export")
	}
	s.log().WithField("bytes", n).WithField("week", w.String()).Info("exported csv")
	return ok("CSV Export gespeichert: "+w.FileName(), 0), nil
}
