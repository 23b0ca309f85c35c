// Package mcp provides the Model Context Protocol server integration for zeit.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/timeline"
	"tableflip.dev/zeit/pkg/timeutil"
)

// Service adapts the tracker to MCP tool and resource handlers. Calls are
// serialized because they switch the selected week of the shared cache.
type Service struct {
	App *app.Service

	mu sync.Mutex
}

// EntryDTO is a transport-friendly projection of an entry.
type EntryDTO struct {
	ID          int     `json:"id"`
	Project     string  `json:"project"`
	Description string  `json:"description,omitempty"`
	Start       string  `json:"start"`
	End         string  `json:"end,omitempty"`
	Minutes     float64 `json:"durationMinutes"`
	Duration    string  `json:"duration"`
	Running     bool    `json:"running"`
	Weekday     string  `json:"weekday"`
}

// TimerDTO describes the timer after a start or stop.
type TimerDTO struct {
	Message string    `json:"message"`
	Running *EntryDTO `json:"running,omitempty"`
	Elapsed string    `json:"elapsed,omitempty"`
}

// WeekDTO summarizes one calendar week.
type WeekDTO struct {
	Week       string             `json:"week"`
	Label      string             `json:"label"`
	StartDate  string             `json:"startDate"`
	EndDate    string             `json:"endDate"`
	TotalHours float64            `json:"totalHours"`
	Projects   map[string]float64 `json:"projectMinutes"`
	Days       map[string]float64 `json:"dayMinutes"`
	Entries    []EntryDTO         `json:"entries,omitempty"`
}

// ProjectDTO is a project with its color.
type ProjectDTO struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// NewService wraps the tracker service.
func NewService(a *app.Service) *Service {
	return &Service{App: a}
}

func (s *Service) ready() error {
	if s.App == nil {
		return errors.New("tracker is not configured")
	}
	return nil
}

// ListEntries returns the entries of week w, filtered to a Monday-based day
// unless day is negative.
func (s *Service) ListEntries(ctx context.Context, w timeutil.Week, day int) ([]EntryDTO, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.App.SetWeek(w)
	if err := s.App.Sync(ctx, app.ReloadEntries); err != nil {
		return nil, err
	}
	return toDTOs(s.App.List(day)), nil
}

// ListProjects returns the active projects.
func (s *Service) ListProjects(ctx context.Context) ([]ProjectDTO, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.App.Sync(ctx, app.ReloadProjects); err != nil {
		return nil, err
	}
	projects := s.App.Projects()
	out := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		out = append(out, ProjectDTO{ID: p.ID, Name: p.Name, Color: p.Color})
	}
	return out, nil
}

// StartTimer starts tracking project.
func (s *Service) StartTimer(ctx context.Context, project, description string) (*TimerDTO, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.App.StartTimer(ctx, project, description)
	if err != nil {
		return nil, noticeError(n, err)
	}
	return s.timer(n.Text), nil
}

// StopTimer stops the running timer.
func (s *Service) StopTimer(ctx context.Context) (*TimerDTO, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.App.StopTimer(ctx)
	if err != nil {
		return nil, noticeError(n, err)
	}
	return s.timer(n.Text), nil
}

// MoveEntry reschedules entry id to start at date and clock, keeping its
// duration. The start is rounded to the quarter hour and the entry stays
// inside the calendar window.
func (s *Service) MoveEntry(ctx context.Context, id int, date, clock string) (*EntryDTO, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	when, err := timeutil.ParseDateClock(date, clock)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.App.Sync(ctx, app.ReloadEntries); err != nil {
		return nil, err
	}
	e, ok := entry.Find(s.App.Entries(), id)
	if !ok {
		return nil, fmt.Errorf("entry %d not found", id)
	}
	if e.IsRunning() {
		return nil, fmt.Errorf("entry %d is running", id)
	}

	span := e.Span()
	from := timeline.At(when, timeline.FitStart(timeline.HourOf(when), span.Hours()))
	to := from.Add(span)

	n, err := s.App.MoveEntry(ctx, id, from, to)
	if err != nil {
		return nil, noticeError(n, err)
	}
	if err := s.App.Sync(ctx, app.ReloadEntries); err != nil {
		return nil, err
	}
	moved, ok := entry.Find(s.App.Entries(), id)
	if !ok {
		return nil, fmt.Errorf("entry %d not found after move", id)
	}
	dto := toDTO(moved)
	return &dto, nil
}

// Week returns the summary of week w. With entries set the entries are
// included.
func (s *Service) Week(ctx context.Context, w timeutil.Week, entries bool) (*WeekDTO, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.App.SetWeek(w)
	if err := s.App.Sync(ctx, app.ReloadEntries|app.ReloadStats); err != nil {
		return nil, err
	}
	stats, _ := s.App.Stats()
	monday, sunday := w.Range()
	out := &WeekDTO{
		Week:       w.String(),
		Label:      w.Label(),
		StartDate:  monday.Format(timeutil.DateLayout),
		EndDate:    sunday.Format(timeutil.DateLayout),
		TotalHours: stats.TotalHours,
		Projects:   stats.Projects,
		Days:       map[string]float64{},
	}
	if out.Projects == nil {
		out.Projects = map[string]float64{}
	}
	for i, m := range s.App.DayTotals() {
		out.Days[timeutil.DayNames[i]] = m
	}
	if entries {
		out.Entries = toDTOs(s.App.List(-1))
	}
	return out, nil
}

func (s *Service) timer(message string) *TimerDTO {
	out := &TimerDTO{Message: message}
	if e, ok := s.App.Running(); ok {
		dto := toDTO(e)
		out.Running = &dto
		out.Elapsed = timeutil.FormatClock(s.App.Elapsed(time.Now()))
	}
	return out
}

// noticeError prefers the user-facing notice text over the wrapped error.
func noticeError(n app.Notice, err error) error {
	if strings.TrimSpace(n.Text) != "" {
		return errors.New(n.Text)
	}
	return err
}

func toDTOs(entries []entry.Entry) []EntryDTO {
	out := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toDTO(e))
	}
	return out
}

func toDTO(e entry.Entry) EntryDTO {
	dto := EntryDTO{
		ID:          e.ID,
		Project:     e.Project,
		Description: e.Description,
		Start:       e.Start.Format(time.RFC3339),
		Minutes:     e.Duration,
		Duration:    entry.DurationLabel(e),
		Running:     e.IsRunning(),
		Weekday:     timeutil.DayNames[e.Weekday()],
	}
	if !e.IsRunning() {
		dto.End = e.EndTime().Format(time.RFC3339)
	}
	return dto
}
