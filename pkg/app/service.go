package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tableflip.dev/zeit/pkg/api"
	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/timeline"
	"tableflip.dev/zeit/pkg/timeutil"
)

var (
	// ErrValidation marks input rejected before any request was sent.
	ErrValidation = errors.New("app: invalid input")
	// ErrNotFound marks an entry missing from the local cache.
	ErrNotFound = errors.New("app: entry not found")
)

// Backend is the server API. *api.Client implements it.
type Backend interface {
	Projects(ctx context.Context) ([]entry.Project, error)
	CreateProject(ctx context.Context, name, color string) (entry.ProjectSaved, error)
	UpdateProject(ctx context.Context, id int, name, color string) (entry.ProjectSaved, error)
	DeleteProject(ctx context.Context, id int) error
	Entries(ctx context.Context) ([]entry.Entry, error)
	Start(ctx context.Context, project, description string) (entry.Started, error)
	Stop(ctx context.Context) (entry.Stopped, error)
	CreateEntry(ctx context.Context, form api.EntryForm) (entry.Saved, error)
	UpdateEntry(ctx context.Context, id int, form api.EntryForm) (entry.Saved, error)
	DeleteEntry(ctx context.Context, id int) error
	WeekStats(ctx context.Context, year, week int) (entry.Stats, error)
	ExportCSV(ctx context.Context, start, end string, w io.Writer) (int64, error)
}

// Snapshot persists the last good fetch for offline startup.
type Snapshot interface {
	SaveEntries(entries []entry.Entry) error
	SaveProjects(projects []entry.Project) error
	LoadEntries() ([]entry.Entry, error)
	LoadProjects() ([]entry.Project, error)
}

// Slice names one independently fetched part of the cache.
type Slice int

const (
	SliceEntries Slice = iota
	SliceProjects
	SliceStats
	numSlices
)

// Service owns the client-side caches and every server-mutating action, so
// pushed notifications and direct user actions converge on one state.
type Service struct {
	Backend  Backend
	Snapshot Snapshot
	Log      logrus.FieldLogger
	Now      func() time.Time

	mu       sync.Mutex
	week     timeutil.Week
	entries  []entry.Entry
	projects []entry.Project
	stats    *entry.Stats
	running  *entry.Entry

	issued  [numSlices]uint64
	applied [numSlices]uint64
}

// NewService builds a service showing the current week.
func NewService(backend Backend, snap Snapshot, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Service{
		Backend:  backend,
		Snapshot: snap,
		Log:      log.WithField("component", "app"),
		Now:      time.Now,
	}
	s.week = timeutil.Current(s.now())
	return s
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// Restore fills empty caches from the snapshot. Any fetch result replaces
// what was restored.
func (s *Service) Restore() {
	if s.Snapshot == nil {
		return
	}
	entries, err := s.Snapshot.LoadEntries()
	if err != nil {
		s.log().WithError(err).Debug("no entry snapshot")
	}
	projects, err := s.Snapshot.LoadProjects()
	if err != nil {
		s.log().WithError(err).Debug("no project snapshot")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil && entries != nil {
		s.entries = entries
		s.syncRunning()
	}
	if s.projects == nil && projects != nil {
		s.projects = projects
	}
}

// Week returns the selected week.
func (s *Service) Week() timeutil.Week {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.week
}

// SetWeek selects another week. Cached stats belong to the old week and are
// dropped, as are stats requests still in flight.
func (s *Service) SetWeek(w timeutil.Week) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.week == w {
		return
	}
	s.week = w
	s.stats = nil
	s.invalidate(SliceStats)
}

// Begin returns the next request sequence for a slice. Results carrying an
// older sequence than one already applied are dropped.
func (s *Service) Begin(slice Slice) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[slice]++
	return s.issued[slice]
}

// accept reports whether a result with seq may replace the slice. Callers
// hold mu.
func (s *Service) accept(slice Slice, seq uint64) bool {
	if seq <= s.applied[slice] {
		return false
	}
	s.applied[slice] = seq
	return true
}

// invalidate drops every result of slice still in flight. Callers hold mu.
func (s *Service) invalidate(slice Slice) {
	s.applied[slice] = s.issued[slice]
}

// EntriesResult is the outcome of an entries fetch.
type EntriesResult struct {
	Seq     uint64
	Entries []entry.Entry
	Err     error
}

// ProjectsResult is the outcome of a projects fetch.
type ProjectsResult struct {
	Seq      uint64
	Projects []entry.Project
	Err      error
}

// StatsResult is the outcome of a week stats fetch.
type StatsResult struct {
	Seq   uint64
	Week  timeutil.Week
	Stats entry.Stats
	Err   error
}

// LoadEntries fetches all entries.
func (s *Service) LoadEntries(ctx context.Context) EntriesResult {
	seq := s.Begin(SliceEntries)
	entries, err := s.Backend.Entries(ctx)
	return EntriesResult{Seq: seq, Entries: entries, Err: err}
}

// CheckRunning fetches entries to find out whether a timer runs on the
// server. It shares the entries slice.
func (s *Service) CheckRunning(ctx context.Context) EntriesResult {
	return s.LoadEntries(ctx)
}

// LoadProjects fetches the active projects.
func (s *Service) LoadProjects(ctx context.Context) ProjectsResult {
	seq := s.Begin(SliceProjects)
	projects, err := s.Backend.Projects(ctx)
	return ProjectsResult{Seq: seq, Projects: projects, Err: err}
}

// LoadStats fetches the totals of week w.
func (s *Service) LoadStats(ctx context.Context, w timeutil.Week) StatsResult {
	seq := s.Begin(SliceStats)
	stats, err := s.Backend.WeekStats(ctx, w.Year, w.Number)
	return StatsResult{Seq: seq, Week: w, Stats: stats, Err: err}
}

// Sync loads every slice of the selected week and waits for the results.
// The command line and the MCP bridge use it instead of the message loop.
func (s *Service) Sync(ctx context.Context, reload Reload) error {
	if reload.Has(ReloadEntries) {
		r := s.LoadEntries(ctx)
		if r.Err != nil {
			return r.Err
		}
		s.ApplyEntries(r)
	}
	if reload.Has(ReloadProjects) {
		r := s.LoadProjects(ctx)
		if r.Err != nil {
			return r.Err
		}
		s.ApplyProjects(r)
	}
	if reload.Has(ReloadStats) {
		r := s.LoadStats(ctx, s.Week())
		if r.Err != nil {
			return r.Err
		}
		s.ApplyStats(r)
	}
	return nil
}

// ApplyEntries replaces the entries cache. It returns false when the result
// failed or is stale.
func (s *Service) ApplyEntries(r EntriesResult) bool {
	if r.Err != nil {
		s.log().WithError(r.Err).Warn("loading entries failed")
		return false
	}
	s.mu.Lock()
	if !s.accept(SliceEntries, r.Seq) {
		s.mu.Unlock()
		s.log().WithField("seq", r.Seq).Debug("dropping stale entries")
		return false
	}
	s.entries = r.Entries
	if s.entries == nil {
		s.entries = []entry.Entry{}
	}
	s.syncRunning()
	s.mu.Unlock()

	if s.Snapshot != nil {
		if err := s.Snapshot.SaveEntries(r.Entries); err != nil {
			s.log().WithError(err).Warn("saving entry snapshot")
		}
	}
	return true
}

// ApplyProjects replaces the project cache.
func (s *Service) ApplyProjects(r ProjectsResult) bool {
	if r.Err != nil {
		s.log().WithError(r.Err).Warn("loading projects failed")
		return false
	}
	s.mu.Lock()
	if !s.accept(SliceProjects, r.Seq) {
		s.mu.Unlock()
		return false
	}
	s.projects = r.Projects
	if s.projects == nil {
		s.projects = []entry.Project{}
	}
	s.mu.Unlock()

	if s.Snapshot != nil {
		if err := s.Snapshot.SaveProjects(r.Projects); err != nil {
			s.log().WithError(err).Warn("saving project snapshot")
		}
	}
	return true
}

// ApplyStats replaces the stats cache if the result is for the selected
// week.
func (s *Service) ApplyStats(r StatsResult) bool {
	if r.Err != nil {
		s.log().WithError(r.Err).Warn("loading stats failed")
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Week != s.week || !s.accept(SliceStats, r.Seq) {
		return false
	}
	stats := r.Stats
	s.stats = &stats
	return true
}

// syncRunning derives the timer state from the entries cache. Callers hold
// mu.
func (s *Service) syncRunning() {
	if e, ok := entry.FindRunning(s.entries); ok {
		s.running = &e
		return
	}
	s.running = nil
}

// Entries returns every cached entry.
func (s *Service) Entries() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entry.Entry(nil), s.entries...)
}

// WeekEntries returns the cached entries starting in the selected week.
func (s *Service) WeekEntries() []entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weekEntries()
}

func (s *Service) weekEntries() []entry.Entry {
	out := make([]entry.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if s.week.Contains(e.Start.Time) {
			out = append(out, e)
		}
	}
	return out
}

// Projects returns the cached projects.
func (s *Service) Projects() []entry.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entry.Project(nil), s.projects...)
}

// Catalog indexes the cached projects by name.
func (s *Service) Catalog() entry.Catalog {
	return entry.NewCatalog(s.Projects())
}

// Stats returns the cached stats of the selected week.
func (s *Service) Stats() (entry.Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats == nil {
		return entry.Stats{}, false
	}
	return *s.stats, true
}

// Running returns the running entry.
func (s *Service) Running() (entry.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running == nil {
		return entry.Entry{}, false
	}
	return *s.running, true
}

// Elapsed is the running time of the timer at now.
func (s *Service) Elapsed(now time.Time) time.Duration {
	e, ok := s.Running()
	if !ok {
		return 0
	}
	if d := now.Sub(e.Start.Time); d > 0 {
		return d
	}
	return 0
}

// List returns the selected week's entries for the list view, running entries
// first. day is a Monday-based weekday; negative lists the whole week.
func (s *Service) List(day int) []entry.Entry {
	list := entry.FilterWeekday(s.WeekEntries(), day)
	entry.SortForList(list)
	return list
}

// DayTotals returns the tracked minutes per work day of the selected week.
// Running entries do not count.
func (s *Service) DayTotals() [timeutil.WorkDays]float64 {
	var totals [timeutil.WorkDays]float64
	for _, e := range s.WeekEntries() {
		if e.IsRunning() {
			continue
		}
		if d := e.Weekday(); d < timeutil.WorkDays {
			totals[d] += e.Duration
		}
	}
	return totals
}

// DayLabel renders a column header such as "Mo (1.5h)".
func DayLabel(day int, minutes float64) string {
	return fmt.Sprintf("%s (%s)", timeutil.DayNames[day], entry.HoursLabel(minutes))
}

// Blocks lays out one work day of the selected week.
func (s *Service) Blocks(day int) []timeline.Block {
	return timeline.Layout(entry.FilterWeekday(s.WeekEntries(), day))
}

func minutes(v float64) int {
	return int(math.Round(v))
}
