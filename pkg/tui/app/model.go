// Package teaui hosts the Bubble Tea program for the zeit week calendar.
package teaui

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/sirupsen/logrus"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/drag"
	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/notify"
	"tableflip.dev/zeit/pkg/refresh"
	"tableflip.dev/zeit/pkg/timeutil"
	"tableflip.dev/zeit/pkg/tui/components/help"
	"tableflip.dev/zeit/pkg/tui/theme"
)

type mode int

const (
	modeNormal mode = iota
	modeForm
	modeProjects
	modeConfirm
	modeHelp
)

const (
	toastDuration = 3 * time.Second
	sweepInterval = 30 * time.Second
)

// Scheduler is the part of *refresh.Scheduler the UI drives.
type Scheduler interface {
	SetVisible(visible bool)
	Focus()
	SetRunning(running bool)
	Reconfigure(cfg refresh.Config)
	Pause()
	Resume()
}

type nopScheduler struct{}

func (nopScheduler) SetVisible(bool) {}
func (nopScheduler) Focus() {}
func (nopScheduler) SetRunning(bool) {}
func (nopScheduler) Reconfigure(refresh.Config) {}
func (nopScheduler) Pause() {}
func (nopScheduler) Resume() {}

// Options wire the model to the rest of the program.
type Options struct {
	Scheduler Scheduler
	Bridge    *Bridge
	Log       logrus.FieldLogger
	// ExportDir receives CSV exports, the working directory when empty.
	ExportDir string
	// DragOptions tune the long-press delays.
	DragOptions drag.Options
	Now         func() time.Time
}

// Model contains UI state. Only Update mutates it.
type Model struct {
	svc    *app.Service
	ctx    context.Context
	cancel context.CancelFunc
	sched  Scheduler
	bridge *Bridge
	log    logrus.FieldLogger
	theme  theme.Theme
	now    func() time.Time

	exportDir string

	width, height int
	grid          grid
	drag          *drag.Controller

	mode       mode
	day        int
	selected   int
	list       viewport.Model
	listOffset int
	clock      time.Time
	running    bool

	conn          notify.State
	connectedOnce bool

	// pressed is the block under the last press, opened for editing when
	// the press ends as a click.
	pressed   entry.Entry
	pressedOK bool

	toast      app.Notice
	toastToken int

	form     *form
	panel    *projectPanel
	confirm  *confirmPrompt
	help     *help.Model
	quitting bool
}

// New builds the model for svc.
func New(ctx context.Context, svc *app.Service, opts Options) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	if opts.Scheduler == nil {
		opts.Scheduler = nopScheduler{}
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	dragOpts := opts.DragOptions
	if dragOpts.MoveThreshold <= 0 {
		// Terminal cells are coarse, two cells of slack is a lot.
		dragOpts.MoveThreshold = 2
	}
	if dragOpts.Now == nil {
		dragOpts.Now = opts.Now
	}

	m := &Model{
		svc:       svc,
		ctx:       ctx,
		cancel:    cancel,
		sched:     opts.Scheduler,
		bridge:    opts.Bridge,
		log:       opts.Log.WithField("component", "tui"),
		theme:     theme.Default(),
		now:       opts.Now,
		exportDir: opts.ExportDir,
		day:       -1,
		list:      viewport.New(viewport.WithWidth(30), viewport.WithHeight(10)),
		clock:     opts.Now(),
		conn:      notify.Disconnected,
	}
	m.width, m.height = 120, 40
	m.grid = newGrid(svc.Week(), m.width, m.height)
	m.drag = drag.New(m.grid, dragOpts)
	_, m.running = svc.Running()
	m.sched.SetRunning(m.running)
	m.relayout()
	return m
}

// Init loads the selected week and starts listening on the bridge.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.reload(app.ReloadWeek),
		m.bridge.Wait(),
		m.sweepAfter(),
	)
}

type entriesLoadedMsg struct{ result app.EntriesResult }

type projectsLoadedMsg struct{ result app.ProjectsResult }

type statsLoadedMsg struct{ result app.StatsResult }

type noticeMsg struct {
	notice   app.Notice
	err      error
	fromForm bool
}

type exportedMsg struct {
	notice app.Notice
	path   string
	err    error
}

type toastExpiredMsg struct{ token int }

type dragFiredMsg struct{ token int }

type sweepMsg struct{ now time.Time }

func (m *Model) loadEntries() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return entriesLoadedMsg{result: svc.LoadEntries(ctx)}
	}
}

func (m *Model) checkRunning() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return entriesLoadedMsg{result: svc.CheckRunning(ctx)}
	}
}

func (m *Model) loadProjects() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return projectsLoadedMsg{result: svc.LoadProjects(ctx)}
	}
}

func (m *Model) loadStats() tea.Cmd {
	ctx, svc, week := m.ctx, m.svc, m.svc.Week()
	return func() tea.Msg {
		return statsLoadedMsg{result: svc.LoadStats(ctx, week)}
	}
}

// reload fetches the slices in r.
func (m *Model) reload(r app.Reload) tea.Cmd {
	var cmds []tea.Cmd
	if r.Has(app.ReloadEntries) {
		cmds = append(cmds, m.loadEntries())
	}
	if r.Has(app.ReloadProjects) {
		cmds = append(cmds, m.loadProjects())
	}
	if r.Has(app.ReloadStats) {
		cmds = append(cmds, m.loadStats())
	}
	return tea.Batch(cmds...)
}

// act runs a server action off the update loop.
func (m *Model) act(fn func(ctx context.Context) (app.Notice, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		n, err := fn(ctx)
		return noticeMsg{notice: n, err: err}
	}
}

func (m *Model) exportCSV() tea.Cmd {
	ctx, svc, week, dir := m.ctx, m.svc, m.svc.Week(), m.exportDir
	return func() tea.Msg {
		path := filepath.Join(dir, week.FileName())
		f, err := os.Create(path)
		if err != nil {
			return exportedMsg{notice: app.Notice{Level: app.Failure, Text: "Fehler beim Export"}, path: path, err: err}
		}
		n, err := svc.ExportCSV(ctx, f, week)
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
			n = app.Notice{Level: app.Failure, Text: "Fehler beim Export"}
		}
		if err != nil {
			_ = os.Remove(path)
		}
		return exportedMsg{notice: n, path: path, err: err}
	}
}

func (m *Model) showToast(n app.Notice) tea.Cmd {
	if n.IsZero() {
		return nil
	}
	m.toast = n
	m.toastToken++
	token := m.toastToken
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{token: token}
	})
}

func (m *Model) sweepAfter() tea.Cmd {
	return tea.Tick(sweepInterval, func(now time.Time) tea.Msg {
		return sweepMsg{now: now}
	})
}

// setWeek switches the calendar and loads what the new week shows.
func (m *Model) setWeek(w timeutil.Week) tea.Cmd {
	if w == m.svc.Week() {
		return nil
	}
	m.drag.Handle(drag.Cancel{Reason: drag.ReasonOutside})
	m.svc.SetWeek(w)
	m.selected = 0
	m.relayout()
	return m.reload(app.ReloadEntries | app.ReloadStats)
}

// syncRunning tells the scheduler whether the clock needs ticking.
func (m *Model) syncRunning() {
	_, running := m.svc.Running()
	if running != m.running {
		m.running = running
		m.sched.SetRunning(running)
	}
	if running {
		m.clock = m.now()
	}
}

// relayout rebuilds the grid for the current size, week and entries.
func (m *Model) relayout() {
	g := newGrid(m.svc.Week(), m.width, m.height)
	for day := 0; day < timeutil.WorkDays; day++ {
		g.blocks[day] = m.svc.Blocks(day)
	}
	m.grid = g
	m.drag.SetGeometry(g)

	if n := len(m.svc.List(m.day)); m.selected >= n {
		m.selected = max(n-1, 0)
	}
	m.list.SetWidth(m.sidebarWidth())
	m.list.SetHeight(m.listHeight())
	m.list.SetContent(m.renderList())
	m.revealSelection()
	if m.help != nil {
		m.help.SetSize(m.width*3/4, m.height*3/4)
	}
}

func (m *Model) sidebarWidth() int {
	if m.width < sidebarBreakpoint {
		return 0
	}
	return max(m.width-m.grid.width()-2, 10)
}

// Close stops work started by the model's commands.
func (m *Model) Close() {
	m.cancel()
}
