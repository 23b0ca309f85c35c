// Package refresh polls on a timer as a fallback for missed notifications
// and refreshes immediately when the UI becomes visible or focused again.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Target receives the refresh callbacks. Methods are called from the
// scheduler goroutine or from the goroutine calling SetVisible, Focus or
// Resume, so they must not block.
type Target interface {
	RefreshData()
	RefreshProjects()
	CheckRunning()
	Tick(now time.Time)
}

// Config holds the three intervals.
type Config struct {
	Data     time.Duration
	Projects time.Duration
	Clock    time.Duration
}

// DefaultConfig refreshes data every two minutes, projects every ten and the
// clock every second.
func DefaultConfig() Config {
	return Config{Data: 120 * time.Second, Projects: 600 * time.Second, Clock: time.Second}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Data <= 0 {
		c.Data = def.Data
	}
	if c.Projects <= 0 {
		c.Projects = def.Projects
	}
	if c.Clock <= 0 {
		c.Clock = def.Clock
	}
	return c
}

// Ticker is the part of *time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Scheduler drives a Target from three independent tickers.
type Scheduler struct {
	target    Target
	log       logrus.FieldLogger
	newTicker func(time.Duration) Ticker

	mu      sync.Mutex
	cfg     Config
	active  bool
	visible bool
	running bool
	started bool

	reconfigure chan Config
	stop        chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTicker replaces the ticker factory.
func WithTicker(fn func(time.Duration) Ticker) Option {
	return func(s *Scheduler) { s.newTicker = fn }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New creates a scheduler that is active and visible.
func New(target Target, cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		target:      target,
		log:         logrus.StandardLogger(),
		newTicker:   NewTicker,
		cfg:         cfg.withDefaults(),
		active:      true,
		visible:     true,
		reconfigure: make(chan Config),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.WithField("component", "refresh")
	return s
}

// Start launches the timers. It returns immediately; the timers run until
// ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	cfg := s.cfg
	s.mu.Unlock()

	data := s.newTicker(cfg.Data)
	projects := s.newTicker(cfg.Projects)
	clock := s.newTicker(cfg.Clock)

	go func() {
		defer close(s.done)
		defer data.Stop()
		defer projects.Stop()
		defer clock.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case cfg := <-s.reconfigure:
				data.Reset(cfg.Data)
				projects.Reset(cfg.Projects)
				clock.Reset(cfg.Clock)
				s.log.WithField("data", cfg.Data).WithField("projects", cfg.Projects).Debug("intervals changed")
			case <-data.C():
				if s.gate(false) {
					s.target.RefreshData()
				}
			case <-projects.C():
				if s.gate(false) {
					s.target.RefreshProjects()
				}
			case now := <-clock.C():
				if s.gate(true) {
					s.target.Tick(now)
				}
			}
		}
	}()
}

func (s *Scheduler) gate(clock bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.active && s.visible
	if clock {
		ok = ok && s.running
	}
	return ok
}

// Stop halts every timer and waits for the scheduler goroutine. It is safe
// to call more than once, and before Start.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
}

// Pause suppresses timer callbacks until Resume.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	s.log.Debug("paused")
}

// Resume re-enables callbacks and refreshes data right away.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	s.log.Debug("resumed")
	s.target.RefreshData()
}

// SetVisible records visibility. Becoming visible while active refreshes
// data and projects and rechecks the running timer.
func (s *Scheduler) SetVisible(visible bool) {
	s.mu.Lock()
	became := visible && !s.visible
	s.visible = visible
	active := s.active
	s.mu.Unlock()
	if became && active {
		s.target.RefreshData()
		s.target.RefreshProjects()
		s.target.CheckRunning()
	}
}

// Focus refreshes data when active.
func (s *Scheduler) Focus() {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active {
		s.target.RefreshData()
	}
}

// SetRunning gates the clock ticks.
func (s *Scheduler) SetRunning(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
}

// Reconfigure changes the intervals. On a running scheduler it returns once
// the tickers were reset.
func (s *Scheduler) Reconfigure(cfg Config) {
	cfg = cfg.withDefaults()
	s.mu.Lock()
	s.cfg = cfg
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}
	select {
	case s.reconfigure <- cfg:
	case <-s.done:
	}
}

// Config returns the current intervals.
func (s *Scheduler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}
