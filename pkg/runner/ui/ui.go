// Package ui runs the interactive week calendar.
package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/sirupsen/logrus"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/config"
	"tableflip.dev/zeit/pkg/logging"
	"tableflip.dev/zeit/pkg/notify"
	"tableflip.dev/zeit/pkg/refresh"
	teaui "tableflip.dev/zeit/pkg/tui/app"
)

// UI wires the tracker service, the notification channel and the refresh
// scheduler into one Bubble Tea program.
type UI struct {
	App    *app.Service
	Config config.Config
	// Loader, when set, reloads refresh intervals on config file changes.
	Loader *config.Loader
	Log    logrus.FieldLogger
	// Hook, when set, surfaces logged errors in the status line.
	Hook      *logging.Hook
	ExportDir string
}

// Do runs the program until the user quits or ctx ends.
func (u *UI) Do(ctx context.Context) error {
	if u.App == nil {
		return errors.New("ui requires the tracker service")
	}
	log := u.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	u.App.Restore()
	bridge := teaui.NewBridge(0)

	sched := refresh.New(bridge, u.Config.Refresh, refresh.WithLogger(log))
	sched.Start(ctx)
	defer sched.Stop()

	if url, err := notify.URLFromBase(u.Config.Server); err != nil {
		log.WithError(err).Warn("live updates disabled")
	} else {
		ch := notify.New(url,
			notify.WithLogger(log),
			notify.WithBackoff(u.Config.Backoff),
			notify.WithStateHandler(bridge.State),
		)
		ch.On(notify.Any, bridge.Event)
		go func() {
			err := ch.Run(ctx)
			switch {
			case err == nil, errors.Is(err, context.Canceled):
			case errors.Is(err, notify.ErrGaveUp):
				log.WithError(err).Error("Live-Updates nicht verfügbar")
			default:
				log.WithError(err).Warn("notification channel stopped")
			}
		}()
	}

	if u.Loader != nil {
		u.Loader.Watch(bridge.Config)
	}
	if u.Hook != nil {
		bridge.ForwardLogs(ctx, u.Hook)
	}

	m := teaui.New(ctx, u.App, teaui.Options{
		Scheduler: sched,
		Bridge:    bridge,
		Log:       log,
		ExportDir: u.ExportDir,
	})
	defer m.Close()

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	_, err := p.Run()
	return err
}
