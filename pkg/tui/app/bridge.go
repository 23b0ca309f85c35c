package teaui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/zeit/pkg/config"
	"tableflip.dev/zeit/pkg/logging"
	"tableflip.dev/zeit/pkg/notify"
)

type refreshDataMsg struct{}

type refreshProjectsMsg struct{}

type checkRunningMsg struct{}

type clockMsg struct{ now time.Time }

type eventMsg struct{ event notify.Event }

type stateMsg struct{ state notify.State }

type logMsg struct{ record logging.Record }

type configMsg struct {
	cfg config.Config
	err error
}

// bridgeMsg wraps a message that arrived through the bridge, so Update
// knows to wait for the next one.
type bridgeMsg struct{ msg tea.Msg }

// Bridge carries callbacks from background goroutines into the program.
// Every method only queues a message, so none of them block. When the
// buffer is full the message is dropped; the next tick or refresh covers
// for it.
type Bridge struct {
	ch chan tea.Msg
}

// NewBridge returns a bridge buffering up to size messages.
func NewBridge(size int) *Bridge {
	if size <= 0 {
		size = 64
	}
	return &Bridge{ch: make(chan tea.Msg, size)}
}

func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.ch <- bridgeMsg{msg: msg}:
	default:
	}
}

// RefreshData implements refresh.Target.
func (b *Bridge) RefreshData() { b.send(refreshDataMsg{}) }

// RefreshProjects implements refresh.Target.
func (b *Bridge) RefreshProjects() { b.send(refreshProjectsMsg{}) }

// CheckRunning implements refresh.Target.
func (b *Bridge) CheckRunning() { b.send(checkRunningMsg{}) }

// Tick implements refresh.Target.
func (b *Bridge) Tick(now time.Time) { b.send(clockMsg{now: now}) }

// Event forwards a pushed notification. It has the notify.Handler shape.
func (b *Bridge) Event(ev notify.Event) { b.send(eventMsg{event: ev}) }

// State forwards connection state changes.
func (b *Bridge) State(s notify.State) { b.send(stateMsg{state: s}) }

// Config forwards a reloaded configuration file.
func (b *Bridge) Config(cfg config.Config, err error) { b.send(configMsg{cfg: cfg, err: err}) }

// ForwardLogs copies records from hook into the program until ctx ends.
func (b *Bridge) ForwardLogs(ctx context.Context, hook *logging.Hook) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case rec := <-hook.C():
				b.send(logMsg{record: rec})
			}
		}
	}()
}

// Wait returns a command that delivers the next queued message.
func (b *Bridge) Wait() tea.Cmd {
	if b == nil {
		return nil
	}
	ch := b.ch
	return func() tea.Msg {
		return <-ch
	}
}
