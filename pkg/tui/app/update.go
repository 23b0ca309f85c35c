package teaui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/sirupsen/logrus"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/drag"
	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/notify"
	"tableflip.dev/zeit/pkg/timeutil"
	"tableflip.dev/zeit/pkg/tui/components/help"
)

// Update is the single reducer of the UI.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case bridgeMsg:
		_, cmd := m.Update(msg.msg)
		return m, tea.Batch(cmd, m.bridge.Wait())
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.relayout()
	case tea.FocusMsg:
		m.sched.SetVisible(true)
	case tea.BlurMsg:
		cmds = append(cmds, m.handleDrag(drag.Cancel{Reason: drag.ReasonBlur}))
		m.sched.SetVisible(false)
	case tea.ResumeMsg:
		m.sched.Resume()
		m.sched.SetVisible(true)

	case entriesLoadedMsg:
		if m.svc.ApplyEntries(msg.result) {
			m.syncRunning()
			m.relayout()
		}
	case projectsLoadedMsg:
		if m.svc.ApplyProjects(msg.result) {
			m.relayout()
		}
	case statsLoadedMsg:
		if m.svc.ApplyStats(msg.result) {
			m.relayout()
		}
	case noticeMsg:
		cmds = append(cmds, m.handleNotice(msg))
	case exportedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("path", msg.path).Warn("export failed")
		}
		cmds = append(cmds, m.showToast(msg.notice))
	case toastExpiredMsg:
		if msg.token == m.toastToken {
			m.toast = app.Notice{}
		}

	case dragFiredMsg:
		cmds = append(cmds, m.handleDrag(drag.Fired{Token: msg.token}))
	case sweepMsg:
		m.drag.Handle(drag.Sweep{Now: msg.now})
		cmds = append(cmds, m.sweepAfter())

	case refreshDataMsg:
		cmds = append(cmds, m.reload(app.ReloadEntries|app.ReloadStats))
	case refreshProjectsMsg:
		cmds = append(cmds, m.reload(app.ReloadProjects))
	case checkRunningMsg:
		cmds = append(cmds, m.checkRunning())
	case clockMsg:
		m.clock = msg.now
	case eventMsg:
		n, reload := m.svc.ApplyEvent(msg.event)
		m.syncRunning()
		m.relayout()
		cmds = append(cmds, m.showToast(n), m.reload(reload))
	case stateMsg:
		cmds = append(cmds, m.handleState(msg.state))
	case logMsg:
		switch {
		case msg.record.Level <= logrus.ErrorLevel:
			cmds = append(cmds, m.showToast(app.Notice{Level: app.Failure, Text: msg.record.Message}))
		case m.toast.IsZero():
			cmds = append(cmds, m.showToast(app.Notice{Level: app.Warning, Text: msg.record.Message}))
		}
	case configMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("ignoring changed config")
			break
		}
		m.sched.Reconfigure(msg.cfg.Refresh)
		cmds = append(cmds, m.showToast(app.Notice{Text: "Konfiguration neu geladen"}))

	case tea.KeyPressMsg:
		cmds = append(cmds, m.handleKey(msg))
	case tea.MouseClickMsg:
		mouse := msg.Mouse()
		if m.mode == modeNormal && mouse.Button == tea.MouseLeft {
			cmds = append(cmds, m.handleDrag(drag.Press{X: mouse.X, Y: mouse.Y}))
		}
	case tea.MouseMotionMsg:
		if m.mode == modeNormal {
			mouse := msg.Mouse()
			cmds = append(cmds, m.handleDrag(drag.Move{X: mouse.X, Y: mouse.Y}))
		}
	case tea.MouseReleaseMsg:
		if m.mode == modeNormal {
			mouse := msg.Mouse()
			cmds = append(cmds, m.handleDrag(drag.Release{X: mouse.X, Y: mouse.Y}))
		}
	case tea.MouseWheelMsg:
		if m.mode == modeHelp && m.help != nil {
			var cmd tea.Cmd
			m.help, cmd = m.help.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleNotice(msg noticeMsg) tea.Cmd {
	if msg.err != nil {
		m.log.WithError(msg.err).Debug("action failed")
	}
	if msg.fromForm && m.form != nil {
		if msg.err != nil {
			m.form.busy = false
			m.form.err = msg.notice.Text
			return nil
		}
		m.closeForm()
	}
	m.syncRunning()
	m.relayout()
	return tea.Batch(m.showToast(msg.notice), m.reload(msg.notice.Reload))
}

// handleState tracks the notification channel. Events may have been missed
// while disconnected, so a reconnect reloads the week.
func (m *Model) handleState(s notify.State) tea.Cmd {
	prev := m.conn
	m.conn = s
	m.log.WithField("state", s.String()).Debug("notification channel")
	if s == notify.Connected && prev != notify.Connected && m.connectedOnce {
		return m.reload(app.ReloadWeek)
	}
	if s == notify.Connected {
		m.connectedOnce = true
	}
	return nil
}

// handleDrag feeds ev to the drag controller and performs its effects.
func (m *Model) handleDrag(ev drag.Event) tea.Cmd {
	press, isPress := ev.(drag.Press)
	var cmds []tea.Cmd
	for _, eff := range m.drag.Handle(ev) {
		switch eff := eff.(type) {
		case drag.ArmTimer:
			token := eff.Token
			cmds = append(cmds, tea.Tick(eff.After, func(time.Time) tea.Msg {
				return dragFiredMsg{token: token}
			}))
		case drag.OpenCreate:
			f := newEntryForm(m.projectNames())
			f.fillRange(eff.Start, eff.End)
			cmds = append(cmds, m.openForm(f))
		case drag.Reschedule:
			svc, id, start, end := m.svc, eff.Entry.ID, eff.Start, eff.End
			cmds = append(cmds, m.act(func(ctx context.Context) (app.Notice, error) {
				return svc.MoveEntry(ctx, id, start, end)
			}))
		case drag.Ended:
			// A short click on a block edits it.
			if !isPress && eff.Reason == drag.ReasonReleased && m.pressedOK {
				cmds = append(cmds, m.openEditForm(m.pressed))
			}
			m.log.WithField("reason", eff.Reason.String()).Debug("drag ended")
		}
	}
	switch {
	case isPress:
		m.pressed, m.pressedOK = m.grid.EntryAt(press.X, press.Y)
	case m.drag.State() == drag.Idle:
		m.pressed, m.pressedOK = entry.Entry{}, false
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	switch m.mode {
	case modeForm:
		res, cmd := m.form.update(msg)
		switch res {
		case formSubmit:
			return m.submit(m.form)
		case formCancel:
			m.closeForm()
		}
		return cmd
	case modeProjects:
		return m.handleProjectsKey(msg)
	case modeConfirm:
		return m.handleConfirmKey(msg)
	case modeHelp:
		switch msg.String() {
		case "esc", "?", "q":
			m.help = nil
			m.mode = modeNormal
			return nil
		}
		var cmd tea.Cmd
		m.help, cmd = m.help.Update(msg)
		return cmd
	}
	return m.handleNormalKey(msg)
}

func (m *Model) handleNormalKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "q":
		return m.quit()
	case "esc":
		return m.handleDrag(drag.Cancel{Reason: drag.ReasonEscape})
	case "ctrl+z":
		m.drag.Handle(drag.Cancel{Reason: drag.ReasonHidden})
		m.sched.Pause()
		m.sched.SetVisible(false)
		return tea.Suspend
	case "h", "left":
		return m.setWeek(m.svc.Week().Prev())
	case "l", "right":
		return m.setWeek(m.svc.Week().Next())
	case "t":
		return m.setWeek(timeutil.Current(m.now()))
	case "0", "1", "2", "3", "4", "5":
		d, _ := strconv.Atoi(key)
		m.day = d - 1
		m.selected = 0
		m.relayout()
	case "j", "down":
		if m.selected < len(m.svc.List(m.day))-1 {
			m.selected++
			m.list.SetContent(m.renderList())
			m.revealSelection()
		}
	case "k", "up":
		if m.selected > 0 {
			m.selected--
			m.list.SetContent(m.renderList())
			m.revealSelection()
		}
	case "enter", "e":
		if e, ok := m.selectedEntry(); ok {
			return m.openEditForm(e)
		}
	case "d":
		if e, ok := m.selectedEntry(); ok {
			svc, id := m.svc, e.ID
			m.askConfirm(fmt.Sprintf("Eintrag \"%s\" löschen?", e.Project), func() tea.Cmd {
				return m.act(func(ctx context.Context) (app.Notice, error) {
					return svc.DeleteEntry(ctx, id)
				})
			})
		}
	case "s":
		if m.running {
			return m.showToast(app.Notice{Level: app.Failure, Text: "Es läuft bereits ein Timer"})
		}
		return m.openForm(newStartForm(m.projectNames()))
	case "x":
		svc := m.svc
		return m.act(func(ctx context.Context) (app.Notice, error) {
			return svc.StopTimer(ctx)
		})
	case "n":
		return m.openEntryForm()
	case "p":
		m.panel = &projectPanel{}
		m.mode = modeProjects
	case "c":
		return m.exportCSV()
	case "r":
		m.sched.Focus()
	case "?":
		m.help = help.New(m.width*3/4, m.height*3/4)
		m.mode = modeHelp
	}
	return nil
}

func (m *Model) selectedEntry() (entry.Entry, bool) {
	list := m.svc.List(m.day)
	if m.selected < 0 || m.selected >= len(list) {
		return entry.Entry{}, false
	}
	return list[m.selected], true
}

func (m *Model) quit() tea.Cmd {
	m.drag.Handle(drag.Cancel{Reason: drag.ReasonUnload})
	m.quitting = true
	return tea.Quit
}
