package teaui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/drag"
	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/timeutil"
)

type formKind int

const (
	formStart formKind = iota
	formEntry
	formProject
)

// Field positions per form kind.
const (
	fieldProject = iota
	fieldDescription
	fieldDate
	fieldStart
	fieldEnd
)

const (
	fieldName = iota
	fieldColor
)

// form is a modal of labelled text inputs. The same entry form serves
// manual creation, editing and the create gesture on the calendar.
type form struct {
	kind   formKind
	title  string
	id     int
	labels []string
	inputs []textinput.Model
	focus  int
	back   mode
	busy   bool
	err    string

	// completions for the project field.
	completions []string
}

func newForm(kind formKind, title string, labels ...string) *form {
	f := &form{kind: kind, title: title, labels: labels}
	for range labels {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 200
		f.inputs = append(f.inputs, in)
	}
	return f
}

func newStartForm(projects []string) *form {
	f := newForm(formStart, "Timer starten", "Projekt", "Beschreibung")
	f.inputs[fieldProject].Placeholder = "Projekt"
	f.completions = projects
	return f
}

func newEntryForm(projects []string) *form {
	f := newForm(formEntry, "Neuer Eintrag", "Projekt", "Beschreibung", "Datum", "Start", "Ende")
	f.inputs[fieldDate].Placeholder = timeutil.DateLayout
	f.inputs[fieldStart].Placeholder = "09:00"
	f.inputs[fieldEnd].Placeholder = "10:00"
	f.completions = projects
	return f
}

// fillRange prefills date and clock fields from a time range.
func (f *form) fillRange(start, end time.Time) {
	start, end = start.Local(), end.Local()
	f.set(fieldDate, start.Format(timeutil.DateLayout))
	f.set(fieldStart, start.Format(timeutil.ClockLayout))
	f.set(fieldEnd, end.Format(timeutil.ClockLayout))
}

// fillEntry prefills the form to edit e.
func (f *form) fillEntry(e entry.Entry) {
	f.title = "Eintrag bearbeiten"
	f.id = e.ID
	f.set(fieldProject, e.Project)
	f.set(fieldDescription, e.Description)
	f.fillRange(e.Start.Time, e.EndTime())
}

func newProjectForm(p *entry.Project) *form {
	f := newForm(formProject, "Neues Projekt", "Name", "Farbe")
	f.inputs[fieldColor].Placeholder = entry.DefaultColor
	f.inputs[fieldColor].CharLimit = 7
	f.set(fieldColor, entry.DefaultColor)
	if p != nil {
		f.title = "Projekt bearbeiten"
		f.id = p.ID
		f.set(fieldName, p.Name)
		f.set(fieldColor, p.Color)
	}
	return f
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *form) set(i int, v string) {
	f.inputs[i].SetValue(v)
}

func (f *form) focusField(i int) tea.Cmd {
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

// complete replaces a partial project name with the first known project
// it prefixes.
func (f *form) complete() {
	if f.kind == formProject || f.focus != fieldProject {
		return
	}
	typed := strings.ToLower(f.value(fieldProject))
	if typed == "" {
		return
	}
	for _, name := range f.completions {
		if strings.ToLower(name) == typed {
			return
		}
	}
	for _, name := range f.completions {
		if strings.HasPrefix(strings.ToLower(name), typed) {
			f.set(fieldProject, name)
			f.inputs[fieldProject].CursorEnd()
			return
		}
	}
}

type formResult int

const (
	formContinue formResult = iota
	formSubmit
	formCancel
)

// update handles one key press while the form is open.
func (f *form) update(msg tea.KeyPressMsg) (formResult, tea.Cmd) {
	if f.busy {
		if msg.String() == "esc" {
			return formCancel, nil
		}
		return formContinue, nil
	}
	switch msg.String() {
	case "esc":
		return formCancel, nil
	case "ctrl+s":
		return formSubmit, nil
	case "tab", "down":
		f.complete()
		return formContinue, f.focusField(f.focus + 1)
	case "shift+tab", "up":
		return formContinue, f.focusField(f.focus - 1)
	case "enter":
		f.complete()
		if f.focus == len(f.inputs)-1 {
			return formSubmit, nil
		}
		return formContinue, f.focusField(f.focus + 1)
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return formContinue, cmd
}

// entryForm collects the fields of a manual entry.
func (f *form) entryForm() app.EntryForm {
	return app.EntryForm{
		Project:     f.value(fieldProject),
		Description: f.value(fieldDescription),
		Date:        f.value(fieldDate),
		StartTime:   f.value(fieldStart),
		EndTime:     f.value(fieldEnd),
	}
}

// submit turns the form into the server action it stands for.
func (m *Model) submit(f *form) tea.Cmd {
	svc := m.svc
	var fn func(ctx context.Context) (app.Notice, error)
	switch f.kind {
	case formStart:
		project, description := f.value(fieldProject), f.value(fieldDescription)
		fn = func(ctx context.Context) (app.Notice, error) {
			return svc.StartTimer(ctx, project, description)
		}
	case formEntry:
		id, values := f.id, f.entryForm()
		fn = func(ctx context.Context) (app.Notice, error) {
			if id == 0 {
				return svc.CreateEntry(ctx, values)
			}
			return svc.UpdateEntry(ctx, id, values)
		}
	case formProject:
		id, name, color := f.id, f.value(fieldName), f.value(fieldColor)
		fn = func(ctx context.Context) (app.Notice, error) {
			if id == 0 {
				return svc.CreateProject(ctx, name, color)
			}
			return svc.UpdateProject(ctx, id, name, color)
		}
	}
	f.busy = true
	f.err = ""
	ctx := m.ctx
	return func() tea.Msg {
		n, err := fn(ctx)
		return noticeMsg{notice: n, err: err, fromForm: true}
	}
}

// openForm shows f over the calendar. A drag in progress ends.
func (m *Model) openForm(f *form) tea.Cmd {
	m.drag.Handle(drag.Cancel{Reason: drag.ReasonHidden})
	f.back = m.mode
	m.form = f
	m.mode = modeForm
	return f.focusField(0)
}

func (m *Model) closeForm() {
	if m.form == nil {
		m.mode = modeNormal
		return
	}
	m.mode = m.form.back
	m.form = nil
}

func (m *Model) projectNames() []string {
	projects := m.svc.Projects()
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}
	return names
}

// defaultDay is the date a new manual entry starts on: today inside the
// selected week, otherwise the week's Monday.
func (m *Model) defaultDay() time.Time {
	now := m.now()
	week := m.svc.Week()
	if week.Contains(now) && entry.WeekdayIndex(now) < timeutil.WorkDays {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	}
	return week.Day(0)
}

func (m *Model) openEntryForm() tea.Cmd {
	f := newEntryForm(m.projectNames())
	day := m.defaultDay()
	f.fillRange(day.Add(9*time.Hour), day.Add(10*time.Hour))
	return m.openForm(f)
}

func (m *Model) openEditForm(e entry.Entry) tea.Cmd {
	if e.IsRunning() {
		return m.showToast(app.Notice{Level: app.Failure, Text: "Laufende Einträge können nicht bearbeitet werden"})
	}
	f := newEntryForm(m.projectNames())
	f.fillEntry(e)
	return m.openForm(f)
}

// projectPanel lists projects for management.
type projectPanel struct {
	selected int
}

func (m *Model) selectedProject() (entry.Project, bool) {
	projects := m.svc.Projects()
	if m.panel == nil || len(projects) == 0 {
		return entry.Project{}, false
	}
	i := min(m.panel.selected, len(projects)-1)
	return projects[i], true
}

func (m *Model) handleProjectsKey(msg tea.KeyPressMsg) tea.Cmd {
	n := len(m.svc.Projects())
	switch msg.String() {
	case "esc", "q", "p":
		m.panel = nil
		m.mode = modeNormal
	case "j", "down":
		if m.panel.selected < n-1 {
			m.panel.selected++
		}
	case "k", "up":
		if m.panel.selected > 0 {
			m.panel.selected--
		}
	case "n":
		return m.openForm(newProjectForm(nil))
	case "e", "enter":
		if p, ok := m.selectedProject(); ok {
			return m.openForm(newProjectForm(&p))
		}
	case "d":
		if p, ok := m.selectedProject(); ok {
			svc, id := m.svc, p.ID
			m.askConfirm(fmt.Sprintf("Projekt \"%s\" löschen?", p.Name), func() tea.Cmd {
				return m.act(func(ctx context.Context) (app.Notice, error) {
					return svc.DeleteProject(ctx, id)
				})
			})
		}
	}
	return nil
}

// confirmPrompt asks a yes/no question before a destructive action.
type confirmPrompt struct {
	text string
	yes  func() tea.Cmd
	back mode
}

func (m *Model) askConfirm(text string, yes func() tea.Cmd) {
	m.confirm = &confirmPrompt{text: text, yes: yes, back: m.mode}
	m.mode = modeConfirm
}

func (m *Model) handleConfirmKey(msg tea.KeyPressMsg) tea.Cmd {
	c := m.confirm
	switch strings.ToLower(msg.String()) {
	case "y", "j", "enter":
		m.confirm = nil
		m.mode = c.back
		return c.yes()
	case "n", "esc", "q":
		m.confirm = nil
		m.mode = c.back
	}
	return nil
}
