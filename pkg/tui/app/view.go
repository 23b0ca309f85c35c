package teaui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/drag"
	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/notify"
	"tableflip.dev/zeit/pkg/timeline"
	"tableflip.dev/zeit/pkg/timeutil"
	"tableflip.dev/zeit/pkg/tui/theme"
)

// linesPerEntry is the height of one entry in the sidebar list.
const linesPerEntry = 2

// View renders the calendar, the sidebar and any open modal.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.mode != modeNormal {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderModal())
	}

	body := m.renderCalendar()
	if side := m.sidebarWidth(); side > 0 {
		sidebar := lipgloss.NewStyle().Width(side).MaxHeight(m.grid.rows + 1).Render(m.renderSidebar())
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", sidebar)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m *Model) renderHeader() string {
	t := m.theme.Header
	week := m.svc.Week()
	parts := []string{
		t.Title.Render("zeit"),
		t.Week.Render(week.Label()),
	}
	if e, ok := m.svc.Running(); ok {
		parts = append(parts, t.Running.Render(fmt.Sprintf("● %s %s", e.Project, timeutil.FormatClock(m.svc.Elapsed(m.clock)))))
	} else {
		parts = append(parts, t.Idle.Render("Kein Timer aktiv"))
	}
	switch m.conn {
	case notify.Connected:
		parts = append(parts, t.Online.Render("live"))
	case notify.Connecting:
		parts = append(parts, t.Idle.Render("verbinde..."))
	default:
		parts = append(parts, t.Offline.Render("offline"))
	}
	return truncate.StringWithTail(strings.Join(parts, "  "), uint(max(m.width, 1)), "…")
}

func (m *Model) renderCalendar() string {
	t := m.theme.Calendar
	g := m.grid
	cell := g.colWidth - 1
	arts := m.drag.Artifacts()
	target, hasTarget := arts.Get(drag.KindDropTarget)
	dragging, isDragging := arts.Get(drag.KindDragging)
	indicator, hasIndicator := arts.Get(drag.KindIndicator)
	totals := m.svc.DayTotals()
	today := m.now()
	catalog := m.svc.Catalog()

	lines := make([]string, 0, g.rows+1)

	var head strings.Builder
	head.WriteString(strings.Repeat(" ", g.left))
	for day := 0; day < timeutil.WorkDays; day++ {
		date := g.Date(day)
		label := dayHeader(app.DayLabel(day, totals[day]), date, cell)
		style := t.DayHeader
		switch {
		case hasTarget && target.Day == day:
			style = t.DropTarget
		case entry.At(date).SameDay(today):
			style = t.Today
		}
		head.WriteString(style.Render(pad(label, cell)))
		head.WriteString(" ")
	}
	lines = append(lines, head.String())

	for r := 0; r < g.rows; r++ {
		var row strings.Builder
		hour, isHour := g.hourLabel(r)
		row.WriteString(t.Gutter.Render(pad(hour, g.left)))
		for day := 0; day < timeutil.WorkDays; day++ {
			switch {
			case hasIndicator && indicator.Day == day && indicator.Y-g.top == r:
				row.WriteString(t.Indicator.Render(pad(indicator.Label, cell)))
			default:
				if b, ok := g.blockAt(day, r); ok {
					style := theme.Block(catalog.Color(b.Entry.Project))
					if isDragging && dragging.EntryID == b.Entry.ID {
						style = style.Faint(true)
					}
					row.WriteString(style.Render(pad(blockText(g, b, r), cell)))
				} else if isHour {
					row.WriteString(t.HourLine.Render(strings.Repeat("·", cell)))
				} else {
					row.WriteString(strings.Repeat(" ", cell))
				}
			}
			row.WriteString(" ")
		}
		lines = append(lines, row.String())
	}
	return strings.Join(lines, "\n")
}

// blockText is what row r of a block shows: project and time on the first
// row, the description below.
func blockText(g grid, b timeline.Block, r int) string {
	switch r - g.firstRow(b) {
	case 0:
		return fmt.Sprintf("%s %s", b.Entry.Start.Format(timeutil.ClockLayout), b.Entry.Project)
	case 1:
		if b.Entry.Description != "" {
			return b.Entry.Description
		}
		return entry.DurationLabel(b.Entry)
	}
	return ""
}

func (m *Model) renderSidebar() string {
	t := m.theme.Panel
	filter := "Alle Tage"
	if m.day >= 0 {
		filter = timeutil.DayNames[m.day]
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStats(),
		"",
		t.Title.Render("Einträge")+" "+t.Muted.Render(filter),
		m.list.View(),
	)
}

func (m *Model) renderStats() string {
	t := m.theme.Panel
	lines := []string{t.Title.Render("Woche")}
	stats, ok := m.svc.Stats()
	if !ok {
		return strings.Join(append(lines, t.Muted.Render("Lade Statistik...")), "\n")
	}
	lines = append(lines, fmt.Sprintf("Gesamt: %.1fh  %d Projekte", stats.TotalHours, len(stats.Projects)))

	names := make([]string, 0, len(stats.Projects))
	for name := range stats.Projects {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := stats.Projects[names[i]], stats.Projects[names[j]]
		if a != b {
			return a > b
		}
		return names[i] < names[j]
	})
	catalog := m.svc.Catalog()
	width := max(m.sidebarWidth()-10, 4)
	for _, name := range names {
		swatch := theme.Block(catalog.Color(name)).Render("  ")
		lines = append(lines, fmt.Sprintf("%s %s %s", swatch, pad(name, width), entry.HoursLabel(stats.Projects[name])))
	}
	return strings.Join(lines, "\n")
}

// listHeight is what is left of the sidebar for the entry list.
func (m *Model) listHeight() int {
	return max(m.grid.rows+1-lipgloss.Height(m.renderStats())-2, linesPerEntry)
}

func (m *Model) renderList() string {
	t := m.theme.Panel
	list := m.svc.List(m.day)
	if len(list) == 0 {
		return t.Muted.Render("Keine Einträge gefunden")
	}
	width := max(m.sidebarWidth(), 10)
	catalog := m.svc.Catalog()
	lines := make([]string, 0, len(list)*linesPerEntry)
	for i, e := range list {
		swatch := theme.Block(catalog.Color(e.Project)).Render(" ")
		head := fmt.Sprintf("%s %s %s  %s",
			timeutil.DayNames[e.Weekday()],
			entryRange(e),
			e.Project,
			entry.DurationLabel(e),
		)
		head = pad(head, width-2)
		if i == m.selected {
			head = t.Selected.Render(head)
		}
		lines = append(lines, swatch+" "+head, "  "+t.Muted.Render(pad(e.Description, width-2)))
	}
	return strings.Join(lines, "\n")
}

func entryRange(e entry.Entry) string {
	if e.IsRunning() {
		return e.Start.Format(timeutil.ClockLayout) + " -      "
	}
	return e.Start.Format(timeutil.ClockLayout) + "-" + e.EndTime().Format(timeutil.ClockLayout)
}

// revealSelection scrolls the list so the selected entry is visible.
func (m *Model) revealSelection() {
	top := m.selected * linesPerEntry
	height := m.listHeight()
	if top < m.listOffset {
		m.listOffset = top
	}
	if top+linesPerEntry > m.listOffset+height {
		m.listOffset = top + linesPerEntry - height
	}
	m.listOffset = max(m.listOffset, 0)
	m.list.SetYOffset(m.listOffset)
}

func (m *Model) renderFooter() string {
	t := m.theme.Footer
	if !m.toast.IsZero() {
		switch m.toast.Level {
		case app.Failure:
			return t.Failure.Render(m.toast.Text)
		case app.Warning:
			return t.Warning.Render(m.toast.Text)
		}
		return t.Success.Render(m.toast.Text)
	}
	keys := "s Start  x Stop  n Neu  h/l Woche  0-5 Tag  p Projekte  c CSV  ? Hilfe  q Ende"
	return t.Help.Render(truncate.StringWithTail(keys, uint(max(m.width, 1)), "…"))
}

func (m *Model) renderModal() string {
	t := m.theme.Modal
	var body string
	switch m.mode {
	case modeHelp:
		if m.help != nil {
			return m.help.View()
		}
	case modeForm:
		body = m.renderForm()
	case modeProjects:
		body = m.renderProjects()
	case modeConfirm:
		if m.confirm != nil {
			body = m.confirm.text + "\n\n" + t.Hint.Render("y ja · n nein")
		}
	}
	return t.Frame.Render(body)
}

func (m *Model) renderForm() string {
	t := m.theme.Modal
	f := m.form
	if f == nil {
		return ""
	}
	lines := []string{t.Title.Render(f.title), ""}
	for i, label := range f.labels {
		style := t.Label
		if i == f.focus {
			style = t.Active
		}
		lines = append(lines, style.Render(label)+f.inputs[i].View())
	}
	lines = append(lines, "")
	switch {
	case f.busy:
		lines = append(lines, t.Hint.Render("Speichere..."))
	case f.err != "":
		lines = append(lines, m.theme.Footer.Failure.Render(f.err))
	}
	lines = append(lines, t.Hint.Render("tab Feld · enter speichern · esc abbrechen"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderProjects() string {
	t := m.theme.Modal
	lines := []string{t.Title.Render("Projekte"), ""}
	projects := m.svc.Projects()
	if len(projects) == 0 {
		lines = append(lines, m.theme.Panel.Muted.Render("Keine Projekte"))
	}
	for i, p := range projects {
		name := pad(p.Name, 30)
		if m.panel != nil && i == m.panel.selected {
			name = m.theme.Panel.Selected.Render(name)
		}
		lines = append(lines, theme.Block(p.Color).Render("  ")+" "+name)
	}
	lines = append(lines, "", t.Hint.Render("n neu · e bearbeiten · d löschen · esc schließen"))
	return strings.Join(lines, "\n")
}

// pad truncates or right-pads s to exactly width cells.
// dayHeader keeps the day total readable and shortens the date to fit
// width.
func dayHeader(label string, date time.Time, width int) string {
	for _, layout := range []string{"02.01.", "02."} {
		if s := label + " " + date.Format(layout); lipgloss.Width(s) <= width {
			return s
		}
	}
	return label
}

func pad(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = truncate.StringWithTail(s, uint(width), "…")
	if w := lipgloss.Width(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}
