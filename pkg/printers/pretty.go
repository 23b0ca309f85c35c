package printers

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/timeutil"
)

// PrettyPrint renders entries, projects and stats for humans.
type PrettyPrint struct {
	Out    io.Writer
	ShowID bool
	// Swatch paints project colors; nil prints names only.
	Swatch *Swatch
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " Eintrag")
	default:
		_, _ = c.Fprintln(pp.out(), " Einträge")
	}
}

// Entries prints entries in list order, running first.
func (pp *PrettyPrint) Entries(catalog entry.Catalog, entries ...entry.Entry) {
	if len(entries) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " Keine Einträge gefunden\n\n")
		return
	}
	sorted := append([]entry.Entry(nil), entries...)
	entry.SortForList(sorted)

	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	running := color.New(color.FgGreen, color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, e := range sorted {
		row := make([]interface{}, 0, 6)
		if pp.ShowID {
			row = append(row, y.Sprint(e.ID))
		}
		when := e.Start.Format("Mon 02.01. 15:04")
		if end := e.End; end != nil {
			when += " - " + end.Format(timeutil.ClockLayout)
		}
		dur := entry.DurationLabel(e)
		if e.IsRunning() {
			dur = running.Sprint(dur)
		}
		row = append(row, when, pp.project(catalog, e.Project), truncate.StringWithTail(e.Description, 40, "..."), dur)
		tbl.AddRow(row...)
	}
	tbl.RightAlign(len(tbl.Rows[0].Cells) - 1)
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Projects prints the project list with colors.
func (pp *PrettyPrint) Projects(projects ...entry.Project) {
	if len(projects) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " Keine Projekte\n\n")
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Projekt"), bold.Sprint("Farbe"))
	catalog := entry.NewCatalog(projects)
	for _, p := range projects {
		tbl.AddRow(p.ID, pp.project(catalog, p.Name), p.Color)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Running prints the running timer or that none runs.
func (pp *PrettyPrint) Running(e entry.Entry, ok bool, now time.Time) {
	if !ok {
		_, _ = color.New(color.Faint).Fprintln(pp.out(), "Kein Timer aktiv")
		return
	}
	g := color.New(color.FgGreen, color.Bold)
	_, _ = g.Fprint(pp.out(), timeutil.FormatClock(now.Sub(e.Start.Time)))
	_, _ = fmt.Fprintf(pp.out(), "  %s", e.Project)
	if e.Description != "" {
		_, _ = color.New(color.Faint).Fprintf(pp.out(), "  %s", e.Description)
	}
	pp.NewLine()
}

// Stats prints a week summary: total, project count and hours per project.
func (pp *PrettyPrint) Stats(w timeutil.Week, s entry.Stats, catalog entry.Catalog) {
	pp.Title(w.Label())
	b := color.New(color.Bold)
	_, _ = b.Fprintf(pp.out(), "%.1fh", s.TotalHours)
	_, _ = fmt.Fprintf(pp.out(), " gesamt, %d Projekte\n\n", len(s.Projects))

	names := make([]string, 0, len(s.Projects))
	for name := range s.Projects {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.Projects[names[i]] != s.Projects[names[j]] {
			return s.Projects[names[i]] > s.Projects[names[j]]
		}
		return names[i] < names[j]
	})

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, name := range names {
		tbl.AddRow(pp.project(catalog, name), entry.HoursLabel(s.Projects[name]))
	}
	tbl.RightAlign(1)
	if len(names) > 0 {
		_, _ = fmt.Fprintln(pp.out(), tbl)
	}
	pp.NewLine()
}

func (pp *PrettyPrint) project(catalog entry.Catalog, name string) string {
	if pp.Swatch == nil {
		return name
	}
	return pp.Swatch.Paint(strings.TrimSpace(name), catalog.Color(name))
}
