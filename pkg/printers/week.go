package printers

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/timeutil"
)

const dayWidth = len("Mo 03.06.") // one column

// Week prints a one line overview of the work days with their totals.
// Days without time are faint, today is underlined.
func (pp *PrettyPrint) Week(w timeutil.Week, totals [timeutil.WorkDays]float64, now time.Time) {
	width := timeutil.WorkDays * (dayWidth + 2)
	tf := color.New(color.FgWhite, color.Italic)

	label := w.Label()
	mid := (width - len(label)) / 2
	if mid < 0 {
		mid = 0
	}
	_, _ = tf.Fprintf(pp.out(), "%s%s\n", strings.Repeat(" ", mid), label)

	l1 := color.New(color.Faint, color.FgWhite)
	l2 := color.New(color.Bold, color.FgHiWhite)

	for i := 0; i < timeutil.WorkDays; i++ {
		day := w.Day(i)
		printer := l1
		if totals[i] > 0 {
			printer = l2
		}
		if sameDay(day, now) {
			printer = color.New(color.Bold, color.Underline)
		}
		_, _ = printer.Fprintf(pp.out(), "%-*s  ", dayWidth, fmt.Sprintf("%s %s", timeutil.DayNames[i], day.Format("02.01.")))
	}
	_, _ = fmt.Fprintln(pp.out(), "")
	for i := 0; i < timeutil.WorkDays; i++ {
		_, _ = fmt.Fprintf(pp.out(), "%-*s  ", dayWidth, entry.HoursLabel(totals[i]))
	}
	_, _ = fmt.Fprint(pp.out(), "\n\n")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
