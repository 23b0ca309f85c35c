package options

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tableflip.dev/zeit/pkg/timeutil"
)

// WeekOptions select a calendar week.
type WeekOptions struct {
	Week weekValue
}

// weekValue is a pflag.Value accepting YYYY-Www, YYYY-ww or one of
// this, next and prev relative to now.
type weekValue struct {
	week timeutil.Week
	set  bool
	now  func() time.Time
}

var _ pflag.Value = (*weekValue)(nil)

func (v *weekValue) String() string {
	if !v.set {
		return "this"
	}
	return v.week.String()
}

func (v *weekValue) Set(s string) error {
	current := timeutil.Current(v.clock())
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "this", "current":
		v.week = current
	case "next":
		v.week = current.Next()
	case "prev", "last":
		v.week = current.Prev()
	default:
		w, err := timeutil.ParseWeek(s)
		if err != nil {
			return err
		}
		v.week = w
	}
	v.set = true
	return nil
}

func (v *weekValue) Type() string {
	return "week"
}

func (v *weekValue) clock() time.Time {
	if v.now == nil {
		return time.Now()
	}
	return v.now()
}

// Selected is the chosen week, the current one when the flag was not set.
func (o *WeekOptions) Selected() timeutil.Week {
	if !o.Week.set {
		return timeutil.Current(o.Week.clock())
	}
	return o.Week.week
}

func AddWeekArg(cmd *cobra.Command, o *WeekOptions) {
	cmd.Flags().VarP(&o.Week, "week", "w",
		"Calendar week: YYYY-Www, this, next or prev.")
}

// DayOptions filter by weekday.
type DayOptions struct {
	Day int
}

func AddDayArg(cmd *cobra.Command, o *DayOptions) {
	cmd.Flags().IntVarP(&o.Day, "day", "d", 0,
		"Weekday to show, 1 (Monday) to 5 (Friday). 0 shows the whole week.")
}

// Index is the Monday-based weekday index, -1 for all days.
func (o *DayOptions) Index() int {
	return o.Day - 1
}

// Validate rejects days outside the work week.
func (o *DayOptions) Validate() error {
	if o.Day < 0 || o.Day > timeutil.WorkDays {
		return fmt.Errorf("invalid day %d, expected 0 to %d", o.Day, timeutil.WorkDays)
	}
	return nil
}
