package commands

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/commands/options"
	"tableflip.dev/zeit/pkg/printers"
)

func addEntries(topLevel *cobra.Command, e *env) {
	wo := &options.WeekOptions{}
	do := &options.DayOptions{}
	var showID bool

	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"ls", "list"},
		Short:   "list the entries of a week",
		Example: `
zeit entries
zeit entries --week prev --day 1
zeit entries --week 2024-W23 -o json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := do.Validate(); err != nil {
				return oo.HandleError(err)
			}
			format, err := oo.Format()
			if err != nil {
				return oo.HandleError(err)
			}
			svc, err := e.service(false)
			if err != nil {
				return oo.HandleError(err)
			}
			week := wo.Selected()
			svc.SetWeek(week)
			if err := svc.Sync(cmd.Context(), app.ReloadEntries|app.ReloadProjects); err != nil {
				return oo.HandleError(err)
			}
			list := svc.List(do.Index())

			if format != printers.FormatPretty {
				return oo.HandleError(printers.Encode(cmd.OutOrStdout(), format, list))
			}
			pp := printer(cmd)
			pp.ShowID = showID
			running, ok := svc.Running()
			pp.Running(running, ok, time.Now())
			pp.NewLine()
			pp.Week(week, svc.DayTotals(), time.Now())
			pp.TitleWithCount("Einträge", len(list))
			pp.Entries(svc.Catalog(), list...)
			return nil
		},
	}
	options.AddWeekArg(cmd, wo)
	options.AddDayArg(cmd, do)
	options.AddOutputArg(cmd, oo)
	cmd.Flags().BoolVar(&showID, "ids", false, "Show entry ids.")

	topLevel.AddCommand(cmd)
}
