package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/commands/options"
	"tableflip.dev/zeit/pkg/printers"
)

func addStats(topLevel *cobra.Command, e *env) {
	wo := &options.WeekOptions{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "show the totals of a week",
		Example: `
zeit stats
zeit stats --week 2024-W23 -o yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if err := svc.Sync(cmd.Context(), app.ReloadStats|app.ReloadProjects); err != nil {
				return oo.HandleError(err)
			}
			stats, _ := svc.Stats()

			if format != printers.FormatPretty {
				return oo.HandleError(printers.Encode(cmd.OutOrStdout(), format, stats))
			}
			printer(cmd).Stats(week, stats, svc.Catalog())
			return nil
		},
	}
	options.AddWeekArg(cmd, wo)
	options.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}
