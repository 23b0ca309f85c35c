package commands

import (
	"os"

	"github.com/spf13/cobra"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/commands/options"
)

func addExport(topLevel *cobra.Command, e *env) {
	wo := &options.WeekOptions{}
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "export a week as CSV",
		Long: `Download the CSV export of a week. The file is named after the week,
zeiterfassung_KW<week>_<year>.csv, unless --file is given. Use --file - to
write to stdout.`,
		Example: `
zeit export
zeit export --week prev --file - > last-week.csv
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := e.service(false)
			if err != nil {
				return oo.HandleError(err)
			}
			week := wo.Selected()

			if file == "-" {
				_, err := svc.ExportCSV(cmd.Context(), cmd.OutOrStdout(), week)
				return oo.HandleError(err)
			}
			path := file
			if path == "" {
				path = week.FileName()
			}
			f, err := os.Create(path)
			if err != nil {
				return oo.HandleError(err)
			}
			n, err := svc.ExportCSV(cmd.Context(), f, week)
			if cerr := f.Close(); err == nil && cerr != nil {
				n, err = app.Notice{}, cerr
			}
			if err != nil {
				_ = os.Remove(path)
			}
			return oo.HandleError(report(cmd, n, err))
		},
	}
	options.AddWeekArg(cmd, wo)
	cmd.Flags().StringVarP(&file, "file", "f", "", "Target file, - for stdout.")
	cmd.Flags().BoolVar(&oo.JSON, "json", false, "Output errors as JSON.")

	topLevel.AddCommand(cmd)
}
