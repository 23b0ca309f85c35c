package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/zeit/pkg/runner/ui"
)

func addUI(topLevel *cobra.Command, e *env) {
	var exportDir string

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the week calendar",
		Example: `
zeit ui
zeit ui --server http://zeit.local:8000
`,
		ValidArgs: []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := e.service(true)
			if err != nil {
				return err
			}
			i := ui.UI{
				App:       svc,
				Config:    e.cfg,
				Loader:    e.loader,
				Log:       e.log,
				Hook:      e.hook,
				ExportDir: exportDir,
			}
			return i.Do(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "Directory receiving CSV exports. Defaults to the working directory.")

	topLevel.AddCommand(cmd)
}
