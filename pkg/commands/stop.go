package commands

import (
	"github.com/spf13/cobra"
)

func addStop(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "stop the running timer",
		Example: `
zeit stop
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := e.service(false)
			if err != nil {
				return oo.HandleError(err)
			}
			n, err := svc.StopTimer(cmd.Context())
			return oo.HandleError(report(cmd, n, err))
		},
	}
	cmd.Flags().BoolVar(&oo.JSON, "json", false, "Output errors as JSON.")

	topLevel.AddCommand(cmd)
}
