package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/commands/options"
)

func addStart(topLevel *cobra.Command, e *env) {
	i := &options.InteractiveOptions{}

	cmd := &cobra.Command{
		Use:   "start [project] [description]",
		Short: "start the timer",
		Example: `
zeit start Design
zeit start Design "Landing page review"
zeit start -i
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if i.Interactive {
				return nil
			}
			if len(args) < 1 {
				return errors.New("requires a project")
			}
			return nil
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) != 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return projectCompletions(cmd, e, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := e.service(false)
			if err != nil {
				return oo.HandleError(err)
			}
			ctx := cmd.Context()

			var project, description string
			if len(args) > 0 {
				project = args[0]
				description = strings.Join(args[1:], " ")
			}
			if i.Interactive {
				if err := svc.Sync(ctx, app.ReloadProjects); err != nil {
					return oo.HandleError(err)
				}
				if project == "" {
					if project, err = pickProject(cmd, svc.Projects()); err != nil {
						return oo.HandleError(err)
					}
				}
				if description == "" {
					if description, err = promptText(cmd, "Beschreibung", ""); err != nil {
						return oo.HandleError(err)
					}
				}
			}
			n, err := svc.StartTimer(ctx, project, description)
			return oo.HandleError(report(cmd, n, err))
		},
	}
	options.InteractiveArgs(cmd, i)
	cmd.Flags().BoolVar(&oo.JSON, "json", false, "Output errors as JSON.")

	topLevel.AddCommand(cmd)
}
