package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/commands/options"
	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/printers"
)

func addProjects(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "list and manage projects",
		Example: `
zeit projects
zeit projects add Design --color "#ff6b6b"
zeit projects edit Design --name "UX Design"
zeit projects delete 3
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := oo.Format()
			if err != nil {
				return oo.HandleError(err)
			}
			svc, err := loadProjects(cmd, e)
			if err != nil {
				return oo.HandleError(err)
			}
			if format != printers.FormatPretty {
				return oo.HandleError(printers.Encode(cmd.OutOrStdout(), format, svc.Projects()))
			}
			pp := printer(cmd)
			pp.TitleWithCount("Projekte", len(svc.Projects()))
			pp.Projects(svc.Projects()...)
			return nil
		},
	}
	options.AddOutputArg(cmd, oo)

	addProjectAdd(cmd, e)
	addProjectEdit(cmd, e)
	addProjectDelete(cmd, e)

	topLevel.AddCommand(cmd)
}

func addProjectAdd(parent *cobra.Command, e *env) {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "create a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := e.service(false)
			if err != nil {
				return oo.HandleError(err)
			}
			n, err := svc.CreateProject(cmd.Context(), strings.Join(args, " "), color)
			return oo.HandleError(report(cmd, n, err))
		},
	}
	cmd.Flags().StringVar(&color, "color", entry.DefaultColor, "Project color as #rrggbb.")

	parent.AddCommand(cmd)
}

func addProjectEdit(parent *cobra.Command, e *env) {
	var name, color string

	cmd := &cobra.Command{
		Use:   "edit <id|name>",
		Short: "rename or recolor a project",
		Args:  cobra.MinimumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return projectCompletions(cmd, e, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadProjects(cmd, e)
			if err != nil {
				return oo.HandleError(err)
			}
			p, err := findProject(svc.Projects(), strings.Join(args, " "))
			if err != nil {
				return oo.HandleError(err)
			}
			if name == "" {
				name = p.Name
			}
			if color == "" {
				color = p.Color
			}
			n, err := svc.UpdateProject(cmd.Context(), p.ID, name, color)
			return oo.HandleError(report(cmd, n, err))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New project name.")
	cmd.Flags().StringVar(&color, "color", "", "New project color as #rrggbb.")

	parent.AddCommand(cmd)
}

func addProjectDelete(parent *cobra.Command, e *env) {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id|name>",
		Aliases: []string{"rm"},
		Short:   "deactivate a project",
		Long: `Deactivate a project. The server keeps its entries, the project just
stops being offered for new ones.`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return projectCompletions(cmd, e, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadProjects(cmd, e)
			if err != nil {
				return oo.HandleError(err)
			}
			p, err := findProject(svc.Projects(), strings.Join(args, " "))
			if err != nil {
				return oo.HandleError(err)
			}
			if !yes {
				ok, err := confirm(cmd, fmt.Sprintf("Projekt %q löschen", p.Name))
				if err != nil {
					return oo.HandleError(fmt.Errorf("%w, pass --yes to skip the question", err))
				}
				if !ok {
					return nil
				}
			}
			n, err := svc.DeleteProject(cmd.Context(), p.ID)
			return oo.HandleError(report(cmd, n, err))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation.")

	parent.AddCommand(cmd)
}

func loadProjects(cmd *cobra.Command, e *env) (*app.Service, error) {
	svc, err := e.service(false)
	if err != nil {
		return nil, err
	}
	if err := svc.Sync(cmd.Context(), app.ReloadProjects); err != nil {
		return nil, err
	}
	return svc, nil
}

// findProject resolves a project by id or by case-insensitive name.
func findProject(projects []entry.Project, ref string) (entry.Project, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		for _, p := range projects {
			if p.ID == id {
				return p, nil
			}
		}
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return entry.Project{}, fmt.Errorf("unknown project %q", ref)
}

func projectCompletions(cmd *cobra.Command, e *env, toComplete string) []string {
	svc, err := loadProjects(cmd, e)
	if err != nil {
		return nil
	}
	var names []string
	for _, p := range svc.Projects() {
		if strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(toComplete)) {
			names = append(names, p.Name)
		}
	}
	return names
}
