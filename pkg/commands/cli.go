package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/entry"
	"tableflip.dev/zeit/pkg/printers"
)

// errNoTerminal is returned by prompts when stdin is not a terminal.
var errNoTerminal = errors.New("interactive input needs a terminal")

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printer writes to the command's output. Project colors are only painted
// on a terminal.
func printer(cmd *cobra.Command) *printers.PrettyPrint {
	pp := &printers.PrettyPrint{Out: cmd.OutOrStdout()}
	if f, ok := cmd.OutOrStdout().(*os.File); ok && isTerminal(f) {
		pp.Swatch = printers.NewSwatch()
	}
	return pp
}

// report prints the notice of a successful action and turns a failed one
// into an error carrying the same text.
func report(cmd *cobra.Command, n app.Notice, err error) error {
	if err != nil {
		if n.Text != "" {
			return errors.New(n.Text)
		}
		return err
	}
	if !n.IsZero() {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), n.Text)
	}
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func promptStdio(cmd *cobra.Command) (io.ReadCloser, io.WriteCloser) {
	return io.NopCloser(cmd.InOrStdin()), nopWriteCloser{cmd.OutOrStdout()}
}

// pickProject lets the user choose one of projects.
func pickProject(cmd *cobra.Command, projects []entry.Project) (string, error) {
	if !isTerminal(os.Stdin) {
		return "", errNoTerminal
	}
	if len(projects) == 0 {
		return promptText(cmd, "Projekt", "")
	}
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   "➜  {{ .Name | cyan }}",
		Inactive: "   {{ .Name }}",
		Selected: "➜  {{ .Name | green }}",
	}
	searcher := func(input string, index int) bool {
		name := strings.ToLower(projects[index].Name)
		return strings.Contains(name, strings.ToLower(strings.TrimSpace(input)))
	}
	in, out := promptStdio(cmd)
	prompt := promptui.Select{
		HideHelp:  true,
		Label:     "Projekt",
		Items:     projects,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
		Stdin:     in,
		Stdout:    out,
	}
	i, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return projects[i].Name, nil
}

// promptText asks for a free text value.
func promptText(cmd *cobra.Command, label, def string) (string, error) {
	if !isTerminal(os.Stdin) {
		return "", errNoTerminal
	}
	templates := &promptui.PromptTemplates{
		Prompt:  "{{ . }}: ",
		Valid:   "{{ . | green }}: ",
		Invalid: "{{ . | red }}: ",
		Success: "{{ . | bold }}: ",
	}
	in, out := promptStdio(cmd)
	prompt := promptui.Prompt{
		Label:     label,
		Default:   def,
		Templates: templates,
		Stdin:     in,
		Stdout:    out,
	}
	return prompt.Run()
}

// confirm asks a yes/no question. Without a terminal nothing is confirmed.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if !isTerminal(os.Stdin) {
		return false, errNoTerminal
	}
	in, out := promptStdio(cmd)
	prompt := promptui.Prompt{
		Label:     question,
		IsConfirm: true,
		Stdin:     in,
		Stdout:    out,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
