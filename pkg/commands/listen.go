package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/zeit/pkg/commands/options"
	"tableflip.dev/zeit/pkg/notify"
	"tableflip.dev/zeit/pkg/printers"
)

func addListen(topLevel *cobra.Command, e *env) {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "print notifications pushed by the server",
		Long: `Connect to the server's notification channel and print every event as it
arrives. Reconnects with backoff and gives up after repeated failures.`,
		Example: `
zeit listen
zeit listen -o json
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
			url, err := notify.URLFromBase(e.cfg.Server)
			if err != nil {
				return oo.HandleError(err)
			}

			var mu sync.Mutex
			out := cmd.OutOrStdout()
			faint := color.New(color.Faint)
			ch := notify.New(url,
				notify.WithLogger(e.log),
				notify.WithBackoff(e.cfg.Backoff),
				notify.WithStateHandler(func(s notify.State) {
					if format != printers.FormatPretty {
						return
					}
					mu.Lock()
					defer mu.Unlock()
					_, _ = faint.Fprintf(out, "%s %s\n", time.Now().Format("15:04:05"), s)
				}),
			)
			ch.On(notify.Any, func(ev notify.Event) {
				mu.Lock()
				defer mu.Unlock()
				if format != printers.FormatPretty {
					if err := printers.Encode(out, format, ev); err != nil {
						e.log.WithError(err).Warn("encoding event")
					}
					return
				}
				n, _ := svc.ApplyEvent(ev)
				_, _ = fmt.Fprintf(out, "%s %s", time.Now().Format("15:04:05"), color.New(color.Bold).Sprint(ev.Type))
				if !n.IsZero() {
					_, _ = fmt.Fprintf(out, "  %s", n.Text)
				}
				_, _ = fmt.Fprintln(out)
			})

			err = ch.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return oo.HandleError(err)
		},
	}
	options.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}
