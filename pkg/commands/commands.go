package commands

import (
	"fmt"
	"os"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tableflip.dev/zeit/pkg/api"
	"tableflip.dev/zeit/pkg/app"
	"tableflip.dev/zeit/pkg/commands/options"
	"tableflip.dev/zeit/pkg/config"
	"tableflip.dev/zeit/pkg/logging"
	"tableflip.dev/zeit/pkg/store"
)

var (
	oo = &options.OutputOptions{}

	_ app.Backend = (*api.Client)(nil)
)

func New() *cobra.Command {
	e := &env{loader: config.New()}

	cmd := &cobra.Command{
		Use:   "zeit",
		Short: base.Wrap80("Time tracking in the terminal, backed by a zeit server."),
		Long: base.Wrap80("zeit shows the working week as a calendar, runs a timer and " +
			"keeps entries and projects in sync with the server. Run `zeit ui` for the " +
			"calendar or one of the commands below for scripted use."),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
	}
	cmd.PersistentFlags().String("server", "", "Base URL of the zeit server.")
	_ = e.loader.BindFlag(config.KeyServer, cmd.PersistentFlags().Lookup("server"))

	AddCommands(cmd, e)
	return cmd
}

func AddCommands(topLevel *cobra.Command, e *env) {
	addUI(topLevel, e)
	addStart(topLevel, e)
	addStop(topLevel, e)
	addEntries(topLevel, e)
	addProjects(topLevel, e)
	addStats(topLevel, e)
	addExport(topLevel, e)
	addListen(topLevel, e)
	addMCP(topLevel, e)
	addVersion(topLevel)
	addCompletions(topLevel)
}

// env resolves configuration and builds the tracker service on first use.
type env struct {
	loader *config.Loader
	cfg    config.Config
	log    *logrus.Logger
	hook   *logging.Hook
	closer func() error
	loaded bool
}

// load reads the configuration and sets up logging. Commands owning the
// terminal log to the configured file, the rest to stderr.
func (e *env) load(toFile bool) error {
	if e.loaded {
		return nil
	}
	cfg, err := e.loader.Load()
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	opts := logging.Options{Level: cfg.LogLevel, Out: os.Stderr}
	if toFile {
		opts.File = cfg.LogFile
	}
	log, closer, err := logging.New(opts)
	if err != nil {
		return err
	}
	if toFile {
		e.hook = logging.NewHook(32)
		log.AddHook(e.hook)
	}
	e.cfg, e.log, e.closer, e.loaded = cfg, log, closer, true
	log.WithFields(logrus.Fields{"server": cfg.Server, "config": cfg.File}).Debug("configuration loaded")
	return nil
}

// service returns the tracker service for the configured server. A broken
// cache only costs the offline snapshot.
func (e *env) service(toFile bool) (*app.Service, error) {
	if err := e.load(toFile); err != nil {
		return nil, err
	}
	client := api.New(e.cfg.Server, e.log)
	svc := app.NewService(client, nil, e.log)
	if e.cfg.Cache != "" {
		snap, err := store.Open(e.cfg.Cache, e.cfg.Server)
		if err != nil {
			e.log.WithError(err).Warn("offline cache disabled")
		} else {
			svc.Snapshot = snap
		}
	}
	return svc, nil
}

func (e *env) close() error {
	if e.closer == nil {
		return nil
	}
	err := e.closer()
	e.closer = nil
	return err
}
