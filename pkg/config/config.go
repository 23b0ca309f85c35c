// Package config loads zeit settings from .zeit.yaml, ZEIT_* environment
// variables and command line flags.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tableflip.dev/zeit/pkg/notify"
	"tableflip.dev/zeit/pkg/refresh"
)

// Keys understood in the config file. Nested keys map to env vars with
// dots replaced by underscores, so refresh.data is ZEIT_REFRESH_DATA.
const (
	KeyServer          = "server"
	KeyCache           = "cache"
	KeyLogFile         = "log.file"
	KeyLogLevel        = "log.level"
	KeyRefreshData     = "refresh.data"
	KeyRefreshProjects = "refresh.projects"
	KeyRefreshClock    = "refresh.clock"
	KeyNotifyAttempts  = "notify.max_attempts"
	KeyNotifyMaxDelay  = "notify.max_delay"
)

// Config is the resolved configuration.
type Config struct {
	Server   string
	Cache    string
	LogFile  string
	LogLevel string
	Refresh  refresh.Config
	Backoff  notify.Backoff
	// File is the config file in use, empty when running on defaults.
	File string
}

// Loader wraps a viper instance configured for zeit.
type Loader struct {
	v *viper.Viper
}

// New returns a Loader searching paths for .zeit.yaml. With no paths it
// searches $ZEIT_CONFIG_PATH, the working directory and $HOME.
func New(paths ...string) *Loader {
	v := viper.New()
	v.SetDefault(KeyServer, "http://localhost:8000")
	v.SetDefault(KeyCache, "~/.zeit/cache")
	v.SetDefault(KeyLogFile, "~/.zeit/zeit.log")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRefreshData, refresh.DefaultConfig().Data)
	v.SetDefault(KeyRefreshProjects, refresh.DefaultConfig().Projects)
	v.SetDefault(KeyRefreshClock, refresh.DefaultConfig().Clock)
	v.SetDefault(KeyNotifyAttempts, notify.DefaultBackoff().Attempts)
	v.SetDefault(KeyNotifyMaxDelay, notify.DefaultBackoff().Max)

	v.SetConfigName(".zeit") // .yaml is implicit
	v.SetEnvPrefix("ZEIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(paths) == 0 {
		if override := os.Getenv("ZEIT_CONFIG_PATH"); override != "" {
			paths = append(paths, override)
		}
		paths = append(paths, "./")
		if home, err := homedir.Dir(); err == nil {
			paths = append(paths, home)
		}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	return &Loader{v: v}
}

// BindFlag lets a command line flag override key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return nil
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the config file, if any, and resolves every key.
func (l *Loader) Load() (Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}
	return l.resolve()
}

// Watch calls fn with the new configuration whenever the config file
// changes. It does nothing when no config file was found.
func (l *Loader) Watch(fn func(Config, error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		fn(l.resolve())
	})
	l.v.WatchConfig()
}

func (l *Loader) resolve() (Config, error) {
	cache, err := expand(l.v.GetString(KeyCache))
	if err != nil {
		return Config{}, err
	}
	logFile, err := expand(l.v.GetString(KeyLogFile))
	if err != nil {
		return Config{}, err
	}
	backoff := notify.DefaultBackoff()
	if n := l.v.GetInt(KeyNotifyAttempts); n > 0 {
		backoff.Attempts = n
	}
	if d := l.v.GetDuration(KeyNotifyMaxDelay); d > 0 {
		backoff.Max = d
	}
	return Config{
		Server:   strings.TrimRight(strings.TrimSpace(l.v.GetString(KeyServer)), "/"),
		Cache:    cache,
		LogFile:  logFile,
		LogLevel: l.v.GetString(KeyLogLevel),
		Refresh: refresh.Config{
			Data:     positive(l.v.GetDuration(KeyRefreshData), refresh.DefaultConfig().Data),
			Projects: positive(l.v.GetDuration(KeyRefreshProjects), refresh.DefaultConfig().Projects),
			Clock:    positive(l.v.GetDuration(KeyRefreshClock), refresh.DefaultConfig().Clock),
		},
		Backoff: backoff,
		File:    l.v.ConfigFileUsed(),
	}, nil
}

func expand(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(p), nil
}

func positive(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
