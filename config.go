/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Seednode/teamlink/games/degrees"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	autoComplete   bool
	bind           string
	data           string
	endYear        int
	metrics        bool
	minGames       int
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	startYear      int
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	logger *log.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	return c.validateGame()
}

func (c *Config) validateGame() error {
	if c.data == "" {
		return errors.New("--data must point to a match dataset (file path or http(s) URL)")
	}
	if c.minGames < 0 {
		return fmt.Errorf("invalid minimum games (must not be negative): %d", c.minGames)
	}
	if c.startYear != 0 && c.endYear != 0 && c.startYear > c.endYear {
		return fmt.Errorf("invalid year range (start after end): %d-%d", c.startYear, c.endYear)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// filters returns the configured round filters on top of the data-driven
// defaults of a loaded game.
func (c *Config) filters(g *degrees.Game) degrees.Filters {
	f := g.DefaultFilters(c.minGames)
	if c.startYear != 0 {
		f.StartYear = c.startYear
	}
	if c.endYear != 0 {
		f.EndYear = c.endYear
	}
	return f
}

func (c *Config) log() *log.Logger {
	if c.logger == nil {
		return log.Default()
	}
	return c.logger
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TEAMLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "teamlink",
		Short:         "Connect two players through the teams they shared, served as a single webapp.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if cfg.verbose {
				level = log.DebugLevel
			}
			cfg.logger = newLogger(os.Stderr, level)

			return cfg.validateGame()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	pfs := cmd.PersistentFlags()
	fs := cmd.Flags()

	normalize := func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	}
	pfs.SetNormalizeFunc(normalize)
	fs.SetNormalizeFunc(normalize)

	pfs.BoolVar(&cfg.autoComplete, "auto-complete", true, "finish the chain automatically once a teammate of the end player is added (env: TEAMLINK_AUTO_COMPLETE)")
	pfs.StringVarP(&cfg.data, "data", "d", "data.json", "path or http(s) URL of the match dataset (env: TEAMLINK_DATA)")
	pfs.IntVar(&cfg.endYear, "end-year", 0, "default last season for player selection, 0 for automatic (env: TEAMLINK_END_YEAR)")
	pfs.IntVar(&cfg.minGames, "min-games", 0, "default minimum games played for player selection (env: TEAMLINK_MIN_GAMES)")
	pfs.IntVar(&cfg.startYear, "start-year", 0, "default first season for player selection, 0 for automatic (env: TEAMLINK_START_YEAR)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TEAMLINK_VERBOSE)")

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TEAMLINK_BIND)")
	fs.BoolVar(&cfg.metrics, "metrics", false, "expose prometheus metrics at /metrics (env: TEAMLINK_METRICS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TEAMLINK_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TEAMLINK_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TEAMLINK_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: TEAMLINK_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TEAMLINK_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TEAMLINK_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: TEAMLINK_VERSION)")

	bindEnv := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = v.BindPFlag(f.Name, f)
			_ = v.BindEnv(f.Name)
			if !f.Changed && v.IsSet(f.Name) {
				_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
			}
		})
	}
	bindEnv(pfs)
	bindEnv(fs)

	cmd.AddCommand(newPathCmd(cfg), newHintCmd(cfg), newPlayCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("teamlink v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
