// Package commands implements the school-crawler CLI.
package commands

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/school-directory-crawler/internal/config"
	"github.com/Sternrassler/school-directory-crawler/pkg/logging"
)

// app carries state shared by all subcommands once the root pre-run is done.
type app struct {
	configPath string
	logLevel   string
	logPretty  bool

	cfg    *config.Config
	logger zerolog.Logger
	out    io.Writer
	logOut io.Writer
}

// Execute runs the CLI with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Output paths are printed to out;
// logs go to logOut.
func NewRootCommand(out, logOut io.Writer) *cobra.Command {
	a := &app{out: out, logOut: logOut}

	root := &cobra.Command{
		Use:           "school-crawler",
		Short:         "Crawl the education directory API into spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("log-level") {
				cfg.Log.Level = a.logLevel
			}
			if flags.Changed("log-pretty") {
				cfg.Log.Pretty = a.logPretty
			}

			logCfg := cfg.LoggingConfig()
			logCfg.Output = a.logOut
			a.cfg = cfg
			a.logger = logging.Setup(logCfg)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (env CRAWLER_* overrides it)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.logPretty, "log-pretty", false, "human-readable console logs")

	root.AddCommand(schoolsCmd(a), areasCmd(a), cacheCmd(a))
	return root
}
