package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"standup/internal/config"
	"standup/internal/options"
	"standup/internal/plugins/githubstats"
	"standup/internal/plugins/gitstats"
	"standup/internal/report"
	"standup/internal/stats"
)

var logLevel = new(slog.LevelVar)

// NewRootCmd assembles the command: the built-in option schema plus every
// registered stats provider's flags. Positional arguments select the
// implicit report period.
func NewRootCmd(reg *stats.Registry, cfg *config.Config) (*cobra.Command, error) {
	parser, err := options.New(reg, cfg)
	if err != nil {
		return nil, err
	}

	cmd := &cobra.Command{
		Use:   "standup [last] [today|week|month|quarter|year]",
		Short: "Gather and report activity stats for a given time period",
		Long: `standup collects what you did during a given time period from every
enabled stats source (git commits, GitHub issues and pull requests, ...)
and prints a per-user report, optionally merged into a single team-wide
report. With no period arguments the current week is reported.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			parser.Out = cmd.OutOrStdout()
			// Raise the verbosity before Resolve so its own debug
			// logging is visible too
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logLevel.Set(slog.LevelDebug)
			}
			opts, err := parser.Resolve(args)
			if err != nil {
				return err
			}
			_, _, err = report.Run(cmd.Context(), opts, reg, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().AddFlagSet(parser.Flags())
	return cmd, nil
}

// Execute builds the provider registry, runs the command and maps any
// failure to its process exit code.
func Execute() int {
	setupLogger()

	cfg, err := config.Load()
	if err != nil {
		return fail(err)
	}

	reg := stats.NewRegistry(
		gitstats.New(cfg),
		githubstats.New(cfg),
	)

	root, err := NewRootCmd(reg, cfg)
	if err != nil {
		return fail(err)
	}
	if err := root.Execute(); err != nil {
		return fail(err)
	}
	return exitOK
}

// setupLogger sends log output to stderr so stdout stays clean for the
// report, with timestamps stripped.
func setupLogger() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})))
}
