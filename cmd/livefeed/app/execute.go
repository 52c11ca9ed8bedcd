package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Flags bound to live configuration keys.
var liveFlags = []string{"live-prefix", "live-log", "live-pgn"}

// Execute runs the livefeed CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd, err := a.createRootCommand()
	if err != nil {
		return err
	}
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:     "livefeed",
		Short:   "Live chess broadcast server",
		Version: a.version,
		Long: `Livefeed tails the files a running tournament writes (the engine
transcript, the game record and a set of JSON snapshots) and pushes every
change to subscribed browser clients over WebSocket.

Clients also send small array-encoded requests, over the socket or over
plain HTTP, to query their address, manage subscriptions and fetch the
last payload of a topic.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "debug", Title: "Debugging Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.livefeed.yaml)")
	flags.BoolVarP(&a.config.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.config.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.config.NoColor, "no-color", false, "disable colored output")
	flags.StringVarP(&a.config.Format, "format", "o", a.config.Format, "output format: table, json, yaml")
	flags.StringVar(&a.config.LogLevel, "log-level", a.config.LogLevel, "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("live-prefix", "./", "directory the live files are read from")
	flags.String("live-log", "live.log", "engine transcript file, empty to disable")
	flags.String("live-pgn", "live.pgn", "game record file, empty to disable")

	if err := a.config.BindFlags(flags, liveFlags...); err != nil {
		return nil, err
	}

	rootCmd.SetVersionTemplate("livefeed {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd, nil
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("config") {
		if err := a.config.UseConfigFile(mustGetString(cmd, "config")); err != nil {
			return err
		}
	}

	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
	)

	logger := NewLogger(a.config)
	a.logger = &logger

	if a.config.ConfigFile != "" {
		a.logger.Debug().Str("file", a.config.ConfigFile).Msg("Using config file")
	}
	return nil
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
