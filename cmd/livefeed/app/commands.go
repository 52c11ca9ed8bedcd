package app

import (
	"github.com/spf13/cobra"

	"github.com/tcec-chess/livefeed/cmd/livefeed/cmd/catalog"
	"github.com/tcec-chess/livefeed/cmd/livefeed/cmd/serve"
	"github.com/tcec-chess/livefeed/cmd/livefeed/cmd/tail"
	"github.com/tcec-chess/livefeed/cmd/livefeed/cmd/watches"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.CreateServeCommand())
	rootCmd.AddCommand(a.CreateCatalogCommand())
	rootCmd.AddCommand(a.CreateWatchesCommand())
	rootCmd.AddCommand(a.CreateTailCommand())
	rootCmd.AddCommand(a.CreateVersionCommand())
}

// CreateServeCommand creates the serve command with app dependencies.
func (a *App) CreateServeCommand() *cobra.Command {
	cmd := serve.NewCommand(a)
	cmd.GroupID = "core"
	return cmd
}

// CreateCatalogCommand creates the catalog command with app dependencies.
func (a *App) CreateCatalogCommand() *cobra.Command {
	cmd := catalog.NewCommand(a)
	cmd.GroupID = "core"
	return cmd
}

// CreateWatchesCommand creates the watches command with app dependencies.
func (a *App) CreateWatchesCommand() *cobra.Command {
	cmd := watches.NewCommand(a)
	cmd.GroupID = "debug"
	return cmd
}

// CreateTailCommand creates the tail command with app dependencies.
func (a *App) CreateTailCommand() *cobra.Command {
	cmd := tail.NewCommand(a)
	cmd.GroupID = "debug"
	return cmd
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("livefeed %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
