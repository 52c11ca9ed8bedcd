// Package tail implements the tail command.
package tail

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tcec-chess/livefeed/cmd/application"
	"github.com/tcec-chess/livefeed/internal/extract"
	"github.com/tcec-chess/livefeed/internal/poller"
	"github.com/tcec-chess/livefeed/internal/watch"
)

// Printer writes every published payload as one [code, data] line.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	count int
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Publish implements poller.Publisher.
func (p *Printer) Publish(_ string, code int, data any) int {
	line, err := json.Marshal([]any{code, data})
	if err != nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintf(p.w, "%s\n", line); err != nil {
		return 0
	}
	p.count++
	return 1
}

// Count returns how many payloads were printed.
func (p *Printer) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// NewCommand creates the tail command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail <file>",
		Short: "Poll one file and print what would be broadcast",
		Long: `Poll a single file with the same engine the server uses and print every
extracted payload as a [code, data] JSON line.

Classes: log (transcript), pgn (game record), changelog, json (snapshot).`,
		Example: `  livefeed tail live.pgn --class pgn
  livefeed tail live.log --class log --interval 500ms
  livefeed tail crosstable.json --once`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			className, _ := cmd.Flags().GetString("class")
			interval, _ := cmd.Flags().GetDuration("interval")
			once, _ := cmd.Flags().GetBool("once")

			class, err := watch.ParseClass(className)
			if err != nil {
				return err
			}
			spec := watch.Spec{Filename: args[0], Class: class, Interval: interval}
			return Run(cmd, app, spec, once)
		},
	}

	cmd.Flags().String("class", "json", "file class: log, pgn, changelog, json")
	cmd.Flags().Duration("interval", time.Second, "poll interval")
	cmd.Flags().Bool("once", false, "poll once and exit")
	return cmd
}

// Run polls spec and prints its payloads to the command output. With once
// set it polls a single time; otherwise it runs until the command context
// is cancelled.
func Run(cmd *cobra.Command, app application.Application, spec watch.Spec, once bool) error {
	registry, err := watch.NewRegistry([]watch.Spec{spec})
	if err != nil {
		return err
	}
	catalog, err := app.Catalog()
	if err != nil {
		return err
	}

	logger := app.Logger()
	printer := NewPrinter(cmd.OutOrStdout())
	p := poller.New(
		registry,
		watch.NewTailer(afero.NewOsFs(), logger),
		extract.NewSet(app.Sentinel()),
		printer,
		poller.Config{Codes: poller.CodesFromCatalog(catalog), Notify: app.Notify()},
		logger,
	)

	if once {
		p.PollNow(spec.Filename)
		return registry.CloseAll()
	}

	ctx := cmd.Context()
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	if err := p.Stop(); err != nil {
		return err
	}
	logger.Info().Int("payloads", printer.Count()).Msg("Tail stopped")
	return nil
}
