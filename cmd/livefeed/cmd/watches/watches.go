// Package watches implements the watches command.
package watches

import (
	"github.com/spf13/cobra"

	"github.com/tcec-chess/livefeed/cmd/application"
	"github.com/tcec-chess/livefeed/internal/cmd/output"
	"github.com/tcec-chess/livefeed/internal/watch"
)

// Row describes one configured watch.
type Row struct {
	Topic    string `json:"topic" yaml:"topic"`
	File     string `json:"file" yaml:"file"`
	Class    string `json:"class" yaml:"class"`
	Interval string `json:"interval" yaml:"interval"`
}

// Rows is the printable watch list.
type Rows []Row

// Table implements output.Tabular.
func (r Rows) Table() output.Table {
	data := output.Table{Headers: []string{"topic", "class", "interval", "file"}}
	for _, row := range r {
		data.Rows = append(data.Rows, []string{row.Topic, row.Class, row.Interval, row.File})
	}
	return data
}

// Build resolves topics and intervals the way the poller will see them.
func Build(specs []watch.Spec) Rows {
	rows := make(Rows, 0, len(specs))
	for _, spec := range specs {
		w := watch.New(spec)
		rows = append(rows, Row{
			Topic:    w.Topic(),
			File:     w.Filename(),
			Class:    w.Class().String(),
			Interval: w.Interval().String(),
		})
	}
	return rows
}

// NewCommand creates the watches command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "watches",
		Short: "List the files the server would tail",
		Example: `  livefeed watches --live-prefix /var/tcec/live/
  LIVEFEED_FASTS=data.json livefeed watches -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			specs, err := app.Watches()
			if err != nil {
				return err
			}
			if _, err := watch.NewRegistry(specs); err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), Build(specs))
		},
	}
}
