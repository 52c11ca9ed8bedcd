// Package catalog implements the catalog command.
package catalog

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tcec-chess/livefeed/cmd/application"
	"github.com/tcec-chess/livefeed/internal/cmd/output"
	"github.com/tcec-chess/livefeed/internal/protocol"
	"github.com/tcec-chess/livefeed/internal/server/dispatch"
)

// Kinds of catalog message.
const (
	KindRequest   = "request"
	KindNoReply   = "request, no reply"
	KindBroadcast = "broadcast"
)

// Row is one catalog message with how the server uses it.
type Row struct {
	Code int    `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
}

// Rows is the printable catalog.
type Rows []Row

// Table implements output.Tabular.
func (r Rows) Table() output.Table {
	data := output.Table{
		Headers: []string{"code", "name", "kind"},
		Align:   []output.Align{output.AlignRight, output.AlignLeft, output.AlignLeft},
	}
	for _, row := range r {
		data.Rows = append(data.Rows, []string{strconv.Itoa(row.Code), row.Name, row.Kind})
	}
	return data
}

// Build lists the catalog, marking the messages the server answers.
func Build(c *protocol.Catalog) Rows {
	methods := make(map[string]dispatch.Method)
	for _, m := range dispatch.Builtins(nil, nil) {
		methods[m.Name()] = m
	}

	entries := c.Entries()
	rows := make(Rows, 0, len(entries))
	for _, e := range entries {
		kind := KindBroadcast
		if m, ok := methods[e.Name]; ok {
			kind = KindRequest
			if m.NoReply() {
				kind = KindNoReply
			}
		}
		rows = append(rows, Row{Code: e.Code, Name: e.Name, Kind: kind})
	}
	return rows
}

// NewCommand creates the catalog command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the message catalog",
		Long: `Print every message code the server knows, its name and whether it is
answered on the request path or only pushed to subscribers.

The catalog is the built-in one unless catalog_file names a JSON (comments
allowed) or YAML file.`,
		Example: `  livefeed catalog
  livefeed catalog -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := app.Catalog()
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), app.OutputFormat(), Build(c))
		},
	}
}
