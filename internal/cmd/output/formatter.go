// Package output renders command results as a table, JSON or YAML.
// Tables are the default on a terminal and JSON when stdout is piped.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format names an output encoding.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Align is the alignment of one table column.
type Align int

// Column alignments.
const (
	AlignDefault Align = iota
	AlignLeft
	AlignRight
)

// Table is a result laid out in rows. Headers are snake_case keys.
type Table struct {
	Headers []string
	Rows    [][]string
	Align   []Align
}

// Tabular values can render themselves as a Table.
type Tabular interface {
	Table() Table
}

// ParseFormat validates a --format value. The empty string means detect.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML, "":
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q: must be one of: table, json, yaml", s)
}

// DetectFormat returns explicit when set, otherwise table on a terminal
// and JSON for pipes and redirects.
func DetectFormat(explicit Format) Format {
	if explicit != "" {
		return explicit
	}
	if fd := os.Stdout.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return FormatTable
	}
	return FormatJSON
}

// Write validates format and renders data to w in it.
func Write(w io.Writer, format string, data any) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch DetectFormat(f) {
	case FormatJSON:
		return writeJSON(w, data)
	case FormatYAML:
		return writeYAML(w, data)
	}
	t, ok := data.(Tabular)
	if !ok {
		return writeJSON(w, data)
	}
	return writeTable(w, t.Table())
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeYAML(w io.Writer, data any) error {
	out, err := yaml.MarshalWithOptions(data, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func writeTable(w io.Writer, t Table) error {
	var cfg tablewriter.Config
	if len(t.Align) > 0 {
		per := make([]tw.Align, len(t.Align))
		for i, a := range t.Align {
			switch a {
			case AlignLeft:
				per[i] = tw.AlignLeft
			case AlignRight:
				per[i] = tw.AlignRight
			default:
				per[i] = tw.Skip
			}
		}
		cfg.Header.Alignment = tw.CellAlignment{PerColumn: per}
		cfg.Row.Alignment = tw.CellAlignment{PerColumn: per}
	}

	table := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))
	if len(t.Headers) > 0 {
		headers := make([]any, len(t.Headers))
		for i, h := range t.Headers {
			headers[i] = Header(h)
		}
		table.Header(headers...)
	}
	for _, row := range t.Rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}

// Header turns a snake_case key into a column title.
func Header(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}
