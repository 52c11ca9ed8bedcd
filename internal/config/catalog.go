package config

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"

	"github.com/tcec-chess/livefeed/internal/protocol"
	"github.com/tcec-chess/livefeed/pkg/errors"
)

// Catalog returns the catalog named by catalog_file, or the built-in one
// when no file is configured.
func (l *Live) Catalog(fs afero.Fs) (*protocol.Catalog, error) {
	if l.CatalogFile == "" {
		return protocol.DefaultCatalog(), nil
	}
	return LoadCatalogFile(fs, l.CatalogFile)
}

// LoadCatalogFile reads a catalog file. The file holds either a name to
// code object or a list of {"code", "name"} entries. YAML is used for .yaml
// and .yml files; anything else is read as JSON with comments.
func LoadCatalogFile(fs afero.Fs, path string) (*protocol.Catalog, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLCatalog(path, data)
	default:
		return parseJSONCatalog(path, jsonc.ToJSON(data))
	}
}

func parseJSONCatalog(path string, data []byte) (*protocol.Catalog, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []protocol.Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, errors.WrapParse("jsonc", path, err)
		}
		return protocol.NewCatalogFromEntries(entries)
	}
	var messages map[string]int
	if err := json.Unmarshal(trimmed, &messages); err != nil {
		return nil, errors.WrapParse("jsonc", path, err)
	}
	return protocol.NewCatalog(messages)
}

func parseYAMLCatalog(path string, data []byte) (*protocol.Catalog, error) {
	var entries []protocol.Entry
	if err := yaml.Unmarshal(data, &entries); err == nil {
		return protocol.NewCatalogFromEntries(entries)
	}
	var messages map[string]int
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return protocol.NewCatalog(messages)
}
