package application

import (
	"github.com/rs/zerolog"

	"github.com/tcec-chess/livefeed/internal/protocol"
	"github.com/tcec-chess/livefeed/internal/watch"
)

// Mock is an Application for tests. Unset funcs return defaults.
type Mock struct {
	CatalogFunc    func() (*protocol.Catalog, error)
	WatchesFunc    func() ([]watch.Spec, error)
	SubscribesFunc func() []string
	SentinelValue  string
	NotifyValue    bool
	LoggerFunc     func() *zerolog.Logger
	Format         string
	VersionValue   string
}

var _ Application = (*Mock)(nil)

// Catalog implements Application.
func (m *Mock) Catalog() (*protocol.Catalog, error) {
	if m.CatalogFunc != nil {
		return m.CatalogFunc()
	}
	return protocol.DefaultCatalog(), nil
}

// Watches implements Application.
func (m *Mock) Watches() ([]watch.Spec, error) {
	if m.WatchesFunc != nil {
		return m.WatchesFunc()
	}
	return nil, nil
}

// Subscribes implements Application.
func (m *Mock) Subscribes() []string {
	if m.SubscribesFunc != nil {
		return m.SubscribesFunc()
	}
	return nil
}

// Notify implements Application.
func (m *Mock) Notify() bool { return m.NotifyValue }

// Sentinel implements Application.
func (m *Mock) Sentinel() string {
	if m.SentinelValue != "" {
		return m.SentinelValue
	}
	return "*"
}

// Logger implements Application.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	nop := zerolog.Nop()
	return &nop
}

// OutputFormat implements Application.
func (m *Mock) OutputFormat() string { return m.Format }

// Version implements Application.
func (m *Mock) Version() string {
	if m.VersionValue != "" {
		return m.VersionValue
	}
	return "dev"
}

// Commit implements Application.
func (m *Mock) Commit() string { return "none" }

// Date implements Application.
func (m *Mock) Date() string { return "unknown" }

// BuiltBy implements Application.
func (m *Mock) BuiltBy() string { return "test" }
