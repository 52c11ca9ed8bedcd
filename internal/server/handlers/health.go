package handlers

import (
	"net/http"

	"github.com/tcec-chess/livefeed/internal/server/response"
)

// HandleHealth reports liveness along with watch, connection and cache counts.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":      "healthy",
		"service":     "livefeed",
		"version":     h.version,
		"watches":     h.watches.Len(),
		"connections": h.broadcaster.ConnCount(),
		"cache":       h.broadcaster.CacheStats(),
	})
}
