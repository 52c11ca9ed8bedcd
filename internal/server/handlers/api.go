package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tcec-chess/livefeed/internal/protocol"
	"github.com/tcec-chess/livefeed/internal/server/middleware"
	"github.com/tcec-chess/livefeed/internal/server/response"
	ws "github.com/tcec-chess/livefeed/internal/server/websocket"
)

// Root is the body served for paths nobody handles.
const Root = "Nothing to see here!!"

// HandleAPI serves /api/. WebSocket upgrades become socket connections, GET
// requests carry the message in the URL parameters "0" and "1", and POST
// requests carry it in the body.
func (h *Handlers) HandleAPI(w http.ResponseWriter, r *http.Request) {
	if isUpgrade(r) {
		h.HandleWebSocket(w, r)
		return
	}

	addr := middleware.ClientIP(r)
	switch r.Method {
	case http.MethodGet:
		req, err := protocol.DecodeParams(r.URL.Query())
		if err != nil {
			h.logger.Debug().Err(err).Str("addr", addr).Msg("Dropping undecodable request")
			response.Envelope(w, protocol.DecodeFailure)
			return
		}
		response.Envelope(w, h.router.HandleDecoded(r.Context(), req, addr))

	case http.MethodPost:
		body, err := h.readBody(w, r)
		if err != nil {
			response.ErrorFromType(w, err)
			return
		}
		response.Envelope(w, h.router.HandleRequest(r.Context(), body, addr))

	default:
		response.MethodNotAllowed(w, r.Method)
	}
}

// HandleUpload serves POST /up/. The code and query come from the URL
// parameters; the raw body is attached as the query's data field.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.MethodNotAllowed(w, r.Method)
		return
	}
	addr := middleware.ClientIP(r)

	body, err := h.readBody(w, r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	req, err := protocol.DecodeParams(r.URL.Query())
	if err != nil {
		h.logger.Debug().Err(err).Str("addr", addr).Msg("Dropping undecodable upload")
		response.Envelope(w, protocol.DecodeFailure)
		return
	}
	req.Query[protocol.FieldData] = string(body)
	response.Envelope(w, h.router.HandleDecoded(r.Context(), req, addr))
}

// HandleRoot answers every path without a handler.
func (h *Handlers) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	response.Text(w, http.StatusOK, Root)
}

// HandleWebSocket upgrades the request and serves the socket until it closes.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	ws.NewClient(conn, middleware.ClientIP(r), h.broadcaster, h.router, h.logger).Run(r.Context())
}

func (h *Handlers) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
}

func isUpgrade(r *http.Request) bool {
	return r.Method == http.MethodGet && websocket.IsWebSocketUpgrade(r)
}
