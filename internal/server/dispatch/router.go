// Package dispatch decodes inbound messages, resolves them through the
// message catalog and invokes the bound Method.
package dispatch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tcec-chess/livefeed/internal/protocol"
	"github.com/tcec-chess/livefeed/internal/server/pubsub"
	"github.com/tcec-chess/livefeed/pkg/errors"
	"github.com/tcec-chess/livefeed/pkg/logging"
)

// Router maps catalog codes to methods. It is immutable once built.
type Router struct {
	catalog *protocol.Catalog
	methods map[int]Method
	logger  *zerolog.Logger
}

// NewRouter binds methods to their catalog codes. A method whose name is not
// in the catalog is left unbound; two methods with the same name are an error.
func NewRouter(catalog *protocol.Catalog, methods []Method, logger *zerolog.Logger) (*Router, error) {
	if catalog == nil {
		return nil, errors.NewConfigError("dispatch", "catalog is required", nil)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	r := &Router{
		catalog: catalog,
		methods: make(map[int]Method, len(methods)),
		logger:  logger,
	}
	for _, m := range methods {
		code, ok := catalog.Code(m.Name())
		if !ok {
			logger.Debug().Str("method", m.Name()).Msg("Method not in catalog, left unbound")
			continue
		}
		if _, dup := r.methods[code]; dup {
			return nil, errors.NewValidationError("method", m.Name(),
				fmt.Sprintf("method %s is bound twice", m.Name()))
		}
		r.methods[code] = m
	}
	return r, nil
}

// Catalog returns the catalog the router was built from.
func (r *Router) Catalog() *protocol.Catalog { return r.catalog }

// Bound reports whether code has a method.
func (r *Router) Bound(code int) bool {
	_, ok := r.methods[code]
	return ok
}

// HandleRequest decodes raw and returns the reply for the request path.
func (r *Router) HandleRequest(ctx context.Context, raw []byte, addr string) []byte {
	req, err := protocol.Decode(raw)
	if err != nil {
		r.log(ctx).Debug().Err(err).Str("addr", addr).Msg("Dropping undecodable request")
		return protocol.DecodeFailure
	}
	return r.HandleDecoded(ctx, req, addr)
}

// HandleDecoded dispatches an already decoded request and returns the reply.
func (r *Router) HandleDecoded(ctx context.Context, req protocol.Request, addr string) []byte {
	m, ok := r.methods[req.Code]
	if !ok {
		name, _ := r.catalog.Name(req.Code)
		r.log(ctx).Debug().Int("code", req.Code).Str("method", name).Msg("No handler for code")
		return protocol.EncodeUnknown(req.Code, name)
	}

	req.Enrich(addr)
	data, herr := r.invoke(ctx, m, req, nil)
	if m.NoReply() {
		return protocol.EmptyReply
	}
	return r.encode(ctx, m, req.Code, data, herr)
}

// HandleSocket dispatches one frame received on conn. Replies are queued on
// conn; malformed or unknown frames are dropped without an answer.
func (r *Router) HandleSocket(ctx context.Context, conn *pubsub.Conn, raw []byte) {
	if conn.Dead() {
		return
	}
	ctx = logging.WithConn(logging.WithLogger(ctx, r.log(ctx)), conn.ID())
	req, err := protocol.Decode(raw)
	if err != nil {
		r.log(ctx).Debug().Err(err).Msg("Dropping undecodable frame")
		return
	}
	m, ok := r.methods[req.Code]
	if !ok {
		r.log(ctx).Debug().Int("code", req.Code).Msg("No handler for code")
		return
	}

	req.Enrich(conn.Addr())
	data, herr := r.invoke(ctx, m, req, conn)
	if m.NoReply() || conn.Dead() {
		return
	}
	conn.Send(r.encode(ctx, m, req.Code, data, herr))
}

func (r *Router) invoke(ctx context.Context, m Method, req protocol.Request, conn *pubsub.Conn) (data any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log(ctx).Error().
				Interface("panic", p).
				Str("method", m.Name()).
				Int("code", req.Code).
				Msg("Method panicked")
			data = nil
			err = errors.NewHandlerError(m.Name(), req.Code, fmt.Errorf("panic: %v", p))
		}
	}()

	data, err = m.Call(ctx, req.Query, conn)
	if err != nil {
		r.log(ctx).Warn().Err(err).Str("method", m.Name()).Int("code", req.Code).Msg("Method failed")
		return data, errors.NewHandlerError(m.Name(), req.Code, err)
	}
	return data, nil
}

func (r *Router) encode(ctx context.Context, m Method, code int, data any, herr error) []byte {
	reply, err := protocol.EncodeReply(code, data, handlerMessage(herr))
	if err == nil {
		return reply
	}
	r.log(ctx).Error().Err(err).Str("method", m.Name()).Int("code", code).Msg("Failed to encode reply")
	reply, err = protocol.EncodeReply(code, nil, errors.NewHandlerError(m.Name(), code, err))
	if err != nil {
		return protocol.DecodeFailure
	}
	return reply
}

// handlerMessage strips the HandlerError wrapper so clients see the cause only.
func handlerMessage(err error) error {
	var herr *errors.HandlerError
	if errors.As(err, &herr) && herr.Err != nil {
		return herr.Err
	}
	return err
}

// log prefers the request or connection logger carried by ctx.
func (r *Router) log(ctx context.Context) *zerolog.Logger {
	return logging.FromContextOr(ctx, r.logger)
}
