package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/tcec-chess/livefeed/pkg/errors"
)

// Query fields set or read by the server.
const (
	FieldIP       = "ip"
	FieldText     = "text"
	FieldData     = "data"
	FieldValue    = "value"
	FieldClear    = "clear"
	FieldChannels = "channels"
	FieldTopic    = "topic"
)

// Query is the free-form argument object of a request.
type Query map[string]any

// String returns the string stored under key, or "".
func (q Query) String(key string) string {
	s, _ := q[key].(string)
	return s
}

// Bool reports whether the value under key is truthy.
func (q Query) Bool(key string) bool {
	switch v := q[key].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return true
	}
}

// Strings returns the string elements of the list under key. Non-string
// elements are skipped. A bare string is treated as a one-element list.
func (q Query) Strings(key string) []string {
	switch v := q[key].(type) {
	case []string:
		return v
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Request is a decoded inbound message.
type Request struct {
	Code  int
	Query Query
}

// Decode parses an inbound message. Accepted shapes are [code, query],
// [code], a bare code, and the text "<code> <rest>", quoted or raw, whose
// rest becomes the text field of the query.
func Decode(raw []byte) (Request, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Request{}, errors.NewDecodeError(raw, "empty message", nil)
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		if rawText(trimmed) {
			return decodeText(raw, string(trimmed))
		}
		return Request{}, errors.NewDecodeError(raw, "invalid JSON", err)
	}
	if dec.More() {
		if rawText(trimmed) {
			return decodeText(raw, string(trimmed))
		}
		return Request{}, errors.NewDecodeError(raw, "trailing data after message", nil)
	}

	switch m := v.(type) {
	case []any:
		if len(m) == 0 {
			return Request{}, errors.NewDecodeError(raw, "empty array", nil)
		}
		code, ok := toCode(m[0])
		if !ok {
			return Request{}, errors.NewDecodeError(raw, "message code is not an integer", nil)
		}
		var arg any
		if len(m) > 1 {
			arg = m[1]
		}
		return Request{Code: code, Query: toQuery(arg)}, nil
	case json.Number:
		code, ok := toCode(m)
		if !ok {
			return Request{}, errors.NewDecodeError(raw, "message code is not an integer", nil)
		}
		return Request{Code: code, Query: Query{}}, nil
	case string:
		return decodeText(raw, m)
	}
	return Request{}, errors.NewDecodeError(raw, "unsupported message shape", nil)
}

// DecodeParams builds a request from URL parameters: "0" holds the code and
// the optional "1" holds a JSON query.
func DecodeParams(values url.Values) (Request, error) {
	raw := []byte(values.Encode())
	code, ok := toCode(values.Get("0"))
	if !ok {
		return Request{}, errors.NewDecodeError(raw, "missing or invalid code parameter", nil)
	}
	req := Request{Code: code, Query: Query{}}
	if arg := values.Get("1"); arg != "" {
		var v any
		dec := json.NewDecoder(strings.NewReader(arg))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return Request{}, errors.NewDecodeError(raw, "invalid JSON query parameter", err)
		}
		req.Query = toQuery(v)
	}
	return req, nil
}

// Enrich stamps the caller address onto the query.
func (r *Request) Enrich(addr string) {
	if r.Query == nil {
		r.Query = Query{}
	}
	r.Query[FieldIP] = addr
}

// rawText reports whether an input that is not a single JSON value may be
// an unquoted "<code> <rest>" frame.
func rawText(b []byte) bool {
	switch b[0] {
	case '[', '{', '"':
		return false
	}
	return true
}

func decodeText(raw []byte, s string) (Request, error) {
	head, rest, _ := strings.Cut(strings.TrimSpace(s), " ")
	code, ok := toCode(head)
	if !ok {
		return Request{}, errors.NewDecodeError(raw, "text message does not start with a code", nil)
	}
	q := Query{}
	if rest != "" {
		q[FieldText] = rest
	}
	return Request{Code: code, Query: q}, nil
}

func toQuery(v any) Query {
	switch m := v.(type) {
	case nil:
		return Query{}
	case map[string]any:
		return Query(m)
	default:
		return Query{FieldValue: m}
	}
}

func toCode(v any) (int, bool) {
	switch c := v.(type) {
	case json.Number:
		if n, err := c.Int64(); err == nil {
			return clampCode(n)
		}
		f, err := c.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return 0, false
		}
		return clampCode(int64(f))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64)
		if err != nil {
			return 0, false
		}
		return clampCode(n)
	}
	return 0, false
}

func clampCode(n int64) (int, bool) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}
