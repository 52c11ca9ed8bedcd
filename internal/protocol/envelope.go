package protocol

import (
	"encoding/json"
)

// FailureCode marks a reply to a message that could not be decoded or dispatched.
const FailureCode = -1

var (
	// EmptyReply answers a no-reply method on the request path.
	EmptyReply = []byte("[]")
	// DecodeFailure answers a message that could not be decoded.
	DecodeFailure = []byte("[-1,0,{}]")
)

type failure struct {
	Key    int     `json:"key"`
	Method *string `json:"method"`
}

// EncodeUnknown answers a code that has no handler. method is the catalog
// name of the code, or empty when the code is not in the catalog.
func EncodeUnknown(code int, method string) []byte {
	f := failure{Key: code}
	if method != "" {
		f.Method = &method
	}
	b, err := json.Marshal([3]any{FailureCode, 0, f})
	if err != nil {
		return DecodeFailure
	}
	return b
}

// EncodeReply encodes [code, data] or, when herr is set, [code, data, message].
func EncodeReply(code int, data any, herr error) ([]byte, error) {
	if herr != nil {
		return json.Marshal([3]any{code, data, herr.Error()})
	}
	return json.Marshal([2]any{code, data})
}
