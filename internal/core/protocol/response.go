package protocol

import (
	"encoding/json"
	"errors"

	"github.com/neilberkman/researchtrail/internal/core/capture"
)

// Error kinds reported in failure responses
const (
	KindNotFound         = "not_found"
	KindUnknownOperation = "unknown_operation"
	KindInvalidRequest   = "invalid_request"
	KindInternal         = "internal"
)

// Response is the reply to exactly one request. Payload fields are
// flattened next to ok/error when encoded.
type Response struct {
	RequestID string
	OK        bool
	Error     string
	Kind      string
	Payload   map[string]interface{}
}

// Success builds an ok response with payload fields
func Success(payload map[string]interface{}) Response {
	return Response{OK: true, Payload: payload}
}

// Failure builds an error response classified by kind
func Failure(err error) Response {
	return Response{OK: false, Error: err.Error(), Kind: ErrorKind(err)}
}

// ErrorKind classifies err for the extension
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, capture.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnknownOperation):
		return KindUnknownOperation
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	default:
		return KindInternal
	}
}

// MarshalJSON implements json.Marshaler
func (r Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Payload)+4)
	for k, v := range r.Payload {
		out[k] = v
	}
	out["ok"] = r.OK
	if r.RequestID != "" {
		out["requestId"] = r.RequestID
	}
	if !r.OK {
		out["error"] = r.Error
		out["kind"] = r.Kind
	}
	return json.Marshal(out)
}
