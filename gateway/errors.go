package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
)

// DefaultMessage is the message used whenever nothing better can be derived.
const DefaultMessage = "Request failed"

// ErrEmptyBody is returned by Response.Decode when the response had no JSON body.
var ErrEmptyBody = errors.New("response has no json body")

// Kind classifies a failed request.
type Kind uint8

const (
	// KindServer is a response with a non-success status.
	KindServer Kind = iota + 1
	// KindTransport means no response arrived (network error, cancelled context).
	KindTransport
	// KindEncode means the request body could not be serialized.
	KindEncode
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	case KindEncode:
		return "encode"
	default:
		return "unknown"
	}
}

// Error is the normalized failure every gateway call returns. Message is safe
// to show to a user; Status is zero unless Kind is KindServer.
type Error struct {
	Kind      Kind
	Status    int
	Message   string
	RequestID string
	Body      json.RawMessage

	err error
}

func (e *Error) Error() string {
	if e == nil || e.Message == "" {
		return DefaultMessage
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a server rejection of the caller's
// credentials (401 or 403).
func IsUnauthorized(err error) bool {
	gwErr, ok := AsError(err)
	if !ok || gwErr.Kind != KindServer {
		return false
	}
	return gwErr.Status == http.StatusUnauthorized || gwErr.Status == http.StatusForbidden
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	if gwErr, ok := AsError(err); ok {
		return gwErr.Status
	}
	return 0
}
