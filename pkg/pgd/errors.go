package pgd

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/rm-hull/api-pgd-client/pkg/endpoints"
	"github.com/rm-hull/api-pgd-client/pkg/headers"
	"github.com/rm-hull/api-pgd-client/pkg/transport"
)

// Kind classifies a client error.
type Kind int

const (
	KindNetwork Kind = iota
	KindTimeout
	KindHTTPStatus
	// KindInvalidToken is an HTTP failure whose body carries the configured
	// invalid-token marker. It is the only kind that triggers a token refresh.
	KindInvalidToken
	KindDecode
	KindEncode
	KindEndpointNotDefined
	KindEndpointMalformed
	KindMethodNotAllowed
	KindMalformedHeader
	KindConfig
)

var kindNames = map[Kind]string{
	KindNetwork:            "network",
	KindTimeout:            "timeout",
	KindHTTPStatus:         "http_status",
	KindInvalidToken:       "invalid_token",
	KindDecode:             "decode",
	KindEncode:             "encode",
	KindEndpointNotDefined: "endpoint_not_defined",
	KindEndpointMalformed:  "endpoint_malformed",
	KindMethodNotAllowed:   "method_not_allowed",
	KindMalformedHeader:    "malformed_header",
	KindConfig:             "config",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by every Client operation.
type Error struct {
	Kind    Kind
	Message string
	// Method, StatusCode and Body are set for failures that reached the server.
	Method     string
	StatusCode int
	Body       []byte
	// Detail is the title of an HTML error page, when the server sent one.
	Detail string

	cause    error
	sentinel bool
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches the package sentinels by kind, so errors.Is(err, ErrInvalidToken)
// holds for any invalid-token failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.sentinel && t.Kind == e.Kind
}

func sentinel(kind Kind) *Error {
	return &Error{Kind: kind, Message: kind.String(), sentinel: true}
}

// Sentinels for errors.Is.
var (
	ErrTimeout            = sentinel(KindTimeout)
	ErrHTTPStatus         = sentinel(KindHTTPStatus)
	ErrInvalidToken       = sentinel(KindInvalidToken)
	ErrNetwork            = sentinel(KindNetwork)
	ErrDecode             = sentinel(KindDecode)
	ErrEncode             = sentinel(KindEncode)
	ErrEndpointNotDefined = sentinel(KindEndpointNotDefined)
	ErrEndpointMalformed  = sentinel(KindEndpointMalformed)
	ErrMethodNotAllowed   = sentinel(KindMethodNotAllowed)
	ErrMalformedHeader    = sentinel(KindMalformedHeader)
	ErrConfig             = sentinel(KindConfig)
)

// KindOf returns the Kind of err, and false when err is not a client error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsInvalidToken reports whether err signals an expired or invalid token.
func IsInvalidToken(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindInvalidToken
}

// errorFunc builds the transport.ErrorFunc for a client, classifying HTTP
// failures that carry marker as KindInvalidToken.
func errorFunc(marker string) transport.ErrorFunc {
	return func(f transport.Failure) error {
		e := &Error{
			Message:    f.Message(),
			Method:     f.Method,
			StatusCode: f.StatusCode,
			Body:       f.Body,
			Detail:     f.Detail,
			cause:      f.Cause,
		}

		switch f.Kind {
		case transport.FailureTimeout:
			e.Kind = KindTimeout
		case transport.FailureHTTPStatus:
			e.Kind = KindHTTPStatus
			if marker != "" && strings.Contains(f.Content, marker) {
				e.Kind = KindInvalidToken
			}
		case transport.FailureDecode:
			e.Kind = KindDecode
		case transport.FailureEncode:
			e.Kind = KindEncode
		default:
			e.Kind = KindNetwork
		}
		return e
	}
}

// resolverError maps endpoint and header failures onto client errors with the
// fixed messages callers match on.
func resolverError(err error) error {
	switch {
	case errors.Is(err, endpoints.ErrNotDefined):
		return &Error{Kind: KindEndpointNotDefined, Message: "Endpoint not defined", cause: err}
	case errors.Is(err, endpoints.ErrMalformed):
		return &Error{Kind: KindEndpointMalformed, Message: "Endpoint malformed", cause: err}
	case errors.Is(err, headers.ErrMalformedItem):
		return &Error{Kind: KindMalformedHeader, Message: "All header items should be a headers.Item object", cause: err}
	default:
		return err
	}
}
