package pgd

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/rm-hull/api-pgd-client/pkg/endpoints"
	"github.com/rm-hull/api-pgd-client/pkg/headers"
	"github.com/rm-hull/api-pgd-client/pkg/transport"
)

func TestErrorFunc_Classification(t *testing.T) {
	classify := errorFunc(DefaultInvalidTokenMarker)

	tests := []struct {
		name    string
		failure transport.Failure
		want    Kind
	}{
		{"timeout", transport.Failure{Kind: transport.FailureTimeout, Method: "GET"}, KindTimeout},
		{"network", transport.Failure{Kind: transport.FailureNetwork, Method: "GET"}, KindNetwork},
		{"decode", transport.Failure{Kind: transport.FailureDecode, Method: "GET"}, KindDecode},
		{"encode", transport.Failure{Kind: transport.FailureEncode, Method: "PUT"}, KindEncode},
		{
			"plain http failure",
			transport.Failure{Kind: transport.FailureHTTPStatus, Method: "GET", StatusCode: 404, Content: "{\n    \"detail\": \"not found\"\n}"},
			KindHTTPStatus,
		},
		{
			"invalid token",
			transport.Failure{Kind: transport.FailureHTTPStatus, Method: "PUT", StatusCode: 401, Content: "{\n    \"detail\": \"Token inválido\"\n}"},
			KindInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.failure)
			kind, ok := KindOf(err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, kind)
			assert.Equal(t, tt.failure.Message(), err.Error())
		})
	}
}

func TestErrorFunc_EmptyMarkerNeverMatches(t *testing.T) {
	err := errorFunc("")(transport.Failure{Kind: transport.FailureHTTPStatus, StatusCode: 401, Content: "{}"})
	assert.False(t, IsInvalidToken(err))
}

func TestError_IsMatchesSentinelsByKind(t *testing.T) {
	err := errors.Wrap(&Error{Kind: KindInvalidToken, Message: "boom"}, "calling api")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.NotErrorIs(t, err, ErrHTTPStatus)
	assert.NotErrorIs(t, ErrTimeout, ErrNetwork)
	assert.True(t, IsInvalidToken(err))
}

func TestError_CauseIsKept(t *testing.T) {
	cause := &transport.StatusError{URL: "https://x/token", Status: "401 Unauthorized", StatusCode: http.StatusUnauthorized}
	err := errorFunc("x")(transport.Failure{Kind: transport.FailureHTTPStatus, Cause: cause})

	var statusErr *transport.StatusError
	assert.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestResolverError(t *testing.T) {
	notDefined := resolverError(errors.Wrap(endpoints.ErrNotDefined, "endpoint \"x\""))
	assert.EqualError(t, notDefined, "Endpoint not defined")
	assert.ErrorIs(t, notDefined, ErrEndpointNotDefined)

	malformed := resolverError(errors.Mark(errors.New("missing"), endpoints.ErrMalformed))
	assert.EqualError(t, malformed, "Endpoint malformed")
	assert.ErrorIs(t, malformed, ErrEndpointMalformed)

	header := resolverError(errors.Mark(errors.New("bad"), headers.ErrMalformedItem))
	assert.EqualError(t, header, "All header items should be a headers.Item object")
	assert.ErrorIs(t, header, ErrMalformedHeader)

	other := errors.New("other")
	assert.Same(t, other, resolverError(other))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "invalid_token", KindInvalidToken.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestKindOf_ForeignError(t *testing.T) {
	_, ok := KindOf(errors.New("nope"))
	assert.False(t, ok)
}
