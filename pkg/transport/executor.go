package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// decoder keeps numbers as json.Number so identifiers survive a round trip.
var decoder = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// pretty renders error bodies the way a human would read them: sorted keys,
// no HTML escaping, non-ASCII kept as is.
var pretty = jsoniter.Config{
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, args ...any)
}

// Observer is notified after every request. statusCode is 0 when no response
// was received.
type Observer interface {
	ObserveRequest(method string, statusCode int, elapsed time.Duration)
}

// Executor issues HTTP calls and decodes their JSON responses.
type Executor struct {
	client   *http.Client
	newError ErrorFunc
	logger   Logger
	observer Observer
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger logs every request line. Without it the executor is silent.
func WithLogger(logger Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithObserver registers an Observer.
func WithObserver(observer Observer) Option {
	return func(e *Executor) {
		e.observer = observer
	}
}

// New creates an Executor. A nil client gets NewHTTPClient(300s).
func New(client *http.Client, newError ErrorFunc, opts ...Option) *Executor {
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	if newError == nil {
		newError = func(f Failure) error { return errors.New(f.Message()) }
	}

	e := &Executor{
		client:   client,
		newError: newError,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultTimeout is the request timeout used when none is configured.
const DefaultTimeout = 300 * time.Second

// NewHTTPClient returns a client with the given timeout over a clone of the
// default transport, with TLS 1.2 as the minimum version.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport
	if base, ok := http.DefaultTransport.(*http.Transport); ok {
		cloned := base.Clone()
		cloned.TLSClientConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		transport = cloned
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Get performs a GET with optional query parameters.
func (e *Executor) Get(ctx context.Context, rawURL string, query url.Values, headers map[string]string) (any, error) {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}
	return e.do(ctx, http.MethodGet, rawURL, nil, headers)
}

// Delete performs a DELETE.
func (e *Executor) Delete(ctx context.Context, rawURL string, headers map[string]string) (any, error) {
	return e.do(ctx, http.MethodDelete, rawURL, nil, headers)
}

// Post performs a POST. With asJSON the data is JSON encoded, otherwise it is
// sent as an url-encoded form; form data must be url.Values, map[string]string
// or map[string]any.
func (e *Executor) Post(ctx context.Context, rawURL string, data any, headers map[string]string, asJSON bool) (any, error) {
	var (
		body []byte
		err  error
	)
	if asJSON {
		body, err = json.Marshal(data)
	} else {
		body, err = encodeForm(data)
	}
	if err != nil {
		return nil, e.fail(Failure{Kind: FailureEncode, Method: http.MethodPost, URL: rawURL, Cause: err})
	}
	return e.do(ctx, http.MethodPost, rawURL, body, headers)
}

// Put performs a PUT with a JSON body. Values that JSON cannot represent are
// sent as their string form.
func (e *Executor) Put(ctx context.Context, rawURL string, data any, headers map[string]string) (any, error) {
	body, err := encodePayload(data)
	if err != nil {
		return nil, e.fail(Failure{Kind: FailureEncode, Method: http.MethodPut, URL: rawURL, Cause: err})
	}
	return e.do(ctx, http.MethodPut, rawURL, body, headers)
}

func (e *Executor) do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, e.fail(Failure{Kind: FailureNetwork, Method: method, URL: rawURL, Cause: err})
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	e.logf("%s %s", method, rawURL)
	started := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		e.observe(method, 0, time.Since(started))
		kind := FailureNetwork
		if isTimeout(err) {
			kind = FailureTimeout
		}
		return nil, e.fail(Failure{Kind: kind, Method: method, URL: rawURL, Cause: err})
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			e.logf("failed to close body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	e.observe(method, resp.StatusCode, time.Since(started))
	if err != nil {
		kind := FailureNetwork
		if isTimeout(err) {
			kind = FailureTimeout
		}
		return nil, e.fail(Failure{Kind: kind, Method: method, URL: rawURL, StatusCode: resp.StatusCode, Cause: err})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f := Failure{
			Kind:       FailureHTTPStatus,
			Method:     method,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       respBody,
			Content:    prettyContent(respBody),
			Detail:     htmlTitle(resp.Header.Get("Content-Type"), respBody),
			Cause:      &StatusError{URL: rawURL, Status: resp.Status, StatusCode: resp.StatusCode},
		}
		if f.Detail != "" {
			e.logf("%s %s returned an HTML page: %s", method, rawURL, f.Detail)
		}
		return nil, e.fail(f)
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}

	var decoded any
	if err := decoder.Unmarshal(respBody, &decoded); err != nil {
		return nil, e.fail(Failure{Kind: FailureDecode, Method: method, URL: rawURL, StatusCode: resp.StatusCode, Cause: err})
	}
	return decoded, nil
}

// StatusError is the cause attached to FailureHTTPStatus failures.
type StatusError struct {
	URL        string
	Status     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status response from %s: %s", e.URL, e.Status)
}

func (e *Executor) fail(f Failure) error {
	f.Method = strings.ToUpper(f.Method)
	return e.newError(f)
}

func (e *Executor) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

func (e *Executor) observe(method string, statusCode int, elapsed time.Duration) {
	if e.observer != nil {
		e.observer.ObserveRequest(method, statusCode, elapsed)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func encodeForm(data any) ([]byte, error) {
	values := url.Values{}
	switch d := data.(type) {
	case nil:
	case url.Values:
		values = d
	case map[string]string:
		for k, v := range d {
			values.Set(k, v)
		}
	case map[string]any:
		for k, v := range d {
			values.Set(k, fmt.Sprint(v))
		}
	default:
		return nil, errors.Newf("unsupported form payload %T", data)
	}
	return []byte(values.Encode()), nil
}

func encodePayload(data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err == nil {
		return raw, nil
	}
	// only generic maps and slices can be rewritten
	return json.Marshal(stringifyUnsupported(data))
}

func stringifyUnsupported(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = stringifyUnsupported(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = stringifyUnsupported(x)
		}
		return out
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Complex64, reflect.Complex128, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Sprint(v)
	}
	return v
}
