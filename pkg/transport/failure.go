package transport

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FailureKind classifies what went wrong while executing a request.
type FailureKind int

const (
	// FailureNetwork covers connection errors other than timeouts.
	FailureNetwork FailureKind = iota
	FailureTimeout
	// FailureHTTPStatus means the server answered with a non-2xx status.
	FailureHTTPStatus
	// FailureDecode means a 2xx body was not valid JSON.
	FailureDecode
	// FailureEncode means the request body could not be encoded.
	FailureEncode
)

func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network"
	case FailureTimeout:
		return "timeout"
	case FailureHTTPStatus:
		return "http_status"
	case FailureDecode:
		return "decode"
	case FailureEncode:
		return "encode"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Failure carries everything the executor knows about a failed request. It is
// handed to the caller's ErrorFunc, which decides the error type returned.
type Failure struct {
	Kind       FailureKind
	Method     string
	URL        string
	StatusCode int
	// Body is the raw response body of a FailureHTTPStatus.
	Body []byte
	// Content is Body pretty-printed as JSON, or "{}" when it is not JSON.
	Content string
	// Detail holds the <title> of an HTML error page, if any.
	Detail string
	Cause  error
}

// Message renders the diagnostic text for the failure.
func (f Failure) Message() string {
	method := strings.ToUpper(f.Method)
	switch f.Kind {
	case FailureTimeout:
		return fmt.Sprintf("Due to timeout error, %s can't be done.", method)
	case FailureHTTPStatus:
		return fmt.Sprintf("Error while trying to do a %s request.\nStatus code: %d\nResponse:\n%s", method, f.StatusCode, f.Content)
	case FailureDecode:
		return fmt.Sprintf("Invalid JSON in response to a %s request: %v", method, f.Cause)
	case FailureEncode:
		return fmt.Sprintf("Could not encode the body of a %s request: %v", method, f.Cause)
	default:
		return fmt.Sprintf("Error while trying to do a %s request: %v", method, f.Cause)
	}
}

// ErrorFunc converts a Failure into the caller's error type.
type ErrorFunc func(Failure) error

func prettyContent(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return "{}"
	}

	var v any
	if err := pretty.Unmarshal(body, &v); err != nil {
		return "{}"
	}

	out, err := pretty.MarshalIndent(v, "", "    ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

func htmlTitle(contentType string, body []byte) string {
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
