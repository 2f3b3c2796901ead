// Package transport executes single HTTP calls against a JSON API.
//
// An Executor applies the http.Client timeout, encodes request bodies, decodes
// JSON responses, and turns timeouts and non-2xx statuses into a Failure. The
// executor does not pick an error type: every Failure goes through the
// ErrorFunc supplied by the caller, so each client keeps its own error
// taxonomy.
//
//	exec := transport.New(transport.NewHTTPClient(30*time.Second), func(f transport.Failure) error {
//	    return errors.New(f.Message())
//	})
//	body, err := exec.Get(ctx, "https://api.example.com/user/a@b.com", nil, headers)
package transport
