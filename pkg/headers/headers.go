// Package headers builds the HTTP header sets sent to the PGD API from named
// header templates.
package headers

import (
	"github.com/cockroachdb/errors"

	"github.com/rm-hull/api-pgd-client/pkg/placeholder"
)

const (
	AuthorizationLabel = "Authorization"
	ContentTypeLabel   = "Content-Type"
	UserAgentLabel     = "User-Agent"

	ContentTypeJSONValue = "application/json"
	ContentTypeFormValue = "application/x-www-form-urlencoded"
)

// ErrMalformedItem is returned when an Item has no name or its template
// cannot be rendered with the supplied parameters.
var ErrMalformedItem = errors.New("malformed header item")

// Item is a header name plus a value template, e.g. "{token_type} {access_token}".
type Item struct {
	Name  string
	Value string
}

var (
	ContentTypeJSON = Item{Name: ContentTypeLabel, Value: ContentTypeJSONValue}
	ContentTypeForm = Item{Name: ContentTypeLabel, Value: ContentTypeFormValue}
	Authorization   = Item{Name: AuthorizationLabel, Value: "{token_type} {access_token}"}
	UserAgent       = Item{Name: UserAgentLabel, Value: "{system_name}/{system_version} ({system_url})"}
)

// Assemble renders items in order. When two items share a name the later one
// wins.
func Assemble(items []Item, params map[string]string) (map[string]string, error) {
	result := make(map[string]string, len(items))
	for i, item := range items {
		if item.Name == "" {
			return nil, errors.Wrapf(ErrMalformedItem, "item %d has no name", i)
		}
		value, err := placeholder.Render(item.Value, params)
		if err != nil {
			return nil, errors.Wrapf(errors.Mark(err, ErrMalformedItem), "header %s", item.Name)
		}
		result[item.Name] = value
	}
	return result, nil
}
