// Package placeholder renders templates of the form "/user/{email}" by
// substituting named values.
package placeholder

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrMissing is returned (wrapped in a *MissingError) when a template refers
// to a name that has no value.
var ErrMissing = errors.New("missing placeholder value")

// ErrUnbalanced is returned when a '{' has no matching '}'.
var ErrUnbalanced = errors.New("unbalanced placeholder braces")

// MissingError names the first placeholder without a value.
type MissingError struct {
	Name string
}

func (e *MissingError) Error() string {
	return "missing placeholder value: " + e.Name
}

func (e *MissingError) Is(target error) bool {
	return target == ErrMissing
}

// Render replaces every {name} in tmpl with params[name]. Values are inserted
// verbatim. Extra params are ignored.
func Render(tmpl string, params map[string]string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(tmpl))

	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return "", errors.Wrapf(ErrUnbalanced, "template %q", tmpl)
			}
			sb.WriteString(rest)
			return sb.String(), nil
		}

		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", errors.Wrapf(ErrUnbalanced, "template %q", tmpl)
		}
		end += open

		sb.WriteString(rest[:open])
		name := rest[open+1 : end]
		value, ok := params[name]
		if !ok {
			return "", &MissingError{Name: name}
		}
		sb.WriteString(value)
		rest = rest[end+1:]
	}
}

// Names lists the placeholders referenced by tmpl, in order of appearance.
func Names(tmpl string) []string {
	var names []string
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return names
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return names
		}
		names = append(names, rest[open+1:open+end])
		rest = rest[open+end+1:]
	}
}
