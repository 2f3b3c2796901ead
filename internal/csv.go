package internal

import (
	"encoding/csv"
	"io"
	"iter"

	"github.com/cockroachdb/errors"
)

// Result is one parsed CSV row. Line is 1-based and counts the header.
type Result[T any] struct {
	Value T
	Error error
	Line  int
}

// ParseCSV maps every row of reader through mapper. With hasHeader the first
// row is passed to mapper as the column names. Iteration stops after the
// first read error; mapper errors are reported and parsing carries on.
func ParseCSV[T any](reader io.Reader, hasHeader bool, mapper func(record, headers []string) (T, error)) iter.Seq[Result[T]] {
	return func(yield func(Result[T]) bool) {
		r := csv.NewReader(reader)
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true

		var headers []string
		line := 0
		for {
			record, err := r.Read()
			if err == io.EOF {
				return
			}
			line++
			if err != nil {
				yield(Result[T]{Error: errors.Wrapf(err, "line %d", line), Line: line})
				return
			}

			if hasHeader && headers == nil {
				headers = record
				continue
			}

			value, err := mapper(record, headers)
			if err != nil {
				err = errors.Wrapf(err, "line %d", line)
			}
			if !yield(Result[T]{Value: value, Error: err, Line: line}) {
				return
			}
		}
	}
}
