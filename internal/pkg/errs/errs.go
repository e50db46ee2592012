// Package errs holds the error helpers the scheduling usecases share:
// stack-capturing wraps plus sentinel marking for the HTTP error mapping.
package errs

import (
	"fmt"
	"strings"

	cr "github.com/cockroachdb/errors"
)

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func New(msg string) error {
	return cr.New(msg)
}

// Mark attaches a sentinel to err so callers can match it with errors.Is
// while keeping err as the cause. Join is used rather than cr.Mark because
// a mark is invisible to the standard library's Is, and the handlers map
// sentinels to status codes with stdlib errors.Is.
func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return cr.Join(markErr, err)
}

func ExtractStackLines(err error, maxLines int) []string {
	if err == nil {
		return nil
	}
	s := fmt.Sprintf("%+v", err)
	lines := strings.Split(s, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
