// Package guard validates and executes candidate SQL produced by the translator.
//
// The check is a case-insensitive substring scan over the whole statement. It
// over-rejects read-only text that merely contains a keyword (a column named
// INSERTED, a literal 'drop-off') and does not parse the statement, so payloads
// outside the fixed list are not caught here. The dataset is additionally opened
// read-only by the store package.
package guard

import (
	"errors"
	"fmt"
	"strings"
)

// ErrForbidden is wrapped by every denylist rejection.
var ErrForbidden = errors.New("Forbidden SQL operation detected")

// Denylist is the fixed set of mutating keywords.
var Denylist = []string{"DELETE", "UPDATE", "DROP", "TRUNCATE", "ALTER", "INSERT"}

// ForbiddenError names the keyword that caused a rejection.
type ForbiddenError struct {
	Keyword string
}

func (e *ForbiddenError) Error() string {
	return ErrForbidden.Error()
}

// Unwrap lets errors.Is match ErrForbidden.
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// Sanitize strips code-fence markup and surrounding whitespace from model output.
func Sanitize(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "```sql\n", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Validate refuses text containing any denylisted keyword anywhere.
func Validate(query string) error {
	upper := strings.ToUpper(query)
	for _, kw := range Denylist {
		if strings.Contains(upper, kw) {
			return &ForbiddenError{Keyword: kw}
		}
	}
	return nil
}

// Keyword extracts the matched keyword from a rejection, if err is one.
func Keyword(err error) (string, bool) {
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe.Keyword, true
	}
	return "", false
}

// describe is used in log lines only; the user-facing text stays fixed.
func describe(err error) string {
	if kw, ok := Keyword(err); ok {
		return fmt.Sprintf("denylisted keyword %s", kw)
	}
	return err.Error()
}
