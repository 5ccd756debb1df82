package pipeline

import (
	"errors"
	"fmt"

	"nlsql/internal/guard"
)

// Kind classifies a per-request failure.
type Kind string

const (
	// KindTranslation: the text-generation call failed or returned unusable text.
	KindTranslation Kind = "translation"
	// KindForbidden: the candidate query matched the denylist.
	KindForbidden Kind = "forbidden"
	// KindExecution: the dataset rejected the query.
	KindExecution Kind = "execution"
)

// Error wraps a per-request failure with its kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the text shown to the user.
func (e *Error) Message() string {
	switch e.Kind {
	case KindForbidden:
		return guard.ErrForbidden.Error()
	case KindTranslation:
		return fmt.Sprintf("Translation failed: %v", e.Err)
	default:
		return e.Err.Error()
	}
}

// KindOf returns the kind of a pipeline error, or "" for other errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
