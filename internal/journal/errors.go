package journal

import (
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/dagbok/internal/models"
)

type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindOutOfRange         Kind = "out_of_range"
	KindInvalidTransition  Kind = "invalid_transition"
	KindLessonNotConducted Kind = "lesson_not_conducted"
	KindDuplicateGrade     Kind = "duplicate_grade"
	KindNotFound           Kind = "not_found"
)

// Error is a rejected journal operation. Fields maps json field names to
// messages for validation failures.
type Error struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrOutOfRange         = &Error{Kind: KindOutOfRange}
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition}
	ErrLessonNotConducted = &Error{Kind: KindLessonNotConducted}
	ErrDuplicateGrade     = &Error{Kind: KindDuplicateGrade}
	ErrNotFound           = &Error{Kind: KindNotFound}
)

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func fieldError(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("%s: %s", field, message),
		Fields:  map[string]string{field: message},
	}
}

func notFound(what string, id int64) *Error {
	return newError(KindNotFound, "%s %d not found", what, id)
}

// invalidInput converts payload validation failures into a validation Error.
func invalidInput(err error) *Error {
	fields := models.FieldMessages(err)
	if fields == nil {
		return validationf("%v", err)
	}
	return &Error{Kind: KindValidation, Message: "invalid request", Fields: fields}
}

// KindOf returns the kind of a journal error, or "" for anything else.
func KindOf(err error) Kind {
	var jerr *Error
	if errors.As(err, &jerr) {
		return jerr.Kind
	}
	return ""
}
