package domain

import (
	"net/http"
)

// ErrorKind classifies a failure the caller is expected to handle.
type ErrorKind int

const (
	// KindFailure is an unclassified failure.
	KindFailure ErrorKind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthorized
	KindForbidden
)

//nolint:gochecknoglobals
var errorKindNames = map[ErrorKind]string{
	KindFailure:      "failure",
	KindValidation:   "validation",
	KindConflict:     "conflict",
	KindNotFound:     "not_found",
	KindUnauthorized: "unauthorized",
	KindForbidden:    "forbidden",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}

	return errorKindNames[KindFailure]
}

// StatusCode returns the HTTP status code a transport reports for the kind.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindFailure:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified, user-facing failure.
// Values are compared by identity, so package-level sentinels work with errors.Is.
type Error struct {
	Kind        ErrorKind `json:"-"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
}

// NewError creates a classified error.
func NewError(kind ErrorKind, code, description string) *Error {
	return &Error{
		Kind:        kind,
		Code:        code,
		Description: description,
	}
}

// NewValidationError creates a validation-kind error.
func NewValidationError(code, description string) *Error {
	return NewError(KindValidation, code, description)
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Description
}

// ErrForbidden is part of the model but not produced by any workflow:
// ownership mismatches are reported as not-found.
//
//nolint:gochecknoglobals
var ErrForbidden = NewError(KindForbidden, "Auth.Forbidden", "The requested action is not allowed.")

// Classify returns every classified error in err's tree, depth first, in the
// order they were joined or wrapped. The first entry is the primary error.
func Classify(err error) []*Error {
	var out []*Error

	walkErrors(err, func(e error) {
		//nolint:errorlint
		if classified, ok := e.(*Error); ok {
			out = append(out, classified)
		}
	})

	return out
}

// Primary returns the first classified error in err's tree.
func Primary(err error) (*Error, bool) {
	classified := Classify(err)
	if len(classified) == 0 {
		return nil, false
	}

	return classified[0], true
}

// KindOf returns the kind of the primary classified error, or KindFailure.
func KindOf(err error) ErrorKind {
	if primary, ok := Primary(err); ok {
		return primary.Kind
	}

	return KindFailure
}

func walkErrors(err error, visit func(error)) {
	if err == nil {
		return
	}

	visit(err)

	//nolint:errorlint
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			walkErrors(inner, visit)
		}
	case interface{ Unwrap() error }:
		walkErrors(x.Unwrap(), visit)
	}
}
