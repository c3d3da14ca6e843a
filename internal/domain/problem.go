package domain

import (
	"errors"
	"net/http"
)

const multipleErrorsDetail = "Multiple errors occurred. See 'errors' for more details."

// Problem is the JSON body transports answer failed requests with.
type Problem struct {
	Status    int      `json:"status"`
	Title     string   `json:"title"`
	Detail    string   `json:"detail,omitempty"`
	ErrorCode string   `json:"errorCode,omitempty"`
	Errors    []*Error `json:"errors,omitempty"`
}

// NewProblem describes err. Unclassified errors become a bare 500 so
// internal details never reach the client.
func NewProblem(err error) Problem {
	classified := Classify(err)
	if len(classified) == 0 {
		return Problem{
			Status: http.StatusInternalServerError,
			Title:  http.StatusText(http.StatusInternalServerError),
		}
	}

	primary := classified[0]
	status := primary.Kind.StatusCode()

	problem := Problem{
		Status:    status,
		Title:     http.StatusText(status),
		Detail:    primary.Description,
		ErrorCode: primary.Code,
		Errors:    classified,
	}

	if len(classified) > 1 {
		problem.Detail = multipleErrorsDetail
	}

	return problem
}

// Err rebuilds an error from a decoded problem. Errors whose code matches a
// known sentinel resolve to that sentinel, so errors.Is works across a
// service boundary.
func (p Problem) Err() error {
	if len(p.Errors) == 0 {
		kind := kindForStatus(p.Status)

		return NewError(kind, p.ErrorCode, p.Title)
	}

	errs := make([]error, 0, len(p.Errors))

	for _, e := range p.Errors {
		if known, ok := sentinels[e.Code]; ok {
			errs = append(errs, known)

			continue
		}

		errs = append(errs, NewError(kindForStatus(p.Status), e.Code, e.Description))
	}

	return errors.Join(errs...)
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return KindValidation
	case http.StatusConflict:
		return KindConflict
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	default:
		return KindFailure
	}
}

//nolint:gochecknoglobals
var sentinels = indexByCode(
	ErrForbidden,
	ErrUserNotFound,
	ErrUsernameAlreadyInUse,
	ErrInvalidCredentials,
	ErrTodoItemNotFound,
	ErrNoAuthToken,
	ErrInvalidAuthToken,
	ErrInvalidPage,
	ErrInvalidPageSize,
)

func indexByCode(errs ...*Error) map[string]*Error {
	index := make(map[string]*Error, len(errs))
	for _, e := range errs {
		index[e.Code] = e
	}

	return index
}
