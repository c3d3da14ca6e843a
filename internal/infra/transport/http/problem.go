package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/mkrupp/simpletodo/internal/domain"
)

var errPanic = errors.New("handler panicked")

// WriteProblem answers the request with the problem details describing err.
func WriteProblem(w http.ResponseWriter, r *http.Request, err error) {
	problem := domain.NewProblem(err)

	render.Status(r, problem.Status)
	render.JSON(w, r, problem)
}

// WriteJSON answers the request with status and v encoded as JSON.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// ReadProblem converts a failed response into an error. Classified errors in
// the problem body survive the round trip so callers can use errors.Is.
func ReadProblem(resp *http.Response) error {
	var problem domain.Problem

	if err := render.DecodeJSON(resp.Body, &problem); err != nil || problem.Status == 0 {
		problem = domain.Problem{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
	}

	return problem.Err()
}
