package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkrupp/simpletodo/internal/domain"
	http_ "github.com/mkrupp/simpletodo/internal/infra/transport/http"
)

func TestDecodeAndValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantCodes []string
	}{
		{
			name: "valid",
			body: `{"title":"Buy milk","description":"2 liters"}`,
		},
		{
			name:      "malformed",
			body:      `{"title":`,
			wantCodes: []string{http_.ErrMalformedBody.Code},
		},
		{
			name:      "missing fields",
			body:      `{}`,
			wantCodes: []string{"Request.Title", "Request.Description"},
		},
		{
			name:      "title too long",
			body:      `{"title":"` + strings.Repeat("x", 61) + `","description":"d"}`,
			wantCodes: []string{"Request.Title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst domain.TodoItemCreate

			err := http_.DecodeAndValidate(req, &dst)

			classified := domain.Classify(err)
			if len(classified) != len(tt.wantCodes) {
				t.Fatalf("errors = %v, want codes %v", err, tt.wantCodes)
			}

			for i, code := range tt.wantCodes {
				if classified[i].Code != code {
					t.Errorf("error %d code = %q, want %q", i, classified[i].Code, code)
				}

				if classified[i].Kind != domain.KindValidation {
					t.Errorf("error %d kind = %v, want validation", i, classified[i].Kind)
				}
			}
		})
	}
}

func TestValidatePatchRequiresFlag(t *testing.T) {
	t.Parallel()

	err := http_.Validate(&domain.TodoItemPatch{})
	if domain.KindOf(err) != domain.KindValidation {
		t.Errorf("kind = %v, want validation", domain.KindOf(err))
	}

	completed := true
	if err := http_.Validate(&domain.TodoItemPatch{IsCompleted: &completed}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWriteProblemHidesUnclassified(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	http_.WriteProblem(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret dsn"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("body leaks internals: %s", rec.Body.String())
	}
}
