package authsvc_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkrupp/simpletodo/internal/domain"
	http_ "github.com/mkrupp/simpletodo/internal/infra/transport/http"
	"github.com/mkrupp/simpletodo/internal/svc/authsvc"
	"github.com/mkrupp/simpletodo/internal/svc/authsvc/authclient"
)

func setupTestServer(t *testing.T) (*authclient.HTTPClient, *httptest.Server) {
	t.Helper()

	svc, _, _ := setupTestService(t)

	//nolint:exhaustruct
	server := httptest.NewServer(authsvc.NewHTTPTransport(svc, authsvc.HTTPTransportConfig{}))
	t.Cleanup(server.Close)

	client := authclient.NewHTTPClient(authclient.HTTPClientConfig{AuthURL: server.URL + "/"}, server.Client())

	return client, server
}

func TestHTTPTransport_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, _ := setupTestServer(t)

	if err := client.Register(ctx, "alice", "Password1!"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := client.Register(ctx, "alice", "Password2!"); !errors.Is(err, domain.ErrUsernameAlreadyInUse) {
		t.Errorf("duplicate register: expected ErrUsernameAlreadyInUse, got %v", err)
	}

	if _, err := client.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("bad login: expected ErrInvalidCredentials, got %v", err)
	}

	token, err := client.Login(ctx, "alice", "Password1!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	userID, ok, err := client.Validate(ctx, token)
	if err != nil || !ok {
		t.Fatalf("validate: %v, %v", ok, err)
	}

	if userID.String() == "" {
		t.Error("validate returned an empty user id")
	}

	if err := client.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, ok, err := client.Validate(ctx, token); ok || err != nil {
		t.Errorf("validate after logout = %v, %v; want false, nil", ok, err)
	}
}

func TestHTTPTransport_Problems(t *testing.T) {
	t.Parallel()

	_, server := setupTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       string
		auth       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "register validation",
			path:       "/api/auth/register",
			body:       `{"username":"waytoolongusername","password":""}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "Request.Username",
		},
		{
			name:       "malformed login body",
			path:       "/api/auth/login",
			body:       `{`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "Request.Body",
		},
		{
			name:       "validate without token",
			path:       "/api/auth/validate",
			wantStatus: http.StatusUnauthorized,
			wantCode:   domain.ErrNoAuthToken.Code,
		},
		{
			name:       "logout with garbage token",
			path:       "/api/auth/logout",
			auth:       "Bearer garbage",
			wantStatus: http.StatusUnauthorized,
			wantCode:   domain.ErrInvalidAuthToken.Code,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost,
				server.URL+tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}

			resp, err := server.Client().Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			problem, ok := domain.Primary(http_.ReadProblem(resp))
			if !ok || problem.Code != tt.wantCode {
				t.Errorf("primary error = %v, want code %q", problem, tt.wantCode)
			}
		})
	}
}
