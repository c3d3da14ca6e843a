package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	context_ "github.com/mkrupp/simpletodo/internal/infra/context"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	http_ "github.com/mkrupp/simpletodo/internal/infra/transport/http"
)

// HTTPClientConfig holds configuration for the HTTP auth client.
type HTTPClientConfig struct {
	// AuthURL is the base URL of the auth service
	AuthURL string `env:"AUTH_URL" default:"http://localhost:8080"`
}

// HTTPClient talks to the auth service over HTTP.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	cfg        HTTPClientConfig
}

var _ AuthClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, http.DefaultClient will be used.
func NewHTTPClient(
	cfg HTTPClientConfig,
	httpClient *http.Client,
) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	cfg.AuthURL = strings.TrimRight(cfg.AuthURL, "/")

	return &HTTPClient{
		httpClient: httpClient,
		log:        logging.GetLogger("svc.authsvc.http_client"),
		cfg:        cfg,
	}
}

func (ht *HTTPClient) do(ctx context.Context, path, token string, body any) (*http.Response, error) {
	var reader io.Reader

	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}

		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ht.cfg.AuthURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set(http_.AuthorizationHeader, "Bearer "+token)
	}

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(http_.TraceIDHeader, traceID)
	}

	resp, err := ht.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}

	return resp, nil
}

// Validate implements AuthClient.Validate. Tokens the auth service rejects
// as unauthorized are reported as not ok rather than as an error.
func (ht *HTTPClient) Validate(ctx context.Context, token string) (uuid.UUID, bool, error) {
	resp, err := ht.do(ctx, "/api/auth/validate", token, nil)
	if err != nil {
		return uuid.Nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return uuid.Nil, false, nil
	} else if resp.StatusCode != http.StatusOK {
		return uuid.Nil, false, fmt.Errorf("validate: %w", http_.ReadProblem(resp))
	}

	var validation domain.TokenValidationResponse
	if err := render.DecodeJSON(resp.Body, &validation); err != nil {
		return uuid.Nil, false, fmt.Errorf("decode response: %w", err)
	}

	ht.log.DebugContext(ctx, "token validated", "user_id", validation.UserID)

	return validation.UserID, validation.UserID != uuid.Nil, nil
}

// Register creates an account.
func (ht *HTTPClient) Register(ctx context.Context, username, password string) error {
	resp, err := ht.do(ctx, "/api/auth/register", "", domain.RegisterRequest{Username: username, Password: password})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("register: %w", http_.ReadProblem(resp))
	}

	return nil
}

// Login exchanges credentials for an access token.
func (ht *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := ht.do(ctx, "/api/auth/login", "", domain.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login: %w", http_.ReadProblem(resp))
	}

	var login domain.LoginResponse
	if err := render.DecodeJSON(resp.Body, &login); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return login.Token, nil
}

// Logout revokes token.
func (ht *HTTPClient) Logout(ctx context.Context, token string) error {
	resp, err := ht.do(ctx, "/api/auth/logout", token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout: %w", http_.ReadProblem(resp))
	}

	return nil
}
