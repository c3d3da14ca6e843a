// Package todoclient talks to the to-do item service over HTTP.
package todoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	context_ "github.com/mkrupp/simpletodo/internal/infra/context"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	http_ "github.com/mkrupp/simpletodo/internal/infra/transport/http"
)

// HTTPClientConfig holds configuration for the HTTP item client.
type HTTPClientConfig struct {
	// TodoURL is the base URL of the item service
	TodoURL string `env:"TODO_URL" default:"http://localhost:8081"`
}

// HTTPClient calls the item service on behalf of a token holder.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	cfg        HTTPClientConfig
}

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, http.DefaultClient will be used.
func NewHTTPClient(cfg HTTPClientConfig, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	cfg.TodoURL = strings.TrimRight(cfg.TodoURL, "/")

	return &HTTPClient{
		httpClient: httpClient,
		log:        logging.GetLogger("svc.todosvc.http_client"),
		cfg:        cfg,
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var reader io.Reader

	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}

		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.TodoURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set(http_.AuthorizationHeader, "Bearer "+token)

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(http_.TraceIDHeader, traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", strings.ToLower(method), path, err)
	}

	return resp, nil
}

// expect closes resp and returns the decoded problem unless resp has the
// wanted status.
func expect(resp *http.Response, status int, op string) error {
	if resp.StatusCode == status {
		return nil
	}

	defer resp.Body.Close()

	return fmt.Errorf("%s: %w", op, http_.ReadProblem(resp))
}

func itemPath(id uuid.UUID) string {
	return "/api/todoitems/" + id.String()
}

// List fetches one page of the token holder's items.
func (c *HTTPClient) List(
	ctx context.Context,
	token string,
	params domain.PaginationParams,
) (domain.PagedList[domain.TodoItemDTO], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("pageSize", strconv.Itoa(params.PageSize))

	var page domain.PagedList[domain.TodoItemDTO]

	resp, err := c.do(ctx, http.MethodGet, "/api/todoitems?"+query.Encode(), token, nil)
	if err != nil {
		return page, err
	}

	if err := expect(resp, http.StatusOK, "list items"); err != nil {
		return page, err
	}
	defer resp.Body.Close()

	if err := render.DecodeJSON(resp.Body, &page); err != nil {
		return page, fmt.Errorf("decode response: %w", err)
	}

	return page, nil
}

// Get fetches a single item.
func (c *HTTPClient) Get(ctx context.Context, token string, id uuid.UUID) (domain.TodoItemDTO, error) {
	var item domain.TodoItemDTO

	resp, err := c.do(ctx, http.MethodGet, itemPath(id), token, nil)
	if err != nil {
		return item, err
	}

	if err := expect(resp, http.StatusOK, "get item"); err != nil {
		return item, err
	}
	defer resp.Body.Close()

	if err := render.DecodeJSON(resp.Body, &item); err != nil {
		return item, fmt.Errorf("decode response: %w", err)
	}

	return item, nil
}

// Create adds an item and returns its id.
func (c *HTTPClient) Create(ctx context.Context, token string, req domain.TodoItemCreate) (uuid.UUID, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/todoitems", token, req)
	if err != nil {
		return uuid.Nil, err
	}

	if err := expect(resp, http.StatusCreated, "create item"); err != nil {
		return uuid.Nil, err
	}
	defer resp.Body.Close()

	var created domain.CreatedResponse
	if err := render.DecodeJSON(resp.Body, &created); err != nil {
		return uuid.Nil, fmt.Errorf("decode response: %w", err)
	}

	c.log.DebugContext(ctx, "item created", "id", created.ID)

	return created.ID, nil
}

// Update replaces an item's title and description.
func (c *HTTPClient) Update(ctx context.Context, token string, id uuid.UUID, req domain.TodoItemUpdate) error {
	resp, err := c.do(ctx, http.MethodPut, itemPath(id), token, req)
	if err != nil {
		return err
	}

	if err := expect(resp, http.StatusNoContent, "update item"); err != nil {
		return err
	}

	return resp.Body.Close()
}

// SetCompleted patches an item's completion flag.
func (c *HTTPClient) SetCompleted(ctx context.Context, token string, id uuid.UUID, completed bool) error {
	resp, err := c.do(ctx, http.MethodPatch, itemPath(id), token, domain.TodoItemPatch{IsCompleted: &completed})
	if err != nil {
		return err
	}

	if err := expect(resp, http.StatusNoContent, "patch item"); err != nil {
		return err
	}

	return resp.Body.Close()
}

// Remove deletes an item.
func (c *HTTPClient) Remove(ctx context.Context, token string, id uuid.UUID) error {
	resp, err := c.do(ctx, http.MethodDelete, itemPath(id), token, nil)
	if err != nil {
		return err
	}

	if err := expect(resp, http.StatusNoContent, "remove item"); err != nil {
		return err
	}

	return resp.Body.Close()
}
