package todosvc

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	context_ "github.com/mkrupp/simpletodo/internal/infra/context"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	http_ "github.com/mkrupp/simpletodo/internal/infra/transport/http"
)

const itemsPath = "/api/todoitems"

//nolint:gochecknoglobals
var (
	ErrMalformedItemID  = domain.NewValidationError("Request.Id", "The item id must be a UUID.")
	ErrPageSizeTooLarge = domain.NewValidationError("Pagination.PageSizeLimit", "Page size exceeds the allowed maximum.")
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport handles HTTP requests for the to-do item service.
type HTTPTransport struct {
	todoSvc *TodoService
	router  chi.Router
	log     logging.Logger
	cfg     HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport. All routes require a bearer
// token, which is resolved to the acting user through validator:
// - GET /api/todoitems?page=&pageSize=: list the user's items
// - GET /api/todoitems/{id}: fetch one item
// - POST /api/todoitems: create an item
// - PUT /api/todoitems/{id}: replace title and description
// - PATCH /api/todoitems/{id}: set the completion flag
// - DELETE /api/todoitems/{id}: remove an item.
func NewHTTPTransport(
	todoSvc *TodoService,
	validator http_.TokenValidator,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	ht := &HTTPTransport{
		todoSvc: todoSvc,
		log:     logging.GetLogger("svc.todosvc.http_transport"),
		cfg:     cfg,
	}

	ht.router = http_.NewRouter(ht.log)
	ht.router.Route(itemsPath, func(r chi.Router) {
		r.Use(http_.Authorize(validator, ht.log))
		r.Get("/", ht.HandleList)
		r.Post("/", ht.HandleCreate)
		r.Get("/{id}", ht.HandleGet)
		r.Put("/{id}", ht.HandleUpdate)
		r.Patch("/{id}", ht.HandlePatch)
		r.Delete("/{id}", ht.HandleRemove)
	})

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

func (ht *HTTPTransport) requestLogger(r *http.Request) logging.Logger {
	return ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
}

// actor returns the user the authorizing middleware attached to the request.
func actor(r *http.Request) (uuid.UUID, error) {
	userID, ok := context_.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, domain.ErrNoAuthToken
	}

	return userID, nil
}

func itemID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, ErrMalformedItemID
	}

	return id, nil
}

// paginationParams reads page and pageSize from the query, falling back to
// defaults for absent values. Range checks are left to TodoService.ListPaged,
// which answers unknown users before looking at the page.
func (ht *HTTPTransport) paginationParams(r *http.Request) (domain.PaginationParams, error) {
	params := domain.DefaultPagination()
	if ht.todoSvc.Config.DefaultPageSize > 0 {
		params.PageSize = ht.todoSvc.Config.DefaultPageSize
	}

	query := r.URL.Query()

	if s := query.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil {
			return params, domain.ErrInvalidPage
		}

		params.Page = page
	}

	if s := query.Get("pageSize"); s != "" {
		size, err := strconv.Atoi(s)
		if err != nil {
			return params, domain.ErrInvalidPageSize
		}

		params.PageSize = size
	}

	if limit := ht.todoSvc.Config.MaxPageSize; limit > 0 && params.PageSize > limit {
		return params, fmt.Errorf("%w: %d > %d", ErrPageSizeTooLarge, params.PageSize, limit)
	}

	return params, nil
}

// HandleList answers 200 with a page of the user's items.
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request) {
	if err := ht.handleList(w, r); err != nil {
		http_.WriteProblem(w, r, err)
	}
}

func (ht *HTTPTransport) handleList(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "list items request failed", "error", err)
		}
	}(r.Context())

	userID, err := actor(r)
	if err != nil {
		return err
	}

	params, err := ht.paginationParams(r)
	if err != nil {
		return err
	}

	page, err := ht.todoSvc.ListPaged(r.Context(), userID, params)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, r, http.StatusOK, page)

	return nil
}

// HandleGet answers 200 with a single item.
func (ht *HTTPTransport) HandleGet(w http.ResponseWriter, r *http.Request) {
	if err := ht.handleGet(w, r); err != nil {
		http_.WriteProblem(w, r, err)
	}
}

func (ht *HTTPTransport) handleGet(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "get item request failed", "error", err)
		}
	}(r.Context())

	userID, err := actor(r)
	if err != nil {
		return err
	}

	id, err := itemID(r)
	if err != nil {
		return err
	}

	item, err := ht.todoSvc.GetByID(r.Context(), userID, id)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, r, http.StatusOK, item)

	return nil
}

// HandleCreate expects {title, description} and answers 201 with the new id
// and a Location header.
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := ht.handleCreate(w, r); err != nil {
		http_.WriteProblem(w, r, err)
	}
}

func (ht *HTTPTransport) handleCreate(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "create item request failed", "error", err)
		}
	}(r.Context())

	userID, err := actor(r)
	if err != nil {
		return err
	}

	var req domain.TodoItemCreate
	if err := http_.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	id, err := ht.todoSvc.Create(r.Context(), userID, req)
	if err != nil {
		return err
	}

	w.Header().Set("Location", itemsPath+"/"+id.String())
	http_.WriteJSON(w, r, http.StatusCreated, domain.CreatedResponse{ID: id})

	return nil
}

// HandleUpdate expects {title, description}; answers 204.
func (ht *HTTPTransport) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := ht.handleUpdate(w, r); err != nil {
		http_.WriteProblem(w, r, err)
	}
}

func (ht *HTTPTransport) handleUpdate(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "update item request failed", "error", err)
		}
	}(r.Context())

	userID, err := actor(r)
	if err != nil {
		return err
	}

	id, err := itemID(r)
	if err != nil {
		return err
	}

	var req domain.TodoItemUpdate
	if err := http_.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	if err := ht.todoSvc.Update(r.Context(), userID, id, req); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// HandlePatch expects {isCompleted}; answers 204.
func (ht *HTTPTransport) HandlePatch(w http.ResponseWriter, r *http.Request) {
	if err := ht.handlePatch(w, r); err != nil {
		http_.WriteProblem(w, r, err)
	}
}

func (ht *HTTPTransport) handlePatch(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "patch item request failed", "error", err)
		}
	}(r.Context())

	userID, err := actor(r)
	if err != nil {
		return err
	}

	id, err := itemID(r)
	if err != nil {
		return err
	}

	var req domain.TodoItemPatch
	if err := http_.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	if err := ht.todoSvc.Patch(r.Context(), userID, id, req); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// HandleRemove answers 204.
func (ht *HTTPTransport) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := ht.handleRemove(w, r); err != nil {
		http_.WriteProblem(w, r, err)
	}
}

func (ht *HTTPTransport) handleRemove(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.requestLogger(r)

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "remove item request failed", "error", err)
		}
	}(r.Context())

	userID, err := actor(r)
	if err != nil {
		return err
	}

	id, err := itemID(r)
	if err != nil {
		return err
	}

	if err := ht.todoSvc.Remove(r.Context(), userID, id); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
