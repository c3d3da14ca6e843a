package authsvc

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	http_ "github.com/mkrupp/simpletodo/internal/infra/transport/http"
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport handles HTTP requests for the authentication service.
type HTTPTransport struct {
	authSvc *AuthService
	router  chi.Router
	log     logging.Logger
	cfg     HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport serving:
// - POST /api/auth/register: register a new user
// - POST /api/auth/login: login and get an access token
// - POST /api/auth/validate: resolve a bearer token to its user
// - POST /api/auth/logout: revoke a bearer token.
func NewHTTPTransport(
	authSvc *AuthService,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	ht := &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
		cfg:     cfg,
	}

	ht.router = http_.NewRouter(ht.log)
	ht.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", ht.HandleRegister)
		r.Post("/login", ht.HandleLogin)
		r.Post("/validate", ht.HandleValidate)
		r.Post("/logout", ht.HandleLogout)
	})

	return ht
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

// HandleRegister processes user registration requests.
// Expects a JSON body {username, password}; answers 204.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := ht.handleRegister(w, r); err != nil {
		http_.WriteProblem(w, r, err)
	}
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user register failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	var req domain.RegisterRequest
	if err := http_.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	log = log.With(logging.Group("user", "username", req.Username))

	if err := ht.authSvc.Register(r.Context(), req.Username, req.Password); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

// HandleLogin processes user login requests.
// Expects a JSON body {username, password}; answers 200 {token}.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := ht.handleLogin(w, r); err != nil {
		http_.WriteProblem(w, r, err)
	}
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user login failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	var req domain.LoginRequest
	if err := http_.DecodeAndValidate(r, &req); err != nil {
		return err
	}

	log = log.With(logging.Group("user", "username", req.Username))

	token, err := ht.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	http_.WriteJSON(w, r, http.StatusOK, domain.LoginResponse{Token: token})

	return nil
}

// HandleValidate resolves the bearer token to the user it was issued for.
func (ht *HTTPTransport) HandleValidate(w http.ResponseWriter, r *http.Request) {
	if err := ht.handleValidate(w, r); err != nil {
		http_.WriteProblem(w, r, err)
	}
}

func (ht *HTTPTransport) handleValidate(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "user token validation failed", "error", err)
		} else {
			log.DebugContext(ctx, "user token validated")
		}
	}(r.Context())

	tokenString, ok := http_.BearerToken(r)
	if !ok {
		return domain.ErrNoAuthToken
	}

	claims, err := ht.authSvc.ValidateToken(r.Context(), tokenString)
	if err != nil {
		return err
	}

	userID, err := claims.UserID()
	if err != nil {
		return err
	}

	http_.WriteJSON(w, r, http.StatusOK, domain.TokenValidationResponse{
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.UTC(),
	})

	return nil
}

// HandleLogout revokes the bearer token; answers 204.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := ht.handleLogout(w, r); err != nil {
		http_.WriteProblem(w, r, err)
	}
}

func (ht *HTTPTransport) handleLogout(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.WarnContext(ctx, "user logout failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged out")
		}
	}(r.Context())

	tokenString, ok := http_.BearerToken(r)
	if !ok {
		return domain.ErrNoAuthToken
	}

	if err := ht.authSvc.Logout(r.Context(), tokenString); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
