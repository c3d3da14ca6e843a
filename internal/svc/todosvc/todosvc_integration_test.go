//go:build integration || all

package todosvc_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/database"
	"github.com/mkrupp/simpletodo/internal/repo/todo"
	"github.com/mkrupp/simpletodo/internal/repo/token"
	"github.com/mkrupp/simpletodo/internal/repo/user"
	"github.com/mkrupp/simpletodo/internal/svc/authsvc"
	"github.com/mkrupp/simpletodo/internal/svc/authsvc/authclient"
	"github.com/mkrupp/simpletodo/internal/svc/todosvc"
	"github.com/mkrupp/simpletodo/internal/svc/todosvc/todoclient"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

// setupStack runs both services against one sqlite database, the way the
// binaries are deployed by default.
func setupStack(t *testing.T) (*authclient.HTTPClient, *todoclient.HTTPClient) {
	t.Helper()

	ctx := context.Background()
	clk := clock.System()
	dbCfg := database.SQLiteConfig{
		Path:        filepath.Join(t.TempDir(), "simpletodo.db"),
		BusyTimeout: time.Second,
	}

	issuer, err := authsvc.NewTokenIssuer(authsvc.TokenConfig{
		SecretKey:        "0123456789abcdef0123456789abcdef",
		Issuer:           "simpletodo-test",
		Audience:         "simpletodo-clients",
		ExpiresInMinutes: 5,
	}, clk)
	if err != nil {
		t.Fatalf("new token issuer: %v", err)
	}

	authSvc, err := authsvc.NewAuthService(
		user.SQLiteUserRepositoryFactory(ctx, dbCfg, clk),
		token.RepositoryFactoryFor(token.Config{}, clk),
		authsvc.PBKDF2Hasher{},
		issuer,
	)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}

	t.Cleanup(func() { authSvc.Close() })

	authServer := httptest.NewServer(authsvc.NewHTTPTransport(authSvc, authsvc.HTTPTransportConfig{}))
	t.Cleanup(authServer.Close)

	authClient := authclient.NewHTTPClient(authclient.HTTPClientConfig{AuthURL: authServer.URL}, authServer.Client())

	todoSvc, err := todosvc.NewTodoService(
		user.SQLiteUserRepositoryFactory(ctx, dbCfg, clk),
		todo.SQLiteTodoRepositoryFactory(ctx, dbCfg, clk),
		todosvc.TodoConfig{DefaultPageSize: 10, MaxPageSize: 100},
	)
	if err != nil {
		t.Fatalf("new todo service: %v", err)
	}

	t.Cleanup(func() { todoSvc.Close() })

	todoServer := httptest.NewServer(todosvc.NewHTTPTransport(todoSvc, authClient, todosvc.HTTPTransportConfig{}))
	t.Cleanup(todoServer.Close)

	return authClient, todoclient.NewHTTPClient(todoclient.HTTPClientConfig{TodoURL: todoServer.URL}, todoServer.Client())
}

func login(t *testing.T, client *authclient.HTTPClient, username string) string {
	t.Helper()

	ctx := context.Background()

	if err := client.Register(ctx, username, "s3cret!"); err != nil {
		t.Fatalf("register %s: %v", username, err)
	}

	tokenString, err := client.Login(ctx, username, "s3cret!")
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}

	return tokenString
}

func TestEndToEnd_Isolation(t *testing.T) {
	t.Parallel()

	authClient, todoClient := setupStack(t)
	ctx := context.Background()

	alice := login(t, authClient, "alice")
	bob := login(t, authClient, "bob")

	for _, title := range []string{"first", "second", "third"} {
		if _, err := todoClient.Create(ctx, alice, domain.TodoItemCreate{Title: title, Description: "alice"}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	bobItem, err := todoClient.Create(ctx, bob, domain.TodoItemCreate{Title: "bob's", Description: "bob"})
	if err != nil {
		t.Fatalf("create bob's item: %v", err)
	}

	page, err := todoClient.List(ctx, alice, domain.PaginationParams{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if page.TotalCount != 3 || page.TotalPages() != 2 || page.Items[0].Title != "third" {
		t.Errorf("unexpected page for alice: %+v", page)
	}

	if err := todoClient.SetCompleted(ctx, alice, bobItem, true); !errors.Is(err, domain.ErrTodoItemNotFound) {
		t.Errorf("expected alice to not see bob's item, got %v", err)
	}

	if err := todoClient.Remove(ctx, alice, bobItem); !errors.Is(err, domain.ErrTodoItemNotFound) {
		t.Errorf("expected alice to not remove bob's item, got %v", err)
	}

	item, err := todoClient.Get(ctx, bob, bobItem)
	if err != nil {
		t.Fatalf("get bob's item: %v", err)
	}

	if item.IsCompleted {
		t.Errorf("bob's item was modified by alice")
	}
}

func TestEndToEnd_Logout(t *testing.T) {
	t.Parallel()

	authClient, todoClient := setupStack(t)
	ctx := context.Background()

	alice := login(t, authClient, "alice")

	if _, err := todoClient.List(ctx, alice, domain.DefaultPagination()); err != nil {
		t.Fatalf("list before logout: %v", err)
	}

	if err := authClient.Logout(ctx, alice); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := todoClient.List(ctx, alice, domain.DefaultPagination()); !errors.Is(err, domain.ErrInvalidAuthToken) {
		t.Errorf("expected revoked token to be rejected, got %v", err)
	}
}
