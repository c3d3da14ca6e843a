package authsvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	"github.com/mkrupp/simpletodo/internal/repo/token"
	"github.com/mkrupp/simpletodo/internal/svc/authsvc"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

// mockUserRepository implements user.Repository for testing.
type mockUserRepository struct {
	users map[string]*domain.User
	err   error
	m     sync.Mutex
}

func (m *mockUserRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	if _, exists := m.users[user.Username]; exists {
		return domain.ErrUsernameAlreadyInUse
	}

	user.StampCreated(testNow)
	m.users[user.Username] = user

	return nil
}

func (m *mockUserRepository) GetUserByUsername(_ context.Context, username string) (*domain.User, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	user, exists := m.users[username]

	return user, exists, nil
}

func (m *mockUserRepository) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	for _, user := range m.users {
		if user.ID == id {
			return user, true, nil
		}
	}

	return nil, false, nil
}

func (m *mockUserRepository) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok, err := m.GetUserByID(ctx, id)

	return ok, err
}

func (m *mockUserRepository) Close() error {
	return nil
}

func (m *mockUserRepository) setErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.err = err
}

func newMockUserRepo() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

var ErrRepoError = errors.New("repository error")

func setupTestService(t *testing.T) (*authsvc.AuthService, *mockUserRepository, *clock.Manual) {
	t.Helper()

	clk := clock.NewManual(testNow)
	mockRepo := newMockUserRepo()

	svc := &authsvc.AuthService{
		UserRepo:    mockRepo,
		RevokedRepo: token.NewMemoryRepository(clk),
		Hasher:      authsvc.PBKDF2Hasher{},
		Issuer:      newTestIssuer(t, clk),
		Log:         logging.GetLogger("test.authsvc"),
	}

	return svc, mockRepo, clk
}

//nolint:paralleltest
func TestAuthService_Register(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)

	tests := []struct {
		name     string
		username string
		password string
		repoErr  error
		wantErr  error
	}{
		{
			name:     "successful registration",
			username: "newuser",
			password: "password123",
		},
		{
			name:     "duplicate username",
			username: "newuser",
			password: "password456",
			wantErr:  domain.ErrUsernameAlreadyInUse,
		},
		{
			name:     "blank password",
			username: "blankpass",
			password: "   ",
			wantErr:  authsvc.ErrEmptyPassword,
		},
		{
			name:     "blank username",
			username: " ",
			password: "password123",
			wantErr:  domain.ErrEmptyUsername,
		},
		{
			name:     "repository error",
			username: "erroruser",
			password: "password123",
			repoErr:  ErrRepoError,
			wantErr:  ErrRepoError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.setErr(tt.repoErr)

			err := svc.Register(context.Background(), tt.username, tt.password)

			if (err != nil) != (tt.wantErr != nil) {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	stored := mockRepo.users["newuser"]
	if stored == nil || stored.PasswordHash == "password123" {
		t.Fatalf("stored user = %+v, want hashed password", stored)
	}

	if !(authsvc.PBKDF2Hasher{}).Verify("password123", stored.PasswordHash) {
		t.Error("stored hash does not verify the original password")
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	svc, mockRepo, _ := setupTestService(t)

	if err := svc.Register(context.Background(), "testuser", "testpass123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{
			name:     "successful login",
			username: "testuser",
			password: "testpass123",
		},
		{
			name:     "wrong password",
			username: "testuser",
			password: "wrongpass",
			wantErr:  domain.ErrInvalidCredentials,
		},
		{
			name:     "user not found",
			username: "nonexistent",
			password: "anypass",
			wantErr:  domain.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			signed, err := svc.Login(context.Background(), tt.username, tt.password)

			if (err != nil) != (tt.wantErr != nil) {
				t.Fatalf("Login() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Login() error = %v, wantErr %v", err, tt.wantErr)
				}

				if domain.KindOf(err) != domain.KindUnauthorized {
					t.Errorf("Login() kind = %v, want unauthorized", domain.KindOf(err))
				}

				return
			}

			claims, err := svc.ValidateToken(context.Background(), signed)
			if err != nil {
				t.Fatalf("Login() generated invalid token: %v", err)
			}

			if claims.Subject != mockRepo.users["testuser"].ID.String() {
				t.Errorf("sub = %q, want the user's id", claims.Subject)
			}
		})
	}
}

func TestAuthService_LoginRepositoryError(t *testing.T) {
	t.Parallel()

	svc, mockRepo, _ := setupTestService(t)
	mockRepo.setErr(ErrRepoError)

	_, err := svc.Login(context.Background(), "testuser", "testpass123")
	if !errors.Is(err, ErrRepoError) {
		t.Errorf("expected ErrRepoError, got %v", err)
	}

	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Error("store failures must not masquerade as invalid credentials")
	}
}

func TestAuthService_ValidateAndLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, clk := setupTestService(t)

	if err := svc.Register(ctx, "testuser", "testpass"); err != nil {
		t.Fatalf("register: %v", err)
	}

	signed, err := svc.Login(ctx, "testuser", "testpass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.ValidateToken(ctx, signed); err != nil {
		t.Fatalf("validate fresh token: %v", err)
	}

	if err := svc.Logout(ctx, signed); err != nil {
		t.Fatalf("logout: %v", err)
	}

	_, err = svc.ValidateToken(ctx, signed)
	if !errors.Is(err, domain.ErrInvalidAuthToken) || !errors.Is(err, authsvc.ErrTokenRevoked) {
		t.Errorf("expected revoked token error, got %v", err)
	}

	if err := svc.Logout(ctx, signed); !errors.Is(err, domain.ErrInvalidAuthToken) {
		t.Errorf("second logout: expected ErrInvalidAuthToken, got %v", err)
	}

	other, _ := svc.Login(ctx, "testuser", "testpass")

	clk.Advance(2 * time.Hour)

	if _, err := svc.ValidateToken(ctx, other); !errors.Is(err, domain.ErrInvalidAuthToken) {
		t.Errorf("expired token: expected ErrInvalidAuthToken, got %v", err)
	}
}

func TestAuthService_LoginUsernameIsCaseSensitive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := setupTestService(t)

	if err := svc.Register(ctx, "Alice", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "secret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}
