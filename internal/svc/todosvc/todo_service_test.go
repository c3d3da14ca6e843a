package todosvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mkrupp/simpletodo/internal/domain"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	"github.com/mkrupp/simpletodo/internal/svc/todosvc"
)

//nolint:gochecknoglobals
var testNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

var ErrRepoError = errors.New("repository error")

// mockUserRepository implements user.Repository for testing. Only the set of
// known user IDs matters to the item workflow.
type mockUserRepository struct {
	ids map[uuid.UUID]bool
	err error
	m   sync.Mutex
}

func (m *mockUserRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()

	m.ids[user.ID] = true

	return nil
}

func (m *mockUserRepository) GetUserByUsername(context.Context, string) (*domain.User, bool, error) {
	return nil, false, nil
}

func (m *mockUserRepository) GetUserByID(context.Context, uuid.UUID) (*domain.User, bool, error) {
	return nil, false, nil
}

func (m *mockUserRepository) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return false, m.err
	}

	return m.ids[id], nil
}

func (m *mockUserRepository) Close() error {
	return nil
}

// mockTodoRepository implements todo.Repository for testing. Items are kept in
// insertion order and listed newest first.
type mockTodoRepository struct {
	items   []*domain.TodoItem
	updates int
	err     error
	m       sync.Mutex
}

func (m *mockTodoRepository) GetItem(_ context.Context, id uuid.UUID) (*domain.TodoItem, bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, false, m.err
	}

	for _, item := range m.items {
		if item.ID == id {
			cp := *item

			return &cp, true, nil
		}
	}

	return nil, false, nil
}

func (m *mockTodoRepository) ListItemsByOwner(
	_ context.Context,
	ownerID uuid.UUID,
	params domain.PaginationParams,
) (domain.PagedList[domain.TodoItem], error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return domain.PagedList[domain.TodoItem]{}, m.err
	}

	var owned []domain.TodoItem

	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].UserID == ownerID {
			owned = append(owned, *m.items[i])
		}
	}

	start := min(params.Offset(), len(owned))
	end := min(start+params.PageSize, len(owned))

	return domain.NewPagedList(owned[start:end], params.Page, params.PageSize, len(owned))
}

func (m *mockTodoRepository) CreateItem(_ context.Context, item *domain.TodoItem) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	item.StampCreated(testNow.Add(time.Duration(len(m.items)) * time.Second))
	cp := *item
	m.items = append(m.items, &cp)

	return nil
}

func (m *mockTodoRepository) UpdateItem(_ context.Context, item *domain.TodoItem) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	for i, stored := range m.items {
		if stored.ID == item.ID {
			item.StampUpdated(testNow)
			cp := *item
			m.items[i] = &cp
			m.updates++

			return nil
		}
	}

	return domain.ErrTodoItemNotFound
}

func (m *mockTodoRepository) DeleteItem(_ context.Context, id uuid.UUID) error {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return m.err
	}

	for i, stored := range m.items {
		if stored.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)

			return nil
		}
	}

	return domain.ErrTodoItemNotFound
}

func (m *mockTodoRepository) Close() error {
	return nil
}

func (m *mockTodoRepository) setErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()

	m.err = err
}

func (m *mockTodoRepository) updateCount() int {
	m.m.Lock()
	defer m.m.Unlock()

	return m.updates
}

type testFixture struct {
	svc   *todosvc.TodoService
	users *mockUserRepository
	items *mockTodoRepository
	alice uuid.UUID
	bob   uuid.UUID
}

func setupTestService(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		users: &mockUserRepository{ids: make(map[uuid.UUID]bool)},
		items: &mockTodoRepository{},
		alice: uuid.New(),
		bob:   uuid.New(),
	}

	f.users.ids[f.alice] = true
	f.users.ids[f.bob] = true

	f.svc = &todosvc.TodoService{
		Config:   todosvc.TodoConfig{DefaultPageSize: 10, MaxPageSize: 100},
		UserRepo: f.users,
		TodoRepo: f.items,
		Log:      logging.GetLogger("test.todosvc"),
	}

	return f
}

func (f *testFixture) create(t *testing.T, owner uuid.UUID, title string) uuid.UUID {
	t.Helper()

	id, err := f.svc.Create(context.TODO(), owner, domain.TodoItemCreate{Title: title, Description: "desc"})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}

	return id
}

func boolPtr(b bool) *bool {
	return &b
}

func TestTodoService_Create(t *testing.T) {
	t.Parallel()

	f := setupTestService(t)

	tests := []struct {
		name    string
		userID  uuid.UUID
		req     domain.TodoItemCreate
		wantErr error
	}{
		{
			name:   "creates item",
			userID: f.alice,
			req:    domain.TodoItemCreate{Title: "buy milk", Description: "2 liters"},
		},
		{
			name:    "rejects unknown user",
			userID:  uuid.New(),
			req:     domain.TodoItemCreate{Title: "buy milk", Description: "2 liters"},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:    "rejects blank title",
			userID:  f.alice,
			req:     domain.TodoItemCreate{Title: "  ", Description: "2 liters"},
			wantErr: domain.ErrEmptyTitle,
		},
		{
			name:    "rejects blank description",
			userID:  f.alice,
			req:     domain.TodoItemCreate{Title: "buy milk", Description: "\t"},
			wantErr: domain.ErrEmptyDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, err := f.svc.Create(context.TODO(), tt.userID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}

			if tt.wantErr != nil {
				return
			}

			item, err := f.svc.GetByID(context.TODO(), tt.userID, id)
			if err != nil {
				t.Fatalf("get created item: %v", err)
			}

			if item.Title != tt.req.Title || item.Description != tt.req.Description || item.IsCompleted {
				t.Errorf("unexpected item: %+v", item)
			}
		})
	}
}

func TestTodoService_GetByID(t *testing.T) {
	t.Parallel()

	f := setupTestService(t)
	aliceItem := f.create(t, f.alice, "alice's")

	tests := []struct {
		name    string
		userID  uuid.UUID
		itemID  uuid.UUID
		wantErr error
	}{
		{name: "owner reads item", userID: f.alice, itemID: aliceItem},
		{name: "other user sees nothing", userID: f.bob, itemID: aliceItem, wantErr: domain.ErrTodoItemNotFound},
		{name: "missing item", userID: f.alice, itemID: uuid.New(), wantErr: domain.ErrTodoItemNotFound},
		{name: "unknown user", userID: uuid.New(), itemID: aliceItem, wantErr: domain.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			item, err := f.svc.GetByID(context.TODO(), tt.userID, tt.itemID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}

			if tt.wantErr == nil && item.ID != tt.itemID {
				t.Errorf("expected item %s, got %s", tt.itemID, item.ID)
			}
		})
	}
}

func TestTodoService_ListPaged(t *testing.T) {
	t.Parallel()

	f := setupTestService(t)

	for _, title := range []string{"one", "two", "three"} {
		f.create(t, f.alice, title)
	}

	f.create(t, f.bob, "bob's")

	t.Run("returns newest first", func(t *testing.T) {
		t.Parallel()

		page, err := f.svc.ListPaged(context.TODO(), f.alice, domain.PaginationParams{Page: 1, PageSize: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if page.TotalCount != 3 || page.TotalPages() != 2 || !page.HasNext() || page.HasPrevious() {
			t.Errorf("unexpected page metadata: %+v", page)
		}

		if len(page.Items) != 2 || page.Items[0].Title != "three" || page.Items[1].Title != "two" {
			t.Errorf("unexpected items: %+v", page.Items)
		}
	})

	t.Run("returns last page", func(t *testing.T) {
		t.Parallel()

		page, err := f.svc.ListPaged(context.TODO(), f.alice, domain.PaginationParams{Page: 2, PageSize: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(page.Items) != 1 || page.Items[0].Title != "one" || page.HasNext() || !page.HasPrevious() {
			t.Errorf("unexpected page: %+v", page)
		}
	})

	t.Run("unknown user gets empty list", func(t *testing.T) {
		t.Parallel()

		page, err := f.svc.ListPaged(context.TODO(), uuid.New(), domain.DefaultPagination())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(page.Items) != 0 || page.TotalCount != 0 || page.PageSize != 0 {
			t.Errorf("expected empty list, got %+v", page)
		}
	})

	t.Run("unknown user with invalid page gets empty list", func(t *testing.T) {
		t.Parallel()

		page, err := f.svc.ListPaged(context.TODO(), uuid.New(), domain.PaginationParams{Page: 0, PageSize: 10})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(page.Items) != 0 || page.TotalCount != 0 || page.CurrentPage != 0 {
			t.Errorf("expected empty list, got %+v", page)
		}
	})

	t.Run("rejects invalid page", func(t *testing.T) {
		t.Parallel()

		_, err := f.svc.ListPaged(context.TODO(), f.alice, domain.PaginationParams{Page: 0, PageSize: 10})
		if !errors.Is(err, domain.ErrInvalidPage) {
			t.Errorf("expected ErrInvalidPage, got %v", err)
		}
	})
}

func TestTodoService_Update(t *testing.T) {
	t.Parallel()

	f := setupTestService(t)
	id := f.create(t, f.alice, "draft")

	if err := f.svc.Update(context.TODO(), f.bob, id, domain.TodoItemUpdate{Title: "hijack", Description: "x"}); !errors.Is(err, domain.ErrTodoItemNotFound) {
		t.Fatalf("expected ErrTodoItemNotFound for foreign item, got %v", err)
	}

	if err := f.svc.Update(context.TODO(), f.alice, id, domain.TodoItemUpdate{Title: "", Description: "x"}); !errors.Is(err, domain.ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}

	req := domain.TodoItemUpdate{Title: "final", Description: "done right"}

	for range 2 {
		if err := f.svc.Update(context.TODO(), f.alice, id, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := f.items.updateCount(); got != 2 {
		t.Errorf("expected every update to persist, got %d writes", got)
	}

	item, err := f.svc.GetByID(context.TODO(), f.alice, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if item.Title != "final" || item.Description != "done right" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestTodoService_Patch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		patches []bool
		want    bool
	}{
		{name: "completes item", patches: []bool{true}, want: true},
		{name: "repeated completion stays completed", patches: []bool{true, true}, want: true},
		{name: "reopens item", patches: []bool{true, false}, want: false},
		{name: "incomplete stays incomplete", patches: []bool{false}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := setupTestService(t)
			id := f.create(t, f.alice, "task")

			for _, completed := range tt.patches {
				if err := f.svc.Patch(context.TODO(), f.alice, id, domain.TodoItemPatch{IsCompleted: boolPtr(completed)}); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			item, err := f.svc.GetByID(context.TODO(), f.alice, id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if item.IsCompleted != tt.want {
				t.Errorf("expected completed=%v, got %v", tt.want, item.IsCompleted)
			}
		})
	}
}

func TestTodoService_Remove(t *testing.T) {
	t.Parallel()

	f := setupTestService(t)
	id := f.create(t, f.alice, "temporary")

	if err := f.svc.Remove(context.TODO(), f.bob, id); !errors.Is(err, domain.ErrTodoItemNotFound) {
		t.Fatalf("expected ErrTodoItemNotFound for foreign item, got %v", err)
	}

	if err := f.svc.Remove(context.TODO(), f.alice, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.svc.Remove(context.TODO(), f.alice, id); !errors.Is(err, domain.ErrTodoItemNotFound) {
		t.Errorf("expected ErrTodoItemNotFound on second remove, got %v", err)
	}
}

func TestTodoService_RepositoryErrors(t *testing.T) {
	t.Parallel()

	f := setupTestService(t)
	id := f.create(t, f.alice, "task")

	f.items.setErr(ErrRepoError)

	if _, err := f.svc.GetByID(context.TODO(), f.alice, id); !errors.Is(err, ErrRepoError) {
		t.Errorf("expected repository error from GetByID, got %v", err)
	}

	if _, err := f.svc.ListPaged(context.TODO(), f.alice, domain.DefaultPagination()); !errors.Is(err, ErrRepoError) {
		t.Errorf("expected repository error from ListPaged, got %v", err)
	}

	if err := f.svc.Remove(context.TODO(), f.alice, id); !errors.Is(err, ErrRepoError) {
		t.Errorf("expected repository error from Remove, got %v", err)
	}

	if _, err := f.svc.Create(context.TODO(), f.alice, domain.TodoItemCreate{Title: "t", Description: "d"}); !errors.Is(err, ErrRepoError) {
		t.Errorf("expected repository error from Create, got %v", err)
	}
}
