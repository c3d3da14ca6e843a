package token

import (
	"context"
	"sync"
	"time"

	"github.com/mkrupp/simpletodo/internal/util/clock"
)

// MemoryRepository implements Repository in process memory. Expired entries
// are dropped on write.
type MemoryRepository struct {
	clock   clock.Clock
	revoked map[string]time.Time
	m       sync.Mutex
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository(clk clock.Clock) *MemoryRepository {
	return &MemoryRepository{
		clock:   clk,
		revoked: make(map[string]time.Time),
	}
}

// Revoke implements Repository.Revoke.
func (r *MemoryRepository) Revoke(_ context.Context, jti string, until time.Time) error {
	r.m.Lock()
	defer r.m.Unlock()

	now := r.clock.Now()

	for id, expiry := range r.revoked {
		if !expiry.After(now) {
			delete(r.revoked, id)
		}
	}

	if until.After(now) {
		r.revoked[jti] = until
	}

	return nil
}

// IsRevoked implements Repository.IsRevoked.
func (r *MemoryRepository) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.m.Lock()
	defer r.m.Unlock()

	until, ok := r.revoked[jti]

	return ok && until.After(r.clock.Now()), nil
}

// Close implements Repository.Close.
func (r *MemoryRepository) Close() error {
	return nil
}
