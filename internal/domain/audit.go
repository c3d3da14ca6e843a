package domain

import "time"

// Audit holds the timestamps a store maintains for an entity.
// Entities never stamp themselves; stores call StampCreated and StampUpdated
// at the write boundary.
type Audit struct {
	CreatedAt time.Time  // Set on first persistence
	UpdatedAt *time.Time // Set on each later write, nil until then
}

// StampCreated records the time of first persistence.
func (a *Audit) StampCreated(now time.Time) {
	a.CreatedAt = now.UTC()
	a.UpdatedAt = nil
}

// StampUpdated records the time of the latest write.
func (a *Audit) StampUpdated(now time.Time) {
	updatedAt := now.UTC()
	a.UpdatedAt = &updatedAt
}
