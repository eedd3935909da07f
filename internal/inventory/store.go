package inventory

import (
	"sync"
	"time"

	"github.com/coldrackhq/coldrack-backend/internal/catalog"
	"github.com/coldrackhq/coldrack-backend/internal/history"
	"github.com/coldrackhq/coldrack-backend/internal/racks"
	"github.com/coldrackhq/coldrack-backend/internal/users"
)

// Snapshot is one consistent read of everything the dashboard renders.
// Consumers receive it by value and must not mutate the slices.
type Snapshot struct {
	Racks        []racks.RackDTO          `json:"racks"`
	ProductCodes []catalog.ProductCodeDTO `json:"productCodes"`
	Categories   []catalog.CategoryDTO    `json:"categories"`
	Users        []users.UserDTO          `json:"users"`
	Activity     []history.RecordDTO      `json:"activity"`
	RefreshedAt  time.Time                `json:"refreshedAt"`
}

// Store holds the current snapshot behind a read-write lock. Reads never
// block each other; a refresh swaps the whole snapshot at once.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
}

// NewStore returns an empty store. The snapshot is zero until the first
// successful refresh.
func NewStore() *Store {
	return &Store{}
}

// Current returns the latest snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// RefreshedAt returns when the snapshot was last replaced. The zero time
// means no refresh has succeeded yet.
func (s *Store) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.RefreshedAt
}

func (s *Store) replace(snap Snapshot) {
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
}
