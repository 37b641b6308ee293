package progress

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-instance runs.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snaps: make(map[string]*Snapshot),
		now:   time.Now,
	}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snaps[sessionID]
	if !ok || !snap.Usable(s.now()) {
		return nil, ErrNoProgress
	}
	return copySnapshot(snap), nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionID string, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.SavedAt = s.now()
	s.snaps[sessionID] = copySnapshot(snap)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snaps, sessionID)
	return nil
}

func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, snap := range s.snaps {
		if !snap.Usable(s.now()) {
			delete(s.snaps, id)
			removed++
		}
	}
	return removed, nil
}

// copySnapshot deep-copies through JSON so a caller mutating its snapshot
// cannot reach into the stored one.
func copySnapshot(snap *Snapshot) *Snapshot {
	data, err := json.Marshal(snap)
	if err != nil {
		return snap
	}
	var out Snapshot
	if err := json.Unmarshal(data, &out); err != nil {
		return snap
	}
	return &out
}
