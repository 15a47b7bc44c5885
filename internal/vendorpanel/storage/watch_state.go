package storage

import (
	"context"
	"sync"
)

// PendingImportKey names the marker of the import a watcher should be running for.
const PendingImportKey = "pending_import"

// WatchStateStore persists at most one pending transaction id per session.
type WatchStateStore interface {
	Load(ctx context.Context) (transactionID string, ok bool, err error)
	Save(ctx context.Context, transactionID string) error
	// Clear removes the marker only while it still holds transactionID; a marker saved
	// for a newer job stays.
	Clear(ctx context.Context, transactionID string) error
}

// MemoryStore lives as long as the process.
type MemoryStore struct {
	mu            sync.Mutex
	transactionID string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactionID, s.transactionID != "", nil
}

func (s *MemoryStore) Save(_ context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactionID = transactionID
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transactionID == transactionID {
		s.transactionID = ""
	}
	return nil
}
