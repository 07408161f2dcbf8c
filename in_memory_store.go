package snapstore

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryStore is a Persist that keeps serialized nodes in a map, usually
// for testing.
type InMemoryStore struct {
	l       sync.RWMutex
	entries map[string][]byte
	stores  int
}

// NewInMemoryStore provides an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: map[string][]byte{}}
}

func (ims *InMemoryStore) Store(ctx context.Context, key string, value []byte) error {
	ims.l.Lock()
	ims.entries[key] = append([]byte(nil), value...)
	ims.stores++
	ims.l.Unlock()
	return nil
}

func (ims *InMemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	ims.l.RLock()
	value, ok := ims.entries[key]
	ims.l.RUnlock()
	if !ok {
		return nil, fmt.Errorf("in-memory entry %s: %w", key, ErrNotFound)
	}
	return value, nil
}

// Len is the number of distinct entries.
func (ims *InMemoryStore) Len() int {
	ims.l.RLock()
	defer ims.l.RUnlock()
	return len(ims.entries)
}

// Stores counts calls to Store, including ones that rewrote an entry.
func (ims *InMemoryStore) Stores() int {
	ims.l.RLock()
	defer ims.l.RUnlock()
	return ims.stores
}
