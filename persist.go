package snapstore

import (
	"context"
	"errors"
)

// Persist is the interface for loading and storing serialized nodes. The
// name a node is stored under is the hash of its content, so stored bytes
// are never modified.
type Persist interface {
	// Store makes the given bytes accessible by the given name.
	Store(context.Context, string, []byte) error
	// Load retrieves the previously-stored bytes by the given name.
	Load(context.Context, string) ([]byte, error)
}

// ErrNotFound is returned by the in-memory Persist for unknown names.
var ErrNotFound = errors.New("snapstore: node not found")

// PersistConfig controls how snapshots are saved and loaded.
type PersistConfig struct {
	// StoreImmutablePartsWith is used to store and load serialized nodes.
	StoreImmutablePartsWith Persist

	// NodeCache remembers which nodes have been stored, and caches loaded
	// ones. It may be shared by any number of stores using the same
	// Persist. Without one, every save stores every node.
	NodeCache NodeCache

	// Codec serializes primitive values. Defaults to JSONCodec.
	Codec Codec
}

func (cfg PersistConfig) codec() Codec {
	if cfg.Codec == nil {
		return JSONCodec{}
	}
	return cfg.Codec
}

// Root identifies a saved Snapshot whose nodes are accessible in the
// Persist it was saved with.
type Root struct {
	Link    string
	Version uint64
}
