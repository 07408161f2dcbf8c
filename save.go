package snapstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/minio/blake2b-simd"
)

// SaveSnapshot serializes snap into cfg.StoreImmutablePartsWith and returns
// the Root that LoadSnapshot accepts. Nodes are stored under the hash of
// their content. With a NodeCache, nodes already saved, including those
// shared with a previously saved Snapshot, are not stored again.
func SaveSnapshot(ctx context.Context, snap Snapshot, cfg PersistConfig) (*Root, error) {
	if cfg.StoreImmutablePartsWith == nil {
		return nil, fmt.Errorf("no persistence mechanism set; set PersistConfig.StoreImmutablePartsWith")
	}
	n := snap.Node()
	if n == nil {
		return nil, fmt.Errorf("cannot save %v root", KindOf(snap.Root()))
	}
	link, err := storeNode(ctx, n, cfg.StoreImmutablePartsWith, cfg.NodeCache, cfg.codec())
	if err != nil {
		return nil, err
	}
	return &Root{Link: link, Version: snap.Version()}, nil
}

func storeNode(ctx context.Context, n *Node, persist Persist, cache NodeCache, codec Codec) (string, error) {
	if link, ok := cachedLink(cache, n); ok {
		return link, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	enc := encodedNode{kind: n.kind}
	var values []any
	switch n.kind {
	case Mapping:
		enc.keys = n.keys
		values = make([]any, len(n.keys))
		for i, k := range n.keys {
			values[i] = n.fields[k]
		}
	default:
		values = n.items
	}
	enc.values = values
	enc.links = make([]string, len(values))
	for i, v := range values {
		child, ok := v.(*Node)
		if !ok {
			continue
		}
		link, err := storeNode(ctx, child, persist, cache, codec)
		if err != nil {
			return "", fmt.Errorf("store: %w", err)
		}
		enc.links[i] = link
	}
	encoded, err := marshalNode(enc, codec)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	hashBytes := blake2b.Sum256(encoded)
	hash := base64.RawURLEncoding.EncodeToString(hashBytes[:])
	if cache != nil && cache.Contains(hash) {
		cache.Add(n, hash)
		return hash, nil
	}
	if err := persist.Store(ctx, hash, encoded); err != nil {
		return "", fmt.Errorf("persist store: %w", err)
	}
	cacheNode(cache, hash, n)
	return hash, nil
}

// LoadSnapshot reads the tree saved under root. Nodes found in
// cfg.NodeCache are reused, so two loads through one cache share the
// subtrees they have in common.
func LoadSnapshot(ctx context.Context, root *Root, cfg PersistConfig) (*Node, error) {
	if cfg.StoreImmutablePartsWith == nil {
		return nil, fmt.Errorf("no persistence mechanism set; set PersistConfig.StoreImmutablePartsWith")
	}
	if root == nil || root.Link == "" {
		return nil, errors.New("empty root")
	}
	return loadNode(ctx, root.Link, cfg.StoreImmutablePartsWith, cfg.NodeCache, cfg.codec())
}

func loadNode(ctx context.Context, link string, persist Persist, cache NodeCache, codec Codec) (*Node, error) {
	if n, ok := cachedNode(cache, link); ok {
		return n, nil
	}
	nodeBytes, err := persist.Load(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("persist load %s: %w", link, err)
	}
	enc, err := unmarshalNode(nodeBytes, codec)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", link, err)
	}
	for i, l := range enc.links {
		if l == "" {
			continue
		}
		child, err := loadNode(ctx, l, persist, cache, codec)
		if err != nil {
			return nil, err
		}
		enc.values[i] = child
	}
	var n *Node
	switch enc.kind {
	case Mapping:
		fields := make(map[string]any, len(enc.keys))
		for i, k := range enc.keys {
			fields[k] = enc.values[i]
		}
		n = newMappingNode(enc.keys, fields)
	default:
		n = newSequenceNode(enc.values)
	}
	cacheNode(cache, link, n)
	return n, nil
}

// Autosave saves every Snapshot committed by store from now on. onSaved, if
// not nil, is called after each attempt. Failures are also logged. Autosave
// keeps no record of earlier Roots. Cancel the returned Subscription to
// stop.
func Autosave(ctx context.Context, store *Store, cfg PersistConfig, onSaved func(*Root, error)) Subscription {
	return store.Subscriptions().Add(func(snap Snapshot) {
		root, err := SaveSnapshot(ctx, snap, cfg)
		if err != nil {
			glog.Warningf("[store %s] autosave v%d: %v", store.ID(), snap.Version(), err)
		} else {
			glog.V(1).Infof("[store %s] autosaved v%d as %s", store.ID(), snap.Version(), root.Link)
		}
		if onSaved != nil {
			onSaved(root, err)
		}
	})
}
