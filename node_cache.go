package snapstore

import lru "github.com/hashicorp/golang-lru"

// NodeCache caches saved and loaded nodes. Entries go both ways: a link
// maps to its *Node and a *Node maps to its link. It is also used to avoid
// re-storing nodes, so switch or invalidate the NodeCache when the Persist
// is changed.
type NodeCache interface {
	// Add adds a freshly-persisted node to the cache.
	Add(key, value interface{})
	// Contains indicates the node with the given key has already been persisted.
	Contains(key interface{}) bool
	// Get retrieves the cached value for the given key.
	Get(key interface{}) (value interface{}, ok bool)
}

// NewNodeCache creates a new LRU-based node cache holding size entries.
// Each cached node takes two entries.
func NewNodeCache(size int) NodeCache {
	cache, err := lru.NewARC(size)
	if err != nil {
		panic(err)
	}
	return cache
}

func cacheNode(cache NodeCache, link string, n *Node) {
	if cache == nil {
		return
	}
	cache.Add(link, n)
	cache.Add(n, link)
}

func cachedLink(cache NodeCache, n *Node) (string, bool) {
	if cache == nil {
		return "", false
	}
	v, ok := cache.Get(n)
	if !ok {
		return "", false
	}
	link, ok := v.(string)
	return link, ok
}

func cachedNode(cache NodeCache, link string) (*Node, bool) {
	if cache == nil {
		return nil, false
	}
	v, ok := cache.Get(link)
	if !ok {
		return nil, false
	}
	n, ok := v.(*Node)
	return n, ok
}
