// Package viewtree hands out stable integer tags for surfaces and
// resolves tags back to their view.
package viewtree

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Registry maps tags to views. Tags are never reused.
type Registry[V any] struct {
	next  atomic.Int64
	views map[int]V
	mu    sync.RWMutex
}

func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{views: make(map[int]V)}
}

// Register stores v under a fresh tag.
func (r *Registry[V]) Register(v V) int {
	tag := int(r.next.Add(1))

	r.mu.Lock()
	r.views[tag] = v
	r.mu.Unlock()

	return tag
}

func (r *Registry[V]) Lookup(tag int) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[tag]
	return v, ok
}

func (r *Registry[V]) Unregister(tag int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.views, tag)
}

// List returns the registered tags in ascending order.
func (r *Registry[V]) List() []int {
	r.mu.RLock()
	tags := make([]int, 0, len(r.views))
	for tag := range r.views {
		tags = append(tags, tag)
	}
	r.mu.RUnlock()

	sort.Ints(tags)
	return tags
}

func (r *Registry[V]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.views)
}
