// Package cache holds the bounded token to URI view that sits in front of
// the store.
//
// Eviction is strictly first-in first-out. Reads never reorder entries, so a
// hot token leaves the cache as early as a cold one inserted at the same time.
package cache

import "sync"

// DefaultCapacity is used when no capacity is configured.
const DefaultCapacity = 1000

// FIFO is safe for concurrent use. Its lock is never exposed.
type FIFO struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]string
	// queue keeps tokens in insertion order, oldest first.
	queue []string

	onEvict func(token string)
}

type Option func(*FIFO)

// WithEvictHook registers fn to be called for every evicted token. It runs
// with the cache lock held and must not call back into the cache.
func WithEvictHook(fn func(token string)) Option {
	return func(f *FIFO) {
		f.onEvict = fn
	}
}

// New returns an empty cache. A capacity below 1 selects DefaultCapacity.
func New(capacity int, opts ...Option) *FIFO {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	f := &FIFO{
		capacity: capacity,
		entries:  make(map[string]string, capacity),
		queue:    make([]string, 0, capacity+1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FIFO) Get(token string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	uri, ok := f.entries[token]
	return uri, ok
}

// Put stores the mapping. A token already cached keeps its queue position
// and only has its value replaced. When a new token pushes the queue past
// capacity the oldest token is evicted and returned.
func (f *FIFO) Put(token, originalURI string) (evicted string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.entries[token]; exists {
		f.entries[token] = originalURI
		return "", false
	}

	f.entries[token] = originalURI
	f.queue = append(f.queue, token)
	if len(f.queue) > f.capacity {
		evicted = f.queue[0]
		f.queue[0] = ""
		f.queue = f.queue[1:]
		delete(f.entries, evicted)
		if f.onEvict != nil {
			f.onEvict(evicted)
		}
		return evicted, true
	}
	return "", false
}

// Remove drops the mapping and every queue occurrence of token.
func (f *FIFO) Remove(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.entries, token)
	kept := f.queue[:0]
	for _, t := range f.queue {
		if t != token {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(f.queue); i++ {
		f.queue[i] = ""
	}
	f.queue = kept
}

func (f *FIFO) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.entries)
}

func (f *FIFO) Capacity() int {
	return f.capacity
}

// Keys returns a snapshot of the eviction queue, oldest first.
func (f *FIFO) Keys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, len(f.queue))
	copy(out, f.queue)
	return out
}
