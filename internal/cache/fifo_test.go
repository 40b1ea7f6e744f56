package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFO_GetPutRemove(t *testing.T) {
	c := New(10)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("a", "https://a.example")
	uri, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "https://a.example", uri)

	c.Remove("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Empty(t, c.Keys())

	// Removing an unknown token is a no-op.
	c.Remove("a")
	assert.Equal(t, 0, c.Len())
}

func TestFIFO_EvictsOldest(t *testing.T) {
	c := New(2)

	_, ok := c.Put("A", "a")
	assert.False(t, ok)
	_, ok = c.Put("B", "b")
	assert.False(t, ok)

	evicted, ok := c.Put("C", "c")
	require.True(t, ok)
	assert.Equal(t, "A", evicted)
	assert.Equal(t, []string{"B", "C"}, c.Keys())

	_, ok = c.Get("A")
	assert.False(t, ok)

	evicted, ok = c.Put("A", "a")
	require.True(t, ok)
	assert.Equal(t, "B", evicted)
	assert.Equal(t, []string{"C", "A"}, c.Keys())
}

func TestFIFO_ReadsDoNotReorder(t *testing.T) {
	c := New(2)
	c.Put("hot", "1")
	c.Put("cold", "2")

	for i := 0; i < 100; i++ {
		c.Get("hot")
	}

	evicted, ok := c.Put("new", "3")
	require.True(t, ok)
	assert.Equal(t, "hot", evicted, "eviction is FIFO, not LRU")
}

func TestFIFO_OverwriteKeepsSingleQueueEntry(t *testing.T) {
	c := New(3)
	c.Put("a", "1")
	c.Put("b", "2")
	c.Put("a", "3")

	assert.Equal(t, []string{"a", "b"}, c.Keys())
	uri, _ := c.Get("a")
	assert.Equal(t, "3", uri)
}

func TestFIFO_RemoveKeepsOrder(t *testing.T) {
	c := New(5)
	for _, k := range []string{"a", "b", "c", "d"} {
		c.Put(k, k)
	}
	c.Remove("b")
	assert.Equal(t, []string{"a", "c", "d"}, c.Keys())
	assert.Equal(t, 3, c.Len())
}

func TestFIFO_EvictHook(t *testing.T) {
	var evicted []string
	c := New(1, WithEvictHook(func(token string) { evicted = append(evicted, token) }))

	c.Put("a", "1")
	c.Put("b", "2")
	c.Put("c", "3")

	assert.Equal(t, []string{"a", "b"}, evicted)
}

func TestFIFO_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
	assert.Equal(t, 3, New(3).Capacity())
}

func TestFIFO_ConcurrentBounded(t *testing.T) {
	const capacity = 16
	c := New(capacity)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k%d", (w*31+i)%64)
				c.Put(key, key)
				c.Get(key)
				if i%7 == 0 {
					c.Remove(key)
				}
			}
		}(w)
	}
	wg.Wait()

	keys := c.Keys()
	assert.LessOrEqual(t, len(keys), capacity)
	assert.Equal(t, len(keys), c.Len())

	seen := make(map[string]bool)
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate queue entry %q", k)
		seen[k] = true
		_, ok := c.Get(k)
		assert.True(t, ok, "queued token %q missing from map", k)
	}
}
