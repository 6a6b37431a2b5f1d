package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMissAndHit(t *testing.T) {
	c := New[string, int](100)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("a", 1, 10)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestPutNeverExceedsBudget(t *testing.T) {
	c := New[string, int](30)

	c.Put("a", 1, 10)
	c.Put("b", 2, 10)
	c.Put("c", 3, 10)
	assert.Equal(t, 30, c.Cost())

	c.Put("d", 4, 10)
	assert.LessOrEqual(t, c.Cost(), 30)
	assert.Equal(t, 3, c.Len())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](30)

	c.Put("a", 1, 10)
	c.Put("b", 2, 10)
	c.Put("c", 3, 10)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("d", 4, 10)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)
}

func TestOversizedValueNotStored(t *testing.T) {
	c := New[string, int](10)

	c.Put("huge", 1, 11)
	_, ok := c.Get("huge")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Cost())
}

func TestUpdateExistingKeyAdjustsCost(t *testing.T) {
	c := New[string, string](100)

	c.Put("k", "short", 5)
	c.Put("k", "much longer value", 17)
	assert.Equal(t, 17, c.Cost())
	assert.Equal(t, 1, c.Len())

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "much longer value", v)
}

func TestEvictionIsTransparent(t *testing.T) {
	c := New[int, string](50)

	// Overfill several times over; callers only ever see misses.
	for i := 0; i < 100; i++ {
		c.Put(i, fmt.Sprintf("value-%d", i), 10)
	}
	assert.LessOrEqual(t, c.Cost(), 50)
	assert.Equal(t, 5, c.Len())
}
