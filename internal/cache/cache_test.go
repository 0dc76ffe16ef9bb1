package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := New[[]int](time.Minute)
	c.Set("chat:1", []int{1, 2, 3})

	got, ok := c.Get("chat:1")
	require.True(t, ok)
	assert.Len(t, got, 3)

	_, ok = c.Get("chat:2")
	assert.False(t, ok, "unknown key must miss")
}

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := New[string](10 * time.Minute)
	c.now = func() time.Time { return now }
	c.Set("k", "v")

	now = now.Add(9 * time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry expired too early")

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must expire after the TTL")
}

func TestCacheSetResetsTTL(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := New[int](10 * time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	now = now.Add(8 * time.Minute)
	c.Set("k", 2)
	now = now.Add(8 * time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestCacheDelete(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("k", 1)
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok, "deleted key must miss")
}
