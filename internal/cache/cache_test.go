package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/reqflux/reqflux/internal/domain"
)

func TestCache_SetGet(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("a", domain.Result{ItemID: "a", Success: true})

	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.True(t, got.Success)
}

func TestCache_MissingKey(t *testing.T) {
	c := New(10, time.Minute)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestCache_ExpiredEntryNotReturned(t *testing.T) {
	c := New(10, 10*time.Millisecond)
	c.Set("a", domain.Result{ItemID: "a"})

	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_SweepRemovesExpiredOnly(t *testing.T) {
	c := New(10, 15*time.Millisecond)
	c.Set("old", domain.Result{ItemID: "old"})
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", domain.Result{ItemID: "fresh"})

	removed := c.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("fresh")
	assert.True(t, ok)
}
