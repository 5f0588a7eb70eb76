package sidekick

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	c.Set("rate", 1.2, ExpiryShort)
	c.Set("symbol", "VWRL.AS", ExpiryLong)
	c.Set("none", true, ExpiryNone)

	v, ok := c.Get("rate")
	assert.True(t, ok)
	assert.Equal(t, 1.2, v)
	_, ok = c.Get("none")
	assert.False(t, ok, "ExpiryNone entries are not stored")

	now = now.Add(10 * time.Minute)
	_, ok = c.Get("rate")
	assert.False(t, ok, "short entries expire after a few minutes")
	_, ok = c.Get("symbol")
	assert.True(t, ok)

	c.Set("symbol", nil, ExpiryNone)
	_, ok = c.Get("symbol")
	assert.False(t, ok, "ExpiryNone drops the key")

	c.Set("a", 1, ExpiryLong)
	c.Purge()
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestNoCache(t *testing.T) {
	var c Cache = NoCache{}
	c.Set("a", 1, ExpiryLong)
	_, ok := c.Get("a")
	assert.False(t, ok)
}
