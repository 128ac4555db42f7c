package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsFresh(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsFresh(now, now))
	assert.True(t, IsFresh(now.Add(-time.Hour), now))
	assert.True(t, IsFresh(now.Add(-FreshnessWindow+time.Second), now))

	// Exactly one window old is already stale.
	assert.False(t, IsFresh(now.Add(-FreshnessWindow), now))
	assert.False(t, IsFresh(now.Add(-30*24*time.Hour), now))
}
