package clock

import (
	"testing"
	"time"

	"github.com/smallbiznis/aquabill/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestManualClock(t *testing.T) {
	start := time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)
	c := NewManual(start)

	assert.Equal(t, start.Add(2*time.Hour), c.Tick(2*time.Hour))
	assert.Equal(t, time.April, c.Now().Month())

	c.Reset(start)
	assert.Equal(t, start, c.Now())
}

func TestLocation(t *testing.T) {
	loc, ok := Location("")
	assert.True(t, ok)
	assert.Equal(t, time.UTC, loc)

	loc, ok = Location("Asia/Jakarta")
	assert.True(t, ok)
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).In(loc).Zone()
	assert.Equal(t, 7*60*60, offset)

	loc, ok = Location("Mars/Olympus_Mons")
	assert.False(t, ok)
	assert.Equal(t, time.UTC, loc)
}

func TestNewUsesConfiguredZone(t *testing.T) {
	c := New(config.Config{Timezone: "Asia/Jakarta"}, zap.NewNop())
	_, offset := c.Now().Zone()
	assert.Equal(t, 7*60*60, offset)

	var zero SystemClock
	assert.Equal(t, time.UTC, zero.Now().Location())
}
