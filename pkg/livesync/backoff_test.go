package livesync_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/clinic-scheduler/pkg/livesync"
)

func TestDelayDoublesPerAttempt(t *testing.T) {
	base := 100 * time.Millisecond

	assert.Equal(t, 100*time.Millisecond, livesync.Delay(1, base, 0))
	assert.Equal(t, 200*time.Millisecond, livesync.Delay(2, base, 0))
	assert.Equal(t, 400*time.Millisecond, livesync.Delay(3, base, 0))
	assert.Equal(t, 800*time.Millisecond, livesync.Delay(4, base, 0))
	assert.Equal(t, 1600*time.Millisecond, livesync.Delay(5, base, 0))
}

func TestDelayClampsInvalidAttempt(t *testing.T) {
	base := 50 * time.Millisecond

	assert.Equal(t, livesync.Delay(1, base, 0), livesync.Delay(0, base, 0))
	assert.Equal(t, livesync.Delay(1, base, 0), livesync.Delay(-3, base, 0))
}

func TestDelayJitterStaysInRange(t *testing.T) {
	base := 100 * time.Millisecond
	jitter := 50 * time.Millisecond

	for i := 0; i < 200; i++ {
		d := livesync.Delay(2, base, jitter)
		assert.GreaterOrEqual(t, d, 200*time.Millisecond)
		assert.Less(t, d, 250*time.Millisecond)
	}
}
