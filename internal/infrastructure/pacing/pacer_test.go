package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWaits(t *testing.T) {
	t.Parallel()

	start := time.Now()
	err := Fixed{Delay: 20 * time.Millisecond}.Wait(context.Background())

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestFixedHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Fixed{Delay: time.Hour}.Wait(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestJitterStaysInRange(t *testing.T) {
	t.Parallel()

	j := Jitter{Min: 3 * time.Second, Max: 5 * time.Second}
	for i := 0; i < 200; i++ {
		d := j.next()
		assert.GreaterOrEqual(t, d, 3*time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
	}

	assert.Equal(t, time.Second, Jitter{Min: time.Second, Max: time.Second}.next())
	swapped := Jitter{Min: 2 * time.Second, Max: time.Second}.next()
	assert.GreaterOrEqual(t, swapped, time.Second)
	assert.LessOrEqual(t, swapped, 2*time.Second)
}

func TestNone(t *testing.T) {
	t.Parallel()

	assert.NoError(t, None{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, None{}.Wait(ctx), context.Canceled)
}

func TestNewSelectsPolicy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, None{}, New("none", time.Second, 0, 0))
	assert.Equal(t, Jitter{Min: time.Second, Max: 2 * time.Second}, New("jitter", 0, time.Second, 2*time.Second))
	assert.Equal(t, Fixed{Delay: time.Second}, New("fixed", time.Second, 0, 0))
	assert.Equal(t, Fixed{Delay: time.Second}, New("", time.Second, 0, 0))
}
