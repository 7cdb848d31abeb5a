package reservations

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchdogRunsOnInterval(t *testing.T) {
	var runs atomic.Int32
	w := NewWatchdog(10*time.Millisecond, func() { runs.Add(1) })

	w.Start()
	defer w.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestWatchdogKickTriggersCheck(t *testing.T) {
	var runs atomic.Int32
	w := NewWatchdog(time.Hour, func() { runs.Add(1) })

	w.Start()
	defer w.Stop()

	w.Kick()
	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestWatchdogKicksCoalesce(t *testing.T) {
	var runs atomic.Int32
	w := NewWatchdog(time.Hour, func() { runs.Add(1) })

	for i := 0; i < 10; i++ {
		w.Kick()
	}
	w.Start()
	defer w.Stop()

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestWatchdogStopIsIdempotent(t *testing.T) {
	var runs atomic.Int32
	w := NewWatchdog(5*time.Millisecond, func() { runs.Add(1) })

	w.Start()
	w.Start()
	assert.True(t, w.Running())

	w.Stop()
	w.Stop()
	assert.False(t, w.Running())

	stopped := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}
