package ratelimits

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWindow(capacity int, window time.Duration) (*FixedWindow, *time.Time) {
	current := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	w := newFixedWindow(capacity, window, func() time.Time {
		return current
	})
	return w, &current
}

func TestTriggerCooldown(t *testing.T) {
	w, now := newTestWindow(3, 10*time.Minute)

	for i := 0; i < 3; i++ {
		require.True(t, w.CanTrigger("highlight-1"), "trigger %d should be allowed", i+1)
		previous, existed := w.Trigger("highlight-1")
		assert.Equal(t, i, previous)
		assert.Equal(t, i > 0, existed)
	}

	// capacity reached, the 4th check fails within the window
	assert.False(t, w.CanTrigger("highlight-1"))

	// other keys are unaffected
	assert.True(t, w.CanTrigger("highlight-2"))

	// once the window has passed the key starts fresh
	*now = now.Add(10*time.Minute + time.Second)
	assert.True(t, w.CanTrigger("highlight-1"))
	previous, existed := w.Trigger("highlight-1")
	assert.Equal(t, 0, previous)
	assert.False(t, existed)
}

func TestResetThenTrigger(t *testing.T) {
	w, _ := newTestWindow(1, 5*time.Minute)

	w.Trigger("user-1:channel-1")
	w.Trigger("user-1:channel-1")

	w.Reset("user-1:channel-1")
	previous, existed := w.Trigger("user-1:channel-1")
	assert.Equal(t, 0, previous)
	assert.False(t, existed, "a fresh trigger after Reset must report the key as previously absent")
}

func TestActiveWindowReArm(t *testing.T) {
	w, now := newTestWindow(1, 5*time.Minute)

	w.Reset("author:channel")
	w.Trigger("author:channel")
	assert.False(t, w.CanTrigger("author:channel"))

	// every new message re-arms the window, so activity 4 minutes later
	// still suppresses
	*now = now.Add(4 * time.Minute)
	w.Reset("author:channel")
	w.Trigger("author:channel")
	*now = now.Add(4 * time.Minute)
	assert.False(t, w.CanTrigger("author:channel"))

	*now = now.Add(2 * time.Minute)
	assert.True(t, w.CanTrigger("author:channel"))
}

func TestExpiredEntryCountsAsAbsent(t *testing.T) {
	w, now := newTestWindow(3, 10*time.Minute)

	w.Trigger("key")
	w.Trigger("key")

	*now = now.Add(11 * time.Minute)
	previous, existed := w.Trigger("key")
	assert.Equal(t, 0, previous)
	assert.False(t, existed)
}

func TestConcurrentKeysDoNotInterfere(t *testing.T) {
	w := newFixedWindow(200, time.Hour, time.Now)

	var wg sync.WaitGroup
	for g := 0; g < 32; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", g)
			for i := 0; i < 100; i++ {
				w.Trigger(key)
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 32; g++ {
		key := fmt.Sprintf("key-%d", g)
		previous, existed := w.Trigger(key)
		assert.Equal(t, 100, previous, "key %s lost triggers", key)
		assert.True(t, existed)
	}
}

func TestTryTriggerStopsAtCapacity(t *testing.T) {
	w, now := newTestWindow(3, 10*time.Minute)

	for i := 0; i < 3; i++ {
		require.True(t, w.TryTrigger("highlight-1"), "trigger %d should be recorded", i+1)
	}

	// at capacity nothing further is recorded
	assert.False(t, w.TryTrigger("highlight-1"))
	assert.False(t, w.TryTrigger("highlight-1"))

	// the rejected attempts did not extend the window
	*now = now.Add(10*time.Minute + time.Second)
	assert.True(t, w.TryTrigger("highlight-1"))
}
