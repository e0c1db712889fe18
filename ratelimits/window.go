package ratelimits

import (
	"hash/fnv"
	"sync"
	"time"
)

const (
	// Number of independently locked shards per window. Operations on
	// different keys should not serialize against each other.
	shardCount = 16

	// How often expired entries are swept out of the shards
	sweepInterval = time.Minute
)

// Commands limits how many prefix commands a single user may run.
// Initialized by Init() once the gateway is ready.
var Commands *FixedWindow

// Init creates the shared command limiter and starts its janitor
func Init() {
	Commands = NewFixedWindow(20, 1*time.Minute)
}

type windowEntry struct {
	start time.Time
	count int
}

type windowShard struct {
	sync.Mutex
	entries map[string]*windowEntry
}

// FixedWindow tracks triggers per key inside a fixed time window. A key
// may trigger up to $capacity times per window, entries age out once
// their window has passed.
type FixedWindow struct {
	capacity int
	window   time.Duration
	shards   [shardCount]*windowShard

	now func() time.Time
}

// NewFixedWindow creates a limiter and starts its janitor goroutine
func NewFixedWindow(capacity int, window time.Duration) *FixedWindow {
	w := newFixedWindow(capacity, window, time.Now)
	go w.janitor()
	return w
}

func newFixedWindow(capacity int, window time.Duration, now func() time.Time) *FixedWindow {
	w := &FixedWindow{
		capacity: capacity,
		window:   window,
		now:      now,
	}
	for i := range w.shards {
		w.shards[i] = &windowShard{entries: make(map[string]*windowEntry)}
	}
	return w
}

func (w *FixedWindow) shard(key string) *windowShard {
	hash := fnv.New32a()
	hash.Write([]byte(key))
	return w.shards[hash.Sum32()%shardCount]
}

func (w *FixedWindow) expired(entry *windowEntry, now time.Time) bool {
	return now.Sub(entry.start) >= w.window
}

// Reset clears any recorded window for $key
func (w *FixedWindow) Reset(key string) {
	shard := w.shard(key)

	shard.Lock()
	delete(shard.entries, key)
	shard.Unlock()
}

// Trigger records one trigger for $key and returns the previously
// recorded count. $existed is false if the key had no live window, which
// is the expected result immediately after Reset().
func (w *FixedWindow) Trigger(key string) (previous int, existed bool) {
	shard := w.shard(key)
	now := w.now()

	shard.Lock()
	defer shard.Unlock()

	entry, ok := shard.entries[key]
	if !ok || w.expired(entry, now) {
		shard.entries[key] = &windowEntry{start: now, count: 1}
		return 0, false
	}

	previous = entry.count
	entry.count++
	return previous, true
}

// TryTrigger records one trigger for $key if it is below capacity and
// reports whether it was recorded. At capacity nothing is recorded, the
// window is not extended.
func (w *FixedWindow) TryTrigger(key string) bool {
	shard := w.shard(key)
	now := w.now()

	shard.Lock()
	defer shard.Unlock()

	entry, ok := shard.entries[key]
	if !ok || w.expired(entry, now) {
		shard.entries[key] = &windowEntry{start: now, count: 1}
		return true
	}

	if entry.count >= w.capacity {
		return false
	}

	entry.count++
	return true
}

// CanTrigger reports whether $key is still below its capacity within the
// current window
func (w *FixedWindow) CanTrigger(key string) bool {
	shard := w.shard(key)
	now := w.now()

	shard.Lock()
	defer shard.Unlock()

	entry, ok := shard.entries[key]
	if !ok || w.expired(entry, now) {
		return true
	}

	return entry.count < w.capacity
}

// janitor sweeps aged-out entries so idle keys do not pile up over the
// process lifetime
func (w *FixedWindow) janitor() {
	for {
		time.Sleep(sweepInterval)

		now := w.now()
		for _, shard := range w.shards {
			shard.Lock()
			for key, entry := range shard.entries {
				if w.expired(entry, now) {
					delete(shard.entries, key)
				}
			}
			shard.Unlock()
		}
	}
}
