package reachyhal

import (
	"sync"
	"time"
)

// SyncCell is a one-shot-settable value: update() sets it and wakes every
// waiter, get() blocks until it has been set (or times out), reset() clears
// it so the next get() blocks again. It is the building block behind every
// device register: safe for one writer (a gate's reader goroutine) and
// many readers (caller goroutines). No update is ever lost if two race;
// the last writer wins, but every in-flight get() still observes whichever
// value was current when its wait woke up. The cond broadcasts rather than
// signals so readers that arrive mid-wait are never missed.
type SyncCell struct {
	mu        sync.Mutex
	cond      *sync.Cond
	set       bool
	value     []byte
	timestamp time.Time
}

// NewSyncCell returns a cell with no value set.
func NewSyncCell() *SyncCell {
	c := &SyncCell{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Update sets the cell's value, stamps it with the current time and wakes
// every waiter. Safe to call from any goroutine, but in practice only the
// owning gate's router callback ever calls it.
func (c *SyncCell) Update(value []byte) {
	c.mu.Lock()
	c.value = value
	c.timestamp = time.Now()
	c.set = true
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Reset clears the cell so the next Get blocks again. Used before issuing a
// fresh read request, so the reply that satisfies the wait is guaranteed to
// be at or after the request.
func (c *SyncCell) Reset() {
	c.mu.Lock()
	c.set = false
	c.value = nil
	c.mu.Unlock()
}

// IsSet reports whether the cell currently holds a value.
func (c *SyncCell) IsSet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set
}

// Get blocks until the cell is set, then returns its value. If timeout
// elapses first it returns a KindTimeout error.
func (c *SyncCell) Get(timeout time.Duration) ([]byte, error) {
	var timedOut bool
	timer := time.AfterFunc(timeout, func() {
		c.mu.Lock()
		timedOut = true
		c.mu.Unlock()
		c.cond.Broadcast()
	})
	defer timer.Stop()

	c.mu.Lock()
	for !c.set && !timedOut {
		c.cond.Wait()
	}
	set, value := c.set, c.value
	c.mu.Unlock()

	if !set {
		return nil, TimeoutErrorF("timed out after %s waiting for register value", timeout)
	}
	return value, nil
}

// Timestamp returns the time of the last Update, zero if never set.
func (c *SyncCell) Timestamp() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timestamp
}
