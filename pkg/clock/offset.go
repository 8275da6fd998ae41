package clock

import (
	"sync"
	"time"
)

// Offset tracks the delta between server-reported time and the local clock so
// countdown math follows backend authority instead of the client's skew.
// Last writer wins; no averaging or smoothing.
type Offset struct {
	mu    sync.RWMutex
	delta time.Duration
}

// Observe records serverTime − receivedAt as the current offset.
// receivedAt should be the local time at the moment the response arrived.
func (o *Offset) Observe(serverTime, receivedAt time.Time) {
	if serverTime.IsZero() {
		return
	}
	o.mu.Lock()
	o.delta = serverTime.Sub(receivedAt)
	o.mu.Unlock()
}

// Get returns the current offset.
func (o *Offset) Get() time.Duration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.delta
}

// Adjusted shifts a local time onto the server's timeline.
func (o *Offset) Adjusted(local time.Time) time.Time {
	return local.Add(o.Get())
}
