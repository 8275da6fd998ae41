package clock

import (
	"sync"
	"time"
)

// DefaultInterval is the tick rate driving countdown recomputation.
const DefaultInterval = time.Second

// Clock is the single source of "now" for the application. It publishes the
// current wall-clock time to subscribers once per interval while started.
type Clock struct {
	mu       sync.Mutex
	interval time.Duration
	now      time.Time
	running  bool
	stop     chan struct{}
	subs     map[int]func(time.Time)
	nextSub  int
}

// New creates a stopped clock ticking at the given interval.
// A non-positive interval falls back to DefaultInterval.
func New(interval time.Duration) *Clock {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Clock{
		interval: interval,
		now:      time.Now(),
		subs:     make(map[int]func(time.Time)),
	}
}

// Start begins ticking. Calling Start on a running clock is a no-op, so there
// is never more than one active timer.
func (c *Clock) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	stop := c.stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case t := <-ticker.C:
				c.publish(t)
			}
		}
	}()
}

// Stop cancels the ticker. Idempotent.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	close(c.stop)
}

// Running reports whether the clock is currently ticking.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Tick forces an immediate time update outside the regular interval.
func (c *Clock) Tick() {
	c.publish(time.Now())
}

// Now returns the last published wall-clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Subscribe registers fn to run on every tick. The returned function cancels
// the subscription.
func (c *Clock) Subscribe(fn func(time.Time)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Clock) publish(t time.Time) {
	c.mu.Lock()
	c.now = t
	fns := make([]func(time.Time), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
}
