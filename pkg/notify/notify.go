// Package notify holds transient user-facing notifications. Success entries
// auto-dismiss sooner than error entries.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

const (
	successTTL = 4 * time.Second
	errorTTL   = 8 * time.Second
)

// Notification is a single transient message.
type Notification struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Center collects notifications and delivers them to subscribers.
type Center struct {
	mu      sync.Mutex
	items   []Notification
	subs    map[int]func(Notification)
	nextSub int
}

// NewCenter creates an empty notification center.
func NewCenter() *Center {
	return &Center{subs: make(map[int]func(Notification))}
}

// Success raises a success notification.
func (c *Center) Success(format string, args ...any) {
	c.push(LevelSuccess, fmt.Sprintf(format, args...), successTTL)
}

// Error raises an error notification.
func (c *Center) Error(format string, args ...any) {
	c.push(LevelError, fmt.Sprintf(format, args...), errorTTL)
}

func (c *Center) push(level Level, msg string, ttl time.Duration) {
	now := time.Now()
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   msg,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	c.mu.Lock()
	c.items = append(c.items, n)
	fns := make([]func(Notification), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

// Subscribe registers fn for every future notification. The returned function
// cancels the subscription.
func (c *Center) Subscribe(fn func(Notification)) (cancel func()) {
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

// Active returns notifications that have not expired at the given time,
// pruning the rest.
func (c *Center) Active(now time.Time) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, n := range c.items {
		if n.ExpiresAt.After(now) {
			kept = append(kept, n)
		}
	}
	c.items = kept

	out := make([]Notification, len(kept))
	copy(out, kept)
	return out
}
