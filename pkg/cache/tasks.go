// Package cache holds the client-side query caches: fetched data marked stale
// on mutation and corrected by an authoritative refetch, never by local
// arithmetic.
package cache

import (
	"context"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/pcameron/labelagent/pkg/game"
)

// TaskFetchFunc loads a label's task list from the backend. Implementations
// are expected to feed the server-time offset tracker as a side effect.
type TaskFetchFunc func(ctx context.Context, labelID string) ([]game.TimedTask, error)

type taskEntry struct {
	tasks []game.TimedTask
	stale bool
}

func copyTasks(tasks []game.TimedTask) []game.TimedTask {
	out := make([]game.TimedTask, len(tasks))
	copy(out, tasks)
	return out
}

// TaskCache is the keyed store of task records per label.
type TaskCache struct {
	mu         sync.RWMutex
	fetch      TaskFetchFunc
	entries    map[string]*taskEntry
	maxRetries uint64
}

// NewTaskCache creates a task cache backed by the given fetch function.
func NewTaskCache(fetch TaskFetchFunc) *TaskCache {
	return &TaskCache{
		fetch:      fetch,
		entries:    make(map[string]*taskEntry),
		maxRetries: 2,
	}
}

// Tasks returns the label's tasks, refetching when the entry is missing or
// stale. Failed fetches are retried a small fixed number of times.
func (c *TaskCache) Tasks(ctx context.Context, labelID string) ([]game.TimedTask, error) {
	c.mu.RLock()
	entry, ok := c.entries[labelID]
	if ok && !entry.stale {
		tasks := copyTasks(entry.tasks)
		c.mu.RUnlock()
		return tasks, nil
	}
	c.mu.RUnlock()

	op := func() ([]game.TimedTask, error) {
		return c.fetch(ctx, labelID)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	tasks, err := backoff.RetryWithData(op, b)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[labelID] = &taskEntry{tasks: copyTasks(tasks)}
	c.mu.Unlock()
	return tasks, nil
}

// Snapshot returns a copy of the cached tasks without fetching. The second
// return value reports whether an entry exists, stale or not. Handing out a
// copy keeps readers safe from concurrent Merge writes to the entry.
func (c *TaskCache) Snapshot(labelID string) ([]game.TimedTask, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[labelID]
	if !ok {
		return nil, false
	}
	return copyTasks(entry.tasks), true
}

// Merge applies an optimistic local patch: replace-by-id, appending when the
// task is new to the entry. A later invalidation-refetch corrects any drift.
func (c *TaskCache) Merge(labelID string, task game.TimedTask) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[labelID]
	if !ok {
		c.entries[labelID] = &taskEntry{tasks: []game.TimedTask{task}}
		return
	}
	for i := range entry.tasks {
		if entry.tasks[i].ID == task.ID {
			entry.tasks[i] = task
			return
		}
	}
	entry.tasks = append(entry.tasks, task)
}

// Invalidate marks the label's entry stale; the next Tasks call refetches.
func (c *TaskCache) Invalidate(labelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[labelID]; ok {
		entry.stale = true
	}
}
