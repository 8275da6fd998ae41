package cache

import (
	"context"
	"sync"

	"github.com/cenkalti/backoff/v4"
)

// ListCache caches lists of resources keyed by label id, with the same
// stale/refetch discipline as TaskCache. Used for contracts, beats, releases.
type ListCache[T any] struct {
	mu         sync.RWMutex
	fetch      func(ctx context.Context, key string) ([]T, error)
	entries    map[string]*listEntry[T]
	maxRetries uint64
}

type listEntry[T any] struct {
	items []T
	stale bool
}

// NewListCache creates a list cache backed by the given fetch function.
func NewListCache[T any](fetch func(ctx context.Context, key string) ([]T, error)) *ListCache[T] {
	return &ListCache[T]{
		fetch:      fetch,
		entries:    make(map[string]*listEntry[T]),
		maxRetries: 2,
	}
}

// Get returns the cached list, refetching when missing or stale.
func (c *ListCache[T]) Get(ctx context.Context, key string) ([]T, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	if ok && !entry.stale {
		items := entry.items
		c.mu.RUnlock()
		return items, nil
	}
	c.mu.RUnlock()

	op := func() ([]T, error) { return c.fetch(ctx, key) }
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	items, err := backoff.RetryWithData(op, b)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = &listEntry[T]{items: items}
	c.mu.Unlock()
	return items, nil
}

// Invalidate marks the key's entry stale.
func (c *ListCache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		entry.stale = true
	}
}

// Stale reports whether the key's entry is currently marked stale.
func (c *ListCache[T]) Stale(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return ok && entry.stale
}

// RecordCache caches single records by id. Used for labels and individual
// contracts.
type RecordCache[T any] struct {
	mu         sync.RWMutex
	fetch      func(ctx context.Context, id string) (*T, error)
	entries    map[string]*recordEntry[T]
	maxRetries uint64
}

type recordEntry[T any] struct {
	record *T
	stale  bool
}

// NewRecordCache creates a record cache backed by the given fetch function.
func NewRecordCache[T any](fetch func(ctx context.Context, id string) (*T, error)) *RecordCache[T] {
	return &RecordCache[T]{
		fetch:      fetch,
		entries:    make(map[string]*recordEntry[T]),
		maxRetries: 2,
	}
}

// Get returns the cached record, refetching when missing or stale.
func (c *RecordCache[T]) Get(ctx context.Context, id string) (*T, error) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	if ok && !entry.stale {
		record := entry.record
		c.mu.RUnlock()
		return record, nil
	}
	c.mu.RUnlock()

	op := func() (*T, error) { return c.fetch(ctx, id) }
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	record, err := backoff.RetryWithData(op, b)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[id] = &recordEntry[T]{record: record}
	c.mu.Unlock()
	return record, nil
}

// Invalidate marks the record stale.
func (c *RecordCache[T]) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[id]; ok {
		entry.stale = true
	}
}

// Stale reports whether the record is currently marked stale.
func (c *RecordCache[T]) Stale(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	return ok && entry.stale
}
