package engine

import (
	"context"
	"sync"
)

// issueLocks serializes mutations per issue ID. Entries are created on first
// use and dropped when the last holder or waiter leaves, so the table only
// holds issues with work in flight.
type issueLocks struct {
	mu    sync.Mutex
	locks map[string]*issueLock
}

// issueLock is a one-slot semaphore plus the number of goroutines holding
// or waiting for it.
type issueLock struct {
	sem  chan struct{}
	refs int
}

func newIssueLocks() *issueLocks {
	return &issueLocks{locks: make(map[string]*issueLock)}
}

// acquire blocks until the caller holds id's lock or ctx is done. The
// returned release func must be called exactly once.
func (l *issueLocks) acquire(ctx context.Context, id string) (release func(), err error) {
	l.mu.Lock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &issueLock{sem: make(chan struct{}, 1)}
		l.locks[id] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
	case <-ctx.Done():
		l.drop(id, lk)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lk.sem
			l.drop(id, lk)
		})
	}, nil
}

func (l *issueLocks) drop(id string, lk *issueLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 && l.locks[id] == lk {
		delete(l.locks, id)
	}
}

// size reports the number of live entries.
func (l *issueLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
