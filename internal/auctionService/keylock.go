package auction

import (
	"fmt"
	"sync"
	"time"

	"auction-engine/internal/auctionerrors"
)

// listingLocks provides a per-listing exclusive lock. All validate-then-commit
// sequences on a listing (bid admission, close, delete) run under its lock, so
// two concurrent bidders can never both pass validation against the same stale
// floor. Locks for different listings are independent.
type listingLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newListingLocks() *listingLocks {
	return &listingLocks{
		locks: make(map[string]chan struct{}),
	}
}

// acquire blocks until the listing's lock is free or the timeout elapses,
// returning a release func on success. Critical sections are O(1), so a
// timeout signals unusual contention and maps to ErrContentionTimeout with
// no partial write having occurred.
func (l *listingLocks) acquire(listingID string, timeout time.Duration) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[listingID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[listingID] = ch
	}
	l.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, fmt.Errorf("acquire lock for listing %s: %w", listingID, auctionerrors.ErrContentionTimeout)
	}
}

// forget drops the lock entry for a deleted listing.
func (l *listingLocks) forget(listingID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, listingID)
}
