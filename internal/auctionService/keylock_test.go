package auction

import (
	"errors"
	"sync"
	"testing"
	"time"

	"auction-engine/internal/auctionerrors"

	"github.com/stretchr/testify/require"
)

func TestListingLocks_Exclusive(t *testing.T) {
	t.Parallel()

	locks := newListingLocks()

	release, err := locks.acquire("listing1", time.Second)
	require.NoError(t, err)

	// Second acquire on the same listing times out while held
	_, err = locks.acquire("listing1", 20*time.Millisecond)
	require.True(t, errors.Is(err, auctionerrors.ErrContentionTimeout))

	// A different listing is independent
	release2, err := locks.acquire("listing2", 20*time.Millisecond)
	require.NoError(t, err)
	release2()

	release()

	// Released lock can be re-acquired
	release, err = locks.acquire("listing1", 20*time.Millisecond)
	require.NoError(t, err)
	release()
}

func TestListingLocks_SerializesWriters(t *testing.T) {
	t.Parallel()

	locks := newListingLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.acquire("listing1", 5*time.Second)
			require.NoError(t, err)
			counter++ // safe only if the lock is exclusive
			release()
		}()
	}
	wg.Wait()

	require.Equal(t, 100, counter)
}

func TestListingLocks_Forget(t *testing.T) {
	t.Parallel()

	locks := newListingLocks()

	release, err := locks.acquire("listing1", time.Second)
	require.NoError(t, err)
	release()

	locks.forget("listing1")

	// A fresh lock is created on demand after forget
	release, err = locks.acquire("listing1", 20*time.Millisecond)
	require.NoError(t, err)
	release()
}
