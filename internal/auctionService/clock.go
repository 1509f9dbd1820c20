package auction

import (
	"context"
	"time"

	"auction-engine/utils"
)

// AuctionClock runs the periodic expiry sweep: at a fixed interval it finds
// Active listings whose deadline has passed and closes each one. Observable
// status never depends on the sweep alone; the service also applies lazy
// expiry inline on bid admission and reads.
type AuctionClock struct {
	interval time.Duration
	service  *AuctionService
}

// NewAuctionClock creates a clock that sweeps at the given interval.
func NewAuctionClock(interval time.Duration, service *AuctionService) *AuctionClock {
	return &AuctionClock{
		interval: interval,
		service:  service,
	}
}

// Start launches a background goroutine that ticks at the configured
// interval and closes expired listings. It stops when ctx is cancelled.
func (c *AuctionClock) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				c.Tick(t.UTC())
			}
		}
	}()
}

// Tick runs one sweep pass for the given instant.
func (c *AuctionClock) Tick(now time.Time) {
	closed := c.service.CloseExpired(now)
	if closed > 0 {
		utils.Info("expiry sweep closed listings", map[string]any{
			"closed": closed,
		})
	}
}
