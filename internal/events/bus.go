package events

import (
	"sync"
	"time"

	"auction-engine/utils"
)

// Event types published by the auction engine.
const (
	TypeBidPlaced     = "bid.placed"
	TypeAuctionClosed = "auction.closed"
)

// BidPlaced is the payload published after a bid commits.
type BidPlaced struct {
	ListingID string    `json:"listing_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
}

// AuctionClosed is the payload published after a listing transitions to Ended.
type AuctionClosed struct {
	ListingID   string    `json:"listing_id"`
	WinnerID    *string   `json:"winner_id"`
	FinalAmount *float64  `json:"final_amount"`
	Reason      string    `json:"reason"`
	Timestamp   time.Time `json:"timestamp"`
}

// Event wraps a typed payload for delivery to subscribers.
type Event struct {
	Type    string
	Payload any
}

// Bus is an in-process publish/subscribe channel for domain events.
// Publication is best-effort: the authoritative auction state lives in the
// repository, so a slow subscriber loses events instead of blocking commits.
type Bus struct {
	mu     sync.Mutex
	buffer int
	subs   map[int]chan Event
	nextID int
}

// NewBus creates a Bus whose subscriber channels hold up to buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		buffer: buffer,
		subs:   make(map[int]chan Event),
	}
}

// Subscribe registers a new subscriber and returns its channel along with
// an unsubscribe function. The channel is closed on unsubscribe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// Publish delivers the event to every subscriber without blocking. Events
// for subscribers with full buffers are dropped and logged.
func (b *Bus) Publish(eventType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- Event{Type: eventType, Payload: payload}:
		default:
			utils.Warn("event dropped: subscriber buffer full", map[string]any{
				"event_type": eventType,
			})
		}
	}
}

// SubscriberCount returns the number of active subscribers. Useful for testing.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
