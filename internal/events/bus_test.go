package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	t.Parallel()

	bus := NewBus(4)
	ch, unsubscribe := bus.Subscribe()
	require.Equal(t, 1, bus.SubscriberCount())

	payload := BidPlaced{ListingID: "listing1", BidderID: "user1", Amount: 100, Sequence: 1, Timestamp: time.Now().UTC()}
	bus.Publish(TypeBidPlaced, payload)

	evt := <-ch
	require.Equal(t, TypeBidPlaced, evt.Type)
	require.Equal(t, payload, evt.Payload.(BidPlaced))

	unsubscribe()
	require.Equal(t, 0, bus.SubscriberCount())

	// Channel is closed after unsubscribe
	_, ok := <-ch
	require.False(t, ok)

	// Unsubscribing twice is safe
	unsubscribe()
}

func TestBus_FanOut(t *testing.T) {
	t.Parallel()

	bus := NewBus(4)
	ch1, unsub1 := bus.Subscribe()
	ch2, unsub2 := bus.Subscribe()
	defer unsub1()
	defer unsub2()

	bus.Publish(TypeAuctionClosed, AuctionClosed{ListingID: "listing1", Reason: "expired"})

	evt1 := <-ch1
	evt2 := <-ch2
	require.Equal(t, TypeAuctionClosed, evt1.Type)
	require.Equal(t, TypeAuctionClosed, evt2.Type)
}

func TestBus_DropsWhenSubscriberFull(t *testing.T) {
	t.Parallel()

	bus := NewBus(2)
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	// Publish never blocks, even with a full subscriber buffer
	for i := 0; i < 10; i++ {
		bus.Publish(TypeBidPlaced, BidPlaced{ListingID: "listing1", Sequence: int64(i)})
	}

	require.Len(t, ch, 2)
	first := <-ch
	require.Equal(t, int64(0), first.Payload.(BidPlaced).Sequence)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus(2)
	// No subscribers: publish is a no-op and must not panic
	bus.Publish(TypeBidPlaced, BidPlaced{ListingID: "listing1"})
}
