package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
)

// AuctionDB defines the listing and bid storage interface for the auction system.
// Listing field writes are only reachable through SetCurrentBid and MarkEnded;
// the service layer funnels all calls to them through a per-listing lock.
type AuctionDB interface {
	CreateListing(listing model.Listing) error
	GetListing(listingID string) (model.Listing, error)
	DeleteListing(listingID string) error
	ListActiveListings() ([]model.Listing, error)
	ListExpiredIDs(now time.Time) ([]string, error)
	SetCurrentBid(listingID string, amount float64, now time.Time) error
	MarkEnded(listingID string, winnerID *string, now time.Time) error
	AppendBid(bid model.Bid) (model.Bid, error)
	GetBidsByListing(listingID string) ([]model.Bid, error)
	GetWinningBid(listingID string) (model.Bid, error)
	GetListingsByBidder(userID string) ([]model.Listing, error)
	GetListingsWonByUser(userID string) ([]model.Listing, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu           sync.RWMutex
	listings     map[string]model.Listing // key: listingID -> value: listing
	bids         map[string][]model.Bid   // key: listingID -> value: ledger in commit order
	userListings map[string][]string      // key: userID -> value: list of listingIDs user has bid on
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		listings:     make(map[string]model.Listing),
		bids:         make(map[string][]model.Bid),
		userListings: make(map[string][]string),
	}
}

// CreateListing stores a new listing aggregate.
func (r *MemoryRepo) CreateListing(listing model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[listing.ListingID]; ok {
		return fmt.Errorf("create listing %s: listing id already exists", listing.ListingID)
	}
	r.listings[listing.ListingID] = listing
	return nil
}

// GetListing returns a listing by ID
func (r *MemoryRepo) GetListing(listingID string) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return listing, nil
}

// DeleteListing removes a listing and cascade-deletes its entire bid ledger
// in the same critical section.
func (r *MemoryRepo) DeleteListing(listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[listingID]; !ok {
		return fmt.Errorf("delete listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	delete(r.listings, listingID)
	delete(r.bids, listingID)

	for userID, ids := range r.userListings {
		for i, id := range ids {
			if id == listingID {
				r.userListings[userID] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
	return nil
}

// ListActiveListings returns all listings whose stored status is Active.
func (r *MemoryRepo) ListActiveListings() ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := make([]model.Listing, 0)
	for _, listing := range r.listings {
		if listing.Status == model.ListingActive {
			listings = append(listings, listing)
		}
	}
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].CreatedAt.Before(listings[j].CreatedAt)
	})
	return listings, nil
}

// ListExpiredIDs returns the IDs of Active listings whose close deadline
// has passed. The sweep closes them one at a time under each listing's lock.
func (r *MemoryRepo) ListExpiredIDs(now time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, listing := range r.listings {
		if listing.Status == model.ListingActive && !listing.ClosesAt.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// SetCurrentBid updates a listing's current bid summary field.
func (r *MemoryRepo) SetCurrentBid(listingID string, amount float64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return fmt.Errorf("set current bid for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	listing.CurrentBid = &amount
	listing.UpdatedAt = now
	r.listings[listingID] = listing
	return nil
}

// MarkEnded transitions a listing to Ended with the given winner.
func (r *MemoryRepo) MarkEnded(listingID string, winnerID *string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return fmt.Errorf("mark listing %s ended: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	listing.Status = model.ListingEnded
	listing.WinnerID = winnerID
	listing.UpdatedAt = now
	r.listings[listingID] = listing
	return nil
}

// AppendBid commits a bid to the listing's ledger, assigning the next
// per-listing sequence number, and returns the committed bid.
func (r *MemoryRepo) AppendBid(bid model.Bid) (model.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[bid.ListingID]; !ok {
		return model.Bid{}, fmt.Errorf("append bid for listing %s: %w", bid.ListingID, auctionerrors.ErrListingNotFound)
	}

	bid.Sequence = int64(len(r.bids[bid.ListingID]) + 1)
	r.bids[bid.ListingID] = append(r.bids[bid.ListingID], bid)

	for _, id := range r.userListings[bid.BidderID] {
		if id == bid.ListingID {
			return bid, nil
		}
	}
	r.userListings[bid.BidderID] = append(r.userListings[bid.BidderID], bid.ListingID)

	return bid, nil
}

// GetBidsByListing returns a listing's ledger in display order:
// amount descending, ties by earliest commit sequence.
func (r *MemoryRepo) GetBidsByListing(listingID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids, ok := r.bids[listingID]
	if !ok || len(bids) == 0 {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, auctionerrors.ErrNoBids)
	}

	ordered := append([]model.Bid(nil), bids...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Amount == ordered[j].Amount {
			return ordered[i].Sequence < ordered[j].Sequence
		}
		return ordered[i].Amount > ordered[j].Amount
	})
	return ordered, nil
}

// GetWinningBid returns the highest bid for a listing, ties broken by the
// earliest commit sequence.
func (r *MemoryRepo) GetWinningBid(listingID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bids, ok := r.bids[listingID]
	if !ok || len(bids) == 0 {
		return model.Bid{}, fmt.Errorf("get winning bid for listing %s: %w", listingID, auctionerrors.ErrNoBids)
	}

	winning := bids[0]
	for _, b := range bids[1:] {
		if b.Amount > winning.Amount || (b.Amount == winning.Amount && b.Sequence < winning.Sequence) {
			winning = b
		}
	}
	return winning, nil
}

// GetListingsByBidder returns all listings a user has placed bids on
func (r *MemoryRepo) GetListingsByBidder(userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listingIDs, ok := r.userListings[userID]
	if !ok || len(listingIDs) == 0 {
		return nil, fmt.Errorf("get listings for user %s: %w", userID, auctionerrors.ErrUserNoBids)
	}

	listings := make([]model.Listing, 0, len(listingIDs))
	for _, id := range listingIDs {
		if listing, exists := r.listings[id]; exists {
			listings = append(listings, listing)
		}
	}
	return listings, nil
}

// GetListingsWonByUser returns all Ended listings whose winner is the user.
func (r *MemoryRepo) GetListingsWonByUser(userID string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	won := make([]model.Listing, 0)
	for _, listing := range r.listings {
		if listing.Status == model.ListingEnded && listing.WinnerID != nil && *listing.WinnerID == userID {
			won = append(won, listing)
		}
	}
	sort.Slice(won, func(i, j int) bool {
		return won[i].UpdatedAt.Before(won[j].UpdatedAt)
	})
	return won, nil
}
