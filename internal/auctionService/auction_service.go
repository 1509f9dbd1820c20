package auction

import (
	"errors"
	"fmt"
	"math"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/events"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"
)

const (
	defaultAuctionDuration = 7 * 24 * time.Hour
	defaultLockTimeout     = 3 * time.Second
)

// Options configures an AuctionService. Zero values fall back to defaults.
type Options struct {
	AuctionDuration time.Duration
	LockTimeout     time.Duration
	AdminUsers      []string
}

// AuctionService defines the business logic for the auction lifecycle:
// listing creation, bid admission, close coordination and deletion.
type AuctionService struct {
	repo        repository.AuctionDB
	bus         *events.Bus
	locks       *listingLocks
	duration    time.Duration
	lockTimeout time.Duration
	admins      map[string]bool
	now         func() time.Time
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB, bus *events.Bus, opts Options) *AuctionService {
	if opts.AuctionDuration <= 0 {
		opts.AuctionDuration = defaultAuctionDuration
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	admins := make(map[string]bool, len(opts.AdminUsers))
	for _, id := range opts.AdminUsers {
		admins[id] = true
	}
	return &AuctionService{
		repo:        repo,
		bus:         bus,
		locks:       newListingLocks(),
		duration:    opts.AuctionDuration,
		lockTimeout: opts.LockTimeout,
		admins:      admins,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateListing validates a draft and stores a new Active listing whose
// close deadline is the configured auction duration from now.
func (s *AuctionService) CreateListing(sellerID, title, description string, startingPrice float64, imageURL string) (models.Listing, error) {
	if sellerID == "" || title == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing sellerID or title", auctionerrors.ErrInvalidListing)
	}
	if !isFinitePositive(startingPrice) {
		return models.Listing{}, fmt.Errorf("service: %w - starting price must be a positive finite number", auctionerrors.ErrInvalidListing)
	}

	now := s.now()
	listing := models.Listing{
		ListingID:     utils.GenerateID(),
		SellerID:      sellerID,
		Title:         title,
		Description:   description,
		StartingPrice: startingPrice,
		ImageURL:      imageURL,
		Status:        models.ListingActive,
		CreatedAt:     now,
		ClosesAt:      now.Add(s.duration),
		UpdatedAt:     now,
	}

	if err := s.repo.CreateListing(listing); err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to create listing for seller %s: %w", sellerID, err)
	}
	return listing, nil
}

// PlaceBid validates and commits a bid as a single atomic unit keyed by the
// listing. On success the committed bid carries its ledger sequence number
// and a bid.placed event is published after the lock is released.
func (s *AuctionService) PlaceBid(listingID, bidderID string, amount float64) (models.Bid, error) {
	if listingID == "" || bidderID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - missing listingID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if !isFinitePositive(amount) {
		return models.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrInvalidAmount)
	}

	release, err := s.locks.acquire(listingID, s.lockTimeout)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: %w", err)
	}

	bid, closed, err := s.admitBid(listingID, bidderID, amount)
	release()

	// Events are published only after the atomic unit completes; delivery is
	// best-effort and never rolls back a committed bid or close.
	if closed != nil {
		s.bus.Publish(events.TypeAuctionClosed, *closed)
	}
	if err != nil {
		return models.Bid{}, err
	}
	s.bus.Publish(events.TypeBidPlaced, events.BidPlaced{
		ListingID: bid.ListingID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		Sequence:  bid.Sequence,
		Timestamp: bid.CreatedAt,
	})
	return bid, nil
}

// admitBid runs the admission checks and commit under the listing lock.
// If the listing's deadline has passed it is closed in place, so a bid can
// never be admitted after the logical close time even when the periodic
// sweep has not run yet.
func (s *AuctionService) admitBid(listingID, bidderID string, amount float64) (models.Bid, *events.AuctionClosed, error) {
	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return models.Bid{}, nil, fmt.Errorf("service: %w", err)
	}

	now := s.now()
	if listing.Status == models.ListingEnded {
		return models.Bid{}, nil, fmt.Errorf("service: %w", auctionerrors.ErrAuctionClosed)
	}
	if !now.Before(listing.ClosesAt) {
		_, closed, closeErr := s.closeLocked(listing, models.CloseReasonExpired, now)
		if closeErr != nil {
			return models.Bid{}, nil, fmt.Errorf("service: failed to expire listing %s: %w", listingID, closeErr)
		}
		return models.Bid{}, closed, fmt.Errorf("service: %w", auctionerrors.ErrAuctionClosed)
	}

	if bidderID == listing.SellerID {
		return models.Bid{}, nil, fmt.Errorf("service: %w", auctionerrors.ErrSelfBid)
	}

	floor := listing.StartingPrice
	if listing.CurrentBid != nil && *listing.CurrentBid > floor {
		floor = *listing.CurrentBid
	}
	if amount <= floor {
		return models.Bid{}, nil, fmt.Errorf("service: %w - current floor is %.2f", auctionerrors.ErrBidTooLow, floor)
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		ListingID: listingID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: now,
	}

	committed, err := s.repo.AppendBid(bid)
	if err != nil {
		return models.Bid{}, nil, fmt.Errorf("service: failed to record bid for listing %s by user %s: %w", listingID, bidderID, err)
	}
	if err := s.repo.SetCurrentBid(listingID, amount, now); err != nil {
		return models.Bid{}, nil, fmt.Errorf("service: failed to update current bid for listing %s: %w", listingID, err)
	}

	return committed, nil, nil
}

// EndAuction closes a listing at the seller's request. Closing an already
// Ended listing is an idempotent no-op that returns the listing unchanged.
func (s *AuctionService) EndAuction(listingID, callerID string) (models.Listing, error) {
	if listingID == "" || callerID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing listingID or callerID", auctionerrors.ErrInvalidListing)
	}
	return s.closeAuction(listingID, models.CloseReasonSellerRequested, callerID)
}

// closeAuction acquires the listing lock and performs the Active -> Ended
// transition for the given reason, publishing auction.closed after commit.
func (s *AuctionService) closeAuction(listingID string, reason models.CloseReason, callerID string) (models.Listing, error) {
	release, err := s.locks.acquire(listingID, s.lockTimeout)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: %w", err)
	}

	listing, closed, err := s.closeWithAuth(listingID, reason, callerID)
	release()

	if closed != nil {
		s.bus.Publish(events.TypeAuctionClosed, *closed)
	}
	return listing, err
}

func (s *AuctionService) closeWithAuth(listingID string, reason models.CloseReason, callerID string) (models.Listing, *events.AuctionClosed, error) {
	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return models.Listing{}, nil, fmt.Errorf("service: %w", err)
	}
	if listing.Status == models.ListingEnded {
		return listing, nil, nil
	}
	if reason == models.CloseReasonSellerRequested && callerID != listing.SellerID {
		return models.Listing{}, nil, fmt.Errorf("service: %w - only the seller can end this auction", auctionerrors.ErrNotAuthorized)
	}
	return s.closeLocked(listing, reason, s.now())
}

// closeLocked determines the winner from the ledger and flips the listing to
// Ended. Must be called with the listing lock held: the winner read and the
// status write have to be one indivisible sequence, otherwise a bid could
// commit between them and leave the recorded winner inconsistent with the
// final ledger maximum.
func (s *AuctionService) closeLocked(listing models.Listing, reason models.CloseReason, now time.Time) (models.Listing, *events.AuctionClosed, error) {
	var winnerID *string
	var finalAmount *float64

	winner, err := s.repo.GetWinningBid(listing.ListingID)
	switch {
	case err == nil:
		winnerID = &winner.BidderID
		finalAmount = &winner.Amount
	case errors.Is(err, auctionerrors.ErrNoBids):
		// Zero bids: the listing ends with no winner.
	default:
		return models.Listing{}, nil, fmt.Errorf("service: failed to determine winner for listing %s: %w", listing.ListingID, err)
	}

	if err := s.repo.MarkEnded(listing.ListingID, winnerID, now); err != nil {
		return models.Listing{}, nil, fmt.Errorf("service: failed to end listing %s: %w", listing.ListingID, err)
	}

	listing.Status = models.ListingEnded
	listing.WinnerID = winnerID
	listing.UpdatedAt = now

	return listing, &events.AuctionClosed{
		ListingID:   listing.ListingID,
		WinnerID:    winnerID,
		FinalAmount: finalAmount,
		Reason:      string(reason),
		Timestamp:   now,
	}, nil
}

// CloseExpired closes every Active listing whose deadline has passed,
// returning the number closed. A failure on one listing is logged and does
// not block the rest; the periodic sweep calls this on every tick.
func (s *AuctionService) CloseExpired(now time.Time) int {
	ids, err := s.repo.ListExpiredIDs(now)
	if err != nil {
		utils.Error("sweep: failed to list expired listings", map[string]any{"error": err.Error()})
		return 0
	}

	closed := 0
	for _, id := range ids {
		if _, err := s.closeAuction(id, models.CloseReasonExpired, ""); err != nil {
			utils.Error("sweep: failed to close expired listing", map[string]any{
				"listing_id": id,
				"error":      err.Error(),
			})
			continue
		}
		closed++
	}
	return closed
}

// DeleteListing removes a listing and cascade-deletes its bids. Only the
// seller or an administrator may delete a listing.
func (s *AuctionService) DeleteListing(listingID, callerID string) error {
	if listingID == "" || callerID == "" {
		return fmt.Errorf("service: %w - missing listingID or callerID", auctionerrors.ErrInvalidListing)
	}

	release, err := s.locks.acquire(listingID, s.lockTimeout)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	defer release()

	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if callerID != listing.SellerID && !s.admins[callerID] {
		return fmt.Errorf("service: %w - only the seller or an admin can delete a listing", auctionerrors.ErrNotAuthorized)
	}

	if err := s.repo.DeleteListing(listingID); err != nil {
		return fmt.Errorf("service: failed to delete listing %s: %w", listingID, err)
	}
	s.locks.forget(listingID)
	return nil
}

// GetListing returns a listing, applying lazy expiry first so the observed
// status is correct even between sweep ticks.
func (s *AuctionService) GetListing(listingID string) (models.Listing, error) {
	if listingID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidListing)
	}

	listing, err := s.repo.GetListing(listingID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: %w", err)
	}
	if listing.Status == models.ListingActive && !s.now().Before(listing.ClosesAt) {
		return s.closeAuction(listingID, models.CloseReasonExpired, "")
	}
	return listing, nil
}

// GetActiveListings returns all currently Active listings. Expired listings
// encountered during the scan are closed and excluded from the result.
func (s *AuctionService) GetActiveListings() ([]models.Listing, error) {
	listings, err := s.repo.ListActiveListings()
	if err != nil {
		return nil, fmt.Errorf("service: failed to list active listings: %w", err)
	}

	now := s.now()
	active := make([]models.Listing, 0, len(listings))
	for _, listing := range listings {
		if !now.Before(listing.ClosesAt) {
			if _, err := s.closeAuction(listing.ListingID, models.CloseReasonExpired, ""); err != nil {
				utils.Warn("failed to lazily close expired listing", map[string]any{
					"listing_id": listing.ListingID,
					"error":      err.Error(),
				})
			}
			continue
		}
		active = append(active, listing)
	}
	return active, nil
}

// GetBidsForListing returns all bids for a listing in display order
// (amount descending, ties by earliest commit).
func (s *AuctionService) GetBidsForListing(listingID string) ([]models.Bid, error) {
	if _, err := s.GetListing(listingID); err != nil {
		return nil, err
	}

	bids, err := s.repo.GetBidsByListing(listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}

// GetWinningBid returns the highest bid for a listing
func (s *AuctionService) GetWinningBid(listingID string) (models.Bid, error) {
	if _, err := s.GetListing(listingID); err != nil {
		return models.Bid{}, err
	}

	winningBid, err := s.repo.GetWinningBid(listingID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for listing %s: %w", listingID, err)
	}
	return winningBid, nil
}

// GetListingsByBidder returns all listings a user has placed bids on
func (s *AuctionService) GetListingsByBidder(userID string) ([]models.Listing, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidBid)
	}

	listings, err := s.repo.GetListingsByBidder(userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get listings for user %s: %w", userID, err)
	}
	return listings, nil
}

// GetListingsWonByUser returns all Ended listings the user has won.
func (s *AuctionService) GetListingsWonByUser(userID string) ([]models.Listing, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidBid)
	}

	won, err := s.repo.GetListingsWonByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get won listings for user %s: %w", userID, err)
	}
	return won, nil
}

func isFinitePositive(amount float64) bool {
	return amount > 0 && !math.IsInf(amount, 0) && !math.IsNaN(amount)
}
