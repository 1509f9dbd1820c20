package models

import "time"

// ListingStatus is the lifecycle state of a listing. Active is the initial
// state; Ended is terminal and a listing never reverts.
type ListingStatus string

const (
	ListingActive ListingStatus = "active"
	ListingEnded  ListingStatus = "ended"
)

// CloseReason records why a listing transitioned to Ended.
type CloseReason string

const (
	CloseReasonExpired         CloseReason = "expired"
	CloseReasonSellerRequested CloseReason = "seller_requested"
)

// User represents a participant in the auction
type User struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Listing represents an auction lot offered by a seller.
// Title, Description and StartingPrice are immutable after creation.
// CurrentBid is mutated only by bid admission; Status and WinnerID only by
// the close path.
type Listing struct {
	ListingID     string        `json:"listing_id"`
	SellerID      string        `json:"seller_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	StartingPrice float64       `json:"starting_price"`
	CurrentBid    *float64      `json:"current_bid"`
	ImageURL      string        `json:"image_url"`
	Status        ListingStatus `json:"status"`
	WinnerID      *string       `json:"winner_id"`
	CreatedAt     time.Time     `json:"created_at"`
	ClosesAt      time.Time     `json:"closes_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Bid represents an immutable monetary offer on a listing. Sequence is the
// per-listing commit order assigned by the ledger and is used for tie-break
// and audit ordering.
type Bid struct {
	BidID     string    `json:"bid_id"`
	ListingID string    `json:"listing_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	Sequence  int64     `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}
