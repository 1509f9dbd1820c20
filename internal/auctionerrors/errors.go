package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrNoBids          = errors.New("no bids found for listing")
	ErrUserNoBids      = errors.New("user has not placed any bids")
)

// business logic errors
var (
	ErrInvalidListing = errors.New("invalid listing")
	ErrInvalidBid     = errors.New("invalid bid")
	ErrInvalidAmount  = errors.New("bid amount must be a positive finite number")
	ErrBidTooLow      = errors.New("bid amount too low")
	ErrSelfBid        = errors.New("sellers cannot bid on their own listing")
)

// lifecycle and access errors
var (
	ErrAuctionClosed     = errors.New("auction is closed")
	ErrNotAuthorized     = errors.New("caller is not authorized for this action")
	ErrContentionTimeout = errors.New("timed out waiting for listing lock")
)
