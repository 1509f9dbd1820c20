package helpers

import (
	"time"

	model "auction-engine/internal/models"
)

// Request DTOs
type CreateListingRequest struct {
	SellerID      string  `json:"seller_id" binding:"required"`
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description"`
	StartingPrice float64 `json:"starting_price" binding:"required,gt=0"`
	ImageURL      string  `json:"image_url"`
}

type PlaceBidRequest struct {
	ListingID string  `json:"listing_id" binding:"required"`
	BidderID  string  `json:"bidder_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

type EndAuctionRequest struct {
	CallerID string `json:"caller_id" binding:"required"`
}

// Response DTOs
type BidResponse struct {
	BidID     string  `json:"bid_id"`
	ListingID string  `json:"listing_id"`
	BidderID  string  `json:"bidder_id"`
	Amount    float64 `json:"amount"`
	Sequence  int64   `json:"sequence"`
	CreatedAt string  `json:"created_at"`
}

type ListingResponse struct {
	ListingID     string   `json:"listing_id"`
	SellerID      string   `json:"seller_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	StartingPrice float64  `json:"starting_price"`
	CurrentBid    *float64 `json:"current_bid"`
	ImageURL      string   `json:"image_url"`
	Status        string   `json:"status"`
	WinnerID      *string  `json:"winner_id"`
	CreatedAt     string   `json:"created_at"`
	ClosesAt      string   `json:"closes_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// NewBidResponse converts a domain bid into its response DTO.
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		ListingID: bid.ListingID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		Sequence:  bid.Sequence,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewListingResponse converts a domain listing into its response DTO.
func NewListingResponse(listing model.Listing) ListingResponse {
	return ListingResponse{
		ListingID:     listing.ListingID,
		SellerID:      listing.SellerID,
		Title:         listing.Title,
		Description:   listing.Description,
		StartingPrice: listing.StartingPrice,
		CurrentBid:    listing.CurrentBid,
		ImageURL:      listing.ImageURL,
		Status:        string(listing.Status),
		WinnerID:      listing.WinnerID,
		CreatedAt:     listing.CreatedAt.UTC().Format(time.RFC3339),
		ClosesAt:      listing.ClosesAt.UTC().Format(time.RFC3339),
		UpdatedAt:     listing.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// NewListingResponses converts a slice of domain listings.
func NewListingResponses(listings []model.Listing) []ListingResponse {
	out := make([]ListingResponse, 0, len(listings))
	for _, listing := range listings {
		out = append(out, NewListingResponse(listing))
	}
	return out
}

// NewBidResponses converts a slice of domain bids.
func NewBidResponses(bids []model.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, bid := range bids {
		out = append(out, NewBidResponse(bid))
	}
	return out
}
