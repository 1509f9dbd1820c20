package integrationtests

import (
	"net/http"
	"testing"
	"time"

	"auction-engine/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func createListing(t *testing.T, router *gin.Engine, sellerID, title string, startingPrice float64) string {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/listings", helpers.CreateListingRequest{
		SellerID:      sellerID,
		Title:         title,
		Description:   title + " description",
		StartingPrice: startingPrice,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return data(t, resp)["listing_id"].(string)
}

// Full auction round-trip: create, outbid, reject a low bid, seller closes,
// winner recorded, won listing visible to the winner.
func TestAuctionLifecycle(t *testing.T) {
	router, _ := SetupTestRouter()

	listingID := createListing(t, router, "seller1", "Painting", 100)

	// Bidder A at 120: accepted
	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/bids", helpers.PlaceBidRequest{
		ListingID: listingID, BidderID: "bidderA", Amount: 120,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1.0, data(t, resp)["sequence"])

	// Bidder B at 110: below the current bid
	resp, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/bids", helpers.PlaceBidRequest{
		ListingID: listingID, BidderID: "bidderB", Amount: 110,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "bid amount too low", resp["message"])

	// Bidder B at 150: accepted
	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/bids", helpers.PlaceBidRequest{
		ListingID: listingID, BidderID: "bidderB", Amount: 150,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Listing reflects the new current bid
	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/listings/"+listingID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 150.0, data(t, resp)["current_bid"])

	// Seller cannot bid on their own listing
	resp, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/bids", helpers.PlaceBidRequest{
		ListingID: listingID, BidderID: "seller1", Amount: 500,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// A stranger cannot close the auction
	_, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/listings/"+listingID+"/close", helpers.EndAuctionRequest{CallerID: "bidderA"})
	require.Equal(t, http.StatusForbidden, w.Code)

	// Seller closes: bidder B wins at 150
	resp, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/listings/"+listingID+"/close", helpers.EndAuctionRequest{CallerID: "seller1"})
	require.Equal(t, http.StatusOK, w.Code)
	closed := data(t, resp)
	require.Equal(t, "ended", closed["status"])
	require.Equal(t, "bidderB", closed["winner_id"])

	// Closing again is an idempotent no-op with the same outcome
	resp, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/listings/"+listingID+"/close", helpers.EndAuctionRequest{CallerID: "seller1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "bidderB", data(t, resp)["winner_id"])

	// No further bids are admitted
	resp, w = ExecuteRequestAndParse(t, router, http.MethodPost, "/bids", helpers.PlaceBidRequest{
		ListingID: listingID, BidderID: "bidderA", Amount: 999,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "auction is closed", resp["message"])

	// The winner sees the listing under their won auctions
	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/users/bidderB/won", nil)
	require.Equal(t, http.StatusOK, w.Code)
	won := resp["data"].([]any)
	require.Len(t, won, 1)
	require.Equal(t, listingID, won[0].(map[string]any)["listing_id"])

	// And the loser does not
	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/users/bidderA/won", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, resp["data"].([]any))
}

// Bids are listed amount descending with commit sequence as the tiebreaker.
func TestGetBidsOrdering(t *testing.T) {
	router, _ := SetupTestRouter()

	listingID := createListing(t, router, "seller1", "Vase", 10)

	for _, amount := range []float64{20, 35, 50} {
		_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/bids", helpers.PlaceBidRequest{
			ListingID: listingID, BidderID: "user1", Amount: amount,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	resp, w := ExecuteRequestAndParse(t, router, http.MethodGet, "/listings/"+listingID+"/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)

	bids := resp["data"].([]any)
	require.Len(t, bids, 3)
	require.Equal(t, 50.0, bids[0].(map[string]any)["amount"])
	require.Equal(t, 35.0, bids[1].(map[string]any)["amount"])
	require.Equal(t, 20.0, bids[2].(map[string]any)["amount"])

	// Winning bid endpoint agrees
	resp, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/listings/"+listingID+"/winning", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 50.0, data(t, resp)["amount"])
}

// Deleting a listing cascades its bids and respects authorization.
func TestDeleteListing(t *testing.T) {
	router, repo := SetupTestRouter()

	listingID := createListing(t, router, "seller1", "Lamp", 10)

	_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/bids", helpers.PlaceBidRequest{
		ListingID: listingID, BidderID: "user1", Amount: 50,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// A non-seller, non-admin caller is rejected
	_, w = ExecuteRequestAndParse(t, router, http.MethodDelete, "/listings/"+listingID+"?caller_id=user1", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// An admin may delete any listing
	_, w = ExecuteRequestAndParse(t, router, http.MethodDelete, "/listings/"+listingID+"?caller_id=admin1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, w = ExecuteRequestAndParse(t, router, http.MethodGet, "/listings/"+listingID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// The ledger went with it
	_, err := repo.GetBidsByListing(listingID)
	require.Error(t, err)
}

// Listings index returns only Active listings.
func TestListActiveListings(t *testing.T) {
	router, _ := SetupTestRouter()

	first := createListing(t, router, "seller1", "First", 10)
	second := createListing(t, router, "seller1", "Second", 10)

	_, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/listings/"+first+"/close", helpers.EndAuctionRequest{CallerID: "seller1"})
	require.Equal(t, http.StatusOK, w.Code)

	resp, w := ExecuteRequestAndParse(t, router, http.MethodGet, "/listings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	listings := resp["data"].([]any)
	require.Len(t, listings, 1)
	require.Equal(t, second, listings[0].(map[string]any)["listing_id"])
}

// Invalid payloads are rejected at the binding layer.
func TestInvalidPayloads(t *testing.T) {
	router, _ := SetupTestRouter()

	tests := []struct {
		name string
		url  string
		body any
	}{
		{name: "malformed_json", url: "/bids", body: `{listing_id: 'missing quotes'}`},
		{name: "zero_amount", url: "/bids", body: helpers.PlaceBidRequest{ListingID: "x", BidderID: "y", Amount: 0}},
		{name: "missing_seller", url: "/listings", body: helpers.CreateListingRequest{Title: "T", StartingPrice: 5}},
		{name: "zero_starting_price", url: "/listings", body: helpers.CreateListingRequest{SellerID: "s", Title: "T", StartingPrice: 0}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, w := ExecuteRequestAndParse(t, router, http.MethodPost, tc.url, tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

// Bid timestamps round-trip as RFC3339.
func TestBidTimestampFormat(t *testing.T) {
	router, _ := SetupTestRouter()

	listingID := createListing(t, router, "seller1", "Clock", 10)

	resp, w := ExecuteRequestAndParse(t, router, http.MethodPost, "/bids", helpers.PlaceBidRequest{
		ListingID: listingID, BidderID: "user1", Amount: 25,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	createdAt := data(t, resp)["created_at"].(string)
	_, err := time.Parse(time.RFC3339, createdAt)
	require.NoError(t, err)
}
