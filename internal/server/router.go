package server

import (
	handler "auction-engine/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(service handler.AuctionServiceInterface) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(service)

	listings := router.Group("/listings")
	{
		listings.POST("", auctionHandler.CreateListingHandler)
		listings.GET("", auctionHandler.GetActiveListingsHandler)
		listings.GET("/:listing_id", auctionHandler.GetListingHandler)
		listings.DELETE("/:listing_id", auctionHandler.DeleteListingHandler)
		listings.POST("/:listing_id/close", auctionHandler.EndAuctionHandler)
		listings.GET("/:listing_id/bids", auctionHandler.GetBidsByListingHandler)
		listings.GET("/:listing_id/winning", auctionHandler.GetWinningBidHandler)
	}

	bids := router.Group("/bids")
	{
		bids.POST("", auctionHandler.PlaceBidHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/bids", auctionHandler.GetListingsByBidderHandler)
		users.GET("/:user_id/won", auctionHandler.GetListingsWonHandler)
	}

	return router
}
