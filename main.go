package main

import (
	"context"
	"fmt"
	"os"

	auction "auction-engine/internal/auctionService"
	"auction-engine/internal/config"
	"auction-engine/internal/events"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	utils.SetLevel(cfg.LogLevel)

	repo := repository.NewMemoryRepo()
	bus := events.NewBus(cfg.EventBuffer)

	auctionSvc := auction.NewAuctionService(repo, bus, auction.Options{
		AuctionDuration: cfg.AuctionDuration,
		LockTimeout:     cfg.LockTimeout,
		AdminUsers:      cfg.AdminUsers,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := auction.NewAuctionClock(cfg.SweepInterval, auctionSvc)
	clock.Start(ctx)

	startEventLogger(ctx, bus)

	router := server.SetupRouter(auctionSvc)

	fmt.Printf("Starting auction server on %s...\n", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// startEventLogger consumes domain events and logs them. It stands in for
// the downstream notification fan-out: delivery is best-effort and never
// affects auction state.
func startEventLogger(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := bus.Subscribe()
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				utils.Info("domain event", map[string]any{
					"event_type": evt.Type,
					"payload":    evt.Payload,
				})
			}
		}
	}()
}
