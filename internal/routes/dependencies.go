package routes

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/example/referdby/internal/config"
	"github.com/example/referdby/internal/services"
)

// Dependencies are the long-lived services shared by all handlers.
type Dependencies struct {
	Currency    *services.CurrencyService
	Eligibility *services.EligibilityService
	Schedule    *services.ScheduleService
	Activities  *services.ActivityService
	Processor   *services.Processor
	Balances    *services.BalanceCache
	Blobs       services.BlobStore
}

// NewDependencies builds the settlement engine from configuration.
func NewDependencies(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Dependencies, error) {
	blobs, err := services.NewBlobStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}
	provider := services.NewExchangeRateAPIProvider(cfg.Rates)
	return Assemble(db, cfg, provider, blobs, time.Now), nil
}

// Assemble wires services around an explicit rate provider, blob store and clock.
func Assemble(db *gorm.DB, cfg *config.Config, provider services.RateProvider, blobs services.BlobStore, now func() time.Time) *Dependencies {
	rateCache := services.NewRateCache(cfg.Rates.TTL, now)
	balances := services.NewBalanceCache(cfg.BalanceCacheTTL, now)

	currency := services.NewCurrencyService(db, provider, rateCache, cfg.Rates.TTL, now)
	eligibility := services.NewEligibilityService(db, cfg.Redemption, now)
	schedule := services.NewScheduleService(db, now)
	processor := services.NewProcessor(db, services.ProcessorDeps{
		Calculator:  services.NewPointsCalculator(cfg.Points),
		Currency:    currency,
		Eligibility: eligibility,
		Schedule:    schedule,
		Blobs:       blobs,
		Balances:    balances,
	}, now)

	return &Dependencies{
		Currency:    currency,
		Eligibility: eligibility,
		Schedule:    schedule,
		Activities:  services.NewActivityService(db, cfg.Redemption, now),
		Processor:   processor,
		Balances:    balances,
		Blobs:       blobs,
	}
}
