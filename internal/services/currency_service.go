package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/example/referdby/internal/models"
)

const (
	pivotCurrency = "USD"
	ratePrecision = 12
)

var one = decimal.NewFromInt(1)

// Conversion is a converted amount and the rate applied to it.
type Conversion struct {
	Amount decimal.Decimal `json:"converted_amount"`
	Rate   decimal.Decimal `json:"rate"`
}

// CurrencyService converts money through USD-pivoted rates stored in the
// exchange_rates table, refreshing them from the provider when stale.
type CurrencyService struct {
	db       *gorm.DB
	provider RateProvider
	cache    *RateCache
	ttl      time.Duration
	now      func() time.Time
	group    singleflight.Group
}

// NewCurrencyService constructs a CurrencyService. cache may be nil.
func NewCurrencyService(db *gorm.DB, provider RateProvider, cache *RateCache, ttl time.Duration, now func() time.Time) *CurrencyService {
	if now == nil {
		now = time.Now
	}
	return &CurrencyService{db: db, provider: provider, cache: cache, ttl: ttl, now: now}
}

// Convert turns amount in from into to, rounded to the target currency.
// Identical currencies never touch the rate table.
func (s *CurrencyService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (Conversion, error) {
	from = NormalizeCurrency(from)
	to = NormalizeCurrency(to)
	if from == "" || to == "" {
		return Conversion{}, wrapf(ErrInvalidAmount, "currency code is required")
	}
	if from == to {
		return Conversion{Amount: amount, Rate: one}, nil
	}

	rate, err := s.Rate(ctx, from, to)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{Amount: RoundMoney(amount.Mul(rate), to), Rate: rate}, nil
}

// Rate returns how many units of to one unit of from buys.
func (s *CurrencyService) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = NormalizeCurrency(from)
	to = NormalizeCurrency(to)
	if from == to {
		return one, nil
	}

	if row, err := s.activeRow(ctx, from, to); err != nil {
		return decimal.Zero, err
	} else if row != nil && s.fresh(row.FetchedAt) {
		return row.Rate, nil
	}

	fromUSD, err := s.usdRate(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}
	toUSD, err := s.usdRate(ctx, to)
	if err != nil {
		return decimal.Zero, err
	}
	return fromUSD.DivRound(toUSD, ratePrecision), nil
}

// usdRate is the USD value of one unit of code.
func (s *CurrencyService) usdRate(ctx context.Context, code string) (decimal.Decimal, error) {
	if code == pivotCurrency {
		return one, nil
	}
	if cached, ok := s.cache.Get(code); ok {
		return cached, nil
	}

	stale, err := s.activeRow(ctx, code, pivotCurrency)
	if err != nil {
		return decimal.Zero, err
	}
	if stale != nil && s.fresh(stale.FetchedAt) {
		s.cache.SetUntil(code, stale.Rate, stale.FetchedAt.Add(s.ttl))
		return stale.Rate, nil
	}

	rates, refreshErr := s.refresh(ctx)
	if refreshErr == nil {
		if value, ok := rates[code]; ok {
			return value, nil
		}
	}
	if stale != nil {
		log.Printf("[Currency] using stale %s rate from %s: %v", code, stale.FetchedAt.Format(time.RFC3339), refreshErr)
		return stale.Rate, nil
	}
	if refreshErr != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %v", ErrRateUnavailable, code, refreshErr)
	}
	return decimal.Zero, wrapf(ErrRateUnavailable, "no rate for %s", code)
}

func (s *CurrencyService) fresh(fetchedAt time.Time) bool {
	return s.now().Sub(fetchedAt) < s.ttl
}

func (s *CurrencyService) activeRow(ctx context.Context, from, to string) (*models.ExchangeRate, error) {
	var row models.ExchangeRate
	err := s.db.WithContext(ctx).
		Where("from_currency = ? AND to_currency = ? AND is_active = ?", from, to, true).
		Order("fetched_at desc").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load exchange rate %s/%s: %w", from, to, err)
	}
	return &row, nil
}

// Refresh pulls the provider's latest USD table and stores it.
func (s *CurrencyService) Refresh(ctx context.Context) (map[string]decimal.Decimal, error) {
	return s.refresh(ctx)
}

func (s *CurrencyService) refresh(ctx context.Context) (map[string]decimal.Decimal, error) {
	if s.provider == nil {
		return nil, errors.New("no exchange rate provider configured")
	}
	result, err, _ := s.group.Do(pivotCurrency, func() (interface{}, error) {
		perUSD, err := s.provider.Latest(ctx, pivotCurrency)
		Metrics().ObserveRateFetch(err)
		if err != nil {
			return nil, err
		}
		return s.store(ctx, perUSD)
	})
	if err != nil {
		log.Printf("[Currency] refresh failed: %v", err)
		return nil, err
	}
	return result.(map[string]decimal.Decimal), nil
}

// store converts units-per-USD into USD-per-unit rows, deactivating the
// rows they supersede.
func (s *CurrencyService) store(ctx context.Context, perUSD map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	fetchedAt := s.now()
	usdRates := make(map[string]decimal.Decimal, len(perUSD))
	for code, units := range perUSD {
		code = NormalizeCurrency(code)
		if code == pivotCurrency || len(code) != 3 || !units.IsPositive() {
			continue
		}
		usdRates[code] = one.DivRound(units, ratePrecision)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for code, value := range usdRates {
			if err := tx.Model(&models.ExchangeRate{}).
				Where("from_currency = ? AND to_currency = ? AND is_active = ?", code, pivotCurrency, true).
				Update("is_active", false).Error; err != nil {
				return fmt.Errorf("deactivate %s rate: %w", code, err)
			}
			row := models.ExchangeRate{
				FromCurrency: code,
				ToCurrency:   pivotCurrency,
				Rate:         value,
				FetchedAt:    fetchedAt,
				IsActive:     true,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("store %s rate: %w", code, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for code, value := range usdRates {
		s.cache.SetUntil(code, value, fetchedAt.Add(s.ttl))
	}
	log.Printf("[Currency] stored %d rates", len(usdRates))
	return usdRates, nil
}
