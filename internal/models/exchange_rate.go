package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate converts one unit of FromCurrency into ToCurrency. Superseded
// rows are deactivated rather than deleted.
type ExchangeRate struct {
	BaseModel
	FromCurrency string          `gorm:"size:3;index:idx_rate_pair" json:"from_currency"`
	ToCurrency   string          `gorm:"size:3;index:idx_rate_pair" json:"to_currency"`
	Rate         decimal.Decimal `gorm:"type:decimal(24,12);not null" json:"rate"`
	FetchedAt    time.Time       `json:"fetched_at"`
	IsActive     bool            `gorm:"index" json:"is_active"`
}
