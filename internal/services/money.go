package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

var minorUnits = map[string]int32{
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0,
	"KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0,
	"XOF": 0, "XPF": 0,
}

// MinorUnits returns the number of decimals used by currency.
func MinorUnits(currency string) int32 {
	if units, ok := minorUnits[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return units
	}
	return 2
}

// RoundMoney rounds amount to the currency's minor unit.
func RoundMoney(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(MinorUnits(currency))
}

// DisplayPoints is the balance shown to users, rounded up to whole points.
func DisplayPoints(balance decimal.Decimal) int64 {
	return balance.Ceil().IntPart()
}

// RedeemablePoints is the number of whole points that can be spent.
// Never use DisplayPoints for this.
func RedeemablePoints(balance decimal.Decimal) int64 {
	if balance.IsNegative() {
		return 0
	}
	return balance.Floor().IntPart()
}

// NormalizeCurrency upper-cases and trims an ISO code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
