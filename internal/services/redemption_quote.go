package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/example/referdby/internal/models"
)

// RedemptionBill is a bill total expressed in the restaurant's currency and
// in points currency, the unit the redemption cap is checked in.
type RedemptionBill struct {
	Spent    Conversion `json:"spent"`
	InPoints Conversion `json:"in_points"`
}

// ConvertRedemptionBill converts billTotal, given in billCurrency or the
// restaurant's currency when empty, for the redemption cap.
func ConvertRedemptionBill(ctx context.Context, conv Converter, restaurant *models.Restaurant, billTotal decimal.Decimal, billCurrency, pointsCurrency string) (RedemptionBill, error) {
	restaurantCurrency := NormalizeCurrency(restaurant.Currency)
	billCurrency = NormalizeCurrency(billCurrency)
	if billCurrency == "" {
		billCurrency = restaurantCurrency
	}
	spent, err := conv.Convert(ctx, billTotal, billCurrency, restaurantCurrency)
	if err != nil {
		return RedemptionBill{}, err
	}
	inPoints, err := conv.Convert(ctx, spent.Amount, restaurantCurrency, pointsCurrency)
	if err != nil {
		return RedemptionBill{}, err
	}
	return RedemptionBill{Spent: spent, InPoints: inPoints}, nil
}

// CheckRedemptionCap applies ValidatePointsRedemption to a converted bill.
// The preview endpoint and the processor both go through here.
func CheckRedemptionCap(bill RedemptionBill, points decimal.Decimal, restaurant *models.Restaurant, available decimal.Decimal) string {
	return ValidatePointsRedemption(bill.InPoints.Amount, points, restaurant.MaxRedemptionPercentage, available)
}
