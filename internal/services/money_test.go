package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRoundMoneyUsesMinorUnits(t *testing.T) {
	amount := decimal.RequireFromString("1234.5678")
	require.Equal(t, "1234.57", RoundMoney(amount, "usd").String())
	require.Equal(t, "1235", RoundMoney(amount, "JPY").String())
	require.Equal(t, "1234.568", RoundMoney(amount, "KWD").String())
}

func TestDisplayAndRedeemablePointsDiffer(t *testing.T) {
	balance := decimal.RequireFromString("41.2")
	require.Equal(t, int64(42), DisplayPoints(balance))
	require.Equal(t, int64(41), RedeemablePoints(balance))

	whole := decimal.NewFromInt(10)
	require.Equal(t, int64(10), DisplayPoints(whole))
	require.Equal(t, int64(10), RedeemablePoints(whole))

	require.Equal(t, int64(0), RedeemablePoints(decimal.RequireFromString("-3.5")))
}
