package indexer

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// PricePerShareDecimals is the fixed point precision of yield token prices.
const PricePerShareDecimals = 18

var half = decimal.New(5, -1)

// ConvertTokenToDecimal scales a raw token amount down by its decimals. Nil converts to zero.
func ConvertTokenToDecimal(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -decimals)
}

func pow10(n int32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// yieldValue values a yield token share balance in the underlying asset, normalized to decimals.
func yieldValue(shares, pricePerShare *big.Int, tokenDecimals uint8, decimals int32) *big.Int {
	value := new(big.Int).Mul(shares, pricePerShare)
	value.Quo(value, pow10(PricePerShareDecimals))

	diff := decimals - int32(tokenDecimals)
	switch {
	case diff > 0:
		value.Mul(value, pow10(diff))
	case diff < 0:
		value.Quo(value, pow10(-diff))
	}
	return value
}
