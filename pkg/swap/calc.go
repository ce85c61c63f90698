package swap

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"swapflow/pkg/types"
)

// Pure calculation helpers. Token amounts are decimal strings end to end;
// binary floating point would silently lose precision and break the
// rounding contract of the upstream quote service.

var weiPerEther = decimal.New(1, 18)

// ToBaseUnits converts a human-readable decimal amount to the token's
// integer base-unit representation, rounding to the nearest unit.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	return d.Shift(int32(decimals)).Round(0).BigInt(), nil
}

// FromBaseUnits converts an integer base-unit amount back to a decimal
// string.
func FromBaseUnits(amount *big.Int, decimals int) string {
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// GasPriceInUSD prices a gas budget in fiat: gas x gasPrice wei, converted
// to ether and multiplied by the native token's USD price.
func GasPriceInUSD(networkPrice string, gas, gasPrice *big.Int) float64 {
	price, err := decimal.NewFromString(networkPrice)
	if err != nil || gas == nil || gasPrice == nil {
		return 0
	}

	costWei := decimal.NewFromBigInt(new(big.Int).Mul(gas, gasPrice), 0)
	costEther := costWei.Div(weiPerEther)

	usd, _ := costEther.Mul(price).Float64()

	return usd
}

// PriceImpact measures how far the effective price paid per destination
// token (including gas) deviates from the feed price, in percent.
func PriceImpact(sourceAmount string, sourcePriceInUSD, gasPriceInUSD float64, toAmount string, toPriceInUSD float64) float64 {
	src, err := decimal.NewFromString(sourceAmount)
	if err != nil {
		return 0
	}
	to, err := decimal.NewFromString(toAmount)
	if err != nil || to.IsZero() || toPriceInUSD == 0 {
		return 0
	}

	totalCost := src.Mul(decimal.NewFromFloat(sourcePriceInUSD)).Add(decimal.NewFromFloat(gasPriceInUSD))
	effectivePrice := totalCost.Div(to)
	toPrice := decimal.NewFromFloat(toPriceInUSD)

	impact, _ := effectivePrice.Sub(toPrice).Div(toPrice).Mul(decimal.NewFromInt(100)).Float64()

	return impact
}

// MaxSlippage is the largest amount of the source token that can be lost to
// slippage at the configured tolerance.
func MaxSlippage(slippagePercent float64, sourceAmount string) float64 {
	src, err := decimal.NewFromString(sourceAmount)
	if err != nil {
		return 0
	}

	loss, _ := src.Mul(decimal.NewFromFloat(slippagePercent).Div(decimal.NewFromInt(100))).Float64()

	return loss
}

// ProviderFee is the upstream provider's cut of the source amount.
func ProviderFee(sourceAmount string) string {
	src, err := decimal.NewFromString(sourceAmount)
	if err != nil {
		return "0"
	}

	rate, _ := decimal.NewFromString(ProviderFeeRate)

	return src.Mul(rate).String()
}

// IsInsufficientBalance reports whether the held balance of the source token
// is smaller than the requested amount. Unknown tokens count as a zero
// balance.
func IsInsufficientBalance(sourceAmount, sourceAddress string, balances []types.TokenWithBalance) bool {
	amount, err := decimal.NewFromString(sourceAmount)
	if err != nil {
		return false
	}

	held := decimal.Zero
	for _, token := range balances {
		if token.Address == sourceAddress {
			if q, err := decimal.NewFromString(token.Quantity.Numeric); err == nil {
				held = q
			}
			break
		}
	}

	return held.LessThan(amount)
}

// formatAmount truncates a decimal string for display, dropping the
// fractional part beyond the given precision.
func formatAmount(amount string, places int32) string {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}

	return d.RoundDown(places).String()
}
