package swap

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapflow/pkg/types"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     string
		wantErr  bool
	}{
		{name: "usdc amount", amount: "10.5", decimals: 6, want: "10500000"},
		{name: "whole ether", amount: "1", decimals: 18, want: "1000000000000000000"},
		{name: "small fraction", amount: "0.000001", decimals: 6, want: "1"},
		{name: "sub-unit rounds", amount: "0.0000004", decimals: 6, want: "0"},
		{name: "zero", amount: "0", decimals: 18, want: "0"},
		{name: "garbage", amount: "abc", decimals: 6, wantErr: true},
		{name: "empty", amount: "", decimals: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFromBaseUnits(t *testing.T) {
	assert.Equal(t, "10.5", FromBaseUnits(big.NewInt(10500000), 6))
	assert.Equal(t, "1", FromBaseUnits(big.NewInt(1000000), 6))
	assert.Equal(t, "0.000001", FromBaseUnits(big.NewInt(1), 6))
}

func TestBaseUnitsRoundTrip(t *testing.T) {
	for _, amount := range []string{"1", "0.5", "123.456789", "0.000001"} {
		base, err := ToBaseUnits(amount, 6)
		require.NoError(t, err)
		assert.Equal(t, amount, FromBaseUnits(base, 6), "round trip for %s", amount)
	}
}

func TestGasPriceInUSD(t *testing.T) {
	// 150000 gas at 40 gwei is 0.006 ether; at $2000/ETH that is $12.
	got := GasPriceInUSD("2000", big.NewInt(150000), big.NewInt(40_000_000_000))
	assert.InDelta(t, 12.0, got, 1e-9)

	assert.Zero(t, GasPriceInUSD("", big.NewInt(1), big.NewInt(1)))
	assert.Zero(t, GasPriceInUSD("2000", nil, big.NewInt(1)))
	assert.Zero(t, GasPriceInUSD("2000", big.NewInt(1), nil))
}

func TestPriceImpact(t *testing.T) {
	// Paying $2010 (incl. gas) for 2000 tokens priced at $1 each is a
	// 0.5% impact.
	got := PriceImpact("1", 2000, 10, "2000", 1)
	assert.InDelta(t, 0.5, got, 1e-9)

	assert.Zero(t, PriceImpact("1", 2000, 10, "0", 1))
	assert.Zero(t, PriceImpact("1", 2000, 10, "2000", 0))
	assert.Zero(t, PriceImpact("bad", 2000, 10, "2000", 1))
}

func TestMaxSlippage(t *testing.T) {
	assert.InDelta(t, 0.01, MaxSlippage(1.0, "1"), 1e-9)
	assert.InDelta(t, 2.5, MaxSlippage(2.5, "100"), 1e-9)
	assert.Zero(t, MaxSlippage(1.0, "not-a-number"))
}

func TestProviderFee(t *testing.T) {
	assert.Equal(t, "0.85", ProviderFee("100"))
	assert.Equal(t, "0", ProviderFee("bad"))
}

func TestIsInsufficientBalance(t *testing.T) {
	balances := []types.TokenWithBalance{
		{
			Token:    types.Token{Address: "eip155:1:0xaaa", Symbol: "AAA"},
			Quantity: types.Quantity{Numeric: "5", Decimals: "18"},
		},
	}

	assert.False(t, IsInsufficientBalance("4", "eip155:1:0xaaa", balances))
	assert.False(t, IsInsufficientBalance("5", "eip155:1:0xaaa", balances))
	assert.True(t, IsInsufficientBalance("5.1", "eip155:1:0xaaa", balances))
	assert.True(t, IsInsufficientBalance("1", "eip155:1:0xbbb", balances), "unknown token counts as zero balance")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.234", formatAmount("1.23456", 3))
	assert.Equal(t, "1", formatAmount("1", 3))
	assert.Equal(t, "garbage", formatAmount("garbage", 3))
}
