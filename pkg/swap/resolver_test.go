package swap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapflow/pkg/types"
)

func TestGetTokenListSortsAndRanks(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	h.api.tokenListFn = func(string) ([]types.Token, error) {
		return []types.Token{
			{Address: "eip155:137:0x01", Symbol: "ZRX", Decimals: 18},
			{Address: "eip155:137:0x02", Symbol: "USDC", Decimals: 6},
			{Address: "eip155:137:0x03", Symbol: "AAVE", Decimals: 18},
			{Address: "eip155:137:0x04", Symbol: "WETH", Decimals: 18},
		}, nil
	}

	require.NoError(t, h.engine.GetTokenList(ctx))

	state := h.engine.State()
	require.Len(t, state.PopularTokens, 4)
	assert.Equal(t, "AAVE", state.PopularTokens[0].Symbol)
	assert.Equal(t, "ZRX", state.PopularTokens[3].Symbol)

	// Suggested ranking follows the suggestion list order, not the feed
	// order: AAVE is suggested before WETH and USDC.
	var symbols []string
	for _, token := range state.SuggestedTokens {
		symbols = append(symbols, token.Symbol)
	}
	assert.Equal(t, []string{"AAVE", "WETH", "USDC"}, symbols)
}

func TestGetTokenListMemoized(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	require.NoError(t, h.engine.GetTokenList(ctx))
	require.NoError(t, h.engine.GetTokenList(ctx))

	assert.Equal(t, 1, h.api.tokenListCalls, "the list is fetched once per network")
}

func TestGetTokenListFailureDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	h.api.tokenListFn = func(string) ([]types.Token, error) {
		return nil, errors.New("service unavailable")
	}

	require.NoError(t, h.engine.GetTokenList(ctx), "a listing failure is not an operation error")

	state := h.engine.State()
	assert.NotNil(t, state.Tokens)
	assert.Empty(t, state.Tokens)
	assert.Empty(t, state.PopularTokens)
	assert.Empty(t, state.SuggestedTokens)
	assert.False(t, state.TokensLoading)
}

func TestGetAddressPriceCaches(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	require.NoError(t, h.engine.GetTokenList(ctx))

	h.api.tokenPriceFn = func(addresses []string) ([]types.FungiblePrice, error) {
		return []types.FungiblePrice{{Symbol: "usdc", Price: 0.999}}, nil
	}

	before := h.api.tokenPriceCalls
	price := h.engine.GetAddressPrice(ctx, usdcAddress)
	assert.InDelta(t, 0.999, price, 1e-9, "symbol match is case-insensitive")
	assert.Equal(t, before+1, h.api.tokenPriceCalls)

	price = h.engine.GetAddressPrice(ctx, usdcAddress)
	assert.InDelta(t, 0.999, price, 1e-9)
	assert.Equal(t, before+1, h.api.tokenPriceCalls, "second lookup hits the cache")
}

func TestGetAddressPriceMissIsZero(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	h.api.tokenPriceFn = func([]string) ([]types.FungiblePrice, error) {
		return nil, errors.New("feed down")
	}

	assert.Zero(t, h.engine.GetAddressPrice(ctx, usdcAddress))
}

func TestGetMyTokensWithBalanceFiltersAndSeeds(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	h.balances.balances = []types.Balance{
		{Symbol: "POL", ChainID: "eip155:137", Price: 0.5, Quantity: types.Quantity{Decimals: "18", Numeric: "4"}},
		{Address: usdcAddress, Symbol: "USDC", ChainID: "eip155:137", Price: 1, Quantity: types.Quantity{Decimals: "6", Numeric: "50"}},
		{Address: "eip155:1:0xmainnet", Symbol: "ETH", ChainID: "eip155:1", Price: 2500, Quantity: types.Quantity{Decimals: "18", Numeric: "1"}},
	}

	require.NoError(t, h.engine.GetMyTokensWithBalance(ctx, ""))

	state := h.engine.State()
	require.Len(t, state.MyTokensWithBalance, 2, "cross-chain balances are filtered out")

	// The entry without an address is the native token.
	assert.Equal(t, testNetwork.NativeTokenAddress(), state.MyTokensWithBalance[0].Address)
	assert.Equal(t, "2", state.NetworkBalanceInUSD, "4 POL at $0.50")

	assert.InDelta(t, 1.0, state.TokensPriceMap[usdcAddress], 1e-9, "balance prices seed the cache")
}

func TestGetMyTokensWithBalanceNoAccount(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	h.engine.SetAccount(nil)

	require.NoError(t, h.engine.GetMyTokensWithBalance(ctx, ""))
	assert.Empty(t, h.balances.forceUpdates, "no fetch without a connected account")
}

func TestRankSuggestedTokensNetworkSpecificFirst(t *testing.T) {
	tokens := []types.TokenWithBalance{
		{Token: types.Token{Address: "eip155:42161:0x01", Symbol: "USDC"}},
		{Token: types.Token{Address: "eip155:42161:0x02", Symbol: "USD₮0"}},
		{Token: types.Token{Address: "eip155:42161:0x03", Symbol: "ETH"}},
	}

	ranked := rankSuggestedTokens("eip155:42161", tokens)
	require.NotEmpty(t, ranked)
	assert.Equal(t, "USD₮0", ranked[0].Symbol, "network-specific suggestions outrank global ones")
}

func TestRankSuggestedTokensDedupes(t *testing.T) {
	tokens := []types.TokenWithBalance{
		{Token: types.Token{Address: "eip155:42161:0x02", Symbol: "USD₮0"}},
	}

	ranked := rankSuggestedTokens("eip155:42161", tokens)
	assert.Len(t, ranked, 1)
}

func TestResetValuesSelectsNetworkToken(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness(t)

	native := testNetwork.NativeTokenAddress()
	h.api.tokenListFn = func(string) ([]types.Token, error) {
		return []types.Token{
			{Address: native, Symbol: "POL", Decimals: 18},
			{Address: usdcAddress, Symbol: "USDC", Decimals: 6},
		}, nil
	}

	require.NoError(t, h.engine.GetTokenList(ctx))
	h.selectPair(t, ctx)

	require.NoError(t, h.engine.ResetValues(ctx))

	state := h.engine.State()
	require.NotNil(t, state.SourceToken)
	assert.Equal(t, native, state.SourceToken.Address)
	assert.Nil(t, state.ToToken)
	assert.Empty(t, state.ToTokenAmount)
}
