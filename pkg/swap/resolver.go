package swap

import (
	"context"
	"math/big"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapflow/pkg/types"
)

// InitializeState performs the one-time session setup: native token price,
// user balances and the default source token. Repeated calls while an
// initialization is in flight are no-ops.
func (e *Engine) InitializeState(ctx context.Context) error {
	return e.guard("initializeState", func() error {
		if !e.tryTransition(PhaseInitializing, PhaseIdle) {
			return nil
		}
		defer e.setPhase(PhaseIdle)

		e.mu.Lock()
		initialized := e.state.Initialized
		e.mu.Unlock()
		if initialized {
			return nil
		}

		if err := e.fetchTokens(ctx); err != nil {
			e.log.Warn("swap initialization failed", zap.Error(err))
			e.notifier.ShowError("Failed to initialize swap")
			e.navigator.GoBack()

			return err
		}

		e.commit(func(s *State) { s.Initialized = true }, KeyInitialized)

		return nil
	})
}

// fetchTokens loads prices and balances and defaults the source token to
// the network's native asset.
func (e *Engine) fetchTokens(ctx context.Context) error {
	e.getNetworkTokenPrice(ctx)

	if err := e.GetMyTokensWithBalance(ctx, ""); err != nil {
		return err
	}

	networkAddress := e.network.NativeTokenAddress()

	var networkToken *types.TokenWithBalance
	e.mu.Lock()
	for i := range e.state.MyTokensWithBalance {
		if e.state.MyTokensWithBalance[i].Address == networkAddress {
			token := e.state.MyTokensWithBalance[i]
			networkToken = &token
			break
		}
	}
	e.mu.Unlock()

	if networkToken != nil {
		e.commit(func(s *State) { s.NetworkTokenSymbol = networkToken.Symbol })
		if err := e.SetSourceToken(ctx, networkToken); err != nil {
			return err
		}
		e.SetSourceTokenAmount(ctx, "0")
	}

	return nil
}

// GetTokenList loads the tradable token set for the active network,
// memoized per network ID. Token listing is non-critical: any failure
// degrades to empty lists so the UI stays usable.
func (e *Engine) GetTokenList(ctx context.Context) error {
	return e.guard("getTokenList", func() error {
		e.mu.Lock()
		networkID := e.network.ID
		cached := e.state.NetworkID == networkID && e.state.Tokens != nil
		e.mu.Unlock()

		if cached {
			return nil
		}

		e.commit(func(s *State) { s.TokensLoading = true })
		defer e.commit(func(s *State) { s.TokensLoading = false })

		listed, err := e.api.FetchTokenList(ctx, networkID)
		if err != nil {
			e.log.Warn("token list fetch failed", zap.String("network", networkID), zap.Error(err))
			e.commit(func(s *State) {
				s.Tokens = []types.TokenWithBalance{}
				s.PopularTokens = []types.TokenWithBalance{}
				s.SuggestedTokens = []types.TokenWithBalance{}
			}, KeyTokens)

			return nil
		}

		tokens := make([]types.TokenWithBalance, 0, len(listed))
		for _, t := range listed {
			tokens = append(tokens, types.TokenWithBalance{
				Token:    t,
				Quantity: types.Quantity{Decimals: "0", Numeric: "0"},
			})
		}

		popular := make([]types.TokenWithBalance, len(tokens))
		copy(popular, tokens)
		sort.SliceStable(popular, func(i, j int) bool {
			return popular[i].Symbol < popular[j].Symbol
		})

		suggested := rankSuggestedTokens(networkID, tokens)

		e.commit(func(s *State) {
			s.NetworkID = networkID
			s.Tokens = tokens
			s.PopularTokens = popular
			s.SuggestedTokens = suggested
		}, KeyTokens)

		return nil
	})
}

// rankSuggestedTokens puts network-specific suggestions first, then global
// suggestions not already present, preserving first-seen order and deduping
// by address.
func rankSuggestedTokens(networkID string, tokens []types.TokenWithBalance) []types.TokenWithBalance {
	bySymbol := func(symbol string) *types.TokenWithBalance {
		for i := range tokens {
			if tokens[i].Symbol == symbol {
				return &tokens[i]
			}
		}

		return nil
	}

	suggested := make([]types.TokenWithBalance, 0)
	seen := map[string]bool{}

	for _, symbol := range SuggestedTokenSymbolsByNetwork[networkID] {
		if t := bySymbol(symbol); t != nil && !seen[t.Address] {
			seen[t.Address] = true
			suggested = append(suggested, *t)
		}
	}
	for _, symbol := range SuggestedTokenSymbols {
		if t := bySymbol(symbol); t != nil && !seen[t.Address] {
			seen[t.Address] = true
			suggested = append(suggested, *t)
		}
	}

	return suggested
}

// GetAddressPrice resolves a token's USD price, preferring the session
// cache. A token with no price feed entry is worth zero, not an error.
func (e *Engine) GetAddressPrice(ctx context.Context, address string) float64 {
	e.mu.Lock()
	if price, ok := e.state.TokensPriceMap[address]; ok && price != 0 {
		e.mu.Unlock()

		return price
	}
	symbol := e.symbolForAddressLocked(address)
	e.mu.Unlock()

	fungibles, err := e.api.FetchTokenPrice(ctx, []string{address})
	if err != nil {
		e.log.Warn("token price fetch failed", zap.String("address", address), zap.Error(err))

		return 0
	}

	price := 0.0
	for _, f := range fungibles {
		if strings.EqualFold(f.Symbol, symbol) {
			price = f.Price
			break
		}
	}

	e.commit(func(s *State) { s.TokensPriceMap[address] = price })

	return price
}

func (e *Engine) symbolForAddressLocked(address string) string {
	for i := range e.state.Tokens {
		if e.state.Tokens[i].Address == address {
			return e.state.Tokens[i].Symbol
		}
	}
	for i := range e.state.MyTokensWithBalance {
		if e.state.MyTokensWithBalance[i].Address == address {
			return e.state.MyTokensWithBalance[i].Symbol
		}
	}

	return ""
}

// getNetworkTokenPrice seeds the native token's price and symbol. Failure
// degrades to a zero price; browsing must stay possible.
func (e *Engine) getNetworkTokenPrice(ctx context.Context) {
	networkAddress := e.network.NativeTokenAddress()

	fungibles, err := e.api.FetchTokenPrice(ctx, []string{networkAddress})
	if err != nil {
		e.log.Warn("network token price fetch failed", zap.Error(err))
		e.notifier.ShowError("Failed to fetch network token price")
		fungibles = nil
	}

	price := 0.0
	symbol := ""
	if len(fungibles) > 0 {
		price = fungibles[0].Price
		symbol = fungibles[0].Symbol
	}

	e.commit(func(s *State) {
		s.TokensPriceMap[networkAddress] = price
		s.NetworkPrice = decimal.NewFromFloat(price).String()
		if symbol != "" {
			s.NetworkTokenSymbol = symbol
		}
	})
}

// GetMyTokensWithBalance refreshes the user's balances. forceUpdate is a
// comma-joined address list whose balances must bypass upstream caches;
// pass "" for a regular fetch. Balances are filtered to the active network
// so no cross-chain balance leaks into the candidate set.
func (e *Engine) GetMyTokensWithBalance(ctx context.Context, forceUpdate string) error {
	return e.guard("getMyTokensWithBalance", func() error {
		e.mu.Lock()
		var address string
		if e.account != nil {
			address = e.account.Address
		}
		network := e.network
		e.mu.Unlock()

		if address == "" || e.balances == nil {
			return nil
		}

		balances, err := e.balances.TokensWithBalance(ctx, types.BalanceQuery{
			ForceUpdate: forceUpdate,
			NetworkID:   network.ID,
			Address:     address,
		})
		if err != nil {
			return err
		}

		tokens := make([]types.TokenWithBalance, 0, len(balances))
		for _, b := range balances {
			tokens = append(tokens, b.ToToken(network))
		}

		e.getInitialGasPrice(ctx)
		e.setBalances(tokens)

		return nil
	})
}

// setBalances installs the balance set: seeds the price cache, filters to
// the active network and derives the native balance in USD.
func (e *Engine) setBalances(tokens []types.TokenWithBalance) {
	networkAddress := e.network.NativeTokenAddress()
	networkID := e.network.ID

	var networkToken *types.TokenWithBalance
	for i := range tokens {
		if tokens[i].Address == networkAddress {
			networkToken = &tokens[i]
			break
		}
	}

	mine := make([]types.TokenWithBalance, 0, len(tokens))
	for _, t := range tokens {
		if strings.HasPrefix(t.Address, networkID) {
			mine = append(mine, t)
		}
	}

	e.commit(func(s *State) {
		for _, t := range tokens {
			s.TokensPriceMap[t.Address] = t.Price
		}
		s.MyTokensWithBalance = mine

		s.NetworkBalanceInUSD = "0"
		if networkToken != nil {
			qty, err := decimal.NewFromString(networkToken.Quantity.Numeric)
			if err == nil {
				s.NetworkBalanceInUSD = qty.Mul(decimal.NewFromFloat(networkToken.Price)).String()
			}
		}
	}, KeyMyTokensWithBalance)
}

// getInitialGasPrice loads the gas price feed and derives the coarse fiat
// gas estimate used until real calldata supplies exact figures.
func (e *Engine) getInitialGasPrice(ctx context.Context) {
	prices, err := e.api.FetchGasPrice(ctx, e.network.ID)
	if err != nil || prices == nil {
		return
	}

	standard := prices.Standard
	gasPrice, ok := new(big.Int).SetString(standard, 10)
	if !ok {
		return
	}

	e.mu.Lock()
	networkPrice := e.state.NetworkPrice
	e.mu.Unlock()

	usd := GasPriceInUSD(networkPrice, big.NewInt(InitialGasLimit), gasPrice)

	e.commit(func(s *State) {
		s.GasFee = standard
		s.GasPriceInUSD = usd
	}, KeyGasPriceInUSD)
}
