package swap

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapflow/pkg/types"
)

type inputTarget int

const (
	targetSourceToken inputTarget = iota
	targetToToken
)

// SetSourceToken selects the token being sold. Passing nil clears the
// selection; amount and price are cleared with it so no stale price lookup
// can pair with the old token.
func (e *Engine) SetSourceToken(ctx context.Context, token *types.TokenWithBalance) error {
	return e.guard("setSourceToken", func() error {
		if token == nil {
			e.commit(func(s *State) {
				s.SourceToken = nil
				s.SourceTokenAmount = ""
				s.SourceTokenPriceInUSD = 0
			}, KeySourceToken, KeySourceTokenAmount)

			return nil
		}

		selected := *token
		e.commit(func(s *State) { s.SourceToken = &selected }, KeySourceToken)
		e.setTokenPrice(ctx, selected.Address, targetSourceToken)

		return nil
	})
}

// SetToToken selects the token being bought. Passing nil clears the
// selection together with the derived amount and price.
func (e *Engine) SetToToken(ctx context.Context, token *types.TokenWithBalance) error {
	return e.guard("setToToken", func() error {
		if token == nil {
			e.commit(func(s *State) {
				s.ToToken = nil
				s.ToTokenAmount = ""
				s.ToTokenPriceInUSD = 0
			}, KeyToToken, KeyToTokenAmount)

			return nil
		}

		selected := *token
		e.commit(func(s *State) { s.ToToken = &selected }, KeyToToken)
		e.setTokenPrice(ctx, selected.Address, targetToToken)

		return nil
	})
}

// SetSourceTokenAmount records the user-entered source amount. The quote
// itself refreshes through SwapTokens, which the UI invokes debounced.
func (e *Engine) SetSourceTokenAmount(_ context.Context, amount string) {
	e.commit(func(s *State) { s.SourceTokenAmount = amount }, KeySourceTokenAmount)
}

// setToTokenAmount writes the derived destination amount. This is the only
// writer: toTokenAmount is never user-edited.
func (e *Engine) setToTokenAmount(amount string) {
	if amount != "" {
		if d, err := decimal.NewFromString(amount); err == nil {
			amount = d.Round(ToAmountDecimals).String()
		}
	}
	e.commit(func(s *State) { s.ToTokenAmount = amount }, KeyToTokenAmount)
}

// setTokenPrice resolves the USD price for one leg of the pair. Once both
// legs are priced and a swap is possible, the quote refreshes automatically:
// quote freshness follows price freshness.
func (e *Engine) setTokenPrice(ctx context.Context, address string, target inputTarget) {
	e.mu.Lock()
	price := e.state.TokensPriceMap[address]
	e.mu.Unlock()

	if price == 0 {
		e.commit(func(s *State) { s.LoadingPrices = true }, KeyLoadingPrices)
		price = e.GetAddressPrice(ctx, address)
	}

	e.commit(func(s *State) {
		switch target {
		case targetSourceToken:
			s.SourceTokenPriceInUSD = price
		case targetToToken:
			s.ToTokenPriceInUSD = price
		}
		s.LoadingPrices = false
	}, KeyLoadingPrices)

	e.mu.Lock()
	available := e.paramsLocked().availableToSwap
	switching := e.state.Phase == PhaseSwitchingTokens
	e.mu.Unlock()

	if available && !switching {
		//nolint:errcheck // failure is recorded in state by SwapTokens itself
		e.SwapTokens(ctx)
	}
}

// SwitchTokens swaps the two legs of the pair. The previous destination
// amount becomes the new source amount (or "1" when empty) and a fresh
// quote is requested. A no-op while initializing, not yet initialized, or
// already switching.
func (e *Engine) SwitchTokens(ctx context.Context) error {
	return e.guard("switchTokens", func() error {
		e.mu.Lock()
		initialized := e.state.Initialized
		e.mu.Unlock()
		if !initialized {
			return nil
		}

		if !e.tryTransition(PhaseSwitchingTokens, PhaseIdle, PhaseQuoting) {
			return nil
		}

		e.mu.Lock()
		var newSourceToken, newToToken *types.TokenWithBalance
		if e.state.ToToken != nil {
			token := *e.state.ToToken
			newSourceToken = &token
		}
		if e.state.SourceToken != nil {
			token := *e.state.SourceToken
			newToToken = &token
		}
		newSourceAmount := e.state.ToTokenAmount
		e.mu.Unlock()

		if newSourceToken != nil && newSourceAmount == "" {
			newSourceAmount = "1"
		}

		e.SetSourceTokenAmount(ctx, newSourceAmount)
		e.setToTokenAmount("")

		if err := e.SetSourceToken(ctx, newSourceToken); err != nil {
			e.setPhase(PhaseIdle)

			return err
		}
		if err := e.SetToToken(ctx, newToToken); err != nil {
			e.setPhase(PhaseIdle)

			return err
		}

		e.setPhase(PhaseIdle)

		return e.SwapTokens(ctx)
	})
}

// SwapTokens refreshes the conversion quote for the current selection and
// derives the destination amount plus the transaction-relevant numbers.
//
// There is no cancellation of in-flight requests: each refresh takes a new
// sequence number and a response that lost the race is discarded without
// touching state.
func (e *Engine) SwapTokens(ctx context.Context) error {
	return e.guard("swapTokens", func() error {
		e.mu.Lock()
		var address string
		if e.account != nil {
			address = e.account.Address
		}
		var sourceToken, toToken *types.TokenWithBalance
		if e.state.SourceToken != nil {
			token := *e.state.SourceToken
			sourceToken = &token
		}
		if e.state.ToToken != nil {
			token := *e.state.ToToken
			toToken = &token
		}
		sourceAmount := e.state.SourceTokenAmount
		loadingPrices := e.state.LoadingPrices
		gasFee := e.state.GasFee
		e.mu.Unlock()

		haveSourceAmount := amountPositive(sourceAmount)
		if !haveSourceAmount {
			// Fast path: an emptied amount clears the derived amount and
			// nothing else.
			e.setToTokenAmount("")
		}

		if toToken == nil || sourceToken == nil || loadingPrices || !haveSourceAmount || address == "" {
			return nil
		}

		e.mu.Lock()
		e.quoteSeq++
		seq := e.quoteSeq
		e.mu.Unlock()

		e.commit(func(s *State) {
			if s.Phase == PhaseIdle {
				s.Phase = PhaseQuoting
			}
		}, KeyPhase)

		baseAmount, err := ToBaseUnits(sourceAmount, sourceToken.Decimals)
		if err != nil {
			e.endQuote(seq)
			e.notifier.ShowAlert("Incorrect amount", "Please enter a valid amount")

			return nil
		}

		quotes, err := e.api.FetchSwapQuote(ctx, types.QuoteRequest{
			UserAddress: address,
			From:        sourceToken.Address,
			To:          toToken.Address,
			GasPrice:    gasFee,
			Amount:      baseAmount.String(),
		})

		if e.quoteStale(seq) {
			// A newer refresh owns the state now.
			e.log.Debug("discarding stale quote response", zap.Uint64("seq", seq))

			return nil
		}

		if err != nil {
			message := ""
			if e.mapError != nil {
				message = e.mapError(err)
			}
			if message == "" {
				message = "Insufficient balance"
			}
			e.log.Warn("quote fetch failed", zap.Error(err))
			e.commit(func(s *State) {
				if s.Phase == PhaseQuoting {
					s.Phase = PhaseIdle
				}
				s.InputError = message
			}, KeyPhase, KeyInputError)

			return nil
		}

		e.endQuote(seq)

		var quoteToAmount *big.Int
		if len(quotes) > 0 && quotes[0].ToAmount != "" {
			quoteToAmount, _ = new(big.Int).SetString(quotes[0].ToAmount, 10)
		}
		if quoteToAmount == nil || quoteToAmount.Sign() == 0 {
			// Zero liquidity or an unusable amount: transient, display
			// only, never persisted as inputError.
			e.notifier.ShowAlert("Incorrect amount", "Please enter a valid amount")

			return nil
		}

		e.setToTokenAmount(FromBaseUnits(quoteToAmount, toToken.Decimals))

		if e.hasInsufficientToken(sourceAmount, sourceToken.Address) {
			e.commit(func(s *State) { s.InputError = "Insufficient balance" }, KeyInputError)

			return nil
		}

		e.commit(func(s *State) { s.InputError = "" }, KeyInputError)
		e.setTransactionDetails()

		return nil
	})
}

// endQuote returns the phase to idle unless a newer quote took over.
func (e *Engine) endQuote(seq uint64) {
	if e.quoteStale(seq) {
		return
	}
	e.commit(func(s *State) {
		if s.Phase == PhaseQuoting {
			s.Phase = PhaseIdle
		}
	}, KeyPhase)
}

func (e *Engine) quoteStale(seq uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return seq != e.quoteSeq
}

func (e *Engine) hasInsufficientToken(sourceAmount, sourceAddress string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return IsInsufficientBalance(sourceAmount, sourceAddress, e.state.MyTokensWithBalance)
}

// setTransactionDetails recomputes the derived numbers shown with a fresh
// quote: fiat gas cost, price impact, maximum slippage and provider fee.
func (e *Engine) setTransactionDetails() {
	e.mu.Lock()
	if e.state.ToToken == nil {
		e.mu.Unlock()

		return
	}
	networkPrice := e.state.NetworkPrice
	gasFee := e.state.GasFee
	sourceAmount := e.state.SourceTokenAmount
	sourcePrice := e.state.SourceTokenPriceInUSD
	toAmount := e.state.ToTokenAmount
	toPrice := e.state.ToTokenPriceInUSD
	slippage := e.state.Slippage
	e.mu.Unlock()

	gasPrice, ok := new(big.Int).SetString(gasFee, 10)
	if !ok {
		gasPrice = big.NewInt(0)
	}
	gasPriceInUSD := GasPriceInUSD(networkPrice, big.NewInt(InitialGasLimit), gasPrice)

	e.commit(func(s *State) {
		s.GasPriceInUSD = gasPriceInUSD
		s.PriceImpact = PriceImpact(sourceAmount, sourcePrice, gasPriceInUSD, toAmount, toPrice)
		s.MaxSlippage = MaxSlippage(slippage, sourceAmount)
		s.ProviderFee = ProviderFee(sourceAmount)
	}, KeyGasPriceInUSD)
}
