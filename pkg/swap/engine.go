package swap

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapflow/pkg/types"
)

// Engine orchestrates the swap lifecycle: token and price resolution,
// quoting, allowance-gated transaction building and submission. It owns the
// State blackboard; collaborators are injected and never reached through
// ambient globals, so tests can sequence operations explicitly.
type Engine struct {
	mu    sync.Mutex
	state State

	network types.Network
	account *types.Account

	// quoteSeq tags each quote refresh; responses carrying a stale sequence
	// are discarded instead of overwriting a newer quote's fields.
	quoteSeq uint64

	api       BlockchainAPI
	balances  BalanceSource
	wallet    Wallet
	notifier  Notifier
	navigator Navigator
	telemetry Telemetry
	mapError  ErrorMapper

	log *zap.Logger

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func(State)
	keySubs   map[StateKey]map[int]func(State)
}

// Options wires an Engine. API is required; all other collaborators default
// to no-ops so the engine can run headless.
type Options struct {
	Network   types.Network
	API       BlockchainAPI
	Balances  BalanceSource
	Wallet    Wallet
	Notifier  Notifier
	Navigator Navigator
	Telemetry Telemetry

	// MapQuoteError translates upstream quote failures into user-facing
	// messages; unmapped failures fall back to "Insufficient balance".
	MapQuoteError ErrorMapper

	Slippage float64
	Logger   *zap.Logger
}

// New creates an engine for the given network.
func New(opts Options) (*Engine, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("swap: blockchain API client is required")
	}
	if opts.Network.ID == "" {
		return nil, fmt.Errorf("swap: network is required")
	}

	e := &Engine{
		state:     initialState(),
		network:   opts.Network,
		api:       opts.API,
		balances:  opts.Balances,
		wallet:    opts.Wallet,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		telemetry: opts.Telemetry,
		mapError:  opts.MapQuoteError,
		log:       opts.Logger,
		subs:      map[int]func(State){},
		keySubs:   map[StateKey]map[int]func(State){},
	}

	if e.notifier == nil {
		e.notifier = NopNotifier{}
	}
	if e.navigator == nil {
		e.navigator = NopNavigator{}
	}
	if e.telemetry == nil {
		e.telemetry = NopTelemetry{}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if opts.Slippage > 0 {
		e.state.Slippage = opts.Slippage
	}

	return e, nil
}

// SetAccount records the connected account. Passing nil models a wallet
// disconnect.
func (e *Engine) SetAccount(account *types.Account) {
	e.mu.Lock()
	e.account = account
	e.mu.Unlock()
}

// Network returns the active network descriptor.
func (e *Engine) Network() types.Network {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.network
}

// State returns a snapshot of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state.snapshot()
}

// Subscribe registers a callback invoked with a snapshot after every state
// commit. The returned function unsubscribes.
func (e *Engine) Subscribe(fn func(State)) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	e.nextSubID++
	id := e.nextSubID
	e.subs[id] = fn

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.subs, id)
	}
}

// SubscribeKey registers a callback invoked only when a commit touches the
// given key. The returned function unsubscribes.
func (e *Engine) SubscribeKey(key StateKey, fn func(State)) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	e.nextSubID++
	id := e.nextSubID
	if e.keySubs[key] == nil {
		e.keySubs[key] = map[int]func(State){}
	}
	e.keySubs[key][id] = fn

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.keySubs[key], id)
	}
}

// commit applies a mutation under the state lock, then notifies subscribers
// with a snapshot. Keys name the fields the mutation touched.
func (e *Engine) commit(mutate func(*State), keys ...StateKey) {
	e.mu.Lock()
	mutate(&e.state)
	snap := e.state.snapshot()
	e.mu.Unlock()

	e.notify(snap, keys)
}

func (e *Engine) notify(snap State, keys []StateKey) {
	e.subMu.Lock()
	var callbacks []func(State)
	for _, fn := range e.subs {
		callbacks = append(callbacks, fn)
	}
	for _, key := range keys {
		for _, fn := range e.keySubs[key] {
			callbacks = append(callbacks, fn)
		}
	}
	e.subMu.Unlock()

	for _, fn := range callbacks {
		fn(snap)
	}
}

// tryTransition moves the phase to next if the current phase is one of
// from, reporting whether the transition happened.
func (e *Engine) tryTransition(next Phase, from ...Phase) bool {
	ok := false
	e.commit(func(s *State) {
		if slices.Contains(from, s.Phase) {
			s.Phase = next
			ok = true
		}
	}, KeyPhase)

	return ok
}

func (e *Engine) setPhase(next Phase) {
	e.commit(func(s *State) { s.Phase = next }, KeyPhase)
}

// guard runs a public operation, converting panics into returned errors.
// No public operation ever propagates a failure to the UI layer except
// through its error return and the state's error fields.
func (e *Engine) guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("swap: %s: panic: %v", op, r)
			e.log.Error("swap operation panicked", zap.String("operation", op), zap.Any("panic", r))
		}
	}()

	return fn()
}

// callParams captures everything an operation needs about the current
// selection, resolved once under the lock.
type callParams struct {
	networkAddress      string
	fromAddress         string
	fromCAIPAddress     string
	sourceTokenAddress  string
	sourceTokenDecimals int
	sourceTokenAmount   string
	toTokenAddress      string
	toTokenDecimals     int
	hasAccount          bool
	availableToSwap     bool
	isAuthConnector     bool
	isSmartAccount      bool
}

func (e *Engine) params() callParams {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.paramsLocked()
}

func (e *Engine) paramsLocked() callParams {
	p := callParams{
		networkAddress:    e.network.NativeTokenAddress(),
		sourceTokenAmount: e.state.SourceTokenAmount,
	}

	if e.account != nil {
		p.hasAccount = true
		p.fromAddress = e.account.Address
		p.fromCAIPAddress = e.account.CAIPAddress(e.network)
		p.isAuthConnector = e.account.Connector == types.ConnectorAuth
		p.isSmartAccount = e.account.Type == types.AccountTypeSmart
	}

	if e.state.SourceToken != nil {
		p.sourceTokenAddress = e.state.SourceToken.Address
		p.sourceTokenDecimals = e.state.SourceToken.Decimals
	}
	if e.state.ToToken != nil {
		p.toTokenAddress = e.state.ToToken.Address
		p.toTokenDecimals = e.state.ToToken.Decimals
	}

	validSource := p.sourceTokenAddress != "" && p.sourceTokenDecimals > 0 && amountPositive(p.sourceTokenAmount)
	validTo := p.toTokenAddress != "" && p.toTokenDecimals > 0
	p.availableToSwap = p.hasAccount && validSource && validTo

	return p
}

func amountPositive(amount string) bool {
	d, err := decimal.NewFromString(amount)

	return err == nil && d.IsPositive()
}

// ClearError clears the last transaction error.
func (e *Engine) ClearError() {
	e.commit(func(s *State) { s.TransactionError = "" }, KeyTransactionError)
}

// ResetState returns the engine to its idle, unselected condition. Token
// lists survive: they are memoized per network, not per session. Amounts
// and token references are cleared together so no half-populated selection
// remains.
func (e *Engine) ResetState() {
	e.commit(func(s *State) {
		fresh := initialState()
		fresh.Slippage = s.Slippage
		fresh.NetworkID = s.NetworkID
		fresh.Tokens = s.Tokens
		fresh.PopularTokens = s.PopularTokens
		fresh.SuggestedTokens = s.SuggestedTokens
		*s = fresh
	}, KeyPhase, KeySourceToken, KeyToToken, KeySourceTokenAmount, KeyToTokenAmount,
		KeyInputError, KeyTransactionError, KeyApprovalTransaction, KeySwapTransaction,
		KeyMyTokensWithBalance, KeyInitialized)
}

// ResetValues re-selects the network token as the source and clears the
// destination.
func (e *Engine) ResetValues(ctx context.Context) error {
	return e.guard("resetValues", func() error {
		p := e.params()

		var networkToken *types.TokenWithBalance
		e.mu.Lock()
		for i := range e.state.Tokens {
			if e.state.Tokens[i].Address == p.networkAddress {
				token := e.state.Tokens[i]
				networkToken = &token
				break
			}
		}
		e.mu.Unlock()

		if err := e.SetSourceToken(ctx, networkToken); err != nil {
			return err
		}

		return e.SetToToken(ctx, nil)
	})
}
