package swap

import (
	"maps"
	"slices"

	"swapflow/pkg/types"
)

// Phase is the engine's lifecycle position. Exactly one swap-lifecycle
// operation runs at a time; the phase field is the gate.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInitializing
	PhaseSwitchingTokens
	PhaseQuoting
	PhaseBuildingTransaction
	PhaseAwaitingApproval
	PhaseAwaitingSwap
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInitializing:
		return "initializing"
	case PhaseSwitchingTokens:
		return "switchingTokens"
	case PhaseQuoting:
		return "quoting"
	case PhaseBuildingTransaction:
		return "buildingTransaction"
	case PhaseAwaitingApproval:
		return "awaitingApproval"
	case PhaseAwaitingSwap:
		return "awaitingSwap"
	default:
		return "unknown"
	}
}

// StateKey identifies a state field for keyed subscriptions.
type StateKey string

const (
	KeyPhase               StateKey = "phase"
	KeyInitialized         StateKey = "initialized"
	KeyLoadingPrices       StateKey = "loadingPrices"
	KeyFetchError          StateKey = "fetchError"
	KeyInputError          StateKey = "inputError"
	KeyTransactionError    StateKey = "transactionError"
	KeySourceToken         StateKey = "sourceToken"
	KeySourceTokenAmount   StateKey = "sourceTokenAmount"
	KeyToToken             StateKey = "toToken"
	KeyToTokenAmount       StateKey = "toTokenAmount"
	KeyTokens              StateKey = "tokens"
	KeyMyTokensWithBalance StateKey = "myTokensWithBalance"
	KeyApprovalTransaction StateKey = "approvalTransaction"
	KeySwapTransaction     StateKey = "swapTransaction"
	KeyGasPriceInUSD       StateKey = "gasPriceInUSD"
)

// State is the blackboard all engine components read and write. UI code
// observes it through Subscribe/SubscribeKey and must treat snapshots as
// read-only.
type State struct {
	Phase       Phase
	Initialized bool

	// LoadingPrices and TokensLoading are sub-operation flags, not
	// lifecycle phases: price resolution runs nested inside token
	// switching, and list loading is browsing-only.
	LoadingPrices bool
	TokensLoading bool

	FetchError       bool
	InputError       string
	TransactionError string

	SourceToken           *types.TokenWithBalance
	SourceTokenAmount     string
	SourceTokenPriceInUSD float64
	ToToken               *types.TokenWithBalance
	ToTokenAmount         string
	ToTokenPriceInUSD     float64

	NetworkPrice        string
	NetworkBalanceInUSD string
	NetworkTokenSymbol  string

	Slippage float64

	// NetworkID memoizes which network the token lists were fetched for.
	NetworkID           string
	Tokens              []types.TokenWithBalance
	PopularTokens       []types.TokenWithBalance
	SuggestedTokens     []types.TokenWithBalance
	MyTokensWithBalance []types.TokenWithBalance
	TokensPriceMap      map[string]float64

	// At most one of the two is populated: they are mutually exclusive
	// next steps.
	ApprovalTransaction *types.TransactionParams
	SwapTransaction     *types.TransactionParams

	GasFee        string
	GasPriceInUSD float64
	PriceImpact   float64
	MaxSlippage   float64
	ProviderFee   string
}

// Loading accessors preserve the flag-shaped surface UIs bind to while the
// single phase field keeps invalid combinations unrepresentable.

func (s State) LoadingQuote() bool               { return s.Phase == PhaseQuoting }
func (s State) LoadingBuildTransaction() bool    { return s.Phase == PhaseBuildingTransaction }
func (s State) LoadingApprovalTransaction() bool { return s.Phase == PhaseAwaitingApproval }
func (s State) LoadingTransaction() bool         { return s.Phase == PhaseAwaitingSwap }
func (s State) SwitchingTokens() bool            { return s.Phase == PhaseSwitchingTokens }
func (s State) Initializing() bool               { return s.Phase == PhaseInitializing }

func initialState() State {
	return State{
		SourceTokenAmount:   "",
		ToTokenAmount:       "",
		NetworkPrice:        "0",
		NetworkBalanceInUSD: "0",
		Slippage:            DefaultSlippageTolerance,
		TokensPriceMap:      map[string]float64{},
		GasFee:              "0",
	}
}

// snapshot copies the state deeply enough that subscribers cannot mutate
// the engine's copy through shared references.
func (s State) snapshot() State {
	out := s

	out.TokensPriceMap = maps.Clone(s.TokensPriceMap)
	out.Tokens = slices.Clone(s.Tokens)
	out.PopularTokens = slices.Clone(s.PopularTokens)
	out.SuggestedTokens = slices.Clone(s.SuggestedTokens)
	out.MyTokensWithBalance = slices.Clone(s.MyTokensWithBalance)

	if s.SourceToken != nil {
		token := *s.SourceToken
		out.SourceToken = &token
	}
	if s.ToToken != nil {
		token := *s.ToToken
		out.ToToken = &token
	}
	if s.ApprovalTransaction != nil {
		tx := *s.ApprovalTransaction
		out.ApprovalTransaction = &tx
	}
	if s.SwapTransaction != nil {
		tx := *s.SwapTransaction
		out.SwapTransaction = &tx
	}

	return out
}
