package swap

import (
	"context"
	"math/big"

	"swapflow/pkg/types"
)

// BlockchainAPI is the upstream quote/calldata provider, consumed as a
// black-box HTTP service returning typed responses.
type BlockchainAPI interface {
	FetchTokenList(ctx context.Context, networkID string) ([]types.Token, error)
	FetchTokenPrice(ctx context.Context, addresses []string) ([]types.FungiblePrice, error)
	FetchGasPrice(ctx context.Context, networkID string) (*types.GasPrices, error)
	FetchSwapQuote(ctx context.Context, req types.QuoteRequest) ([]types.Quote, error)
	FetchSwapAllowance(ctx context.Context, req types.AllowanceRequest) (*big.Int, error)
	GenerateApproveCalldata(ctx context.Context, req types.ApproveCalldataRequest) (*types.CalldataTx, error)
	GenerateSwapCalldata(ctx context.Context, req types.SwapCalldataRequest) (*types.CalldataTx, error)
}

// BalanceSource fetches the user's token balances.
type BalanceSource interface {
	TokensWithBalance(ctx context.Context, query types.BalanceQuery) ([]types.Balance, error)
}

// Wallet submits transactions through the external connection collaborator
// and returns the transaction hash.
type Wallet interface {
	SendTransaction(ctx context.Context, args types.SendTransactionArgs) (string, error)
}

// Notifier surfaces user-facing notifications. Calls are fire-and-forget.
type Notifier interface {
	ShowError(message string)
	ShowSuccess(message string)
	ShowLoading(message string)
	// ShowAlert surfaces a transient alert that does not persist in state.
	ShowAlert(displayMessage, debugMessage string)
}

// Navigator drives the host UI's routing. Calls are fire-and-forget.
type Navigator interface {
	GoBack()
	Replace(view string)
	// PushTransactionStack queues a UI flow for embedded wallet connectors;
	// onSuccess runs when the wallet confirms.
	PushTransactionStack(onSuccess func())
}

// Telemetry emits analytics events. Best-effort, never awaited for
// correctness.
type Telemetry interface {
	SendEvent(event types.Event)
}

// ErrorMapper translates an upstream quote failure into a user-facing
// message. An empty return means unmapped.
type ErrorMapper func(err error) string

// NopNotifier, NopNavigator and NopTelemetry satisfy the collaborator
// interfaces for headless use.
type (
	NopNotifier  struct{}
	NopNavigator struct{}
	NopTelemetry struct{}
)

func (NopNotifier) ShowError(string)           {}
func (NopNotifier) ShowSuccess(string)         {}
func (NopNotifier) ShowLoading(string)         {}
func (NopNotifier) ShowAlert(string, string)   {}
func (NopNavigator) GoBack()                   {}
func (NopNavigator) Replace(string)            {}
func (NopNavigator) PushTransactionStack(func()) {}
func (NopTelemetry) SendEvent(types.Event)     {}
