package swap

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"swapflow/pkg/types"
)

const approveLimitMessage = "Approve limit increase in your wallet"

// SendTransactionForApproval submits the approval transaction. On success
// the quote and transaction-build steps re-run so the now-unblocked swap
// transaction becomes available.
func (e *Engine) SendTransactionForApproval(ctx context.Context, transaction *types.TransactionParams) error {
	return e.guard("sendTransactionForApproval", func() error {
		if transaction == nil || e.wallet == nil {
			return nil
		}

		p := e.params()
		if !p.hasAccount {
			return nil
		}

		if !e.tryTransition(PhaseAwaitingApproval, PhaseIdle) {
			return nil
		}

		if p.isAuthConnector {
			e.navigator.PushTransactionStack(func() {
				e.notifier.ShowLoading(approveLimitMessage)
				e.navigator.Replace("SwapPreview")
			})
		} else {
			e.notifier.ShowLoading(approveLimitMessage)
		}

		_, err := e.wallet.SendTransaction(ctx, types.SendTransactionArgs{
			Address:        p.fromAddress,
			To:             transaction.To,
			Data:           transaction.Data,
			GasPrice:       transaction.GasPrice,
			Value:          transaction.Value,
			ChainNamespace: "eip155",
		})
		if err != nil {
			message := providerMessage(err)
			e.log.Warn("approval transaction failed", zap.Error(err))
			e.commit(func(s *State) {
				s.Phase = PhaseIdle
				s.TransactionError = message
			}, KeyPhase, KeyTransactionError)
			e.notifier.ShowError(message)
			e.trackSwapEvent("SWAP_APPROVAL_ERROR", err)

			return err
		}

		e.commit(func(s *State) {
			s.Phase = PhaseIdle
			s.ApprovalTransaction = nil
		}, KeyPhase, KeyApprovalTransaction)

		if err := e.SwapTokens(ctx); err != nil {
			return err
		}
		_, err = e.GetTransaction(ctx)

		return err
	})
}

// SendTransactionForSwap submits the swap transaction. On success the swap
// state resets and a balance refresh is forced for exactly the two involved
// tokens. Returns the transaction hash.
func (e *Engine) SendTransactionForSwap(ctx context.Context, transaction *types.TransactionParams) (string, error) {
	var hash string

	err := e.guard("sendTransactionForSwap", func() error {
		if transaction == nil || e.wallet == nil {
			return nil
		}

		p := e.params()
		if !p.hasAccount {
			return nil
		}

		if !e.tryTransition(PhaseAwaitingSwap, PhaseIdle) {
			return nil
		}

		e.mu.Lock()
		var sourceSymbol, toSymbol, sourceAddress, toAddress string
		if e.state.SourceToken != nil {
			sourceSymbol = e.state.SourceToken.Symbol
			sourceAddress = e.state.SourceToken.Address
		}
		if e.state.ToToken != nil {
			toSymbol = e.state.ToToken.Symbol
			toAddress = e.state.ToToken.Address
		}
		toAmount := e.state.ToTokenAmount
		e.mu.Unlock()

		pendingMessage := fmt.Sprintf("Swapping %s to %s %s", sourceSymbol, formatAmount(toAmount, 3), toSymbol)
		successMessage := fmt.Sprintf("Swapped %s to %s %s", sourceSymbol, formatAmount(toAmount, 3), toSymbol)

		if p.isAuthConnector {
			e.navigator.PushTransactionStack(func() {
				e.navigator.Replace("Account")
				e.notifier.ShowLoading(pendingMessage)
				e.ResetState()
			})
		} else {
			e.notifier.ShowLoading("Confirm transaction in your wallet")
		}

		// Scope the forced refresh to the two involved tokens; anything
		// wider is redundant balance RPC traffic.
		forceUpdateAddresses := sourceAddress + "," + toAddress

		sent, err := e.wallet.SendTransaction(ctx, types.SendTransactionArgs{
			Address:        p.fromAddress,
			To:             transaction.To,
			Data:           transaction.Data,
			Gas:            transaction.Gas,
			GasPrice:       transaction.GasPrice,
			Value:          transaction.Value,
			ChainNamespace: "eip155",
		})
		if err != nil {
			message := providerMessage(err)
			e.log.Warn("swap transaction failed", zap.Error(err))
			e.commit(func(s *State) {
				s.Phase = PhaseIdle
				s.TransactionError = message
			}, KeyPhase, KeyTransactionError)
			e.notifier.ShowError(message)
			e.trackSwapEvent("SWAP_ERROR", err)

			return err
		}

		hash = sent

		e.setPhase(PhaseIdle)
		e.notifier.ShowSuccess(successMessage)
		e.trackSwapEvent("SWAP_SUCCESS", nil)

		e.ResetState()
		if !p.isAuthConnector {
			e.navigator.Replace("Account")
		}

		return e.GetMyTokensWithBalance(ctx, forceUpdateAddresses)
	})

	return hash, err
}

// providerMessage extracts the wallet provider's display message, falling
// back to a generic one.
func providerMessage(err error) string {
	var provider *types.ProviderError
	if errors.As(err, &provider) && provider.DisplayMessage != "" {
		return provider.DisplayMessage
	}

	return "Transaction error"
}

// trackSwapEvent emits a swap lifecycle telemetry event carrying the token
// pair, the visible amounts and the account-type classification.
func (e *Engine) trackSwapEvent(event string, cause error) {
	e.mu.Lock()
	var sourceSymbol, toSymbol string
	if e.state.SourceToken != nil {
		sourceSymbol = e.state.SourceToken.Symbol
	}
	if e.state.ToToken != nil {
		toSymbol = e.state.ToToken.Symbol
	}
	sourceAmount := e.state.SourceTokenAmount
	toAmount := e.state.ToTokenAmount
	networkID := e.network.ID
	isSmart := e.account != nil && e.account.Type == types.AccountTypeSmart
	e.mu.Unlock()

	properties := map[string]string{
		"network":        networkID,
		"swapFromToken":  sourceSymbol,
		"swapToToken":    toSymbol,
		"swapFromAmount": sourceAmount,
		"swapToAmount":   toAmount,
		"isSmartAccount": strconv.FormatBool(isSmart),
	}
	if cause != nil {
		properties["message"] = providerMessageOrText(cause)
	}

	e.telemetry.SendEvent(types.Event{Type: "track", Event: event, Properties: properties})
}

func providerMessageOrText(err error) string {
	var provider *types.ProviderError
	if errors.As(err, &provider) && provider.DisplayMessage != "" {
		return provider.DisplayMessage
	}
	if err.Error() != "" {
		return err.Error()
	}

	return "Unknown"
}
