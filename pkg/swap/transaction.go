package swap

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapflow/pkg/types"
)

// GetTransaction decides the next on-chain step for the current selection:
// a swap when the router allowance covers the amount, an approval
// otherwise. Exactly one of the two transaction slots is populated
// afterwards; the other is cleared. A nil return with no error means the
// preconditions were not met and submission should stay disabled.
func (e *Engine) GetTransaction(ctx context.Context) (*types.TransactionParams, error) {
	var transaction *types.TransactionParams

	err := e.guard("getTransaction", func() error {
		p := e.params()
		if !p.hasAccount || !p.availableToSwap {
			return nil
		}

		// Also rejects a call arriving mid-quote-load.
		if !e.tryTransition(PhaseBuildingTransaction, PhaseIdle) {
			return nil
		}

		baseAmount, err := ToBaseUnits(p.sourceTokenAmount, p.sourceTokenDecimals)
		if err != nil {
			e.backOutTransaction("Failed to check allowance", err)

			return nil
		}

		allowance, err := e.api.FetchSwapAllowance(ctx, types.AllowanceRequest{
			TokenAddress: p.sourceTokenAddress,
			UserAddress:  p.fromCAIPAddress,
		})
		if err != nil {
			e.backOutTransaction("Failed to check allowance", err)

			return nil
		}

		hasAllowance := allowance != nil && allowance.Cmp(baseAmount) >= 0

		if hasAllowance {
			transaction, err = e.createSwapTransaction(ctx, p, baseAmount)
			if err != nil {
				e.backOutTransaction("Failed to create transaction", err)

				return nil
			}
		} else {
			transaction, err = e.createApprovalTransaction(ctx, p)
			if err != nil {
				e.backOutTransaction("Failed to create approval transaction", err)

				return nil
			}
		}

		e.commit(func(s *State) {
			s.Phase = PhaseIdle
			s.FetchError = false
		}, KeyPhase, KeyFetchError)

		return nil
	})

	return transaction, err
}

// backOutTransaction is the shared failure policy for allowance checks and
// calldata generation: navigate back, surface a toast, clear both
// transaction slots and flag the infrastructure failure.
func (e *Engine) backOutTransaction(message string, err error) {
	e.log.Warn("transaction build failed", zap.String("message", message), zap.Error(err))
	e.navigator.GoBack()
	e.notifier.ShowError(message)
	e.commit(func(s *State) {
		s.Phase = PhaseIdle
		s.ApprovalTransaction = nil
		s.SwapTransaction = nil
		s.FetchError = true
	}, KeyPhase, KeyApprovalTransaction, KeySwapTransaction, KeyFetchError)
}

// createApprovalTransaction requests approve-calldata for the pair. The
// response's gas price is used as-is (legacy gas pricing) and its value is
// taken verbatim. The upstream response carries the approval target in the
// tx "from" field.
func (e *Engine) createApprovalTransaction(ctx context.Context, p callParams) (*types.TransactionParams, error) {
	if p.sourceTokenAddress == "" {
		return nil, fmt.Errorf("no source token address")
	}

	res, err := e.api.GenerateApproveCalldata(ctx, types.ApproveCalldataRequest{
		From:        p.sourceTokenAddress,
		To:          p.toTokenAddress,
		UserAddress: p.fromCAIPAddress,
	})
	if err != nil {
		return nil, err
	}

	target := types.PlainAddress(res.From)
	if !common.IsHexAddress(target) {
		return nil, fmt.Errorf("invalid approval target address %q", res.From)
	}

	e.mu.Lock()
	toAmount := e.state.ToTokenAmount
	e.mu.Unlock()

	transaction := &types.TransactionParams{
		Data:     res.Data,
		To:       common.HexToAddress(target),
		GasPrice: parseBig(res.EIP155.GasPrice),
		Value:    parseBig(res.Value),
		ToAmount: toAmount,
	}

	e.commit(func(s *State) {
		s.SwapTransaction = nil
		s.ApprovalTransaction = transaction
	}, KeyApprovalTransaction, KeySwapTransaction)

	return transaction, nil
}

// createSwapTransaction requests swap-calldata with server-side estimation
// disabled. Value is attached only when the source token is the network's
// native asset; ERC-20 swaps always carry zero value. The fiat gas figure
// is recomputed here from the exact gas/gasPrice pair.
func (e *Engine) createSwapTransaction(ctx context.Context, p callParams, baseAmount *big.Int) (*types.TransactionParams, error) {
	e.mu.Lock()
	slippage := e.state.Slippage
	toAmount := e.state.ToTokenAmount
	networkPrice := e.state.NetworkPrice
	e.mu.Unlock()

	res, err := e.api.GenerateSwapCalldata(ctx, types.SwapCalldataRequest{
		UserAddress:     p.fromCAIPAddress,
		From:            p.sourceTokenAddress,
		To:              p.toTokenAddress,
		Amount:          baseAmount.String(),
		Slippage:        slippage,
		DisableEstimate: true,
	})
	if err != nil {
		return nil, err
	}

	target := types.PlainAddress(res.To)
	if !common.IsHexAddress(target) {
		return nil, fmt.Errorf("invalid swap target address %q", res.To)
	}

	gas := parseBig(res.EIP155.Gas)
	gasPrice := parseBig(res.EIP155.GasPrice)

	value := big.NewInt(0)
	if p.sourceTokenAddress == p.networkAddress {
		value = new(big.Int).Set(baseAmount)
	}

	transaction := &types.TransactionParams{
		Data:     res.Data,
		To:       common.HexToAddress(target),
		Gas:      gas,
		GasPrice: gasPrice,
		Value:    value,
		ToAmount: toAmount,
	}

	e.commit(func(s *State) {
		s.GasPriceInUSD = GasPriceInUSD(networkPrice, gas, gasPrice)
		s.ApprovalTransaction = nil
		s.SwapTransaction = transaction
	}, KeyApprovalTransaction, KeySwapTransaction, KeyGasPriceInUSD)

	return transaction, nil
}

// parseBig reads a decimal or 0x-hex integer string, defaulting to zero.
func parseBig(v string) *big.Int {
	if v == "" {
		return big.NewInt(0)
	}

	base := 10
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		v = v[2:]
		base = 16
	}

	n, ok := new(big.Int).SetString(v, base)
	if !ok {
		return big.NewInt(0)
	}

	return n
}
