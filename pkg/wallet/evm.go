package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	swaptypes "swapflow/pkg/types"
)

// fallbackGasLimit covers swaps when estimation fails and no gas figure
// came with the calldata.
const fallbackGasLimit = 400000

// EVMWallet signs and submits prepared transactions over JSON-RPC. It is
// the connection collaborator for EVM networks: the calldata is already
// built upstream, so it only supplies nonce, gas and a signature.
type EVMWallet struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	chainID    *big.Int
	address    string
}

// NewEVMWallet connects to the RPC endpoint and derives the sender account
// from the private key.
func NewEVMWallet(rpcURL, privateKeyHex string, chainID int64) (*EVMWallet, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL is required")
	}
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key is required")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to derive public key")
	}

	return &EVMWallet{
		client:     client,
		privateKey: privateKey,
		chainID:    big.NewInt(chainID),
		address:    crypto.PubkeyToAddress(*publicKey).Hex(),
	}, nil
}

// Address returns the sender address derived from the private key.
func (w *EVMWallet) Address() string {
	return w.address
}

// SendTransaction signs and broadcasts a prepared transaction, returning
// its hash.
func (w *EVMWallet) SendTransaction(ctx context.Context, args swaptypes.SendTransactionArgs) (string, error) {
	if args.ChainNamespace != "" && args.ChainNamespace != "eip155" {
		return "", fmt.Errorf("unsupported chain namespace %q", args.ChainNamespace)
	}

	publicKey, ok := w.privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("failed to derive public key")
	}
	from := crypto.PubkeyToAddress(*publicKey)

	nonce, err := w.client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice := args.GasPrice
	if gasPrice == nil || gasPrice.Sign() == 0 {
		gasPrice, err = w.client.SuggestGasPrice(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to get gas price: %w", err)
		}
	}

	value := args.Value
	if value == nil {
		value = big.NewInt(0)
	}

	gasLimit := uint64(fallbackGasLimit)
	if args.Gas != nil && args.Gas.Sign() > 0 {
		gasLimit = args.Gas.Uint64()
	} else {
		to := args.To
		msg := ethereum.CallMsg{
			From:  from,
			To:    &to,
			Value: value,
			Data:  args.Data,
		}
		if estimated, err := w.client.EstimateGas(ctx, msg); err == nil {
			gasLimit = estimated * 120 / 100
		}
	}

	tx := types.NewTransaction(nonce, args.To, value, gasLimit, gasPrice, args.Data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(w.chainID), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := w.client.SendTransaction(ctx, signedTx); err != nil {
		return "", &swaptypes.ProviderError{
			Message:        err.Error(),
			DisplayMessage: "Transaction rejected by the network",
		}
	}

	return signedTx.Hash().Hex(), nil
}

// TransactionStatus reports a transaction's current standing: "pending"
// while not yet included, then "success" or "failed".
func (w *EVMWallet) TransactionStatus(ctx context.Context, txHash string) (string, error) {
	receipt, err := w.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return "pending", nil
		}

		return "", fmt.Errorf("failed to get receipt: %w", err)
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		return "success", nil
	}

	return "failed", nil
}

// WaitMined blocks until the transaction is included and reports whether
// it succeeded.
func (w *EVMWallet) WaitMined(ctx context.Context, txHash string) (bool, error) {
	hash := common.HexToHash(txHash)

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := w.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt.Status == types.ReceiptStatusSuccessful, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close closes the RPC connection.
func (w *EVMWallet) Close() {
	if w.client != nil {
		w.client.Close()
	}
}
