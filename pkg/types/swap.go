package types

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NativeTokenAddressEVM is the conventional pseudo-address the upstream API
// uses for a network's native asset.
const NativeTokenAddressEVM = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// Network describes the active chain. Addresses handled by the engine are
// CAIP-10 style, prefixed with the network ID (e.g. "eip155:137:0xabc...").
type Network struct {
	ID             string // CAIP-2 identifier, e.g. "eip155:1"
	Name           string
	ChainID        int64
	NativeSymbol   string
	NativeDecimals int
}

// NativeTokenAddress returns the CAIP address of the network's native asset.
func (n Network) NativeTokenAddress() string {
	return n.ID + ":" + NativeTokenAddressEVM
}

// AccountType classifies the connected account for telemetry purposes.
type AccountType string

const (
	AccountTypeEOA   AccountType = "eoa"
	AccountTypeSmart AccountType = "smartAccount"
)

// ConnectorAuth marks embedded/authenticated wallet connectors, which get a
// dedicated transaction-stack UI flow instead of toast notifications.
const ConnectorAuth = "auth"

// Account is the connected wallet account, provided by the external
// connection collaborator.
type Account struct {
	Address   string // plain hex address
	Type      AccountType
	Connector string
}

// CAIPAddress returns the account address prefixed with the network ID.
func (a Account) CAIPAddress(n Network) string {
	return n.ID + ":" + a.Address
}

// Quantity is a token amount as reported by the balance API: a decimal
// string plus the number of decimals it is denominated in.
type Quantity struct {
	Decimals string `json:"decimals"`
	Numeric  string `json:"numeric"`
}

// Token is an entry of the tradable token list for a network.
type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoUri"`
	EIP2612  bool   `json:"eip2612"`
}

// TokenWithBalance is a token enriched with the user's holdings and the
// cached USD price. Quantity and Value are zero for list-only tokens.
type TokenWithBalance struct {
	Token
	Price    float64  `json:"price"`
	Quantity Quantity `json:"quantity"`
	Value    float64  `json:"value"`
}

// Balance is a single entry of the account balance response.
type Balance struct {
	Address  string   `json:"address,omitempty"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	ChainID  string   `json:"chainId"`
	Price    float64  `json:"price"`
	IconURL  string   `json:"iconUrl"`
	Quantity Quantity `json:"quantity"`
}

// ToToken converts a balance entry into a swappable token. Entries without
// an address represent the network's native asset.
func (b Balance) ToToken(n Network) TokenWithBalance {
	address := b.Address
	if address == "" {
		address = n.NativeTokenAddress()
	}

	decimals, _ := strconv.Atoi(b.Quantity.Decimals)

	return TokenWithBalance{
		Token: Token{
			Address:  address,
			Symbol:   b.Symbol,
			Name:     b.Name,
			Decimals: decimals,
			LogoURI:  b.IconURL,
		},
		Price:    b.Price,
		Quantity: b.Quantity,
	}
}

// TransactionParams is a prepared transaction payload, either an ERC-20
// approval or the swap itself. Gas and GasPrice are nil when the response
// did not supply them.
type TransactionParams struct {
	Data     hexutil.Bytes
	To       common.Address
	Gas      *big.Int
	GasPrice *big.Int
	Value    *big.Int
	ToAmount string // destination amount attached for display
}

// SendTransactionArgs is the payload handed to the connection collaborator.
type SendTransactionArgs struct {
	Address        string // sender, plain hex
	To             common.Address
	Data           hexutil.Bytes
	Gas            *big.Int
	GasPrice       *big.Int
	Value          *big.Int
	ChainNamespace string
}

// GasPrices is the gas price feed response, values in wei.
type GasPrices struct {
	Standard string `json:"standard"`
	Fast     string `json:"fast"`
	Instant  string `json:"instant"`
}

// FungiblePrice is a single price feed entry, matched to tokens by symbol.
type FungiblePrice struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// QuoteRequest asks the upstream provider for a conversion quote. Amount is
// in the source token's integer base units.
type QuoteRequest struct {
	UserAddress string
	From        string
	To          string
	Amount      string
	GasPrice    string
}

// Quote is a single conversion quote. Amounts are integer base units.
type Quote struct {
	ID         string `json:"id"`
	FromAmount string `json:"fromAmount"`
	ToAmount   string `json:"toAmount"`
}

// AllowanceRequest queries the ERC-20 allowance granted to the swap router.
type AllowanceRequest struct {
	TokenAddress string
	UserAddress  string
}

// ApproveCalldataRequest asks for approval calldata for a token pair.
type ApproveCalldataRequest struct {
	From        string
	To          string
	UserAddress string
}

// SwapCalldataRequest asks for swap calldata. DisableEstimate skips
// server-side gas estimation; the caller supplies its own judgment.
type SwapCalldataRequest struct {
	UserAddress     string
	From            string
	To              string
	Amount          string
	Slippage        float64
	DisableEstimate bool
}

// CalldataTx is the transaction body of a calldata-generation response.
type CalldataTx struct {
	From   string        `json:"from"`
	To     string        `json:"to"`
	Data   hexutil.Bytes `json:"data"`
	Value  string        `json:"value"`
	EIP155 struct {
		Gas      string `json:"gas"`
		GasPrice string `json:"gasPrice"`
	} `json:"eip155"`
}

// ProviderError carries a wallet/provider failure with a message suitable
// for direct display.
type ProviderError struct {
	Message        string
	DisplayMessage string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return e.DisplayMessage
}

// Event is a telemetry event. Emission is best-effort and never awaited.
type Event struct {
	Type       string
	Event      string
	Properties map[string]string
}

// BalanceQuery scopes a balance fetch. ForceUpdate carries a comma-joined
// list of token addresses whose balances must bypass the cache.
type BalanceQuery struct {
	ForceUpdate string
	NetworkID   string
	Address     string
}

// PlainAddress strips the CAIP network prefix from an address, returning
// the bare chain-native part ("eip155:1:0xabc" -> "0xabc").
func PlainAddress(caipAddress string) string {
	if caipAddress == "" {
		return ""
	}
	parts := strings.Split(caipAddress, ":")

	return parts[len(parts)-1]
}
