package swap

import "swapflow/pkg/types"

const (
	// InitialGasLimit is the coarse gas limit used for the fiat gas estimate
	// shown alongside a quote, before real calldata exists.
	InitialGasLimit = 150000

	// ToAmountDecimals is the display precision of the derived destination
	// amount.
	ToAmountDecimals = 6

	// DefaultSlippageTolerance is the slippage tolerance in percent.
	DefaultSlippageTolerance = 1.0

	// ProviderFeeRate is the upstream provider's fee, as a fraction of the
	// source amount.
	ProviderFeeRate = "0.0085"
)

// SuggestedTokenSymbols are globally suggested swap targets, in ranking
// order.
var SuggestedTokenSymbols = []string{
	"ETH", "UNI", "1INCH", "AAVE", "SOL", "ADA", "AVAX", "DOT", "LINK",
	"NITRO", "GAIA", "MILK", "TRX", "NEAR", "GNO", "WBTC", "DAI", "WETH",
	"USDC", "USDT", "ARB", "BAL", "BICO", "CRV", "ENS", "MATIC", "OP",
}

// SuggestedTokenSymbolsByNetwork rank network-specific suggestions ahead of
// the global list.
var SuggestedTokenSymbolsByNetwork = map[string][]string{
	// Arbitrum One
	"eip155:42161": {"USD₮0"},
}

// SupportedNetworks is the set of networks the swap provider serves.
var SupportedNetworks = map[string]types.Network{
	"eip155:1":     {ID: "eip155:1", Name: "Ethereum", ChainID: 1, NativeSymbol: "ETH", NativeDecimals: 18},
	"eip155:10":    {ID: "eip155:10", Name: "Optimism", ChainID: 10, NativeSymbol: "ETH", NativeDecimals: 18},
	"eip155:56":    {ID: "eip155:56", Name: "BNB Smart Chain", ChainID: 56, NativeSymbol: "BNB", NativeDecimals: 18},
	"eip155:100":   {ID: "eip155:100", Name: "Gnosis", ChainID: 100, NativeSymbol: "xDAI", NativeDecimals: 18},
	"eip155:137":   {ID: "eip155:137", Name: "Polygon", ChainID: 137, NativeSymbol: "POL", NativeDecimals: 18},
	"eip155:250":   {ID: "eip155:250", Name: "Fantom", ChainID: 250, NativeSymbol: "FTM", NativeDecimals: 18},
	"eip155:324":   {ID: "eip155:324", Name: "ZKSync Era", ChainID: 324, NativeSymbol: "ETH", NativeDecimals: 18},
	"eip155:8453":  {ID: "eip155:8453", Name: "Base", ChainID: 8453, NativeSymbol: "ETH", NativeDecimals: 18},
	"eip155:42161": {ID: "eip155:42161", Name: "Arbitrum One", ChainID: 42161, NativeSymbol: "ETH", NativeDecimals: 18},
	"eip155:43114": {ID: "eip155:43114", Name: "Avalanche", ChainID: 43114, NativeSymbol: "AVAX", NativeDecimals: 18},
}
