package parser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SwapRequest is a parsed swap command: amount and the pair's symbols.
type SwapRequest struct {
	Amount       string
	SourceSymbol string
	ToSymbol     string
}

// ParseSwapCommand parses commands of the form "<amount> <source> to <dest>",
// e.g. "1 ETH to USDC" or "0.5 eth USDC" (the "to" keyword is optional).
func ParseSwapCommand(command string) (*SwapRequest, error) {
	parts := strings.Fields(command)

	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.EqualFold(part, "to") || strings.EqualFold(part, "for") {
			continue
		}
		filtered = append(filtered, part)
	}

	if len(filtered) != 3 {
		return nil, fmt.Errorf("invalid command format. Expected: <amount> <source-token> to <dest-token>")
	}

	amount, err := decimal.NewFromString(filtered[0])
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %s", filtered[0])
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %s", filtered[0])
	}

	return &SwapRequest{
		Amount:       amount.String(),
		SourceSymbol: strings.ToUpper(filtered[1]),
		ToSymbol:     strings.ToUpper(filtered[2]),
	}, nil
}
