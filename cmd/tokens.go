package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swapflow/pkg/types"
)

var tokenFilterSymbol string

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List tradable tokens on the active network",
	Long: `List the tokens tradable on the active network, with suggested swap
targets ranked first.

Examples:
  swapflow list-tokens
  swapflow list-tokens --network eip155:137
  swapflow list-tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&tokenFilterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	a, err := buildApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	ctx := context.Background()

	if err := a.engine.GetTokenList(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}

	state := a.engine.State()

	suggested := filterTokens(state.SuggestedTokens, tokenFilterSymbol)
	popular := filterTokens(state.PopularTokens, tokenFilterSymbol)

	if a.jsonOutput {
		output := map[string]interface{}{
			"network":   a.network.ID,
			"suggested": suggested,
			"popular":   popular,
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTokens(a.network, suggested, popular)
}

func filterTokens(tokens []types.TokenWithBalance, symbol string) []types.TokenWithBalance {
	if symbol == "" {
		return tokens
	}

	var filtered []types.TokenWithBalance
	for _, token := range tokens {
		if strings.Contains(strings.ToUpper(token.Symbol), strings.ToUpper(symbol)) {
			filtered = append(filtered, token)
		}
	}
	return filtered
}

func displayTokens(network types.Network, suggested, popular []types.TokenWithBalance) {
	if len(suggested) == 0 && len(popular) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                 TRADABLE TOKENS — %s", strings.ToUpper(network.Name))
	fmt.Println(strings.Repeat("=", 80))

	if len(suggested) > 0 {
		color.Cyan("\nSUGGESTED")
		fmt.Println(strings.Repeat("-", 80))
		for _, token := range suggested {
			printTokenLine(token)
		}
	}

	if len(popular) > 0 {
		color.Cyan("\nALL TOKENS")
		fmt.Println(strings.Repeat("-", 80))
		for _, token := range popular {
			printTokenLine(token)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Printf("\nTotal: %d tokens\n\n", len(popular))
}

func printTokenLine(token types.TokenWithBalance) {
	address := types.PlainAddress(token.Address)
	if len(address) > 42 {
		address = address[:39] + "..."
	}

	fmt.Printf("  %-10s  %2d decimals  %s\n",
		color.YellowString(token.Symbol),
		token.Decimals,
		color.HiBlackString(address))
}
