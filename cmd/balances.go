package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show your token balances on the active network",
	Long: `Fetch and display the configured account's token balances on the
active network, with USD values where a price feed exists.

Examples:
  swapflow balances
  swapflow balances --network eip155:8453`,
	Run: runBalances,
}

func init() {
	rootCmd.AddCommand(balancesCmd)
}

func runBalances(cmd *cobra.Command, args []string) {
	a, err := buildApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	if err := a.requireWallet(); err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()

	if err := a.engine.GetMyTokensWithBalance(ctx, ""); err != nil {
		printError(err)
		os.Exit(1)
	}

	state := a.engine.State()

	if a.jsonOutput {
		output := map[string]interface{}{
			"network":             a.network.ID,
			"address":             a.wallet.Address(),
			"networkBalanceInUSD": state.NetworkBalanceInUSD,
			"tokens":              state.MyTokensWithBalance,
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                        TOKEN BALANCES")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Network:  %s\n", a.network.Name)
	fmt.Printf("  Account:  %s\n", color.CyanString(a.wallet.Address()))
	fmt.Printf("  Native:   $%s\n\n", state.NetworkBalanceInUSD)

	if len(state.MyTokensWithBalance) == 0 {
		fmt.Println("  No token balances found.")
	}

	for _, token := range state.MyTokensWithBalance {
		fmt.Printf("  %-10s  %-24s  $%.2f\n",
			color.YellowString(token.Symbol),
			token.Quantity.Numeric,
			token.Price)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}
