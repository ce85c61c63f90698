package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "swapflow",
	Short: "A CLI for same-chain token swaps on EVM networks",
	Long: `swapflow is a command-line tool for swapping tokens on EVM networks
through the blockchain API's convert endpoints. It handles quoting, ERC-20
allowance checks and the approve-then-swap sequence for you.

Examples:
  swapflow quote 1 ETH to USDC
  swapflow swap 0.5 ETH to USDC --network eip155:137
  swapflow list-tokens
  swapflow balances
  swapflow status <tx-hash>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("network", "", "Network ID (e.g. eip155:1), overrides config")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
