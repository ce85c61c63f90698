package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swapflow/pkg/parser"
)

var noConfirm bool

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap tokens on the active network",
	Long: `Swap tokens through the blockchain API's convert endpoints.

The command fetches a quote, checks the router allowance for the source
token and sends an ERC-20 approval first when the allowance is too low,
then submits the swap transaction.

Examples:
  # Quote, confirm interactively, then swap
  swapflow swap 0.5 ETH to USDC

  # On another network
  swapflow swap 100 USDC to WBTC --network eip155:42161

  # Skip all confirmations
  swapflow swap 1 ETH to USDC --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompts")
}

func runSwap(cmd *cobra.Command, args []string) {
	a, err := buildApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	req, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if err := a.requireWallet(); err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()

	state, err := fetchQuote(ctx, a, req)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !a.jsonOutput {
		displayQuoteDetails(req, state)
	}

	if !noConfirm && !a.jsonOutput {
		if !confirm("Proceed with swap?") {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	// Decide the next on-chain step: approval first when the router
	// allowance does not cover the amount.
	if _, err := a.engine.GetTransaction(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}

	state = a.engine.State()
	if state.FetchError {
		printError(fmt.Errorf("failed to prepare the transaction"))
		os.Exit(1)
	}

	if state.ApprovalTransaction != nil {
		if !a.jsonOutput {
			color.Yellow("\nAn ERC-20 approval is required before this swap.")
		}
		if !noConfirm && !a.jsonOutput {
			if !confirm("Send approval transaction?") {
				fmt.Println("\nSwap cancelled.")
				os.Exit(0)
			}
		}

		// On success this re-runs the quote and transaction build, so the
		// swap transaction is ready afterwards.
		if err := a.engine.SendTransactionForApproval(ctx, state.ApprovalTransaction); err != nil {
			printError(err)
			os.Exit(1)
		}

		state = a.engine.State()
	}

	if state.SwapTransaction == nil {
		printError(fmt.Errorf("no swap transaction available"))
		os.Exit(1)
	}

	hash, err := a.engine.SendTransactionForSwap(ctx, state.SwapTransaction)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if a.jsonOutput {
		output := map[string]interface{}{
			"txHash":       hash,
			"network":      a.network.ID,
			"sourceAmount": req.Amount,
			"sourceToken":  req.SourceSymbol,
			"toToken":      req.ToSymbol,
			"status":       "submitted",
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\n  Transaction: %s\n", color.CyanString(hash))
	fmt.Println("\nYou can check the transaction status using:")
	color.Cyan("  swapflow status %s\n", hash)
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
