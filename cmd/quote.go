package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"swapflow/pkg/parser"
	"swapflow/pkg/swap"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token>",
	Short: "Fetch a conversion quote for a token pair",
	Long: `Fetch a conversion quote for a pair without sending anything. Shows the
expected destination amount, the fiat gas estimate, price impact, maximum
slippage and the provider fee.

Examples:
  swapflow quote 1 ETH to USDC
  swapflow quote 100 USDC to WBTC --network eip155:42161`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) {
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

	if a.jsonOutput {
		printQuoteJSON(a, req, state)
		return
	}

	displayQuoteDetails(req, state)
}

// fetchQuote runs the selection sequence: initialize, resolve both tokens,
// set the amount and refresh the quote.
func fetchQuote(ctx context.Context, a *app, req *parser.SwapRequest) (swap.State, error) {
	if err := a.engine.InitializeState(ctx); err != nil {
		return swap.State{}, err
	}
	if err := a.engine.GetTokenList(ctx); err != nil {
		return swap.State{}, err
	}

	sourceToken := a.findToken(req.SourceSymbol)
	if sourceToken == nil {
		return swap.State{}, fmt.Errorf("token %s not found on %s (try: swapflow list-tokens)", req.SourceSymbol, a.network.Name)
	}
	toToken := a.findToken(req.ToSymbol)
	if toToken == nil {
		return swap.State{}, fmt.Errorf("token %s not found on %s (try: swapflow list-tokens)", req.ToSymbol, a.network.Name)
	}

	if err := a.engine.SetSourceToken(ctx, sourceToken); err != nil {
		return swap.State{}, err
	}
	a.engine.SetSourceTokenAmount(ctx, req.Amount)
	if err := a.engine.SetToToken(ctx, toToken); err != nil {
		return swap.State{}, err
	}

	if err := a.engine.SwapTokens(ctx); err != nil {
		return swap.State{}, err
	}

	state := a.engine.State()
	if state.InputError != "" {
		return state, fmt.Errorf("%s", state.InputError)
	}
	if state.ToTokenAmount == "" {
		return state, fmt.Errorf("no quote available for %s to %s", req.SourceSymbol, req.ToSymbol)
	}

	return state, nil
}

func printQuoteJSON(a *app, req *parser.SwapRequest, state swap.State) {
	output := map[string]interface{}{
		"network":       a.network.ID,
		"sourceAmount":  state.SourceTokenAmount,
		"sourceToken":   req.SourceSymbol,
		"toAmount":      state.ToTokenAmount,
		"toToken":       req.ToSymbol,
		"gasPriceInUSD": state.GasPriceInUSD,
		"priceImpact":   state.PriceImpact,
		"maxSlippage":   state.MaxSlippage,
		"providerFee":   state.ProviderFee,
		"slippage":      state.Slippage,
	}
	jsonData, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println(string(jsonData))
}

func displayQuoteDetails(req *parser.SwapRequest, state swap.State) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:          %s %s\n", state.SourceTokenAmount, color.YellowString(req.SourceSymbol))
	fmt.Printf("  To:            ~%s %s\n", state.ToTokenAmount, color.YellowString(req.ToSymbol))
	fmt.Printf("  Network Cost:  $%.4f\n", state.GasPriceInUSD)
	fmt.Printf("  Price Impact:  %.4f%%\n", state.PriceImpact)
	fmt.Printf("  Max Slippage:  %.6f %s (%.1f%%)\n", state.MaxSlippage, req.SourceSymbol, state.Slippage)
	fmt.Printf("  Provider Fee:  %s %s\n", state.ProviderFee, req.SourceSymbol)

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
