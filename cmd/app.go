package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swapflow/config"
	"swapflow/pkg/client"
	"swapflow/pkg/swap"
	"swapflow/pkg/types"
	"swapflow/pkg/wallet"
)

// app bundles everything a command needs: the configured engine, the
// optional signing wallet and the output mode flags.
type app struct {
	cfg        *config.Config
	engine     *swap.Engine
	wallet     *wallet.EVMWallet
	network    types.Network
	logger     *zap.Logger
	jsonOutput bool
	verbose    bool
}

// buildApp loads configuration and wires the engine. The wallet is only
// created when a private key and RPC URL are configured; commands that
// submit transactions check for it explicitly.
func buildApp(cmd *cobra.Command) (*app, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	networkFlag, _ := cmd.Flags().GetString("network")

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	networkID := cfg.NetworkID
	if networkFlag != "" {
		networkID = networkFlag
	}

	network, ok := swap.SupportedNetworks[networkID]
	if !ok {
		return nil, fmt.Errorf("unsupported network %q", networkID)
	}

	logger := newLogger(verbose)

	apiClient := client.NewBlockchainClient(cfg.BaseURL, cfg.ProjectID)

	var notifier swap.Notifier = swap.NopNotifier{}
	if !jsonOutput {
		notifier = newCLINotifier()
	}

	a := &app{
		cfg:        cfg,
		network:    network,
		logger:     logger,
		jsonOutput: jsonOutput,
		verbose:    verbose,
	}

	var engineWallet swap.Wallet
	if cfg.PrivateKey != "" && cfg.RPCURL != "" {
		w, err := wallet.NewEVMWallet(cfg.RPCURL, cfg.PrivateKey, network.ChainID)
		if err != nil {
			return nil, err
		}
		a.wallet = w
		engineWallet = w
	}

	engine, err := swap.New(swap.Options{
		Network:   network,
		API:       apiClient,
		Balances:  apiClient,
		Wallet:    engineWallet,
		Notifier:  notifier,
		Telemetry: zapTelemetry{logger: logger},
		Slippage:  cfg.Slippage,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	if a.wallet != nil {
		engine.SetAccount(&types.Account{
			Address: a.wallet.Address(),
			Type:    types.AccountTypeEOA,
		})
	}

	a.engine = engine
	return a, nil
}

func (a *app) close() {
	if a.wallet != nil {
		a.wallet.Close()
	}
	_ = a.logger.Sync()
}

// requireWallet fails commands that submit transactions when no signer is
// configured.
func (a *app) requireWallet() error {
	if a.wallet == nil {
		return fmt.Errorf("no wallet configured. Set SWAPFLOW_PRIVATE_KEY and SWAPFLOW_RPC_URL to sign transactions")
	}
	return nil
}

// findToken resolves a symbol against the user's balance set first, then
// the network token list.
func (a *app) findToken(symbol string) *types.TokenWithBalance {
	state := a.engine.State()

	for i := range state.MyTokensWithBalance {
		if strings.EqualFold(state.MyTokensWithBalance[i].Symbol, symbol) {
			token := state.MyTokensWithBalance[i]
			return &token
		}
	}
	for i := range state.Tokens {
		if strings.EqualFold(state.Tokens[i].Symbol, symbol) {
			token := state.Tokens[i]
			return &token
		}
	}

	return nil
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}

	return logger
}

// cliNotifier renders engine notifications as terminal output: a spinner
// for loading states, colored lines for outcomes.
type cliNotifier struct {
	spinner *spinner.Spinner
}

func newCLINotifier() *cliNotifier {
	return &cliNotifier{
		spinner: spinner.New(spinner.CharSets[14], 100*time.Millisecond),
	}
}

func (n *cliNotifier) ShowLoading(message string) {
	n.spinner.Suffix = " " + message
	if !n.spinner.Active() {
		n.spinner.Start()
	}
}

func (n *cliNotifier) ShowSuccess(message string) {
	n.stopSpinner()
	color.Green("\n✓ %s", message)
}

func (n *cliNotifier) ShowError(message string) {
	n.stopSpinner()
	color.Red("\n✗ %s", message)
}

func (n *cliNotifier) ShowAlert(displayMessage, debugMessage string) {
	n.stopSpinner()
	color.Yellow("\n! %s (%s)", displayMessage, debugMessage)
}

func (n *cliNotifier) stopSpinner() {
	if n.spinner.Active() {
		n.spinner.Stop()
	}
}

// zapTelemetry records analytics events in the structured log instead of
// shipping them anywhere.
type zapTelemetry struct {
	logger *zap.Logger
}

func (t zapTelemetry) SendEvent(event types.Event) {
	fields := []zap.Field{zap.String("type", event.Type)}
	for k, v := range event.Properties {
		fields = append(fields, zap.String(k, v))
	}
	t.logger.Info("event: "+event.Event, fields...)
}
