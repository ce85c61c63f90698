package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var waitForReceipt bool

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a submitted transaction",
	Long: `Check whether a transaction is pending, succeeded or failed.

Examples:
  swapflow status 0x1234...abcd
  swapflow status 0x1234...abcd --wait`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&waitForReceipt, "wait", "w", false, "Block until the transaction is mined")
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]

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

	var status string
	if waitForReceipt {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		if !a.jsonOutput {
			s.Suffix = " Waiting for transaction to be mined..."
			s.Start()
		}

		ok, err := a.wallet.WaitMined(ctx, txHash)
		if !a.jsonOutput {
			s.Stop()
		}
		if err != nil {
			printError(err)
			os.Exit(1)
		}

		status = "failed"
		if ok {
			status = "success"
		}
	} else {
		status, err = a.wallet.TransactionStatus(ctx, txHash)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	if a.jsonOutput {
		output := map[string]interface{}{
			"txHash":  txHash,
			"network": a.network.ID,
			"status":  status,
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Transaction: %s\n", color.CyanString(txHash))
	fmt.Printf("  Network:     %s\n", a.network.Name)
	fmt.Printf("  Status:      %s\n", coloredStatus(status))

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredStatus(status string) string {
	switch status {
	case "success":
		return color.GreenString(strings.ToUpper(status))
	case "pending":
		return color.YellowString(strings.ToUpper(status))
	case "failed":
		return color.RedString(strings.ToUpper(status))
	default:
		return status
	}
}
