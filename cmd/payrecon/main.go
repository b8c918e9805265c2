// payrecon receives Flutterwave, Paystack and OPay payment callbacks and reconciles
// them against orders, payments and stock.
//
// Usage:
//
//	payrecon serve                 Run the webhook, verify and health endpoints
//	payrecon migrate               Create or update the database schema
//	payrecon verify <reference>    Ask the gateways about one reference
//	payrecon health                Probe the database and every gateway once
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

type globalFlags struct {
	configPath string
	verbose    bool
}

func main() {
	var gf globalFlags
	root := &cobra.Command{
		Use:           "payrecon",
		Short:         "Payment webhook reconciliation for Flutterwave, Paystack and OPay",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&gf.configPath, "config", "c", "", "config file (default payrecon.yaml)")
	root.PersistentFlags().BoolVarP(&gf.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(serveCmd(&gf))
	root.AddCommand(migrateCmd(&gf))
	root.AddCommand(verifyCmd(&gf))
	root.AddCommand(healthCmd(&gf))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
