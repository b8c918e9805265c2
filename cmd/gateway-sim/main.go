// gateway-sim serves fake Flutterwave, Paystack and OPay APIs from one port and
// pushes signed callbacks at a payrecon instance.
//
// Point payrecon's gateways.*.base_url at this process and pass its /webhook base
// as --webhook-url. Seed transactions with --seed-file or POST /admin/transactions.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/gatewaysim"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/httpcore"
)

// simEnv is read with the SIM_ prefix, e.g. SIM_PAYSTACK_KEY.
type simEnv struct {
	Port            int    `envconfig:"PORT"`
	FlutterwaveKey  string `envconfig:"FLUTTERWAVE_KEY" default:"FLWSECK_TEST-sim"`
	FlutterwaveHash string `envconfig:"FLUTTERWAVE_HASH" default:"flw-sim-hash"`
	PaystackKey     string `envconfig:"PAYSTACK_KEY" default:"sk_test_sim"`
	OPayKey         string `envconfig:"OPAY_KEY" default:"OPAYPRV_sim"`
	OPayMerchantID  string `envconfig:"OPAY_MERCHANT_ID" default:"256600000000001"`
}

func main() {
	var (
		port        int
		webhookURL  string
		seedFile    string
		verbose     bool
		autoDeliver bool
	)

	cmd := &cobra.Command{
		Use:           "gateway-sim",
		Short:         "Simulated Flutterwave, Paystack and OPay APIs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var env simEnv
			if err := envconfig.Process("sim", &env); err != nil {
				return fmt.Errorf("reading environment: %w", err)
			}
			if port == 0 {
				port = env.Port
			}
			if port == 0 {
				port = 12120
			}

			logger := httpcore.NewLogger(verbose)
			seeds, err := gatewaysim.LoadSeeds(seedFile)
			if err != nil {
				return err
			}

			sim, err := gatewaysim.New(gatewaysim.Config{
				Secrets: gatewaysim.Secrets{
					FlutterwaveKey:  env.FlutterwaveKey,
					FlutterwaveHash: env.FlutterwaveHash,
					PaystackKey:     env.PaystackKey,
					OPayKey:         env.OPayKey,
					OPayMerchantID:  env.OPayMerchantID,
				},
				WebhookURL:  webhookURL,
				AutoDeliver: autoDeliver && webhookURL != "",
				Seeds:       seeds,
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			srv := httpcore.New(&httpcore.Config{Name: "gateway-sim", Port: port, Verbose: verbose}, logger)
			sim.Mount(srv.Router, srv.Middleware())

			logger.Info("gateway-sim ready",
				"port", port,
				"webhook_url", webhookURL,
				"seeded", len(seeds),
				"auto_deliver", autoDeliver && webhookURL != "",
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Serve(ctx)
		},
	}

	f := cmd.Flags()
	f.IntVar(&port, "port", 0, "HTTP listen port (default $SIM_PORT or 12120)")
	f.StringVar(&webhookURL, "webhook-url", "", "payrecon base URL callbacks are posted to")
	f.StringVar(&seedFile, "seed-file", "", "YAML file of transactions to preload")
	f.BoolVar(&verbose, "verbose", false, "debug logging")
	f.BoolVar(&autoDeliver, "auto-deliver", true, "post callbacks as soon as they are queued")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
