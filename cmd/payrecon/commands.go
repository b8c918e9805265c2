package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/gatewayapi"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/store"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/httpcore"
)

func serveCmd(gf *globalFlags) *cobra.Command {
	var (
		port    int
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook, verify and health endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(gf)
			if err != nil {
				return err
			}
			defer a.close()

			if migrate {
				if err := store.Migrate(a.store.DB()); err != nil {
					return err
				}
			}
			if port != 0 {
				a.cfg.Server.Port = port
			}

			srv := httpcore.New(&httpcore.Config{
				Name:         "payrecon",
				Port:         a.cfg.Server.Port,
				Verbose:      a.cfg.Server.Verbose,
				MaxBodyBytes: a.cfg.Server.MaxBodyBytes,
			}, a.logger)
			a.handler().Mount(srv.Router)

			a.logger.Info("payrecon ready",
				"port", a.cfg.Server.Port,
				"environment", a.cfg.Environment,
				"signature_mode", a.cfg.SignatureMode().String(),
				"opay_cross_verify", a.cfg.CrossVerify(),
				"database", a.cfg.Database.Driver,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "migrate the schema before serving")
	return cmd
}

func migrateCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(gf)
			if err != nil {
				return err
			}
			defer a.close()

			if err := store.Migrate(a.store.DB()); err != nil {
				return err
			}
			a.logger.Info("schema migrated", "driver", a.cfg.Database.Driver)
			return nil
		},
	}
}

func verifyCmd(gf *globalFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "verify <reference>",
		Short: "Ask the configured gateways about one reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(gf)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			v, err := a.chain.Verify(ctx, args[0])
			switch {
			case errors.Is(err, gatewayapi.ErrNotFound):
				return fmt.Errorf("%s: no configured gateway knows this reference", args[0])
			case err != nil:
				return err
			}
			return printJSON(cmd, v)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	return cmd
}

func healthCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the database and every gateway once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(gf)
			if err != nil {
				return err
			}
			defer a.close()

			report := a.health().Check(cmd.Context())
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			if report.Status != "ok" {
				return fmt.Errorf("status %s", report.Status)
			}
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
