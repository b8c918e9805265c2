package main

import (
	"fmt"
	"log/slog"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/config"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/gatewayapi"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/guard"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/inventory"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/reconcile"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/store"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/webhook"
	"github.com/Moduloscript/pharmacy-project-sub004/pkg/httpcore"
)

// app holds everything the commands share.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store

	flutterwave *gatewayapi.Flutterwave
	paystack    *gatewayapi.Paystack
	opay        *gatewayapi.OPay
	chain       *gatewayapi.Chain
}

func loadConfig(gf *globalFlags) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(gf.configPath)
	if err != nil {
		return nil, nil, err
	}
	if gf.verbose {
		cfg.Server.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := httpcore.NewLogger(cfg.Server.Verbose)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// newApp loads configuration and opens the database. Callers must call close.
func newApp(gf *globalFlags) (*app, error) {
	cfg, logger, err := loadConfig(gf)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	gw := cfg.Gateways
	opts := func(base string) gatewayapi.Options {
		return gatewayapi.Options{BaseURL: base, RPS: gw.RPS, Burst: gw.Burst}
	}
	a := &app{
		cfg:         cfg,
		logger:      logger,
		store:       store.New(db),
		flutterwave: gatewayapi.NewFlutterwave(gw.Flutterwave.SecretKey, opts(gw.Flutterwave.BaseURL)),
		paystack:    gatewayapi.NewPaystack(gw.Paystack.SecretKey, opts(gw.Paystack.BaseURL)),
		opay:        gatewayapi.NewOPay(gw.OPay.SecretKey, gw.OPay.MerchantID, opts(gw.OPay.BaseURL)),
	}
	a.chain = gatewayapi.NewChain(logger, a.flutterwave, a.paystack, a.opay)
	return a, nil
}

func (a *app) close() {
	if sqlDB, err := a.store.DB().DB(); err == nil {
		sqlDB.Close()
	}
}

func (a *app) health() *webhook.Health {
	return webhook.NewHealth(webhook.HealthOptions{
		Queriers:   a.chain.Queriers(),
		Production: a.cfg.IsProduction(),
		DB:         a.store,
		TTL:        a.cfg.HealthCacheTTL,
		Logger:     a.logger,
	})
}

// handler wires the reconciliation pipeline behind the HTTP surface.
func (a *app) handler() *webhook.Handler {
	s := a.store
	engine := reconcile.New(s, guard.New(s), inventory.New(s), a.logger)

	// A typed nil would read as "cross-check configured".
	var crossCheck gatewayapi.Querier
	if a.cfg.CrossVerify() {
		if a.opay.Configured() {
			crossCheck = a.opay
		} else {
			a.logger.Warn("opay cross-verification requested but opay credentials are missing; skipping")
		}
	}

	gw := a.cfg.Gateways
	routes := webhook.Routes(webhook.RouteConfig{
		Mode: a.cfg.SignatureMode(),
		Secrets: webhook.Secrets{
			Flutterwave: gw.Flutterwave.WebhookSecret,
			Paystack:    gw.Paystack.SecretKey,
			OPay:        gw.OPay.SecretKey,
		},
		Normalize:      a.cfg.Normalize(),
		OPayCrossCheck: crossCheck,
	})

	return webhook.New(webhook.Options{
		Routes:   routes,
		Engine:   engine,
		Verifier: a.chain,
		Health:   a.health(),
		Logger:   a.logger,
	})
}
