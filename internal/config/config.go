// Package config loads the service configuration: defaults, then an optional YAML
// file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Moduloscript/pharmacy-project-sub004/internal/normalize"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/signature"
	"github.com/Moduloscript/pharmacy-project-sub004/internal/store"
)

// DefaultConfigFile is read when no path is given.
const DefaultConfigFile = "payrecon.yaml"

// EnvProduction is the environment name that turns on enforcement by default.
const EnvProduction = "production"

type ServerConfig struct {
	Port         int   `yaml:"port"`
	Verbose      bool  `yaml:"verbose"`
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

type FlutterwaveConfig struct {
	SecretKey string `yaml:"secret_key"`
	// WebhookSecret is the "secret hash" configured on the dashboard.
	WebhookSecret string `yaml:"webhook_secret"`
	BaseURL       string `yaml:"base_url"`
}

type PaystackConfig struct {
	// SecretKey both authenticates API calls and signs webhooks.
	SecretKey string `yaml:"secret_key"`
	BaseURL   string `yaml:"base_url"`
}

type OPayConfig struct {
	SecretKey  string `yaml:"secret_key"`
	MerchantID string `yaml:"merchant_id"`
	BaseURL    string `yaml:"base_url"`
}

type GatewaysConfig struct {
	Flutterwave FlutterwaveConfig `yaml:"flutterwave"`
	Paystack    PaystackConfig    `yaml:"paystack"`
	OPay        OPayConfig        `yaml:"opay"`
	// RPS and Burst bound outbound calls per gateway.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
	// ItemsUnit maps a gateway slug to "major" or "minor" for item prices in metadata.
	ItemsUnit map[string]string `yaml:"items_unit"`
}

// Config is the full service configuration.
type Config struct {
	Environment string       `yaml:"environment"`
	AppBaseURL  string       `yaml:"app_base_url"`
	Server      ServerConfig `yaml:"server"`
	Database    store.Config `yaml:"database"`
	// SignatureModeName is "enforce" or "bypass". Empty derives it from Environment.
	// Bypass is rejected in production.
	SignatureModeName string `yaml:"signature_mode"`
	// CrossVerifyOPay overrides the default of cross-verifying OPay in production.
	CrossVerifyOPay *bool          `yaml:"cross_verify"`
	HealthCacheTTL  time.Duration  `yaml:"health_cache_ttl"`
	Gateways        GatewaysConfig `yaml:"gateways"`
}

// env lists the overrides read from the environment. Unset variables leave the
// loaded value alone.
type env struct {
	Environment       string  `envconfig:"APP_ENV"`
	AppBaseURL        string  `envconfig:"APP_BASE_URL"`
	Port              int     `envconfig:"PORT"`
	DatabaseDriver    string  `envconfig:"DATABASE_DRIVER"`
	DatabaseDSN       string  `envconfig:"DATABASE_DSN"`
	SignatureMode     string  `envconfig:"SIGNATURE_MODE"`
	CrossVerify       *bool   `envconfig:"OPAY_CROSS_VERIFY"`
	FlutterwaveSecret string  `envconfig:"FLUTTERWAVE_SECRET_KEY"`
	FlutterwaveHash   string  `envconfig:"FLUTTERWAVE_WEBHOOK_SECRET"`
	FlutterwaveURL    string  `envconfig:"FLUTTERWAVE_BASE_URL"`
	PaystackSecret    string  `envconfig:"PAYSTACK_SECRET_KEY"`
	PaystackURL       string  `envconfig:"PAYSTACK_BASE_URL"`
	OPaySecret        string  `envconfig:"OPAY_SECRET_KEY"`
	OPayMerchantID    string  `envconfig:"OPAY_MERCHANT_ID"`
	OPayURL           string  `envconfig:"OPAY_BASE_URL"`
	GatewayRPS        float64 `envconfig:"GATEWAY_RPS"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			MaxBodyBytes: 1 << 20,
		},
		Database: store.Config{
			Driver: "sqlite",
			DSN:    "payrecon.db",
		},
		HealthCacheTTL: 30 * time.Second,
		Gateways: GatewaysConfig{
			RPS:   5,
			Burst: 5,
			ItemsUnit: map[string]string{
				normalize.Flutterwave.Slug(): "major",
				normalize.Paystack.Slug():    "minor",
				normalize.OPay.Slug():        "minor",
			},
		},
	}
}

// Load reads path over the defaults, then applies environment overrides. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Environment, e.Environment)
	set(&c.AppBaseURL, e.AppBaseURL)
	set(&c.Database.Driver, e.DatabaseDriver)
	set(&c.Database.DSN, e.DatabaseDSN)
	set(&c.SignatureModeName, e.SignatureMode)
	set(&c.Gateways.Flutterwave.SecretKey, e.FlutterwaveSecret)
	set(&c.Gateways.Flutterwave.WebhookSecret, e.FlutterwaveHash)
	set(&c.Gateways.Flutterwave.BaseURL, e.FlutterwaveURL)
	set(&c.Gateways.Paystack.SecretKey, e.PaystackSecret)
	set(&c.Gateways.Paystack.BaseURL, e.PaystackURL)
	set(&c.Gateways.OPay.SecretKey, e.OPaySecret)
	set(&c.Gateways.OPay.MerchantID, e.OPayMerchantID)
	set(&c.Gateways.OPay.BaseURL, e.OPayURL)
	if e.Port != 0 {
		c.Server.Port = e.Port
	}
	if e.GatewayRPS != 0 {
		c.Gateways.RPS = e.GatewayRPS
	}
	if e.CrossVerify != nil {
		c.CrossVerifyOPay = e.CrossVerify
	}
	return nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q must be sqlite or postgres", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.SignatureModeName != "" {
		m, err := signature.ParseMode(c.SignatureModeName)
		switch {
		case err != nil:
			errs = append(errs, err)
		case m == signature.Bypass && c.IsProduction():
			errs = append(errs, errors.New("signature_mode bypass is not allowed in production"))
		}
	}
	if c.HealthCacheTTL < 0 {
		errs = append(errs, errors.New("health_cache_ttl must not be negative"))
	}
	for slug, unit := range c.Gateways.ItemsUnit {
		if !strings.EqualFold(unit, "major") && !strings.EqualFold(unit, "minor") {
			errs = append(errs, fmt.Errorf("gateways.items_unit.%s: %q must be major or minor", slug, unit))
		}
	}
	return errors.Join(errs...)
}

// IsProduction reports whether Environment names production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), EnvProduction)
}

// SignatureMode resolves the signature posture. Production always enforces; elsewhere
// the explicit setting wins and the default is Bypass.
func (c *Config) SignatureMode() signature.Mode {
	if c.IsProduction() {
		return signature.Enforce
	}
	if c.SignatureModeName != "" {
		if m, err := signature.ParseMode(c.SignatureModeName); err == nil {
			return m
		}
		return signature.Enforce
	}
	return signature.Bypass
}

// CrossVerify reports whether OPay callbacks are re-checked against the status API.
func (c *Config) CrossVerify() bool {
	if c.CrossVerifyOPay != nil {
		return *c.CrossVerifyOPay
	}
	return c.IsProduction()
}

// Normalize builds the normalizer configuration.
func (c *Config) Normalize() normalize.Config {
	nc := normalize.DefaultConfig()
	for _, g := range normalize.Gateways {
		if u, ok := c.Gateways.ItemsUnit[g.Slug()]; ok {
			nc.ItemsUnit[g] = normalize.ParseUnit(u)
		}
	}
	return nc
}
