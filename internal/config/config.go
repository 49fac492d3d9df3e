// Package config loads the process configuration from the environment. It is
// read once at startup; nothing hot-reloads.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full configuration surface of the daemon.
type Config struct {
	// StoreName identifies the fulfillment point; it seeds the on-chain
	// account derivation. Lowercased at load so the derivation agrees with
	// the checkout app.
	StoreName string `env:"BAR_NAME" envDefault:"jonasbar"`
	// ProductName is the single product this point dispenses.
	ProductName string `env:"PRODUCT_NAME" envDefault:"Shot"`
	// CurrencyLabel is appended to the rendered price.
	CurrencyLabel string `env:"CURRENCY_LABEL" envDefault:"USDC"`

	RPCURL string `env:"RPC_URL" envDefault:"https://api.mainnet-beta.solana.com"`
	// WSURL defaults to the RPC URL with the scheme swapped to websocket.
	WSURL     string `env:"WS_URL"`
	ProgramID string `env:"PROGRAM_ID" envDefault:"BUYuxRfhCMWavaUWxhGtPP3ksKEDZxCD5gzknk3JfAya"`
	// PrivateKey is the delivery signer, base58 or solana-keygen JSON array.
	// Left empty, the daemon runs with an ephemeral key that cannot land
	// acknowledgments; useful only on a bench.
	PrivateKey string `env:"PRIVATE_KEY"`

	// PourDuration is how long the actuator holds the press position.
	PourDuration    time.Duration `env:"POUR_DURATION" envDefault:"300ms"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"30s"`

	// SimulateHardware swaps the periph-backed rig for the simulated one.
	SimulateHardware bool   `env:"SIMULATE_HARDWARE" envDefault:"false"`
	ServoPin         string `env:"SERVO_PIN" envDefault:"GPIO14"`
	CuePin           string `env:"CUE_PIN" envDefault:"GPIO23"`

	// OpsAddr is the listen address of the operator HTTP surface; empty
	// disables it.
	OpsAddr string `env:"OPS_ADDR" envDefault:":8089"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// Load parses and normalizes the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.StoreName = strings.ToLower(strings.TrimSpace(cfg.StoreName))
	if cfg.StoreName == "" {
		return Config{}, fmt.Errorf("BAR_NAME must not be empty")
	}
	if len(cfg.StoreName) > 32 {
		return Config{}, fmt.Errorf("BAR_NAME exceeds 32 bytes")
	}
	if cfg.ProductName == "" {
		return Config{}, fmt.Errorf("PRODUCT_NAME must not be empty")
	}
	if cfg.WSURL == "" {
		cfg.WSURL = deriveWSURL(cfg.RPCURL)
	}
	if cfg.RefreshInterval <= 0 {
		return Config{}, fmt.Errorf("REFRESH_INTERVAL must be positive")
	}
	return cfg, nil
}

func deriveWSURL(rpcURL string) string {
	switch {
	case strings.HasPrefix(rpcURL, "https://"):
		return "wss://" + strings.TrimPrefix(rpcURL, "https://")
	case strings.HasPrefix(rpcURL, "http://"):
		return "ws://" + strings.TrimPrefix(rpcURL, "http://")
	default:
		return rpcURL
	}
}
