package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "jonasbar", cfg.StoreName)
	assert.Equal(t, "Shot", cfg.ProductName)
	assert.Equal(t, "USDC", cfg.CurrencyLabel)
	assert.Equal(t, 300*time.Millisecond, cfg.PourDuration)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "wss://api.mainnet-beta.solana.com", cfg.WSURL)
	assert.False(t, cfg.SimulateHardware)
}

func TestLoad_NormalizesStoreName(t *testing.T) {
	t.Setenv("BAR_NAME", "  JonasBar ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "jonasbar", cfg.StoreName, "lowercased so the account derivation agrees with checkout")
}

func TestLoad_DerivesWSURL(t *testing.T) {
	t.Setenv("RPC_URL", "http://localhost:8899")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8899", cfg.WSURL)

	t.Setenv("WS_URL", "wss://elsewhere.example")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "wss://elsewhere.example", cfg.WSURL, "explicit WS_URL wins")
}

func TestLoad_Rejections(t *testing.T) {
	t.Run("empty store name", func(t *testing.T) {
		t.Setenv("BAR_NAME", "   ")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("store name too long", func(t *testing.T) {
		t.Setenv("BAR_NAME", "a-store-name-well-over-the-32-byte-limit")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("non-positive refresh", func(t *testing.T) {
		t.Setenv("REFRESH_INTERVAL", "0s")
		_, err := Load()
		assert.Error(t, err)
	})
}
