package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoundingSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		viper.Reset()
		s, err := LoadRoundingSettings()
		require.NoError(t, err)
		assert.Equal(t, int64(500), s.Multiple)
		assert.Equal(t, PolicyNone, s.DefaultPolicy)
	})

	t.Run("overrides", func(t *testing.T) {
		viper.Reset()
		viper.Set("rounding.multiple", 1000)
		viper.Set("rounding.default_policy", "to_wadiah")
		s, err := LoadRoundingSettings()
		require.NoError(t, err)
		assert.Equal(t, int64(1000), s.Multiple)
		assert.Equal(t, PolicyToWadiah, s.DefaultPolicy)
	})

	t.Run("zero multiple", func(t *testing.T) {
		viper.Reset()
		viper.Set("rounding.multiple", 0)
		_, err := LoadRoundingSettings()
		assert.Error(t, err)
	})

	t.Run("unknown policy", func(t *testing.T) {
		viper.Reset()
		viper.Set("rounding.default_policy", "round_up")
		_, err := LoadRoundingSettings()
		assert.Error(t, err)
	})
	viper.Reset()
}

func TestLoadCheckoutConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := LoadCheckoutConfig()
	require.NoError(t, err)
	assert.Equal(t, "wadiah:reconciliation", cfg.ReconciliationKey)
	assert.Equal(t, int64(100), cfg.ReconciliationListMax)
	assert.Equal(t, int64(500), cfg.Rounding.Multiple)
}

func TestLoadMidtransConfig(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("midtrans.server_key", "SB-Mid-server-xyz")

	cfg := LoadMidtransConfig()
	assert.Equal(t, "SB-Mid-server-xyz", cfg.ServerKey)
	assert.False(t, cfg.Production)
	assert.Equal(t, "wadiah:gateway:", cfg.IntentPrefix)
}
