package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Policy is the default way a checkout treats rounding and change.
type Policy string

const (
	PolicyNone      Policy = "none"
	PolicyRoundDown Policy = "round_down"
	PolicyToWadiah  Policy = "to_wadiah"
)

// ParsePolicy converts s into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyNone, PolicyRoundDown, PolicyToWadiah:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown rounding policy %q", s)
}

// RoundingSettings is read-only to the ledger core and passed in explicitly.
type RoundingSettings struct {
	Multiple      int64
	DefaultPolicy Policy
}

// DefaultRoundingSettings rounds to Rp500 and applies no policy.
func DefaultRoundingSettings() RoundingSettings {
	return RoundingSettings{Multiple: 500, DefaultPolicy: PolicyNone}
}

// Validate rejects settings the calculator cannot run with.
func (s RoundingSettings) Validate() error {
	if s.Multiple <= 0 {
		return fmt.Errorf("rounding multiple must be positive, got %d", s.Multiple)
	}
	if _, err := ParsePolicy(string(s.DefaultPolicy)); err != nil {
		return err
	}
	return nil
}

// LoadRoundingSettings reads rounding.* keys.
func LoadRoundingSettings() (RoundingSettings, error) {
	def := DefaultRoundingSettings()
	viper.SetDefault("rounding.multiple", def.Multiple)
	viper.SetDefault("rounding.default_policy", string(def.DefaultPolicy))

	s := RoundingSettings{
		Multiple:      viper.GetInt64("rounding.multiple"),
		DefaultPolicy: Policy(viper.GetString("rounding.default_policy")),
	}
	if err := s.Validate(); err != nil {
		return RoundingSettings{}, err
	}
	return s, nil
}

// CheckoutConfig tunes the orchestrator.
type CheckoutConfig struct {
	Rounding              RoundingSettings
	ReconciliationKey     string
	ReconciliationListMax int64
}

func LoadCheckoutConfig() (*CheckoutConfig, error) {
	rounding, err := LoadRoundingSettings()
	if err != nil {
		return nil, err
	}

	viper.SetDefault("reconciliation.key", "wadiah:reconciliation")
	viper.SetDefault("reconciliation.list_max", 100)

	return &CheckoutConfig{
		Rounding:              rounding,
		ReconciliationKey:     viper.GetString("reconciliation.key"),
		ReconciliationListMax: viper.GetInt64("reconciliation.list_max"),
	}, nil
}

// MidtransConfig holds the online payment gateway credentials.
type MidtransConfig struct {
	ServerKey    string
	Production   bool
	IntentTTL    time.Duration
	IntentPrefix string
	OrderPrefix  string
}

func LoadMidtransConfig() *MidtransConfig {
	viper.SetDefault("midtrans.production", false)
	viper.SetDefault("midtrans.intent_ttl", 24*time.Hour)
	viper.SetDefault("midtrans.intent_prefix", "wadiah:gateway:")
	viper.SetDefault("midtrans.order_prefix", "LNDRY")

	return &MidtransConfig{
		ServerKey:    viper.GetString("midtrans.server_key"),
		Production:   viper.GetBool("midtrans.production"),
		IntentTTL:    viper.GetDuration("midtrans.intent_ttl"),
		IntentPrefix: viper.GetString("midtrans.intent_prefix"),
		OrderPrefix:  viper.GetString("midtrans.order_prefix"),
	}
}

// StorageDriver picks the ledger backend: "postgres" or "memory".
func StorageDriver() string {
	viper.SetDefault("storage.driver", "postgres")
	return viper.GetString("storage.driver")
}
