package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"metaregistryCheck/internal/filter"
	"metaregistryCheck/internal/fixtures"
)

// EnvPrefix is prepended to every environment variable, e.g. METAREGISTRY_RPC.
const EnvPrefix = "METAREGISTRY"

// ChainConfig selects the node and the block every call is pinned to.
type ChainConfig struct {
	RPCURL       string
	Block        uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

// AddressConfig holds contract addresses. Empty registry addresses are
// resolved from the address provider.
type AddressConfig struct {
	AddressProvider string
	MetaRegistry    string
	StableRegistry  string
	StableFactory   string
	CryptoRegistry  string
	CryptoFactory   string
}

// FilterConfig holds the pool validity thresholds as configured.
type FilterConfig struct {
	MinTotalBalance string
	SkewMinBalance  string
	DepegRelTol     float64
	DepegAbsTol     float64
}

// newViper merges config file, environment variables, and flags.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func chainDefaults(defaults map[string]interface{}) {
	defaults["block"] = uint64(0)
	defaults["max-retries"] = 5
	defaults["retry-backoff"] = 500 * time.Millisecond
	defaults["log-level"] = "info"
}

func addressDefaults(defaults map[string]interface{}) {
	defaults["address-provider"] = "0x0000000022D53366457F9d5E68Ec105046FC4383"
}

func filterDefaults(defaults map[string]interface{}) {
	defaults["min-total-balance"] = "100"
	defaults["skew-min-balance"] = "1"
	defaults["depeg-rel-tol"] = 1e-6
	defaults["depeg-abs-tol"] = 0.0
}

func readChain(v *viper.Viper) ChainConfig {
	return ChainConfig{
		RPCURL:       v.GetString("rpc"),
		Block:        v.GetUint64("block"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
	}
}

func readAddresses(v *viper.Viper) AddressConfig {
	return AddressConfig{
		AddressProvider: v.GetString("address-provider"),
		MetaRegistry:    v.GetString("metaregistry"),
		StableRegistry:  v.GetString("stable-registry"),
		StableFactory:   v.GetString("stable-factory"),
		CryptoRegistry:  v.GetString("crypto-registry"),
		CryptoFactory:   v.GetString("crypto-factory"),
	}
}

func readFilter(v *viper.Viper) FilterConfig {
	return FilterConfig{
		MinTotalBalance: v.GetString("min-total-balance"),
		SkewMinBalance:  v.GetString("skew-min-balance"),
		DepegRelTol:     v.GetFloat64("depeg-rel-tol"),
		DepegAbsTol:     v.GetFloat64("depeg-abs-tol"),
	}
}

// Thresholds converts the configured values into filter thresholds.
func (c FilterConfig) Thresholds() (filter.Thresholds, error) {
	th := filter.DefaultThresholds()

	if s := strings.TrimSpace(c.MinTotalBalance); s != "" {
		minTotal, ok := new(big.Int).SetString(s, 10)
		if !ok || minTotal.Sign() < 0 {
			return filter.Thresholds{}, fmt.Errorf("invalid min-total-balance: %q", c.MinTotalBalance)
		}
		th.MinTotalBalance = minTotal
	}
	if s := strings.TrimSpace(c.SkewMinBalance); s != "" {
		skew, err := decimal.NewFromString(s)
		if err != nil || skew.IsNegative() {
			return filter.Thresholds{}, fmt.Errorf("invalid skew-min-balance: %q", c.SkewMinBalance)
		}
		th.SkewMinBalance = skew
	}
	if c.DepegRelTol < 0 || c.DepegAbsTol < 0 {
		return filter.Thresholds{}, fmt.Errorf("depeg tolerances must not be negative")
	}
	th.RelTolerance = c.DepegRelTol
	th.AbsTolerance = c.DepegAbsTol

	return th, nil
}

// Overrides parses the configured registry addresses. Empty entries stay zero.
func (c AddressConfig) Overrides() (fixtures.Addresses, error) {
	var out fixtures.Addresses
	fields := []struct {
		name  string
		value string
		addr  *common.Address
	}{
		{name: "metaregistry", value: c.MetaRegistry, addr: &out.MetaRegistry},
		{name: "stable-registry", value: c.StableRegistry, addr: &out.StableRegistry},
		{name: "stable-factory", value: c.StableFactory, addr: &out.StableFactory},
		{name: "crypto-registry", value: c.CryptoRegistry, addr: &out.CryptoRegistry},
		{name: "crypto-factory", value: c.CryptoFactory, addr: &out.CryptoFactory},
	}
	for _, field := range fields {
		addr, err := ParseAddress(field.value)
		if err != nil {
			return fixtures.Addresses{}, fmt.Errorf("%s: %w", field.name, err)
		}
		*field.addr = addr
	}
	return out, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
