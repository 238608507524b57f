package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// RunConfig holds configuration for the run command.
type RunConfig struct {
	Chain             ChainConfig
	Addresses         AddressConfig
	Filter            FilterConfig
	Suites            []string
	PoolsFile         string
	Limit             uint64
	BatchSize         uint64
	Out               string
	Checkpoint        string
	CheckpointEnabled bool
	PGDSN             string
	MetricsAddr       string
	LogLevel          string
}

// LoadRun merges config file, environment variables, and flags into RunConfig.
func LoadRun(cfgFile string, flags *pflag.FlagSet) (RunConfig, error) {
	defaults := map[string]interface{}{
		"batch-size":         uint64(50),
		"out":                "./data/results.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
	}
	chainDefaults(defaults)
	addressDefaults(defaults)
	filterDefaults(defaults)

	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return RunConfig{}, err
	}

	cfg := RunConfig{
		Chain:             readChain(v),
		Addresses:         readAddresses(v),
		Filter:            readFilter(v),
		Suites:            getStringSlice(v, "suite"),
		PoolsFile:         v.GetString("pools-file"),
		Limit:             v.GetUint64("limit"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		PGDSN:             v.GetString("pg-dsn"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}

	if cfg.BatchSize == 0 {
		return RunConfig{}, fmt.Errorf("batch-size must be greater than zero")
	}
	return cfg, nil
}

// CheckConfig holds configuration for the check command.
type CheckConfig struct {
	Chain     ChainConfig
	Addresses AddressConfig
	Filter    FilterConfig
	Suite     string
	Pool      string
	LogLevel  string
}

// LoadCheck merges config file, environment variables, and flags into CheckConfig.
func LoadCheck(cfgFile string, flags *pflag.FlagSet) (CheckConfig, error) {
	defaults := map[string]interface{}{
		"suite": "stable_registry",
	}
	chainDefaults(defaults)
	addressDefaults(defaults)
	filterDefaults(defaults)

	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return CheckConfig{}, err
	}

	return CheckConfig{
		Chain:     readChain(v),
		Addresses: readAddresses(v),
		Filter:    readFilter(v),
		Suite:     v.GetString("suite"),
		Pool:      v.GetString("pool"),
		LogLevel:  v.GetString("log-level"),
	}, nil
}

// AccountsConfig holds configuration for the accounts command.
type AccountsConfig struct {
	Chain           ChainConfig
	AddressProvider string
	LogLevel        string
}

func LoadAccounts(cfgFile string, flags *pflag.FlagSet) (AccountsConfig, error) {
	defaults := map[string]interface{}{}
	chainDefaults(defaults)
	addressDefaults(defaults)

	v, err := newViper(cfgFile, flags, defaults)
	if err != nil {
		return AccountsConfig{}, err
	}

	return AccountsConfig{
		Chain:           readChain(v),
		AddressProvider: v.GetString("address-provider"),
		LogLevel:        v.GetString("log-level"),
	}, nil
}

// SummaryConfig holds configuration for the summary command.
type SummaryConfig struct {
	In       string
	LogLevel string
}

func LoadSummary(cfgFile string, flags *pflag.FlagSet) (SummaryConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"in":        "./data/results.jsonl",
		"log-level": "info",
	})
	if err != nil {
		return SummaryConfig{}, err
	}

	return SummaryConfig{
		In:       v.GetString("in"),
		LogLevel: v.GetString("log-level"),
	}, nil
}
