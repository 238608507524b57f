package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.Uint64("block", 0, "")
	flags.String("metaregistry", "", "")
	flags.StringSlice("suite", nil, "")
	flags.Uint64("batch-size", 50, "")
	flags.Uint64("limit", 0, "")
	flags.String("min-total-balance", "100", "")
	flags.Float64("depeg-rel-tol", 1e-6, "")
	flags.Duration("retry-backoff", 500*time.Millisecond, "")
	return flags
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadRunDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadRun("", runFlags())
	require.NoError(t, err)

	assert.Equal(t, uint64(50), cfg.BatchSize)
	assert.Equal(t, "./data/results.jsonl", cfg.Out)
	assert.True(t, cfg.CheckpointEnabled)
	assert.Equal(t, 5, cfg.Chain.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Chain.RetryBackoff)
	assert.Equal(t, "0x0000000022D53366457F9d5E68Ec105046FC4383", cfg.Addresses.AddressProvider)
	assert.Empty(t, cfg.Suites)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadRunPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfgFile := filepath.Join(dir, "check.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("rpc: http://file:8545\nlimit: 7\nbatch-size: 20\nsuite: [stable_registry, crypto_factory]\n"), 0o644))

	t.Setenv("METAREGISTRY_LIMIT", "9")
	t.Setenv("METAREGISTRY_PG_DSN", "postgres://env")

	flags := runFlags()
	require.NoError(t, flags.Parse([]string{"--batch-size=5"}))

	cfg, err := LoadRun(cfgFile, flags)
	require.NoError(t, err)

	assert.Equal(t, "http://file:8545", cfg.Chain.RPCURL)
	assert.Equal(t, uint64(9), cfg.Limit)
	assert.Equal(t, uint64(5), cfg.BatchSize)
	assert.Equal(t, "postgres://env", cfg.PGDSN)
	assert.Equal(t, []string{"stable_registry", "crypto_factory"}, cfg.Suites)
}

func TestLoadRunSuiteFlag(t *testing.T) {
	chdir(t, t.TempDir())

	flags := runFlags()
	require.NoError(t, flags.Parse([]string{"--suite", "stable_factory", "--suite", " crypto_registry "}))

	cfg, err := LoadRun("", flags)
	require.NoError(t, err)
	assert.Equal(t, []string{"stable_factory", "crypto_registry"}, cfg.Suites)
}

func TestLoadRunRejectsZeroBatch(t *testing.T) {
	chdir(t, t.TempDir())

	flags := runFlags()
	require.NoError(t, flags.Parse([]string{"--batch-size=0"}))
	_, err := LoadRun("", flags)
	assert.Error(t, err)
}

func TestLoadRunMissingConfigFile(t *testing.T) {
	_, err := LoadRun(filepath.Join(t.TempDir(), "missing.yaml"), runFlags())
	assert.Error(t, err)
}

func TestFilterThresholds(t *testing.T) {
	th, err := FilterConfig{MinTotalBalance: "250", SkewMinBalance: "0.5", DepegRelTol: 1e-4}.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, int64(250), th.MinTotalBalance.Int64())
	assert.Equal(t, "0.5", th.SkewMinBalance.String())
	assert.Equal(t, 1e-4, th.RelTolerance)
	assert.Zero(t, th.AbsTolerance)

	th, err = FilterConfig{}.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, int64(100), th.MinTotalBalance.Int64())

	_, err = FilterConfig{MinTotalBalance: "lots"}.Thresholds()
	assert.Error(t, err)
	_, err = FilterConfig{SkewMinBalance: "-1"}.Thresholds()
	assert.Error(t, err)
	_, err = FilterConfig{DepegAbsTol: -1}.Thresholds()
	assert.Error(t, err)
}

func TestAddressOverrides(t *testing.T) {
	meta := "0xF98B45FA17DE75FB1aD0e7aFD971b0ca00e379fC"
	out, err := AddressConfig{MetaRegistry: meta}.Overrides()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(meta), out.MetaRegistry)
	assert.Equal(t, common.Address{}, out.StableRegistry)

	_, err = AddressConfig{CryptoFactory: "0x123"}.Overrides()
	assert.ErrorContains(t, err, "crypto-factory")
}

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{" 0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7 ", ""})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, common.HexToAddress("0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7"), got[0])

	_, err = ParseAddresses([]string{"pool"})
	assert.Error(t, err)

	zero, err := ParseAddress("")
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, zero)
}

func TestLoadSummary(t *testing.T) {
	chdir(t, t.TempDir())

	flags := pflag.NewFlagSet("summary", pflag.ContinueOnError)
	flags.String("in", "", "")
	require.NoError(t, flags.Parse([]string{"--in=out.jsonl"}))

	cfg, err := LoadSummary("", flags)
	require.NoError(t, err)
	assert.Equal(t, "out.jsonl", cfg.In)
	assert.Equal(t, "info", cfg.LogLevel)
}
