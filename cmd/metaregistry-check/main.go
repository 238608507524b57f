package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"metaregistryCheck/internal/conformance"
	"metaregistryCheck/internal/curve"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "metaregistry-check",
		Short:        "Check metaregistry virtual prices against the underlying registries",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run conformance suites over every registered pool",
		RunE:  runSuites,
	}

	addChainFlags(runCmd.Flags())
	addAddressFlags(runCmd.Flags())
	addFilterFlags(runCmd.Flags())
	runCmd.Flags().StringSlice("suite", nil, "suites to run (repeatable), default all of "+suiteList())
	runCmd.Flags().String("pools-file", "", "YAML manifest of pools per suite, replaces on-chain enumeration for listed suites")
	runCmd.Flags().Uint64("limit", 0, "maximum pools per suite, 0 means all")
	runCmd.Flags().Uint64("batch-size", 50, "pools per batch")
	runCmd.Flags().String("out", "./data/results.jsonl", "output JSONL path")
	runCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	runCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN, results are also written there when set")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")

	root.AddCommand(runCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Pre-check one pool and compare its virtual price",
		RunE:  runCheck,
	}

	addChainFlags(checkCmd.Flags())
	addAddressFlags(checkCmd.Flags())
	addFilterFlags(checkCmd.Flags())
	checkCmd.Flags().String("suite", conformance.SuiteStableRegistry, "suite whose reference is used, one of "+suiteList())
	checkCmd.Flags().String("pool", "", "pool address")

	root.AddCommand(checkCmd)

	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Print the resolved fixture accounts",
		RunE:  runAccounts,
	}

	addChainFlags(accountsCmd.Flags())
	accountsCmd.Flags().String("address-provider", curve.AddressProviderAddress.Hex(), "address provider")

	root.AddCommand(accountsCmd)

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Tally a results file, exits non-zero when any case failed",
		RunE:  runSummary,
	}

	summaryCmd.Flags().String("in", "./data/results.jsonl", "results JSONL path")
	summaryCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(summaryCmd)

	return root
}

func addChainFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "Ethereum RPC URL")
	flags.Uint64("block", 0, "block to pin every call to, 0 means latest at start")
	flags.Int("max-retries", 5, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addAddressFlags(flags *pflag.FlagSet) {
	flags.String("address-provider", curve.AddressProviderAddress.Hex(), "address provider")
	flags.String("metaregistry", "", "metaregistry address, default from address provider")
	flags.String("stable-registry", "", "stable registry address, default from address provider")
	flags.String("stable-factory", "", "stable factory address, default from address provider")
	flags.String("crypto-registry", "", "crypto registry address, default from address provider")
	flags.String("crypto-factory", "", "crypto factory address, default from address provider")
}

func addFilterFlags(flags *pflag.FlagSet) {
	flags.String("min-total-balance", "100", "raw total balance below which a pool counts as tiny")
	flags.Float64("depeg-rel-tol", 1e-6, "relative tolerance of the skew test")
	flags.Float64("depeg-abs-tol", 0, "absolute tolerance of the skew test")
	flags.String("skew-min-balance", "1", "decimal-adjusted balance below which the smallest coin counts as drained")
}

func suiteList() string {
	return strings.Join(conformance.AllSuites, ", ")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
