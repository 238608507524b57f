package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"metaregistryCheck/internal/config"
	"metaregistryCheck/internal/conformance"
	"metaregistryCheck/internal/fixtures"
	"metaregistryCheck/internal/metrics"
	"metaregistryCheck/internal/model"
	"metaregistryCheck/internal/runner"
	"metaregistryCheck/internal/storage"
	"metaregistryCheck/internal/storage/postgres"
)

func runSuites(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRun(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	suiteNames := cfg.Suites
	if len(suiteNames) == 0 {
		suiteNames = conformance.AllSuites
	}

	var manifest fixtures.Manifest
	if cfg.PoolsFile != "" {
		if manifest, err = fixtures.LoadManifest(cfg.PoolsFile); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		shutdown := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer shutdown()
	}

	sess, err := openSession(ctx, cfg.Chain, m, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	bound, err := sess.bindContracts(ctx, cfg.Addresses)
	if err != nil {
		return err
	}

	suites := make([]conformance.Suite, 0, len(suiteNames))
	for _, name := range suiteNames {
		suite, err := bound.suite(name)
		if err != nil {
			return err
		}
		if pools, ok := manifest[name]; ok {
			suite.Pools = fixtures.StaticPools(pools)
		}
		suites = append(suites, suite)
	}

	f, err := newFilter(cfg.Filter, bound.tokens)
	if err != nil {
		return err
	}
	checker := conformance.NewChecker(bound.metaRegistry, f, m, logger)

	sinks := storage.Multi{storage.NewJsonlStorage(cfg.Out)}
	var runs runner.RunRecorder
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
		runs = store
	}

	r := runner.NewRunner(runner.RunConfig{
		ChainID:           sess.chainID,
		BlockNumber:       sess.blockNumber,
		MetaRegistry:      bound.addresses.MetaRegistry,
		Suites:            suites,
		BatchSize:         cfg.BatchSize,
		Limit:             cfg.Limit,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
	}, checker, sinks, runs, logger)

	logger.Info("run start",
		zap.String("rpc", cfg.Chain.RPCURL),
		zap.Uint64("chain_id", sess.chainID),
		zap.Uint64("block", sess.blockNumber),
		zap.String("metaregistry", bound.addresses.MetaRegistry.Hex()),
		zap.Strings("suites", suiteNames),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Uint64("limit", cfg.Limit),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	run, err := r.Run(ctx)
	if err != nil {
		return err
	}
	if run.Failed() {
		return fmt.Errorf("run %s: %d failed, %d errored", run.ID, run.Totals[model.OutcomeFail], run.Totals[model.OutcomeError])
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
