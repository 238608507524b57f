package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"metaregistryCheck/internal/config"
	"metaregistryCheck/internal/conformance"
	"metaregistryCheck/internal/model"
)

func runCheck(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadCheck(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pool, err := config.ParseAddress(cfg.Pool)
	if err != nil {
		return err
	}
	if pool == (common.Address{}) {
		return fmt.Errorf("pool address is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(ctx, cfg.Chain, nil, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	bound, err := sess.bindContracts(ctx, cfg.Addresses)
	if err != nil {
		return err
	}
	suite, err := bound.suite(cfg.Suite)
	if err != nil {
		return err
	}
	f, err := newFilter(cfg.Filter, bound.tokens)
	if err != nil {
		return err
	}

	coins, err := bound.metaRegistry.GetCoins(ctx, pool)
	if err != nil {
		logger.Warn("get_coins failed", zap.String("pool", pool.Hex()), zap.Error(err))
	}
	for i, coin := range coins {
		if coin == (common.Address{}) {
			break
		}
		meta, err := bound.tokens.FetchTokenMeta(ctx, coin, logger)
		if err != nil {
			logger.Warn("token meta failed", zap.Int("slot", i), zap.String("token", coin.Hex()), zap.Error(err))
			continue
		}
		logger.Info("pool coin",
			zap.Int("slot", i),
			zap.String("token", meta.Address),
			zap.String("symbol", meta.Symbol),
			zap.Uint8("decimals", meta.Decimals),
		)
	}

	checker := conformance.NewChecker(bound.metaRegistry, f, nil, logger)
	res := checker.CheckPool(ctx, conformance.CaseContext{
		RunID:       "check",
		ChainID:     sess.chainID,
		BlockNumber: sess.blockNumber,
	}, suite, 0, pool)

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if res.Outcome == model.OutcomeFail || res.Outcome == model.OutcomeError {
		return fmt.Errorf("pool %s: %s (%s)", pool.Hex(), res.Outcome, res.Reason)
	}
	return nil
}
