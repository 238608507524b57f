package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"metaregistryCheck/internal/config"
	"metaregistryCheck/internal/model"
	"metaregistryCheck/internal/report"
)

func runSummary(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSummary(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}

	file, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	summary, err := report.Summarize(file)
	if err != nil {
		return err
	}

	for _, name := range summary.SuiteNames() {
		suite := summary.Suites[name]
		logger.Info("suite summary",
			zap.String("suite", name),
			zap.Int("pass", suite.Outcomes[model.OutcomePass]),
			zap.Int("skip", suite.Outcomes[model.OutcomeSkip]),
			zap.Int("fail", suite.Outcomes[model.OutcomeFail]),
			zap.Int("error", suite.Outcomes[model.OutcomeError]),
			zap.Any("skip_reasons", suite.Reasons[model.OutcomeSkip]),
			zap.Any("fail_reasons", suite.Reasons[model.OutcomeFail]),
		)
	}
	for _, res := range summary.Failures {
		logger.Warn("case",
			zap.String("suite", res.Suite),
			zap.Uint64("index", res.PoolIndex),
			zap.String("pool", res.Pool),
			zap.String("outcome", string(res.Outcome)),
			zap.String("reason", res.Reason),
			zap.String("detail", res.Detail),
		)
	}

	logger.Info("summary complete",
		zap.Int("total", summary.Total),
		zap.Int("malformed", summary.Malformed),
		zap.Int("pass", summary.Outcomes[model.OutcomePass]),
		zap.Int("skip", summary.Outcomes[model.OutcomeSkip]),
		zap.Int("fail", summary.Outcomes[model.OutcomeFail]),
		zap.Int("error", summary.Outcomes[model.OutcomeError]),
	)

	if summary.Failed() {
		return fmt.Errorf("%d case(s) failed", summary.Outcomes[model.OutcomeFail])
	}
	return nil
}
