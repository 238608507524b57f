package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"metaregistryCheck/internal/conformance"
	"metaregistryCheck/internal/model"
	"metaregistryCheck/internal/storage"
)

// RunConfig holds runtime settings for a conformance run.
type RunConfig struct {
	RunID             string
	ChainID           uint64
	BlockNumber       uint64
	MetaRegistry      common.Address
	Suites            []conformance.Suite
	BatchSize         uint64
	Limit             uint64
	CheckpointPath    string
	CheckpointEnabled bool
}

// RunRecorder persists run summaries.
type RunRecorder interface {
	SaveRun(ctx context.Context, run model.Run) error
}

// Runner walks every suite's pools in batches and writes results to the sink.
type Runner struct {
	cfg        RunConfig
	checker    *conformance.Checker
	sink       storage.Sink
	runs       RunRecorder
	logger     *zap.Logger
	checkpoint *CheckpointStore
	now        func() time.Time
}

// NewRunner builds a Runner with its dependencies. runs may be nil.
func NewRunner(cfg RunConfig, checker *conformance.Checker, sink storage.Sink, runs RunRecorder, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		checker:    checker,
		sink:       sink,
		runs:       runs,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		now:        time.Now,
	}
}

// Run executes all suites. The returned run carries totals even when an
// error stops it early.
func (r *Runner) Run(ctx context.Context) (model.Run, error) {
	if r.checker == nil {
		return model.Run{}, fmt.Errorf("checker is nil")
	}
	if r.sink == nil {
		return model.Run{}, fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return model.Run{}, fmt.Errorf("batch size must be greater than zero")
	}
	if len(r.cfg.Suites) == 0 {
		return model.Run{}, fmt.Errorf("at least one suite is required")
	}

	run := model.Run{
		ID:           r.cfg.RunID,
		ChainID:      r.cfg.ChainID,
		BlockNumber:  r.cfg.BlockNumber,
		MetaRegistry: r.cfg.MetaRegistry.Hex(),
		StartedAt:    r.now().UTC(),
	}
	if run.ID == "" {
		run.ID = fmt.Sprintf("run-%d-%d", run.BlockNumber, run.StartedAt.UnixNano())
	}

	cp, err := r.resume(&run)
	if err != nil {
		return run, err
	}

	if r.runs != nil {
		if err := r.runs.SaveRun(ctx, run); err != nil {
			return run, fmt.Errorf("save run: %w", err)
		}
	}

	for _, suite := range r.cfg.Suites {
		if err := r.runSuite(ctx, suite, &run, &cp); err != nil {
			return run, fmt.Errorf("suite %s: %w", suite.Name, err)
		}
	}

	run.FinishedAt = r.now().UTC()
	if r.runs != nil {
		if err := r.runs.SaveRun(ctx, run); err != nil {
			return run, fmt.Errorf("save run: %w", err)
		}
	}

	r.logger.Info("run complete",
		zap.String("run_id", run.ID),
		zap.Int("pass", run.Totals[model.OutcomePass]),
		zap.Int("skip", run.Totals[model.OutcomeSkip]),
		zap.Int("fail", run.Totals[model.OutcomeFail]),
		zap.Int("error", run.Totals[model.OutcomeError]),
	)
	return run, nil
}

func (r *Runner) resume(run *model.Run) (Checkpoint, error) {
	fresh := Checkpoint{
		RunID:        run.ID,
		BlockNumber:  run.BlockNumber,
		MetaRegistry: run.MetaRegistry,
		StartedAt:    run.StartedAt.Format(time.RFC3339Nano),
		NextIndex:    make(map[string]uint64),
	}

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return fresh, err
	}
	if !ok {
		return fresh, nil
	}
	if !cp.Matches(run.BlockNumber, run.MetaRegistry) {
		r.logger.Info("ignore checkpoint from another run",
			zap.Uint64("checkpoint_block", cp.BlockNumber),
			zap.String("checkpoint_metaregistry", cp.MetaRegistry),
		)
		return fresh, nil
	}

	run.ID = cp.RunID
	if started, err := time.Parse(time.RFC3339Nano, cp.StartedAt); err == nil {
		run.StartedAt = started
	}
	for outcome, n := range cp.Totals {
		if run.Totals == nil {
			run.Totals = make(map[model.Outcome]int)
		}
		run.Totals[outcome] = n
	}
	r.logger.Info("resume from checkpoint", zap.String("run_id", cp.RunID), zap.Any("next_index", cp.NextIndex))
	return cp, nil
}

func (r *Runner) runSuite(ctx context.Context, suite conformance.Suite, run *model.Run, cp *Checkpoint) error {
	count, err := suite.Pools.PoolCount(ctx)
	if err != nil {
		return fmt.Errorf("pool count: %w", err)
	}
	total := count
	if r.cfg.Limit > 0 && r.cfg.Limit < total {
		total = r.cfg.Limit
	}

	from := cp.NextIndex[suite.Name]
	if from >= total {
		r.logger.Info("nothing to check", zap.String("suite", suite.Name), zap.Uint64("from", from), zap.Uint64("pools", total))
		return nil
	}

	ranges, err := SplitRange(from, total-1, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	cc := conformance.CaseContext{RunID: run.ID, ChainID: run.ChainID, BlockNumber: run.BlockNumber}
	r.logger.Info("suite start", zap.String("suite", suite.Name), zap.Uint64("pool_count", count), zap.Uint64("from", from), zap.Uint64("to", total))

	for _, indexRange := range ranges {
		results := make([]model.CaseResult, 0, indexRange.To-indexRange.From+1)
		for index := indexRange.From; ; index++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			pool, err := suite.Pools.PoolList(ctx, index)
			if err != nil {
				return fmt.Errorf("pool_list(%d): %w", index, err)
			}
			res := r.checker.CheckPool(ctx, cc, suite, index, pool)
			results = append(results, res)

			if index == indexRange.To {
				break
			}
		}

		if err := r.sink.PutResults(ctx, results); err != nil {
			return fmt.Errorf("store results: %w", err)
		}
		for _, res := range results {
			run.Count(res.Outcome)
		}

		cp.NextIndex[suite.Name] = indexRange.To + 1
		cp.Totals = run.Totals
		if err := r.checkpoint.Save(*cp); err != nil {
			return err
		}

		r.logger.Info("batch complete", zap.String("suite", suite.Name), zap.Int("cases", len(results)), zap.Uint64("from", indexRange.From), zap.Uint64("to", indexRange.To))
	}

	return nil
}
