package conformance

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"metaregistryCheck/internal/chain"
	"metaregistryCheck/internal/filter"
	"metaregistryCheck/internal/model"
)

// Failure and error reasons recorded next to filter reasons.
const (
	ReasonMismatch          = "mismatch"
	ReasonFacadeReverted    = "facade_reverted"
	ReasonReferenceReverted = "reference_reverted"
	ReasonPreCheck          = "precheck"
	ReasonReference         = "reference"
	ReasonFacade            = "facade"
)

// CaseRecorder observes finished cases.
type CaseRecorder interface {
	ObserveCase(suite string, outcome model.Outcome, reason string)
}

// CaseContext stamps results with run-wide fields.
type CaseContext struct {
	RunID       string
	ChainID     uint64
	BlockNumber uint64
}

// Checker compares the facade against a suite's reference, one pool at a time.
type Checker struct {
	facade   Facade
	filter   *filter.Filter
	logger   *zap.Logger
	recorder CaseRecorder
	now      func() time.Time
}

func NewChecker(facade Facade, f *filter.Filter, recorder CaseRecorder, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		facade:   facade,
		filter:   f,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// CheckPool runs one case. It never returns an error: every problem is
// folded into the result's outcome.
func (c *Checker) CheckPool(ctx context.Context, cc CaseContext, suite Suite, index uint64, pool common.Address) model.CaseResult {
	res := model.CaseResult{
		RunID:       cc.RunID,
		ChainID:     cc.ChainID,
		BlockNumber: cc.BlockNumber,
		Suite:       suite.Name,
		PoolIndex:   index,
		Pool:        pool.Hex(),
	}

	c.run(ctx, suite, pool, &res)

	res.CheckedAt = c.now().UTC().Format(time.RFC3339Nano)
	if c.recorder != nil {
		c.recorder.ObserveCase(suite.Name, res.Outcome, res.Reason)
	}

	fields := []zap.Field{
		zap.String("suite", suite.Name),
		zap.Uint64("index", index),
		zap.String("pool", res.Pool),
		zap.String("outcome", string(res.Outcome)),
		zap.String("reason", res.Reason),
	}
	switch res.Outcome {
	case model.OutcomeFail, model.OutcomeError:
		c.logger.Warn("case finished", append(fields, zap.String("detail", res.Detail))...)
	default:
		c.logger.Debug("case finished", fields...)
	}
	return res
}

func (c *Checker) run(ctx context.Context, suite Suite, pool common.Address, res *model.CaseResult) {
	decision, err := PreCheck(ctx, c.facade, c.filter, pool)
	if decision.LPToken != (common.Address{}) {
		res.LPToken = decision.LPToken.Hex()
	}
	if err != nil {
		if errors.Is(err, ErrNotReverted) {
			setOutcome(res, model.OutcomeFail, string(decision.Reason), err.Error())
			return
		}
		if chain.IsRevert(err) {
			setOutcome(res, model.OutcomeFail, ReasonPreCheck, err.Error())
			return
		}
		setOutcome(res, model.OutcomeError, ReasonPreCheck, err.Error())
		return
	}
	if decision.Kind == filter.SkipDegenerate {
		setOutcome(res, model.OutcomeSkip, string(decision.Reason), decision.Detail)
		return
	}

	lpToken := decision.LPToken
	expected, err := suite.Reference.VirtualPrice(ctx, pool, lpToken)
	if err != nil {
		c.referenceFailed(ctx, suite, lpToken, err, res)
		return
	}
	res.ReferenceVirtualPrice = expected.String()

	got, err := c.facade.GetVirtualPriceFromLPToken(ctx, lpToken)
	if err != nil {
		if chain.IsRevert(err) {
			setOutcome(res, model.OutcomeFail, ReasonFacadeReverted, err.Error())
			return
		}
		setOutcome(res, model.OutcomeError, ReasonFacade, err.Error())
		return
	}
	res.FacadeVirtualPrice = got.String()

	if expected.Cmp(got) != 0 {
		setOutcome(res, model.OutcomeFail, ReasonMismatch, "facade virtual price differs from reference")
		return
	}
	setOutcome(res, model.OutcomePass, "", "")
}

func (c *Checker) referenceFailed(ctx context.Context, suite Suite, lpToken common.Address, refErr error, res *model.CaseResult) {
	if !chain.IsRevert(refErr) {
		setOutcome(res, model.OutcomeError, ReasonReference, refErr.Error())
		return
	}
	if !suite.ReferenceMayRevert {
		setOutcome(res, model.OutcomeFail, ReasonReferenceReverted, refErr.Error())
		return
	}

	err := ExpectRevert(ctx, func(ctx context.Context) error {
		_, err := c.facade.GetVirtualPriceFromLPToken(ctx, lpToken)
		return err
	})
	switch {
	case err == nil:
		setOutcome(res, model.OutcomePass, ReasonReferenceReverted, "reference and facade both revert")
	case errors.Is(err, ErrNotReverted):
		setOutcome(res, model.OutcomeFail, ReasonReferenceReverted, "reference reverts but facade answers")
	default:
		setOutcome(res, model.OutcomeError, ReasonFacade, err.Error())
	}
}

func setOutcome(res *model.CaseResult, outcome model.Outcome, reason, detail string) {
	res.Outcome = outcome
	res.Reason = reason
	res.Detail = detail
}
