package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"go.uber.org/zap"
)

// RetryCaller retries eth_call on transport failures. Reverts are returned
// immediately: a revert is an answer, not a failure to get one.
type RetryCaller struct {
	caller     Caller
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

var _ Caller = (*RetryCaller)(nil)

func NewRetryCaller(caller Caller, maxRetries int, backoff time.Duration, logger *zap.Logger) *RetryCaller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryCaller{
		caller:     caller,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

func (r *RetryCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := withRetry(ctx, r.maxRetries, r.backoff, func(ctx context.Context) error {
		var err error
		out, err = r.caller.CallContract(ctx, msg, blockNumber)
		if err != nil && !IsRevert(err) {
			to := ""
			if msg.To != nil {
				to = msg.To.Hex()
			}
			r.logger.Warn("eth_call failed", zap.String("to", to), zap.Error(err))
		}
		return err
	})
	return out, err
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil || IsRevert(err) {
			return err
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
