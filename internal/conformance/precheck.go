package conformance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"metaregistryCheck/internal/filter"
)

// Facade is the metaregistry surface the checks read.
type Facade interface {
	GetBalances(ctx context.Context, pool common.Address) ([]*big.Int, error)
	GetLPToken(ctx context.Context, pool common.Address) (common.Address, error)
	GetDecimals(ctx context.Context, pool common.Address) ([]*big.Int, error)
	GetCoins(ctx context.Context, pool common.Address) ([]common.Address, error)
	GetVirtualPriceFromLPToken(ctx context.Context, lpToken common.Address) (*big.Int, error)
}

// PreCheck runs the validity filter for pool. Degenerate pools come back as
// SkipDegenerate once the facade was seen to revert for them; if the facade
// answers instead, the error wraps ErrNotReverted.
func PreCheck(ctx context.Context, facade Facade, f *filter.Filter, pool common.Address) (filter.Decision, error) {
	balances, err := facade.GetBalances(ctx, pool)
	if err != nil {
		return filter.Decision{}, fmt.Errorf("get_balances: %w", err)
	}
	lpToken, err := facade.GetLPToken(ctx, pool)
	if err != nil {
		return filter.Decision{}, fmt.Errorf("get_lp_token: %w", err)
	}

	decision := f.CheckLiquidity(pool, balances)
	if decision.Kind == filter.ExpectReject {
		decision.LPToken = lpToken
		return confirmReject(ctx, facade, decision)
	}

	decimals, err := facade.GetDecimals(ctx, pool)
	if err != nil {
		return filter.Decision{}, fmt.Errorf("get_decimals: %w", err)
	}
	coins, err := facade.GetCoins(ctx, pool)
	if err != nil {
		return filter.Decision{}, fmt.Errorf("get_coins: %w", err)
	}

	decision, err = f.Evaluate(ctx, pool, balances, coins, decimals)
	if err != nil {
		return filter.Decision{}, err
	}
	decision.LPToken = lpToken
	if decision.Kind == filter.ExpectReject {
		return confirmReject(ctx, facade, decision)
	}
	return decision, nil
}

func confirmReject(ctx context.Context, facade Facade, decision filter.Decision) (filter.Decision, error) {
	err := ExpectRevert(ctx, func(ctx context.Context) error {
		_, err := facade.GetVirtualPriceFromLPToken(ctx, decision.LPToken)
		return err
	})
	if err != nil {
		return decision, fmt.Errorf("%s: %w", decision.Detail, err)
	}
	decision.Kind = filter.SkipDegenerate
	return decision, nil
}
