// Package filter decides whether a pool's balance state allows a meaningful
// virtual price comparison.
//
// Evaluate applies the rules in order and the first match governs:
//
//  1. total balance is zero                          -> ExpectReject(empty)
//  2. total balance below MinTotalBalance            -> ExpectReject(tiny)
//  3. a coin reports zero decimals and the token's
//     own decimals() confirms it                     -> ExpectReject(zero_decimals)
//  4. min adjusted balance is negligible next to max
//     and below SkewMinBalance                       -> ExpectReject(skewed)
//  5. otherwise                                      -> Proceed
//
// The filter is pure apart from the decimals probe. Confirming the expected
// revert and turning it into a skip is the caller's job.
package filter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type Kind int

const (
	Proceed Kind = iota
	SkipDegenerate
	ExpectReject
)

func (k Kind) String() string {
	switch k {
	case Proceed:
		return "proceed"
	case SkipDegenerate:
		return "skip_degenerate"
	case ExpectReject:
		return "expect_reject"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Reason string

const (
	ReasonNone         Reason = ""
	ReasonEmpty        Reason = "empty"
	ReasonTiny         Reason = "tiny"
	ReasonZeroDecimals Reason = "zero_decimals"
	ReasonSkewed       Reason = "skewed"
)

// maxDecimals bounds registry-reported decimals; ERC20 decimals is a uint8.
const maxDecimals = 255

var ErrMisaligned = errors.New("balances, coins and decimals are not index-aligned")

// Thresholds are the tunable bounds of the filter.
type Thresholds struct {
	// MinTotalBalance is the raw-unit total below which a pool is tiny.
	MinTotalBalance *big.Int
	// SkewMinBalance is the adjusted balance below which the smallest coin
	// counts as drained.
	SkewMinBalance decimal.Decimal
	// RelTolerance and AbsTolerance define max-min ≈ max as
	// |(max-min) - max| <= max(RelTolerance*|max|, AbsTolerance).
	RelTolerance float64
	AbsTolerance float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTotalBalance: big.NewInt(100),
		SkewMinBalance:  decimal.NewFromInt(1),
		RelTolerance:    1e-6,
		AbsTolerance:    0,
	}
}

// DecimalsProbe reads decimals() from a token contract directly.
type DecimalsProbe interface {
	Decimals(ctx context.Context, token common.Address) (uint8, error)
}

// Decision is the outcome of the filter for one pool.
type Decision struct {
	Kind   Kind
	Reason Reason
	Detail string
	// LPToken is set by callers that know it; the filter never reads it.
	LPToken common.Address
	// Adjusted holds balance/10^decimals for populated coin slots.
	Adjusted []decimal.Decimal
}

type Filter struct {
	th    Thresholds
	probe DecimalsProbe
}

func New(th Thresholds, probe DecimalsProbe) *Filter {
	if th.MinTotalBalance == nil {
		th.MinTotalBalance = big.NewInt(100)
	}
	return &Filter{th: th, probe: probe}
}

func (f *Filter) Thresholds() Thresholds { return f.th }

// CheckLiquidity applies rules 1 and 2, which need balances only.
func (f *Filter) CheckLiquidity(pool common.Address, balances []*big.Int) Decision {
	total := new(big.Int)
	for _, b := range balances {
		if b != nil {
			total.Add(total, b)
		}
	}

	switch {
	case total.Sign() == 0:
		return Decision{Kind: ExpectReject, Reason: ReasonEmpty, Detail: fmt.Sprintf("empty pool: %s", pool.Hex())}
	case total.Cmp(f.th.MinTotalBalance) < 0:
		return Decision{Kind: ExpectReject, Reason: ReasonTiny, Detail: fmt.Sprintf("tiny pool: %s", pool.Hex())}
	default:
		return Decision{Kind: Proceed}
	}
}

// Evaluate applies all rules. An error means the decision could not be made.
func (f *Filter) Evaluate(ctx context.Context, pool common.Address, balances []*big.Int, coins []common.Address, decimals []*big.Int) (Decision, error) {
	if d := f.CheckLiquidity(pool, balances); d.Kind != Proceed {
		return d, nil
	}
	if len(coins) < len(balances) || len(decimals) < len(balances) {
		return Decision{}, fmt.Errorf("pool %s: %w", pool.Hex(), ErrMisaligned)
	}

	adjusted := make([]decimal.Decimal, 0, len(balances))
	for i, balance := range balances {
		if coins[i] == (common.Address{}) {
			break
		}

		dec := decimals[i]
		if dec == nil || dec.Sign() < 0 || dec.Cmp(big.NewInt(maxDecimals)) > 0 {
			return Decision{}, fmt.Errorf("pool %s coin %d: decimals out of range: %v", pool.Hex(), i, dec)
		}
		if balance == nil {
			balance = new(big.Int)
		}
		adjusted = append(adjusted, decimal.NewFromBigInt(balance, -int32(dec.Int64())))

		if dec.Sign() == 0 {
			zero, err := f.confirmZeroDecimals(ctx, coins[i])
			if err != nil {
				return Decision{}, fmt.Errorf("probe decimals of %s: %w", coins[i].Hex(), err)
			}
			if zero {
				return Decision{
					Kind:     ExpectReject,
					Reason:   ReasonZeroDecimals,
					Detail:   fmt.Sprintf("token %s in pool %s reports zero decimals", coins[i].Hex(), pool.Hex()),
					Adjusted: adjusted,
				}, nil
			}
		}
	}

	if idx, skewed := f.isSkewed(adjusted); skewed {
		return Decision{
			Kind:     ExpectReject,
			Reason:   ReasonSkewed,
			Detail:   fmt.Sprintf("skewed pool: %s as coin %d holds %s after decimals", pool.Hex(), idx, adjusted[idx].String()),
			Adjusted: adjusted,
		}, nil
	}

	return Decision{Kind: Proceed, Adjusted: adjusted}, nil
}

func (f *Filter) confirmZeroDecimals(ctx context.Context, token common.Address) (bool, error) {
	if f.probe == nil {
		return false, errors.New("decimals probe is nil")
	}
	dec, err := f.probe.Decimals(ctx, token)
	if err != nil {
		return false, err
	}
	return dec == 0, nil
}

// isSkewed reports whether the smallest balance is negligible relative to the
// largest and below SkewMinBalance. It returns the index of the smallest.
func (f *Filter) isSkewed(adjusted []decimal.Decimal) (int, bool) {
	if len(adjusted) == 0 {
		return 0, false
	}

	minIdx, maxIdx := 0, 0
	for i, v := range adjusted {
		if v.LessThan(adjusted[minIdx]) {
			minIdx = i
		}
		if v.GreaterThan(adjusted[maxIdx]) {
			maxIdx = i
		}
	}
	lo, hi := adjusted[minIdx], adjusted[maxIdx]

	if !lo.LessThan(f.th.SkewMinBalance) {
		return minIdx, false
	}
	spread := hi.Sub(lo).InexactFloat64()
	return minIdx, approxEqual(spread, hi.InexactFloat64(), f.th.RelTolerance, f.th.AbsTolerance)
}

func approxEqual(got, want, rel, abs float64) bool {
	tol := math.Max(rel*math.Abs(want), abs)
	return math.Abs(got-want) <= tol
}
