package conformance

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaregistryCheck/internal/chain/chaintest"
	"metaregistryCheck/internal/filter"
	"metaregistryCheck/internal/model"
)

var (
	poolAddr = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	lpAddr   = common.HexToAddress("0x00000000000000000000000000000000000000e0")
	coinA    = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	coinB    = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

var errRevert = &chaintest.RevertError{}

// fakeFacade answers for a single pool.
type fakeFacade struct {
	balances  []*big.Int
	decimals  []*big.Int
	coins     []common.Address
	price     *big.Int
	priceErr  error
	priceHits int
	coinHits  int
}

func (f *fakeFacade) GetBalances(context.Context, common.Address) ([]*big.Int, error) {
	return f.balances, nil
}

func (f *fakeFacade) GetLPToken(context.Context, common.Address) (common.Address, error) {
	return lpAddr, nil
}

func (f *fakeFacade) GetDecimals(context.Context, common.Address) ([]*big.Int, error) {
	return f.decimals, nil
}

func (f *fakeFacade) GetCoins(context.Context, common.Address) ([]common.Address, error) {
	f.coinHits++
	return f.coins, nil
}

func (f *fakeFacade) GetVirtualPriceFromLPToken(_ context.Context, lp common.Address) (*big.Int, error) {
	f.priceHits++
	if lp != lpAddr {
		return nil, errRevert
	}
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	return f.price, nil
}

type fakeReference struct {
	price *big.Int
	err   error
}

func (r fakeReference) VirtualPrice(context.Context, common.Address, common.Address) (*big.Int, error) {
	return r.price, r.err
}

type zeroProbe struct{}

func (zeroProbe) Decimals(context.Context, common.Address) (uint8, error) { return 0, nil }

type recorder struct {
	outcomes []model.Outcome
}

func (r *recorder) ObserveCase(_ string, outcome model.Outcome, _ string) {
	r.outcomes = append(r.outcomes, outcome)
}

func bigs(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(v)
	}
	return out
}

func vprice() *big.Int {
	v, _ := new(big.Int).SetString("1002345678901234567", 10)
	return v
}

func newChecker(facade Facade, rec CaseRecorder) *Checker {
	c := NewChecker(facade, filter.New(filter.DefaultThresholds(), zeroProbe{}), rec, nil)
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func suite(ref Reference, mayRevert bool) Suite {
	return Suite{Name: SuiteStableRegistry, Reference: ref, ReferenceMayRevert: mayRevert}
}

func TestExpectRevert(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ExpectRevert(ctx, func(context.Context) error { return errRevert }))
	assert.ErrorIs(t, ExpectRevert(ctx, func(context.Context) error { return nil }), ErrNotReverted)

	transport := errors.New("connection refused")
	assert.ErrorIs(t, ExpectRevert(ctx, func(context.Context) error { return transport }), transport)
}

func TestPreCheckEmptyPoolSkipsWithoutReadingCoins(t *testing.T) {
	facade := &fakeFacade{balances: bigs(0, 0), priceErr: errRevert}
	f := filter.New(filter.DefaultThresholds(), zeroProbe{})

	d, err := PreCheck(context.Background(), facade, f, poolAddr)
	require.NoError(t, err)
	assert.Equal(t, filter.SkipDegenerate, d.Kind)
	assert.Equal(t, filter.ReasonEmpty, d.Reason)
	assert.Equal(t, lpAddr, d.LPToken)
	assert.Equal(t, 1, facade.priceHits)
	assert.Zero(t, facade.coinHits)
}

func TestPreCheckDegeneratePoolThatAnswersFails(t *testing.T) {
	facade := &fakeFacade{balances: bigs(10, 20), price: vprice()}
	f := filter.New(filter.DefaultThresholds(), zeroProbe{})

	d, err := PreCheck(context.Background(), facade, f, poolAddr)
	assert.ErrorIs(t, err, ErrNotReverted)
	assert.Equal(t, filter.ReasonTiny, d.Reason)
}

func TestCheckPoolScenarios(t *testing.T) {
	oneCoin := big.NewInt(1_000_000_000_000_000_000)

	cases := []struct {
		name      string
		facade    *fakeFacade
		ref       Reference
		mayRevert bool
		outcome   model.Outcome
		reason    string
	}{
		{
			name:    "empty pool reverts and skips",
			facade:  &fakeFacade{balances: bigs(0, 0), priceErr: errRevert},
			ref:     fakeReference{price: vprice()},
			outcome: model.OutcomeSkip,
			reason:  string(filter.ReasonEmpty),
		},
		{
			name: "balanced pool matches reference",
			facade: &fakeFacade{
				balances: bigs(40, 60),
				decimals: bigs(18, 18),
				coins:    []common.Address{coinA, coinB},
				price:    vprice(),
			},
			ref:     fakeReference{price: vprice()},
			outcome: model.OutcomePass,
		},
		{
			name: "skewed pool reverts and skips",
			facade: &fakeFacade{
				balances: []*big.Int{big.NewInt(1), oneCoin},
				decimals: bigs(18, 18),
				coins:    []common.Address{coinA, coinB},
				priceErr: errRevert,
			},
			ref:     fakeReference{price: vprice()},
			outcome: model.OutcomeSkip,
			reason:  string(filter.ReasonSkewed),
		},
		{
			name: "zero decimal token reverts and skips",
			facade: &fakeFacade{
				balances: bigs(5000, 7000),
				decimals: bigs(0, 18),
				coins:    []common.Address{coinA, coinB},
				priceErr: errRevert,
			},
			ref:     fakeReference{price: vprice()},
			outcome: model.OutcomeSkip,
			reason:  string(filter.ReasonZeroDecimals),
		},
		{
			name:    "degenerate pool that answers fails",
			facade:  &fakeFacade{balances: bigs(0, 0), price: vprice()},
			ref:     fakeReference{price: vprice()},
			outcome: model.OutcomeFail,
			reason:  string(filter.ReasonEmpty),
		},
		{
			name: "mismatch fails",
			facade: &fakeFacade{
				balances: bigs(40, 60),
				decimals: bigs(18, 18),
				coins:    []common.Address{coinA, coinB},
				price:    big.NewInt(1),
			},
			ref:     fakeReference{price: vprice()},
			outcome: model.OutcomeFail,
			reason:  ReasonMismatch,
		},
		{
			name: "facade revert on healthy pool fails",
			facade: &fakeFacade{
				balances: bigs(40, 60),
				decimals: bigs(18, 18),
				coins:    []common.Address{coinA, coinB},
				priceErr: errRevert,
			},
			ref:     fakeReference{price: vprice()},
			outcome: model.OutcomeFail,
			reason:  ReasonFacadeReverted,
		},
		{
			name: "reference revert fails registry suites",
			facade: &fakeFacade{
				balances: bigs(40, 60),
				decimals: bigs(18, 18),
				coins:    []common.Address{coinA, coinB},
				priceErr: errRevert,
			},
			ref:     fakeReference{err: errRevert},
			outcome: model.OutcomeFail,
			reason:  ReasonReferenceReverted,
		},
		{
			name: "reference and facade revert together",
			facade: &fakeFacade{
				balances: bigs(40, 60),
				decimals: bigs(18, 18),
				coins:    []common.Address{coinA, coinB},
				priceErr: errRevert,
			},
			ref:       fakeReference{err: errRevert},
			mayRevert: true,
			outcome:   model.OutcomePass,
			reason:    ReasonReferenceReverted,
		},
		{
			name: "reference reverts but facade answers",
			facade: &fakeFacade{
				balances: bigs(40, 60),
				decimals: bigs(18, 18),
				coins:    []common.Address{coinA, coinB},
				price:    vprice(),
			},
			ref:       fakeReference{err: errRevert},
			mayRevert: true,
			outcome:   model.OutcomeFail,
			reason:    ReasonReferenceReverted,
		},
		{
			name: "reference transport error",
			facade: &fakeFacade{
				balances: bigs(40, 60),
				decimals: bigs(18, 18),
				coins:    []common.Address{coinA, coinB},
				price:    vprice(),
			},
			ref:     fakeReference{err: errors.New("i/o timeout")},
			outcome: model.OutcomeError,
			reason:  ReasonReference,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			checker := newChecker(tc.facade, rec)

			res := checker.CheckPool(context.Background(), CaseContext{RunID: "run-1", ChainID: 1}, suite(tc.ref, tc.mayRevert), 7, poolAddr)

			assert.Equal(t, tc.outcome, res.Outcome, res.Detail)
			assert.Equal(t, tc.reason, res.Reason)
			assert.Equal(t, "run-1", res.RunID)
			assert.Equal(t, uint64(7), res.PoolIndex)
			assert.Equal(t, poolAddr.Hex(), res.Pool)
			assert.Equal(t, lpAddr.Hex(), res.LPToken)
			assert.Equal(t, "2023-11-14T22:13:20Z", res.CheckedAt)
			assert.Equal(t, []model.Outcome{tc.outcome}, rec.outcomes)
		})
	}
}

func TestCheckPoolRecordsBothPrices(t *testing.T) {
	facade := &fakeFacade{
		balances: bigs(40, 60),
		decimals: bigs(18, 18),
		coins:    []common.Address{coinA, coinB},
		price:    vprice(),
	}
	res := newChecker(facade, nil).CheckPool(context.Background(), CaseContext{}, suite(fakeReference{price: vprice()}, false), 0, poolAddr)

	require.Equal(t, model.OutcomePass, res.Outcome)
	assert.Equal(t, "1002345678901234567", res.ReferenceVirtualPrice)
	assert.Equal(t, "1002345678901234567", res.FacadeVirtualPrice)
}

func TestStandardSuite(t *testing.T) {
	_, err := StandardSuite("unknown", SuiteSources{})
	assert.Error(t, err)

	_, err = StandardSuite(SuiteStableFactory, SuiteSources{})
	assert.Error(t, err)

	_, err = StandardSuite(SuiteStableRegistry, SuiteSources{})
	assert.Error(t, err)
}
