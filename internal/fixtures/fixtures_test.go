package fixtures

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaregistryCheck/internal/curve"
)

type staticLister []common.Address

func (l staticLister) Accounts(context.Context) ([]common.Address, error) { return l, nil }

type adminFunc func(context.Context) (common.Address, error)

func (f adminFunc) Admin(ctx context.Context) (common.Address, error) { return f(ctx) }

type resolverMap map[uint64]common.Address

func (m resolverMap) GetAddress(_ context.Context, id uint64) (common.Address, error) {
	return m[id], nil
}

func addr(n int64) common.Address {
	return common.BigToAddress(big.NewInt(n))
}

func TestResolveAccounts(t *testing.T) {
	owner := addr(100)
	provider := adminFunc(func(context.Context) (common.Address, error) { return owner, nil })

	t.Run("full node", func(t *testing.T) {
		accounts, err := ResolveAccounts(context.Background(), staticLister{addr(1), addr(2), addr(3), addr(4)}, provider)
		require.NoError(t, err)
		assert.Equal(t, Accounts{Alice: addr(1), Unauthorised: addr(2), Random: addr(3), Owner: owner}, accounts)
	})

	t.Run("node without keys", func(t *testing.T) {
		accounts, err := ResolveAccounts(context.Background(), staticLister{addr(1)}, provider)
		require.NoError(t, err)
		assert.Equal(t, addr(1), accounts.Alice)
		assert.Equal(t, common.Address{}, accounts.Random)
		assert.Equal(t, owner, accounts.Owner)
	})

	t.Run("admin failure", func(t *testing.T) {
		boom := errors.New("execution reverted")
		_, err := ResolveAccounts(context.Background(), nil, adminFunc(func(context.Context) (common.Address, error) {
			return common.Address{}, boom
		}))
		assert.ErrorIs(t, err, boom)
	})
}

func TestResolveAddresses(t *testing.T) {
	provider := resolverMap{
		curve.IDMetaRegistry:   addr(7),
		curve.IDStableRegistry: addr(10),
		curve.IDStableFactory:  addr(13),
		curve.IDCryptoRegistry: addr(15),
		curve.IDCryptoFactory:  addr(16),
	}

	got, err := ResolveAddresses(context.Background(), provider, Addresses{MetaRegistry: addr(99)})
	require.NoError(t, err)
	assert.Equal(t, addr(99), got.MetaRegistry, "override wins")
	assert.Equal(t, addr(10), got.StableRegistry)
	assert.Equal(t, addr(16), got.CryptoFactory)

	delete(provider, curve.IDCryptoFactory)
	_, err = ResolveAddresses(context.Background(), provider, Addresses{})
	assert.Error(t, err)

	_, err = ResolveAddresses(context.Background(), nil, Addresses{})
	assert.Error(t, err)
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools.yaml")
	content := `
stable_registry:
  - "0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7"
  - " 0xDC24316b9AE028F1497c275EB9192a3Ea0f67022 "
crypto_factory: []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	manifest, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, manifest["stable_registry"], 2)
	assert.Equal(t, common.HexToAddress("0xDC24316b9AE028F1497c275EB9192a3Ea0f67022"), manifest["stable_registry"][1])
	assert.Empty(t, manifest["crypto_factory"])

	pools := StaticPools(manifest["stable_registry"])
	count, err := pools.PoolCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
	_, err = pools.PoolList(context.Background(), 2)
	assert.Error(t, err)
}

func TestLoadManifestRejectsBadAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pools.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stable_factory:\n  - not-an-address\n"), 0o644))

	_, err := LoadManifest(path)
	assert.Error(t, err)
}
