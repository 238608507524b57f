package curve

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"metaregistryCheck/internal/chain"
)

// MetaRegistry is the read-only facade aggregating all registries and factories.
type MetaRegistry struct {
	binding
	address common.Address
}

func NewMetaRegistry(caller chain.Caller, address common.Address, opts Options) (*MetaRegistry, error) {
	b, err := newBinding("metaregistry", caller, MetaRegistryABI, opts)
	if err != nil {
		return nil, err
	}
	return &MetaRegistry{binding: b, address: address}, nil
}

func (m *MetaRegistry) Address() common.Address { return m.address }

// GetBalances returns the pool balances, one per coin slot.
func (m *MetaRegistry) GetBalances(ctx context.Context, pool common.Address) ([]*big.Int, error) {
	values, err := m.call(ctx, m.address, "get_balances", pool)
	if err != nil {
		return nil, err
	}
	return asBigIntSlice(values[0])
}

// GetDecimals returns the coin decimals as reported by the registry.
func (m *MetaRegistry) GetDecimals(ctx context.Context, pool common.Address) ([]*big.Int, error) {
	values, err := m.call(ctx, m.address, "get_decimals", pool)
	if err != nil {
		return nil, err
	}
	return asBigIntSlice(values[0])
}

// GetCoins returns the pool coins; unused slots hold the zero address.
func (m *MetaRegistry) GetCoins(ctx context.Context, pool common.Address) ([]common.Address, error) {
	values, err := m.call(ctx, m.address, "get_coins", pool)
	if err != nil {
		return nil, err
	}
	return asAddressSlice(values[0])
}

func (m *MetaRegistry) GetLPToken(ctx context.Context, pool common.Address) (common.Address, error) {
	values, err := m.call(ctx, m.address, "get_lp_token", pool)
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

func (m *MetaRegistry) GetVirtualPriceFromLPToken(ctx context.Context, lpToken common.Address) (*big.Int, error) {
	values, err := m.call(ctx, m.address, "get_virtual_price_from_lp_token", lpToken)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

func (m *MetaRegistry) PoolCount(ctx context.Context) (uint64, error) {
	return poolCount(ctx, m.binding, m.address)
}

func (m *MetaRegistry) PoolList(ctx context.Context, index uint64) (common.Address, error) {
	return poolList(ctx, m.binding, m.address, index)
}

// Registry is a stable or crypto pool registry.
type Registry struct {
	binding
	address common.Address
}

func NewRegistry(name string, caller chain.Caller, address common.Address, opts Options) (*Registry, error) {
	b, err := newBinding(name, caller, RegistryABI, opts)
	if err != nil {
		return nil, err
	}
	return &Registry{binding: b, address: address}, nil
}

func (r *Registry) Address() common.Address { return r.address }

func (r *Registry) GetVirtualPriceFromLPToken(ctx context.Context, lpToken common.Address) (*big.Int, error) {
	values, err := r.call(ctx, r.address, "get_virtual_price_from_lp_token", lpToken)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

func (r *Registry) PoolCount(ctx context.Context) (uint64, error) {
	return poolCount(ctx, r.binding, r.address)
}

func (r *Registry) PoolList(ctx context.Context, index uint64) (common.Address, error) {
	return poolList(ctx, r.binding, r.address, index)
}

// Factory is a stable or crypto pool factory.
type Factory struct {
	binding
	address common.Address
}

func NewFactory(name string, caller chain.Caller, address common.Address, opts Options) (*Factory, error) {
	b, err := newBinding(name, caller, FactoryABI, opts)
	if err != nil {
		return nil, err
	}
	return &Factory{binding: b, address: address}, nil
}

func (f *Factory) Address() common.Address { return f.address }

func (f *Factory) PoolCount(ctx context.Context) (uint64, error) {
	return poolCount(ctx, f.binding, f.address)
}

func (f *Factory) PoolList(ctx context.Context, index uint64) (common.Address, error) {
	return poolList(ctx, f.binding, f.address, index)
}

// PoolReader calls pool contracts directly.
type PoolReader struct {
	binding
}

func NewPoolReader(caller chain.Caller, opts Options) (*PoolReader, error) {
	b, err := newBinding("pool", caller, PoolABI, opts)
	if err != nil {
		return nil, err
	}
	return &PoolReader{binding: b}, nil
}

func (p *PoolReader) GetVirtualPrice(ctx context.Context, pool common.Address) (*big.Int, error) {
	values, err := p.call(ctx, pool, "get_virtual_price")
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

func poolCount(ctx context.Context, b binding, address common.Address) (uint64, error) {
	values, err := b.call(ctx, address, "pool_count")
	if err != nil {
		return 0, err
	}
	count, err := asUint64(values[0])
	if err != nil {
		return 0, fmt.Errorf("pool_count: %w", err)
	}
	return count, nil
}

func poolList(ctx context.Context, b binding, address common.Address, index uint64) (common.Address, error) {
	values, err := b.call(ctx, address, "pool_list", new(big.Int).SetUint64(index))
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}
