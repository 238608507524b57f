package curve

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"metaregistryCheck/internal/chain"
)

// AddressProviderAddress is the address provider deployed on Ethereum mainnet.
var AddressProviderAddress = common.HexToAddress("0x0000000022D53366457F9d5E68Ec105046FC4383")

// Address provider ids.
const (
	IDStableRegistry uint64 = 0
	IDStableFactory  uint64 = 3
	IDCryptoRegistry uint64 = 5
	IDCryptoFactory  uint64 = 6
	IDMetaRegistry   uint64 = 7
)

type AddressProvider struct {
	binding
	address common.Address
}

func NewAddressProvider(caller chain.Caller, address common.Address, opts Options) (*AddressProvider, error) {
	b, err := newBinding("address_provider", caller, AddressProviderABI, opts)
	if err != nil {
		return nil, err
	}
	return &AddressProvider{binding: b, address: address}, nil
}

func (p *AddressProvider) Admin(ctx context.Context) (common.Address, error) {
	values, err := p.call(ctx, p.address, "admin")
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

func (p *AddressProvider) GetAddress(ctx context.Context, id uint64) (common.Address, error) {
	values, err := p.call(ctx, p.address, "get_address", new(big.Int).SetUint64(id))
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}
