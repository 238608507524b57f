package fixtures

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"metaregistryCheck/internal/curve"
)

// AddressResolver reads registry addresses by provider id.
type AddressResolver interface {
	GetAddress(ctx context.Context, id uint64) (common.Address, error)
}

// Addresses are the contracts a run talks to.
type Addresses struct {
	MetaRegistry   common.Address
	StableRegistry common.Address
	StableFactory  common.Address
	CryptoRegistry common.Address
	CryptoFactory  common.Address
}

// ResolveAddresses fills every zero address in overrides from the provider.
func ResolveAddresses(ctx context.Context, provider AddressResolver, overrides Addresses) (Addresses, error) {
	out := overrides
	slots := []struct {
		name string
		id   uint64
		addr *common.Address
	}{
		{name: "metaregistry", id: curve.IDMetaRegistry, addr: &out.MetaRegistry},
		{name: "stable registry", id: curve.IDStableRegistry, addr: &out.StableRegistry},
		{name: "stable factory", id: curve.IDStableFactory, addr: &out.StableFactory},
		{name: "crypto registry", id: curve.IDCryptoRegistry, addr: &out.CryptoRegistry},
		{name: "crypto factory", id: curve.IDCryptoFactory, addr: &out.CryptoFactory},
	}

	for _, slot := range slots {
		if *slot.addr != (common.Address{}) {
			continue
		}
		if provider == nil {
			return Addresses{}, fmt.Errorf("%s address not set and no address provider", slot.name)
		}
		addr, err := provider.GetAddress(ctx, slot.id)
		if err != nil {
			return Addresses{}, fmt.Errorf("resolve %s (id %d): %w", slot.name, slot.id, err)
		}
		if addr == (common.Address{}) {
			return Addresses{}, fmt.Errorf("address provider has no %s (id %d)", slot.name, slot.id)
		}
		*slot.addr = addr
	}
	return out, nil
}
