package conformance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Suite names.
const (
	SuiteStableRegistry = "stable_registry"
	SuiteStableFactory  = "stable_factory"
	SuiteCryptoRegistry = "crypto_registry"
	SuiteCryptoFactory  = "crypto_factory"
)

// AllSuites lists suites in execution order.
var AllSuites = []string{SuiteStableRegistry, SuiteStableFactory, SuiteCryptoRegistry, SuiteCryptoFactory}

// PoolSource enumerates pools by index.
type PoolSource interface {
	PoolCount(ctx context.Context) (uint64, error)
	PoolList(ctx context.Context, index uint64) (common.Address, error)
}

// Reference produces the expected virtual price for a pool.
type Reference interface {
	VirtualPrice(ctx context.Context, pool, lpToken common.Address) (*big.Int, error)
}

// LPTokenPricer is a registry answering by LP token.
type LPTokenPricer interface {
	GetVirtualPriceFromLPToken(ctx context.Context, lpToken common.Address) (*big.Int, error)
}

// PoolPricer answers get_virtual_price() on the pool contract itself.
type PoolPricer interface {
	GetVirtualPrice(ctx context.Context, pool common.Address) (*big.Int, error)
}

// RegistryReference asks an underlying registry by LP token.
type RegistryReference struct {
	Registry LPTokenPricer
}

func (r RegistryReference) VirtualPrice(ctx context.Context, _, lpToken common.Address) (*big.Int, error) {
	return r.Registry.GetVirtualPriceFromLPToken(ctx, lpToken)
}

// PoolReference asks the pool contract directly.
type PoolReference struct {
	Pools PoolPricer
}

func (r PoolReference) VirtualPrice(ctx context.Context, pool, _ common.Address) (*big.Int, error) {
	return r.Pools.GetVirtualPrice(ctx, pool)
}

// Suite pairs a pool source with the implementation the facade must match.
type Suite struct {
	Name      string
	Pools     PoolSource
	Reference Reference
	// ReferenceMayRevert accepts a reverting reference as long as the facade
	// reverts too.
	ReferenceMayRevert bool
}

func (s Suite) validate() error {
	if s.Name == "" {
		return fmt.Errorf("suite name is required")
	}
	if s.Pools == nil {
		return fmt.Errorf("suite %s: pool source is nil", s.Name)
	}
	if s.Reference == nil {
		return fmt.Errorf("suite %s: reference is nil", s.Name)
	}
	return nil
}

// SuiteSources holds the contracts the standard suites are built from.
type SuiteSources struct {
	StableRegistry interface {
		PoolSource
		LPTokenPricer
	}
	StableFactory  PoolSource
	CryptoRegistry interface {
		PoolSource
		LPTokenPricer
	}
	CryptoFactory PoolSource
	Pools         PoolPricer
}

// StandardSuite builds one of the four named suites.
func StandardSuite(name string, src SuiteSources) (Suite, error) {
	var s Suite
	if (name == SuiteStableFactory || name == SuiteCryptoFactory) && src.Pools == nil {
		return Suite{}, fmt.Errorf("suite %s: pool reader is nil", name)
	}
	switch name {
	case SuiteStableRegistry:
		s = Suite{Name: name, Pools: src.StableRegistry, Reference: RegistryReference{Registry: src.StableRegistry}}
	case SuiteStableFactory:
		s = Suite{Name: name, Pools: src.StableFactory, Reference: PoolReference{Pools: src.Pools}, ReferenceMayRevert: true}
	case SuiteCryptoRegistry:
		s = Suite{Name: name, Pools: src.CryptoRegistry, Reference: RegistryReference{Registry: src.CryptoRegistry}}
	case SuiteCryptoFactory:
		s = Suite{Name: name, Pools: src.CryptoFactory, Reference: PoolReference{Pools: src.Pools}}
	default:
		return Suite{}, fmt.Errorf("unknown suite %q", name)
	}
	return s, s.validate()
}
