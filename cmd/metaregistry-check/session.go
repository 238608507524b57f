package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"metaregistryCheck/internal/chain"
	"metaregistryCheck/internal/config"
	"metaregistryCheck/internal/conformance"
	"metaregistryCheck/internal/curve"
	"metaregistryCheck/internal/filter"
	"metaregistryCheck/internal/fixtures"
)

// session is a connection pinned to one block.
type session struct {
	client      *chain.Client
	caller      chain.Caller
	chainID     uint64
	blockNumber uint64
	opts        curve.Options
}

func openSession(ctx context.Context, cfg config.ChainConfig, observer curve.CallObserver, logger *zap.Logger) (*session, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		client.Close()
		return nil, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	block := cfg.Block
	if block == 0 {
		block, err = client.LatestBlockNumber(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("get latest block: %w", err)
		}
	}

	return &session{
		client:      client,
		caller:      chain.NewRetryCaller(client, cfg.MaxRetries, cfg.RetryBackoff, logger),
		chainID:     chainID.Uint64(),
		blockNumber: block,
		opts:        curve.Options{Block: new(big.Int).SetUint64(block), Observer: observer},
	}, nil
}

func (s *session) Close() {
	s.client.Close()
}

// contracts are the bindings every command works with.
type contracts struct {
	addresses      fixtures.Addresses
	provider       *curve.AddressProvider
	metaRegistry   *curve.MetaRegistry
	stableRegistry *curve.Registry
	stableFactory  *curve.Factory
	cryptoRegistry *curve.Registry
	cryptoFactory  *curve.Factory
	pools          *curve.PoolReader
	tokens         *curve.TokenReader
}

func (s *session) bindContracts(ctx context.Context, cfg config.AddressConfig) (*contracts, error) {
	providerAddr, err := config.ParseAddress(cfg.AddressProvider)
	if err != nil {
		return nil, fmt.Errorf("address-provider: %w", err)
	}
	overrides, err := cfg.Overrides()
	if err != nil {
		return nil, err
	}

	c := &contracts{}
	var resolver fixtures.AddressResolver
	if providerAddr != (common.Address{}) {
		if c.provider, err = curve.NewAddressProvider(s.caller, providerAddr, s.opts); err != nil {
			return nil, err
		}
		resolver = c.provider
	}
	if c.addresses, err = fixtures.ResolveAddresses(ctx, resolver, overrides); err != nil {
		return nil, err
	}

	if c.metaRegistry, err = curve.NewMetaRegistry(s.caller, c.addresses.MetaRegistry, s.opts); err != nil {
		return nil, err
	}
	if c.stableRegistry, err = curve.NewRegistry(conformance.SuiteStableRegistry, s.caller, c.addresses.StableRegistry, s.opts); err != nil {
		return nil, err
	}
	if c.stableFactory, err = curve.NewFactory(conformance.SuiteStableFactory, s.caller, c.addresses.StableFactory, s.opts); err != nil {
		return nil, err
	}
	if c.cryptoRegistry, err = curve.NewRegistry(conformance.SuiteCryptoRegistry, s.caller, c.addresses.CryptoRegistry, s.opts); err != nil {
		return nil, err
	}
	if c.cryptoFactory, err = curve.NewFactory(conformance.SuiteCryptoFactory, s.caller, c.addresses.CryptoFactory, s.opts); err != nil {
		return nil, err
	}
	if c.pools, err = curve.NewPoolReader(s.caller, s.opts); err != nil {
		return nil, err
	}
	if c.tokens, err = curve.NewTokenReader(s.caller, s.opts); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *contracts) suite(name string) (conformance.Suite, error) {
	return conformance.StandardSuite(name, conformance.SuiteSources{
		StableRegistry: c.stableRegistry,
		StableFactory:  c.stableFactory,
		CryptoRegistry: c.cryptoRegistry,
		CryptoFactory:  c.cryptoFactory,
		Pools:          c.pools,
	})
}

func newFilter(cfg config.FilterConfig, probe filter.DecimalsProbe) (*filter.Filter, error) {
	th, err := cfg.Thresholds()
	if err != nil {
		return nil, err
	}
	return filter.New(th, probe), nil
}
