package curve

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"metaregistryCheck/internal/chain"
	"metaregistryCheck/internal/model"
)

// TokenReader queries ERC20 tokens directly, bypassing any registry.
type TokenReader struct {
	stringABI  binding
	bytes32ABI binding
}

func NewTokenReader(caller chain.Caller, opts Options) (*TokenReader, error) {
	s, err := newBinding("erc20", caller, ERC20ABI, opts)
	if err != nil {
		return nil, err
	}
	b, err := newBinding("erc20", caller, ERC20Bytes32ABI, opts)
	if err != nil {
		return nil, err
	}
	return &TokenReader{stringABI: s, bytes32ABI: b}, nil
}

// Decimals calls decimals() on the token.
func (t *TokenReader) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	values, err := t.stringABI.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	return asUint8(values[0])
}

// FetchTokenMeta loads decimals, symbol and name. Symbol and name fall back
// to the bytes32 encoding used by older tokens.
func (t *TokenReader) FetchTokenMeta(ctx context.Context, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if logger == nil {
		logger = zap.NewNop()
	}

	decimals, err := t.Decimals(ctx, token)
	if err != nil {
		return meta, fmt.Errorf("token %s: %w", token.Hex(), err)
	}
	meta.Decimals = decimals

	if values, err := t.stringABI.call(ctx, token, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := t.bytes32ABI.call(ctx, token, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := t.stringABI.call(ctx, token, "name"); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := t.bytes32ABI.call(ctx, token, "name"); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}
