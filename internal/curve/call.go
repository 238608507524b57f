package curve

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"metaregistryCheck/internal/chain"
)

// CallObserver receives the timing and result of every view call.
type CallObserver interface {
	ObserveCall(contract, method string, elapsed time.Duration, err error)
}

// Options are shared by all bindings.
type Options struct {
	// Block pins calls to a block height; nil means latest.
	Block    *big.Int
	Observer CallObserver
}

type binding struct {
	name   string
	caller chain.Caller
	parsed abi.ABI
	opts   Options
}

func newBinding(name string, caller chain.Caller, load func() (abi.ABI, error), opts Options) (binding, error) {
	if caller == nil {
		return binding{}, fmt.Errorf("chain caller is nil")
	}
	parsed, err := load()
	if err != nil {
		return binding{}, fmt.Errorf("parse %s abi: %w", name, err)
	}
	return binding{name: name, caller: caller, parsed: parsed, opts: opts}, nil
}

func (b binding) call(ctx context.Context, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	start := time.Now()
	values, err := callMethod(ctx, b.caller, to, b.parsed, method, b.opts.Block, args...)
	if b.opts.Observer != nil {
		b.opts.Observer.ObserveCall(b.name, method, time.Since(start), err)
	}
	return values, err
}

func callMethod(ctx context.Context, caller chain.Caller, to common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint64(value interface{}) (uint64, error) {
	n, err := asBigInt(value)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("value does not fit in uint64: %s", n)
	}
	return n.Uint64(), nil
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func asBigIntSlice(value interface{}) ([]*big.Int, error) {
	switch v := value.(type) {
	case [MaxCoins]*big.Int:
		out := make([]*big.Int, len(v))
		for i, n := range v {
			out[i] = new(big.Int).Set(n)
		}
		return out, nil
	case []*big.Int:
		out := make([]*big.Int, len(v))
		for i, n := range v {
			out[i] = new(big.Int).Set(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported int array type %T", value)
	}
}

func asAddressSlice(value interface{}) ([]common.Address, error) {
	switch v := value.(type) {
	case [MaxCoins]common.Address:
		return append([]common.Address(nil), v[:]...), nil
	case []common.Address:
		return append([]common.Address(nil), v...), nil
	default:
		return nil, fmt.Errorf("unsupported address array type %T", value)
	}
}
