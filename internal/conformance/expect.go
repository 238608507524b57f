package conformance

import (
	"context"
	"errors"

	"metaregistryCheck/internal/chain"
)

// ErrNotReverted means a call that had to revert returned a value.
var ErrNotReverted = errors.New("call succeeded where a revert was expected")

// ExpectRevert runs fn and returns nil only if it reverted. A successful call
// yields ErrNotReverted; any other error is returned as is.
func ExpectRevert(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil {
		return ErrNotReverted
	}
	if chain.IsRevert(err) {
		return nil
	}
	return err
}
