package chain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"metaregistryCheck/internal/chain/chaintest"
)

type codeError struct {
	code int
	msg  string
}

func (e codeError) Error() string  { return e.msg }
func (e codeError) ErrorCode() int { return e.code }

func TestIsRevert(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "code 3", err: codeError{code: 3, msg: "boom"}, want: true},
		{name: "wrapped code 3", err: fmt.Errorf("call get_virtual_price: %w", codeError{code: 3, msg: "boom"}), want: true},
		{name: "geth message", err: errors.New("execution reverted"), want: true},
		{name: "ganache message", err: errors.New("VM Exception while processing transaction: revert"), want: true},
		{name: "fake node revert", err: &chaintest.RevertError{Reason: "empty pool"}, want: true},
		{name: "transport", err: errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"), want: false},
		{name: "other rpc code", err: codeError{code: -32000, msg: "header not found"}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRevert(tc.err))
		})
	}
}

func TestRevertData(t *testing.T) {
	data, ok := RevertData(fmt.Errorf("wrap: %w", &chaintest.RevertError{}))
	assert.True(t, ok)
	assert.Equal(t, "0x", data)

	_, ok = RevertData(errors.New("plain"))
	assert.False(t, ok)
}
