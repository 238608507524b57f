package chain

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// revertErrorCode is the JSON-RPC code geth-compatible nodes use for
// eth_call reverts that carry revert data.
const revertErrorCode = 3

var revertMessages = []string{
	"execution reverted",
	"vm exception while processing transaction: revert",
	"reverted with reason string",
	"transaction reverted",
	"invalid opcode",
}

// IsRevert reports whether err is a contract logic failure as opposed to a
// transport or decoding problem.
func IsRevert(err error) bool {
	if err == nil {
		return false
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertErrorCode {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, needle := range revertMessages {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// RevertData returns the raw revert payload attached to err, if any.
func RevertData(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}
	data, ok := dataErr.ErrorData().(string)
	return data, ok
}
