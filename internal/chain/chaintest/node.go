// Package chaintest serves a scripted eth JSON-RPC namespace in-process so
// bindings can be exercised against real ABI encoding without a node.
package chaintest

import (
	"fmt"
	"math/big"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Handler answers eth_call input for one contract address.
type Handler func(input []byte) ([]byte, error)

// MethodFunc receives unpacked arguments and returns values to pack.
type MethodFunc func(args []interface{}) ([]interface{}, error)

// RevertError is returned the way geth reports reverted calls.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

func (e *RevertError) ErrorCode() int { return 3 }

func (e *RevertError) ErrorData() interface{} { return "0x" }

// Node is a fake node. Calls to unknown addresses revert.
type Node struct {
	mu       sync.Mutex
	chainID  uint64
	block    uint64
	accounts []common.Address
	handlers map[common.Address]Handler
	calls    map[common.Address]int
}

func NewNode(chainID uint64) *Node {
	return &Node{
		chainID:  chainID,
		block:    1,
		handlers: make(map[common.Address]Handler),
		calls:    make(map[common.Address]int),
	}
}

func (n *Node) SetBlock(block uint64) {
	n.mu.Lock()
	n.block = block
	n.mu.Unlock()
}

func (n *Node) SetAccounts(accounts ...common.Address) {
	n.mu.Lock()
	n.accounts = accounts
	n.mu.Unlock()
}

func (n *Node) Handle(address common.Address, handler Handler) {
	n.mu.Lock()
	n.handlers[address] = handler
	n.mu.Unlock()
}

// HandleABI routes calls to address by selector using parsed.
func (n *Node) HandleABI(address common.Address, parsed abi.ABI, methods map[string]MethodFunc) {
	n.Handle(address, ABIHandler(parsed, methods))
}

// Calls returns how many eth_call requests hit address.
func (n *Node) Calls(address common.Address) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[address]
}

func (n *Node) newServer(t testing.TB) *rpc.Server {
	t.Helper()
	server := rpc.NewServer()
	if err := server.RegisterName("eth", &ethService{node: n}); err != nil {
		t.Fatalf("register eth service: %v", err)
	}
	return server
}

// Dial starts an in-process server for the node.
func (n *Node) Dial(t testing.TB) *rpc.Client {
	t.Helper()
	server := n.newServer(t)
	client := rpc.DialInProc(server)
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})
	return client
}

// Serve exposes the node over HTTP and returns its URL.
func (n *Node) Serve(t testing.TB) string {
	t.Helper()
	server := n.newServer(t)
	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		httpServer.Close()
		server.Stop()
	})
	return httpServer.URL
}

// ABIHandler dispatches by 4-byte selector. Unknown selectors revert.
func ABIHandler(parsed abi.ABI, methods map[string]MethodFunc) Handler {
	return func(input []byte) ([]byte, error) {
		if len(input) < 4 {
			return nil, &RevertError{}
		}
		method, err := parsed.MethodById(input[:4])
		if err != nil {
			return nil, &RevertError{}
		}
		fn, ok := methods[method.Name]
		if !ok {
			return nil, &RevertError{}
		}
		args, err := method.Inputs.Unpack(input[4:])
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method.Name, err)
		}
		out, err := fn(args)
		if err != nil {
			return nil, err
		}
		return method.Outputs.Pack(out...)
	}
}

// Returns is a MethodFunc with fixed results.
func Returns(values ...interface{}) MethodFunc {
	return func([]interface{}) ([]interface{}, error) { return values, nil }
}

// Reverts is a MethodFunc that always reverts.
func Reverts(reason string) MethodFunc {
	return func([]interface{}) ([]interface{}, error) { return nil, &RevertError{Reason: reason} }
}

// Fails is a MethodFunc that fails like a transport error would.
func Fails(msg string) MethodFunc {
	return func([]interface{}) ([]interface{}, error) { return nil, fmt.Errorf("%s", msg) }
}

// Uint256s builds a fixed eight-slot uint256 array.
func Uint256s(values ...int64) [8]*big.Int {
	var out [8]*big.Int
	for i := range out {
		out[i] = new(big.Int)
		if i < len(values) {
			out[i].SetInt64(values[i])
		}
	}
	return out
}

// Addresses builds a fixed eight-slot address array.
func Addresses(values ...common.Address) [8]common.Address {
	var out [8]common.Address
	copy(out[:], values)
	return out
}

type callArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
}

func (a callArgs) payload() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

type ethService struct {
	node *Node
}

func (s *ethService) Call(args callArgs, block string) (hexutil.Bytes, error) {
	if args.To == nil {
		return nil, &RevertError{Reason: "no target"}
	}
	s.node.mu.Lock()
	handler, ok := s.node.handlers[*args.To]
	s.node.calls[*args.To]++
	s.node.mu.Unlock()
	if !ok {
		return nil, &RevertError{}
	}
	out, err := handler(args.payload())
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ethService) ChainId() *hexutil.Big {
	s.node.mu.Lock()
	defer s.node.mu.Unlock()
	return (*hexutil.Big)(new(big.Int).SetUint64(s.node.chainID))
}

func (s *ethService) BlockNumber() hexutil.Uint64 {
	s.node.mu.Lock()
	defer s.node.mu.Unlock()
	return hexutil.Uint64(s.node.block)
}

func (s *ethService) Accounts() []common.Address {
	s.node.mu.Lock()
	defer s.node.mu.Unlock()
	return append([]common.Address(nil), s.node.accounts...)
}
