package main

import (
	"bytes"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaregistryCheck/internal/chain/chaintest"
	"metaregistryCheck/internal/curve"
	"metaregistryCheck/internal/model"
	"metaregistryCheck/internal/report"
)

var (
	metaAddr           = common.HexToAddress("0x1000000000000000000000000000000000000007")
	stableRegistryAddr = common.HexToAddress("0x1000000000000000000000000000000000000000")
	stableFactoryAddr  = common.HexToAddress("0x1000000000000000000000000000000000000003")
	cryptoRegistryAddr = common.HexToAddress("0x1000000000000000000000000000000000000005")
	cryptoFactoryAddr  = common.HexToAddress("0x1000000000000000000000000000000000000006")
	ownerAddr          = common.HexToAddress("0x5000000000000000000000000000000000000001")

	healthyPool = common.HexToAddress("0x2000000000000000000000000000000000000001")
	emptyPool   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	healthyLP   = common.HexToAddress("0x3000000000000000000000000000000000000001")
	emptyLP     = common.HexToAddress("0x3000000000000000000000000000000000000002")
	coinA       = common.HexToAddress("0x4000000000000000000000000000000000000001")
	coinB       = common.HexToAddress("0x4000000000000000000000000000000000000002")
)

// fakeChain wires a metaregistry, its address provider and a stable registry
// listing one healthy and one empty pool.
func fakeChain(t *testing.T, facadePrice *big.Int) *chaintest.Node {
	t.Helper()
	refPrice, _ := new(big.Int).SetString("1002345678901234567", 10)

	providerABI, err := curve.AddressProviderABI()
	require.NoError(t, err)
	metaABI, err := curve.MetaRegistryABI()
	require.NoError(t, err)
	registryABI, err := curve.RegistryABI()
	require.NoError(t, err)
	erc20ABI, err := curve.ERC20ABI()
	require.NoError(t, err)

	node := chaintest.NewNode(1)
	node.SetBlock(19_000_000)

	byID := map[uint64]common.Address{
		curve.IDStableRegistry: stableRegistryAddr,
		curve.IDStableFactory:  stableFactoryAddr,
		curve.IDCryptoRegistry: cryptoRegistryAddr,
		curve.IDCryptoFactory:  cryptoFactoryAddr,
		curve.IDMetaRegistry:   metaAddr,
	}
	node.HandleABI(curve.AddressProviderAddress, providerABI, map[string]chaintest.MethodFunc{
		"admin": chaintest.Returns(ownerAddr),
		"get_address": func(args []interface{}) ([]interface{}, error) {
			return []interface{}{byID[args[0].(*big.Int).Uint64()]}, nil
		},
	})

	lpOf := map[common.Address]common.Address{healthyPool: healthyLP, emptyPool: emptyLP}
	node.HandleABI(metaAddr, metaABI, map[string]chaintest.MethodFunc{
		"get_balances": func(args []interface{}) ([]interface{}, error) {
			if args[0].(common.Address) == emptyPool {
				return []interface{}{chaintest.Uint256s()}, nil
			}
			return []interface{}{chaintest.Uint256s(4000, 6000)}, nil
		},
		"get_lp_token": func(args []interface{}) ([]interface{}, error) {
			return []interface{}{lpOf[args[0].(common.Address)]}, nil
		},
		"get_decimals": chaintest.Returns(chaintest.Uint256s(18, 18)),
		"get_coins":    chaintest.Returns(chaintest.Addresses(coinA, coinB)),
		"get_virtual_price_from_lp_token": func(args []interface{}) ([]interface{}, error) {
			if args[0].(common.Address) != healthyLP {
				return nil, &chaintest.RevertError{}
			}
			return []interface{}{facadePrice}, nil
		},
	})

	pools := []common.Address{healthyPool, emptyPool}
	node.HandleABI(stableRegistryAddr, registryABI, map[string]chaintest.MethodFunc{
		"pool_count": chaintest.Returns(big.NewInt(int64(len(pools)))),
		"pool_list": func(args []interface{}) ([]interface{}, error) {
			return []interface{}{pools[args[0].(*big.Int).Uint64()]}, nil
		},
		"get_virtual_price_from_lp_token": chaintest.Returns(refPrice),
	})

	node.HandleABI(coinA, erc20ABI, map[string]chaintest.MethodFunc{
		"decimals": chaintest.Returns(uint8(18)),
		"symbol":   chaintest.Returns("DAI"),
		"name":     chaintest.Returns("Dai Stablecoin"),
	})

	return node
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func readSummary(t *testing.T, path string) report.Summary {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	summary, err := report.Summarize(file)
	require.NoError(t, err)
	return summary
}

func TestRunCommand(t *testing.T) {
	refPrice, _ := new(big.Int).SetString("1002345678901234567", 10)
	url := fakeChain(t, refPrice).Serve(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "results.jsonl")

	_, err := execute(t, "run",
		"--rpc", url,
		"--suite", "stable_registry",
		"--out", out,
		"--checkpoint", filepath.Join(dir, "checkpoint.json"),
		"--batch-size", "1",
		"--log-level", "error",
	)
	require.NoError(t, err)

	summary := readSummary(t, out)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Outcomes[model.OutcomePass])
	assert.Equal(t, 1, summary.Suites["stable_registry"].Reasons[model.OutcomeSkip]["empty"])

	_, err = execute(t, "summary", "--in", out, "--log-level", "error")
	assert.NoError(t, err)
}

func TestRunCommandFailsOnMismatch(t *testing.T) {
	url := fakeChain(t, big.NewInt(1)).Serve(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "results.jsonl")

	_, err := execute(t, "run",
		"--rpc", url,
		"--suite", "stable_registry",
		"--out", out,
		"--checkpoint-enabled=false",
		"--log-level", "error",
	)
	require.Error(t, err)

	summary := readSummary(t, out)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "mismatch", summary.Failures[0].Reason)
	assert.Equal(t, healthyPool.Hex(), summary.Failures[0].Pool)

	_, err = execute(t, "summary", "--in", out, "--log-level", "error")
	assert.Error(t, err)
}

func TestRunCommandWithManifest(t *testing.T) {
	refPrice, _ := new(big.Int).SetString("1002345678901234567", 10)
	url := fakeChain(t, refPrice).Serve(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "results.jsonl")
	manifest := filepath.Join(dir, "pools.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("stable_registry:\n  - \""+healthyPool.Hex()+"\"\n"), 0o644))

	_, err := execute(t, "run",
		"--rpc", url,
		"--suite", "stable_registry",
		"--pools-file", manifest,
		"--out", out,
		"--checkpoint-enabled=false",
		"--log-level", "error",
	)
	require.NoError(t, err)

	summary := readSummary(t, out)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Outcomes[model.OutcomePass])
}

func TestCheckCommand(t *testing.T) {
	refPrice, _ := new(big.Int).SetString("1002345678901234567", 10)
	url := fakeChain(t, refPrice).Serve(t)

	output, err := execute(t, "check", "--rpc", url, "--pool", healthyPool.Hex(), "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, output, `"outcome": "pass"`)
	assert.Contains(t, output, `"facade_virtual_price": "1002345678901234567"`)

	_, err = execute(t, "check", "--rpc", url, "--log-level", "error")
	assert.Error(t, err)
}

func TestAccountsCommand(t *testing.T) {
	refPrice, _ := new(big.Int).SetString("1002345678901234567", 10)
	node := fakeChain(t, refPrice)
	alice := common.HexToAddress("0x6000000000000000000000000000000000000001")
	node.SetAccounts(alice)

	output, err := execute(t, "accounts", "--rpc", node.Serve(t), "--log-level", "error")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "alice        "+alice.Hex(), lines[0])
	assert.Equal(t, "unauthorised "+common.Address{}.Hex(), lines[1])
	assert.Equal(t, "owner        "+ownerAddr.Hex(), lines[3])
}
