package curve

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// MaxCoins is the fixed coin-slot width of registry array getters.
const MaxCoins = 8

const metaRegistryABIJSON = `[
  {"inputs": [{"name": "_pool", "type": "address"}], "name": "get_balances", "outputs": [{"name": "", "type": "uint256[8]"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "_pool", "type": "address"}], "name": "get_decimals", "outputs": [{"name": "", "type": "uint256[8]"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "_pool", "type": "address"}], "name": "get_coins", "outputs": [{"name": "", "type": "address[8]"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "_pool", "type": "address"}], "name": "get_lp_token", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "_token", "type": "address"}], "name": "get_virtual_price_from_lp_token", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "pool_count", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "_index", "type": "uint256"}], "name": "pool_list", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

// Stable and crypto registries share the subset used here.
const registryABIJSON = `[
  {"inputs": [{"name": "_token", "type": "address"}], "name": "get_virtual_price_from_lp_token", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "pool_count", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "arg0", "type": "uint256"}], "name": "pool_list", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

const factoryABIJSON = `[
  {"inputs": [], "name": "pool_count", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "arg0", "type": "uint256"}], "name": "pool_list", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

const poolABIJSON = `[
  {"inputs": [], "name": "get_virtual_price", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const addressProviderABIJSON = `[
  {"inputs": [], "name": "admin", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "_id", "type": "uint256"}], "name": "get_address", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "max_id", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

type lazyABI struct {
	json   string
	once   sync.Once
	parsed abi.ABI
	err    error
}

func (l *lazyABI) get() (abi.ABI, error) {
	l.once.Do(func() {
		l.parsed, l.err = abi.JSON(strings.NewReader(l.json))
	})
	return l.parsed, l.err
}

var (
	metaRegistryABI    = &lazyABI{json: metaRegistryABIJSON}
	registryABI        = &lazyABI{json: registryABIJSON}
	factoryABI         = &lazyABI{json: factoryABIJSON}
	poolABI            = &lazyABI{json: poolABIJSON}
	addressProviderABI = &lazyABI{json: addressProviderABIJSON}
)

// MetaRegistryABI returns the parsed metaregistry ABI.
func MetaRegistryABI() (abi.ABI, error) { return metaRegistryABI.get() }

// RegistryABI returns the parsed registry ABI.
func RegistryABI() (abi.ABI, error) { return registryABI.get() }

// FactoryABI returns the parsed factory ABI.
func FactoryABI() (abi.ABI, error) { return factoryABI.get() }

// PoolABI returns the parsed pool ABI.
func PoolABI() (abi.ABI, error) { return poolABI.get() }

// AddressProviderABI returns the parsed address provider ABI.
func AddressProviderABI() (abi.ABI, error) { return addressProviderABI.get() }
