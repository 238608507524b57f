package fixtures

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Manifest lists explicit pools per suite, replacing on-chain enumeration:
//
//	stable_registry:
//	  - "0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7"
//	crypto_factory: []
type Manifest map[string][]common.Address

type manifestFile map[string][]string

// LoadManifest reads a YAML pool manifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var raw manifestFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	out := make(Manifest, len(raw))
	for suite, entries := range raw {
		pools := make([]common.Address, 0, len(entries))
		for _, entry := range entries {
			entry = strings.TrimSpace(entry)
			if !common.IsHexAddress(entry) {
				return nil, fmt.Errorf("manifest %s: invalid address %q", suite, entry)
			}
			pools = append(pools, common.HexToAddress(entry))
		}
		out[strings.TrimSpace(suite)] = pools
	}
	return out, nil
}

// StaticPools serves a fixed pool list as a pool source.
type StaticPools []common.Address

func (p StaticPools) PoolCount(context.Context) (uint64, error) {
	return uint64(len(p)), nil
}

func (p StaticPools) PoolList(_ context.Context, index uint64) (common.Address, error) {
	if index >= uint64(len(p)) {
		return common.Address{}, fmt.Errorf("pool index %d out of range (%d pools)", index, len(p))
	}
	return p[index], nil
}
