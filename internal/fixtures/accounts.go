package fixtures

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AccountLister lists the accounts a node manages.
type AccountLister interface {
	Accounts(ctx context.Context) ([]common.Address, error)
}

// AdminReader reads the admin of the address provider.
type AdminReader interface {
	Admin(ctx context.Context) (common.Address, error)
}

// Accounts are the well-known callers used by the checks.
type Accounts struct {
	Alice        common.Address
	Unauthorised common.Address
	Random       common.Address
	// Owner is the address provider admin.
	Owner common.Address
}

// ResolveAccounts maps node accounts 0..2 to alice, unauthorised and random,
// and reads the owner from the address provider. Missing node accounts stay
// zero; nodes not managing keys return none.
func ResolveAccounts(ctx context.Context, lister AccountLister, provider AdminReader) (Accounts, error) {
	var out Accounts

	if lister != nil {
		accounts, err := lister.Accounts(ctx)
		if err != nil {
			return Accounts{}, fmt.Errorf("list accounts: %w", err)
		}
		slots := []*common.Address{&out.Alice, &out.Unauthorised, &out.Random}
		for i := range slots {
			if i < len(accounts) {
				*slots[i] = accounts[i]
			}
		}
	}

	if provider == nil {
		return Accounts{}, fmt.Errorf("address provider is nil")
	}
	owner, err := provider.Admin(ctx)
	if err != nil {
		return Accounts{}, fmt.Errorf("address provider admin: %w", err)
	}
	out.Owner = owner
	return out, nil
}
