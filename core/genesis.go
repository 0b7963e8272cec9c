package core

import (
	"math/big"

	"deedshare/core/state"
	"deedshare/native/bank"
)

// GenesisAlloc seeds a payment balance for a single account at first start.
type GenesisAlloc struct {
	Address [20]byte
	Balance *big.Int
}

// Genesis describes the one-time bootstrap applied when the node starts over
// an empty database: ownership wiring plus optional initial balances.
type Genesis struct {
	Allocations []GenesisAlloc
}

// applyGenesis wires the two-tier ownership (marketplace owned by the
// administrator, registry owned by the marketplace module) and mints the
// configured allocations. It is a no-op once the bootstrap flag is set.
func (n *Node) applyGenesis(genesis *Genesis) error {
	mgr := state.NewManager(n.db)
	applied, err := mgr.GenesisApplied()
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	return n.withMutableState("genesis", func(_ *engineSet, mgr *state.Manager) error {
		if err := mgr.SetMarketplaceOwner(n.params.Admin); err != nil {
			return err
		}
		if err := mgr.SetRegistryOwner(InventoryAddress); err != nil {
			return err
		}
		if genesis != nil {
			for _, alloc := range genesis.Allocations {
				if err := mintFunds(mgr, alloc.Address, alloc.Balance); err != nil {
					return err
				}
			}
		}
		return mgr.SetGenesisApplied()
	})
}

func mintFunds(mgr *state.Manager, to [20]byte, amount *big.Int) error {
	return bank.Mint(mgr, to, amount)
}
