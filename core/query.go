package core

import (
	"math/big"

	"deedshare/core/events"
	"deedshare/core/state"
	"deedshare/native/marketplace"
	"deedshare/native/registry"
)

// ListProperties returns the property catalog in id order with offset/limit
// pagination. A zero limit returns everything after the offset.
func (n *Node) ListProperties(offset, limit uint64) ([]*registry.Property, error) {
	var props []*registry.Property
	err := n.withReadState(func(_ *engineSet, mgr *state.Manager) error {
		var err error
		props, err = mgr.ListProperties(offset, limit)
		return err
	})
	return props, err
}

// GetProperty returns a single property record.
func (n *Node) GetProperty(id uint64) (*registry.Property, error) {
	var prop *registry.Property
	err := n.withReadState(func(eng *engineSet, _ *state.Manager) error {
		var err error
		prop, err = eng.registry.Get(id)
		return err
	})
	return prop, err
}

// GetListing returns a single listing record.
func (n *Node) GetListing(id uint64) (*marketplace.Listing, error) {
	var listing *marketplace.Listing
	err := n.withReadState(func(eng *engineSet, _ *state.Manager) error {
		var err error
		listing, err = eng.marketplace.GetListing(id)
		return err
	})
	return listing, err
}

// ListingsFor returns every listing created for the property in creation
// order, including terminal ones.
func (n *Node) ListingsFor(propertyID uint64) ([]*marketplace.Listing, error) {
	var listings []*marketplace.Listing
	err := n.withReadState(func(_ *engineSet, mgr *state.Manager) error {
		var err error
		listings, err = mgr.ListingsByProperty(propertyID)
		return err
	})
	return listings, err
}

// BalanceOf returns the share balance of an account in a property ledger.
func (n *Node) BalanceOf(propertyID uint64, addr [20]byte) (uint64, error) {
	var balance uint64
	err := n.withReadState(func(eng *engineSet, _ *state.Manager) error {
		var err error
		balance, err = eng.ledger.BalanceOf(propertyID, addr)
		return err
	})
	return balance, err
}

// TotalShares returns the fixed supply of a property ledger.
func (n *Node) TotalShares(propertyID uint64) (uint64, error) {
	var supply uint64
	err := n.withReadState(func(eng *engineSet, _ *state.Manager) error {
		var err error
		supply, err = eng.ledger.TotalShares(propertyID)
		return err
	})
	return supply, err
}

// ClaimablePreview reports what a claim would pay out right now without
// mutating any state.
func (n *Node) ClaimablePreview(propertyID uint64, addr [20]byte) (*big.Int, error) {
	var claimable *big.Int
	err := n.withReadState(func(eng *engineSet, _ *state.Manager) error {
		var err error
		claimable, err = eng.dividends.Preview(propertyID, addr)
		return err
	})
	return claimable, err
}

// TotalDividendsDeposited reports the lifetime dividend volume of a property.
func (n *Node) TotalDividendsDeposited(propertyID uint64) (*big.Int, error) {
	var total *big.Int
	err := n.withReadState(func(eng *engineSet, _ *state.Manager) error {
		var err error
		total, err = eng.dividends.TotalDeposited(propertyID)
		return err
	})
	return total, err
}

// Owners reports the current registry and marketplace owner accounts.
func (n *Node) Owners() (registryOwner, marketplaceOwner [20]byte, err error) {
	err = n.withReadState(func(_ *engineSet, mgr *state.Manager) error {
		var err error
		if registryOwner, err = mgr.RegistryOwner(); err != nil {
			return err
		}
		marketplaceOwner, err = mgr.MarketplaceOwner()
		return err
	})
	return registryOwner, marketplaceOwner, err
}

// Events pages through the append-only operation log, returning records with
// sequence numbers strictly greater than after.
func (n *Node) Events(after uint64, limit int) []events.Record {
	return n.log.After(after, limit)
}
