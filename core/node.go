package core

import (
	"errors"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"deedshare/core/events"
	"deedshare/core/state"
	"deedshare/core/types"
	"deedshare/native/dividends"
	"deedshare/native/marketplace"
	"deedshare/native/registry"
	"deedshare/native/shares"
	"deedshare/observability"
	"deedshare/observability/metrics"
	"deedshare/storage"
)

// ErrNilDatabase is returned when a node is constructed without a backing
// store.
var ErrNilDatabase = errors.New("core: database required")

// Params carries the deploy-time configuration of the ledger core. All
// values are fixed at construction; in particular the fee rate cannot change
// per trade.
type Params struct {
	Admin    [20]byte
	Treasury [20]byte
	FeeBps   uint32
}

// Node is the single-writer gate in front of the ledger core. Every mutating
// operation runs against a journaled overlay of the committed database and
// either commits in full or leaves no trace; events reach the durable log
// only after the overlay commits. Read-only queries share an RLock and always
// observe fully committed state.
type Node struct {
	mu     sync.RWMutex
	db     storage.Database
	params Params
	log    *events.Log
	nowFn  func() int64
}

// InventoryAddress is the module account holding primary-sale inventory for
// every property ledger.
var InventoryAddress = moduleAddress("deedshare/marketplace-inventory")

// DividendPoolAddress is the module account escrowing deposited dividends
// until holders claim them.
var DividendPoolAddress = moduleAddress("deedshare/dividend-pool")

func moduleAddress(name string) [20]byte {
	digest := ethcrypto.Keccak256([]byte(name))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

// NewNode opens the ledger core over the provided database and applies the
// genesis bootstrap if it has not run yet.
func NewNode(db storage.Database, params Params, genesis *Genesis) (*Node, error) {
	if db == nil {
		return nil, ErrNilDatabase
	}
	n := &Node{
		db:     db,
		params: params,
		log:    events.NewLog(),
	}
	if err := n.applyGenesis(genesis); err != nil {
		return nil, err
	}
	return n, nil
}

// EventLog exposes the append-only operation log for indexers.
func (n *Node) EventLog() *events.Log { return n.log }

type engineSet struct {
	ledger      *shares.Engine
	registry    *registry.Engine
	dividends   *dividends.Engine
	marketplace *marketplace.Engine
}

// newEngines wires the native engines over the given state manager. Engines
// are cheap to construct, so each operation gets a fresh set bound to its own
// overlay.
func (n *Node) newEngines(mgr *state.Manager, emitter events.Emitter) (*engineSet, error) {
	ledger := shares.NewEngine()
	ledger.SetState(mgr)
	ledger.SetEmitter(emitter)

	div := dividends.NewEngine()
	div.SetState(mgr)
	div.SetPoolAccount(DividendPoolAddress)
	div.SetEmitter(emitter)
	ledger.SetCheckpointer(div)

	reg := registry.NewEngine(ledger)
	reg.SetState(mgr)
	reg.SetInventory(InventoryAddress)
	reg.SetEmitter(emitter)

	market := marketplace.NewEngine(ledger, reg)
	market.SetState(mgr)
	market.SetInventory(InventoryAddress)
	market.SetTreasury(n.params.Treasury)
	market.SetEmitter(emitter)
	if err := market.SetFeeBps(n.params.FeeBps); err != nil {
		return nil, err
	}
	if n.nowFn != nil {
		reg.SetNowFunc(n.nowFn)
		market.SetNowFunc(n.nowFn)
	}
	return &engineSet{ledger: ledger, registry: reg, dividends: div, marketplace: market}, nil
}

// withMutableState serialises a mutating operation: it builds an overlay over
// the committed database, applies fn against it, and commits overlay plus
// buffered events only when fn succeeds. Any error discards the overlay, so
// state after a failed call is byte-identical to before it.
func (n *Node) withMutableState(op string, fn func(*engineSet, *state.Manager) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	overlay := storage.NewOverlay(n.db)
	mgr := state.NewManager(overlay)
	buffer := &events.Buffer{}
	engines, err := n.newEngines(mgr, buffer)
	if err != nil {
		return err
	}
	if err := fn(engines, mgr); err != nil {
		overlay.Discard()
		metrics.Marketplace().ObserveOperation(op, "error")
		return err
	}
	if err := overlay.Commit(); err != nil {
		metrics.Marketplace().ObserveOperation(op, "commit_error")
		return err
	}
	for _, evt := range buffer.Events() {
		observability.Events().RecordEvent(evt.Type)
	}
	buffer.FlushTo(n.log)
	metrics.Marketplace().ObserveOperation(op, "ok")
	return nil
}

// withReadState runs a read-only query against committed state. Queries may
// run concurrently with each other but never interleave with a mutation.
func (n *Node) withReadState(fn func(*engineSet, *state.Manager) error) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	mgr := state.NewManager(n.db)
	engines, err := n.newEngines(mgr, events.NoopEmitter{})
	if err != nil {
		return err
	}
	return fn(engines, mgr)
}

// CreateProperty registers a property and mints its share supply into the
// marketplace inventory. Administrator only.
func (n *Node) CreateProperty(title, metadataRef string, totalShares uint64, initialSharePrice *big.Int, caller [20]byte) (*registry.Property, error) {
	var prop *registry.Property
	err := n.withMutableState("create_property", func(eng *engineSet, _ *state.Manager) error {
		var err error
		prop, err = eng.marketplace.CreateProperty(title, metadataRef, totalShares, initialSharePrice, caller)
		return err
	})
	if err != nil {
		return nil, err
	}
	return prop, nil
}

// SetPropertyActive flips the primary-sale availability flag of a property.
func (n *Node) SetPropertyActive(propertyID uint64, active bool, caller [20]byte) error {
	return n.withMutableState("set_property_active", func(eng *engineSet, _ *state.Manager) error {
		return eng.marketplace.SetPropertyActive(propertyID, active, caller)
	})
}

// TransferMarketplaceOwnership reassigns the platform administrator.
func (n *Node) TransferMarketplaceOwnership(newOwner, caller [20]byte) error {
	return n.withMutableState("transfer_ownership", func(eng *engineSet, _ *state.Manager) error {
		return eng.marketplace.TransferOwnership(newOwner, caller)
	})
}

// BuyShares executes a primary sale. It returns the refunded overpayment.
func (n *Node) BuyShares(propertyID uint64, amount uint64, payment *big.Int, buyer [20]byte) (*big.Int, error) {
	var refund *big.Int
	err := n.withMutableState("buy_shares", func(eng *engineSet, _ *state.Manager) error {
		var err error
		refund, err = eng.marketplace.BuyShares(propertyID, amount, payment, buyer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// TransferShares moves shares directly between two holders, checkpointing
// dividends on both sides.
func (n *Node) TransferShares(propertyID uint64, from, to [20]byte, amount uint64) error {
	return n.withMutableState("transfer_shares", func(eng *engineSet, _ *state.Manager) error {
		return eng.ledger.Transfer(propertyID, from, to, amount)
	})
}

// CreateListing opens a secondary-market listing, escrowing the shares.
func (n *Node) CreateListing(propertyID uint64, amount uint64, pricePerShare *big.Int, caller [20]byte) (*marketplace.Listing, error) {
	var listing *marketplace.Listing
	err := n.withMutableState("create_listing", func(eng *engineSet, _ *state.Manager) error {
		var err error
		listing, err = eng.marketplace.CreateListing(propertyID, amount, pricePerShare, caller)
		return err
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// CancelListing returns escrowed shares to the seller and closes the listing.
func (n *Node) CancelListing(listingID uint64, caller [20]byte) error {
	return n.withMutableState("cancel_listing", func(eng *engineSet, _ *state.Manager) error {
		return eng.marketplace.CancelListing(listingID, caller)
	})
}

// FillListing buys a whole listed lot. It returns the refunded overpayment.
func (n *Node) FillListing(listingID uint64, payment *big.Int, caller [20]byte) (*big.Int, error) {
	var refund *big.Int
	err := n.withMutableState("fill_listing", func(eng *engineSet, _ *state.Manager) error {
		var err error
		refund, err = eng.marketplace.FillListing(listingID, payment, caller)
		return err
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// DepositDividends pays rental income into a property's dividend pool.
// Administrator only.
func (n *Node) DepositDividends(propertyID uint64, amount *big.Int, caller [20]byte) error {
	return n.withMutableState("deposit_dividends", func(eng *engineSet, _ *state.Manager) error {
		if err := eng.dividends.Deposit(propertyID, amount, caller); err != nil {
			return err
		}
		metrics.Marketplace().ObserveDividendDeposit(propertyID, amount)
		return nil
	})
}

// ClaimDividends settles and pays out the caller's accrued dividends.
func (n *Node) ClaimDividends(propertyID uint64, caller [20]byte) (*big.Int, error) {
	var payout *big.Int
	err := n.withMutableState("claim_dividends", func(eng *engineSet, _ *state.Manager) error {
		var err error
		payout, err = eng.dividends.Claim(propertyID, caller)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// MintFunds credits payment units to an account. Administrator only; backs
// demo funding and treasury top-ups.
func (n *Node) MintFunds(to [20]byte, amount *big.Int, caller [20]byte) error {
	return n.withMutableState("mint_funds", func(eng *engineSet, mgr *state.Manager) error {
		owner, err := mgr.MarketplaceOwner()
		if err != nil {
			return err
		}
		if caller != owner {
			return marketplace.ErrNotOwner
		}
		if amount == nil || amount.Sign() <= 0 {
			return marketplace.ErrZeroAmount
		}
		return mintFunds(mgr, to, amount)
	})
}

// GetAccount returns the payment account of an address.
func (n *Node) GetAccount(addr [20]byte) (*types.Account, error) {
	var acc *types.Account
	err := n.withReadState(func(_ *engineSet, mgr *state.Manager) error {
		var err error
		acc, err = mgr.GetAccount(addr)
		return err
	})
	return acc, err
}
