package marketplace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"deedshare/core/events"
	"deedshare/core/types"
	"deedshare/native/bank"
	"deedshare/native/registry"
	"deedshare/native/shares"
)

var (
	ErrNilState              = errors.New("marketplace: state not configured")
	ErrNilLedger             = errors.New("marketplace: share ledger not configured")
	ErrNilRegistry           = errors.New("marketplace: registry not configured")
	ErrNilTreasury           = errors.New("marketplace: treasury not configured")
	ErrNotOwner              = errors.New("marketplace: caller is not the marketplace owner")
	ErrNotSeller             = errors.New("marketplace: caller is not the listing seller")
	ErrInvalidCounterparty   = errors.New("marketplace: seller cannot fill own listing")
	ErrZeroAmount            = errors.New("marketplace: amount must be positive")
	ErrInactiveProperty      = errors.New("marketplace: property not available for primary sale")
	ErrInsufficientInventory = errors.New("marketplace: insufficient inventory")
	ErrInsufficientPayment   = errors.New("marketplace: insufficient payment")
	ErrNotOpen               = errors.New("marketplace: listing is not open")
	ErrListingNotFound       = errors.New("marketplace: listing not found")
	ErrArithmeticOverflow    = errors.New("marketplace: price arithmetic overflow")
	ErrFeeOutOfRange         = errors.New("marketplace: fee bps out of range")
)

// maxPaymentBits bounds every computed payment total to the u128 domain.
const maxPaymentBits = 128

type engineState interface {
	NextListingID() (uint64, error)
	ListingPut(*Listing) error
	ListingGet(id uint64) (*Listing, bool, error)
	ListingIndexProperty(propertyID, listingID uint64) error
	MarketplaceOwner() ([20]byte, error)
	SetMarketplaceOwner([20]byte) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Engine orchestrates primary sales from registry inventory and the secondary
// listing book. Balance moves are delegated to the share ledger (which
// checkpoints dividends on both sides) and payment moves to the bank
// primitive. Every operation is ordered checks, then internal share
// mutations, then payment settlement, so an aborted payment rolls back the
// whole transition.
type Engine struct {
	state     engineState
	ledger    *shares.Engine
	registry  *registry.Engine
	inventory [20]byte
	treasury  [20]byte
	feeBps    uint32
	emitter   events.Emitter
	nowFn     func() int64
}

// NewEngine constructs a marketplace engine bound to the share ledger and
// property registry.
func NewEngine(ledger *shares.Engine, reg *registry.Engine) *Engine {
	return &Engine{
		ledger:   ledger,
		registry: reg,
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetInventory configures the module account holding primary-sale inventory.
func (e *Engine) SetInventory(addr [20]byte) { e.inventory = addr }

// SetTreasury configures the account receiving primary-sale proceeds and
// platform fees.
func (e *Engine) SetTreasury(addr [20]byte) { e.treasury = addr }

// SetFeeBps fixes the platform fee applied to secondary fills. The rate is a
// deploy-time value; it is set once during node construction and never
// mutated per trade.
func (e *Engine) SetFeeBps(bps uint32) error {
	if bps > 10_000 {
		return ErrFeeOutOfRange
	}
	e.feeBps = bps
	return nil
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(marketEvent{evt: evt})
}

// ListingEscrowAddress derives the module account that escrows the shares of
// a single listing for its lifetime.
func ListingEscrowAddress(listingID uint64) [20]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], listingID)
	digest := ethcrypto.Keccak256([]byte("deedshare/listing-escrow"), buf[:])
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

// totalPrice computes amount*pricePerShare with an explicit u128 domain check
// so an oversized quote fails loudly instead of wrapping.
func totalPrice(amount uint64, pricePerShare *big.Int) (*big.Int, error) {
	price := big.NewInt(0)
	if pricePerShare != nil {
		price = pricePerShare
	}
	total := new(big.Int).Mul(new(big.Int).SetUint64(amount), price)
	if total.BitLen() > maxPaymentBits {
		return nil, ErrArithmeticOverflow
	}
	return total, nil
}

// CreateProperty registers a new property through the registry. Only the
// marketplace owner (the platform administrator) may create properties; the
// registry itself is owned by the marketplace module, which is how the
// two-tier ownership gate is expressed.
func (e *Engine) CreateProperty(title, metadataRef string, totalShares uint64, initialSharePrice *big.Int, caller [20]byte) (*registry.Property, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.registry == nil {
		return nil, ErrNilRegistry
	}
	owner, err := e.state.MarketplaceOwner()
	if err != nil {
		return nil, err
	}
	if caller != owner {
		return nil, ErrNotOwner
	}
	prop, err := e.registry.Register(title, metadataRef, totalShares, initialSharePrice, e.inventory)
	if err != nil {
		return nil, err
	}
	e.emit(NewPropertyCreatedEvent(prop, caller))
	return prop, nil
}

// SetPropertyActive flips the primary-sale availability flag through the
// registry. Only the marketplace owner may change it; the registry-side gate
// is satisfied with the marketplace module identity.
func (e *Engine) SetPropertyActive(propertyID uint64, active bool, caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.registry == nil {
		return ErrNilRegistry
	}
	owner, err := e.state.MarketplaceOwner()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotOwner
	}
	return e.registry.SetActive(propertyID, active, e.inventory)
}

// TransferOwnership reassigns the marketplace administrator.
func (e *Engine) TransferOwnership(newOwner, caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	owner, err := e.state.MarketplaceOwner()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotOwner
	}
	if newOwner == owner {
		return nil
	}
	if err := e.state.SetMarketplaceOwner(newOwner); err != nil {
		return err
	}
	e.emit(NewOwnershipTransferredEvent(owner, newOwner))
	return nil
}

// BuyShares executes a primary sale out of the marketplace inventory. The
// tendered payment must cover amount*initialSharePrice; only the required
// total leaves the buyer, so any overpayment is refunded exactly.
func (e *Engine) BuyShares(propertyID uint64, amount uint64, payment *big.Int, buyer [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.ledger == nil {
		return nil, ErrNilLedger
	}
	if e.treasury == ([20]byte{}) {
		return nil, ErrNilTreasury
	}
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	prop, err := e.registry.Get(propertyID)
	if err != nil {
		return nil, err
	}
	if !prop.Active {
		return nil, ErrInactiveProperty
	}
	inventoryBal, err := e.ledger.BalanceOf(propertyID, e.inventory)
	if err != nil {
		return nil, err
	}
	if inventoryBal < amount {
		return nil, ErrInsufficientInventory
	}
	total, err := totalPrice(amount, prop.InitialSharePrice)
	if err != nil {
		return nil, err
	}
	tendered := big.NewInt(0)
	if payment != nil {
		tendered = payment
	}
	if tendered.Cmp(total) < 0 {
		return nil, ErrInsufficientPayment
	}
	if err := e.ledger.Transfer(propertyID, e.inventory, buyer, amount); err != nil {
		return nil, err
	}
	if err := bank.Transfer(e.state, buyer, e.treasury, total); err != nil {
		return nil, err
	}
	refund := new(big.Int).Sub(tendered, total)
	e.emit(NewSharesBoughtEvent(propertyID, buyer, amount, total, refund))
	return refund, nil
}

// CreateListing escrows the offered shares out of the seller's tradable
// balance and opens a listing. Escrow happens at creation, not at fill, so a
// seller cannot oversell through concurrent listings.
func (e *Engine) CreateListing(propertyID uint64, amount uint64, pricePerShare *big.Int, caller [20]byte) (*Listing, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.ledger == nil {
		return nil, ErrNilLedger
	}
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	if _, err := e.registry.Get(propertyID); err != nil {
		return nil, err
	}
	id, err := e.state.NextListingID()
	if err != nil {
		return nil, err
	}
	listing := &Listing{
		ID:            id,
		Seller:        caller,
		PropertyID:    propertyID,
		Amount:        amount,
		PricePerShare: pricePerShare,
		Escrow:        ListingEscrowAddress(id),
		Status:        ListingOpen,
		CreatedAt:     e.nowFn(),
	}
	sanitized, err := SanitizeListing(listing)
	if err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(propertyID, caller, sanitized.Escrow, amount); err != nil {
		return nil, err
	}
	if err := e.state.ListingPut(sanitized); err != nil {
		return nil, err
	}
	if err := e.state.ListingIndexProperty(propertyID, id); err != nil {
		return nil, err
	}
	e.emit(NewListingCreatedEvent(sanitized))
	return sanitized.Clone(), nil
}

// CancelListing returns the escrowed shares to the seller and closes the
// listing terminally.
func (e *Engine) CancelListing(listingID uint64, caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	listing, err := e.loadListing(listingID)
	if err != nil {
		return err
	}
	if listing.Status != ListingOpen {
		return ErrNotOpen
	}
	if listing.Seller != caller {
		return ErrNotSeller
	}
	if err := e.ledger.Transfer(listing.PropertyID, listing.Escrow, listing.Seller, listing.Amount); err != nil {
		return err
	}
	listing.Status = ListingCancelled
	if err := e.state.ListingPut(listing); err != nil {
		return err
	}
	e.emit(NewListingCancelledEvent(listing))
	return nil
}

// FillListing buys the whole listed lot. The escrowed shares move to the
// buyer and the proceeds, minus the deploy-time platform fee, move to the
// seller. Partial fills are not supported; lots are atomic.
func (e *Engine) FillListing(listingID uint64, payment *big.Int, caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.ledger == nil {
		return nil, ErrNilLedger
	}
	listing, err := e.loadListing(listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != ListingOpen {
		return nil, ErrNotOpen
	}
	if listing.Seller == caller {
		return nil, ErrInvalidCounterparty
	}
	total, err := totalPrice(listing.Amount, listing.PricePerShare)
	if err != nil {
		return nil, err
	}
	tendered := big.NewInt(0)
	if payment != nil {
		tendered = payment
	}
	if tendered.Cmp(total) < 0 {
		return nil, ErrInsufficientPayment
	}
	fee := new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(e.feeBps)))
	fee.Quo(fee, big.NewInt(10_000))
	proceeds := new(big.Int).Sub(total, fee)
	if err := e.ledger.Transfer(listing.PropertyID, listing.Escrow, caller, listing.Amount); err != nil {
		return nil, err
	}
	if err := bank.Transfer(e.state, caller, listing.Seller, proceeds); err != nil {
		return nil, err
	}
	if fee.Sign() > 0 {
		if e.treasury == ([20]byte{}) {
			return nil, ErrNilTreasury
		}
		if err := bank.Transfer(e.state, caller, e.treasury, fee); err != nil {
			return nil, err
		}
	}
	listing.Status = ListingFilled
	if err := e.state.ListingPut(listing); err != nil {
		return nil, err
	}
	refund := new(big.Int).Sub(tendered, total)
	e.emit(NewListingFilledEvent(listing, caller, total, fee, refund))
	return refund, nil
}

// GetListing returns the listing record for the id.
func (e *Engine) GetListing(listingID uint64) (*Listing, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.loadListing(listingID)
}

func (e *Engine) loadListing(id uint64) (*Listing, error) {
	listing, ok, err := e.state.ListingGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrListingNotFound
	}
	sanitized, err := SanitizeListing(listing)
	if err != nil {
		return nil, fmt.Errorf("marketplace: corrupt listing %d: %w", id, err)
	}
	return sanitized, nil
}
