package registry

import (
	"errors"
	"math/big"
	"time"

	"deedshare/core/events"
	"deedshare/core/types"
	"deedshare/native/shares"
)

var (
	ErrNilState         = errors.New("registry: state not configured")
	ErrNilLedger        = errors.New("registry: share ledger not configured")
	ErrNotOwner         = errors.New("registry: caller is not the registry owner")
	ErrInvalidShares    = errors.New("registry: total shares must be positive")
	ErrPropertyNotFound = errors.New("registry: property not found")
)

type engineState interface {
	NextPropertyID() (uint64, error)
	PropertyPut(*Property) error
	PropertyGet(id uint64) (*Property, bool, error)
	RegistryOwner() ([20]byte, error)
	SetRegistryOwner([20]byte) error
}

// Engine is the single-writer registration gate for the property catalog.
// Registration mints the property's full share supply into the marketplace
// inventory account, never to the registering caller.
type Engine struct {
	state     engineState
	ledger    *shares.Engine
	inventory [20]byte
	emitter   events.Emitter
	nowFn     func() int64
}

// NewEngine constructs a registry engine bound to the supplied share ledger.
func NewEngine(ledger *shares.Engine) *Engine {
	return &Engine{
		ledger:  ledger,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetInventory configures the marketplace inventory account that receives the
// minted supply of every new property.
func (e *Engine) SetInventory(addr [20]byte) { e.inventory = addr }

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
	e.emitter.Emit(registryEvent{evt: evt})
}

// Register appends a new property record, allocates its share ledger and
// mints the full supply into the marketplace inventory. Only the registry
// owner may register.
func (e *Engine) Register(title, metadataRef string, totalShares uint64, initialSharePrice *big.Int, caller [20]byte) (*Property, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.ledger == nil {
		return nil, ErrNilLedger
	}
	owner, err := e.state.RegistryOwner()
	if err != nil {
		return nil, err
	}
	if caller != owner {
		return nil, ErrNotOwner
	}
	if totalShares == 0 {
		return nil, ErrInvalidShares
	}
	price := big.NewInt(0)
	if initialSharePrice != nil {
		price = new(big.Int).Set(initialSharePrice)
	}
	prop := &Property{
		Title:             title,
		MetadataRef:       metadataRef,
		TotalShares:       totalShares,
		InitialSharePrice: price,
		CreatedBy:         caller,
		CreatedAt:         e.nowFn(),
		Active:            true,
	}
	sanitized, err := SanitizeProperty(prop)
	if err != nil {
		return nil, err
	}
	id, err := e.state.NextPropertyID()
	if err != nil {
		return nil, err
	}
	sanitized.ID = id
	if err := e.ledger.MintInitialSupply(id, e.inventory, totalShares); err != nil {
		return nil, err
	}
	if err := e.state.PropertyPut(sanitized); err != nil {
		return nil, err
	}
	e.emit(NewRegisteredEvent(sanitized))
	return sanitized.Clone(), nil
}

// Get returns the property record for the id.
func (e *Engine) Get(id uint64) (*Property, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	prop, ok, err := e.state.PropertyGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPropertyNotFound
	}
	return prop.Clone(), nil
}

// SetActive flips the visibility flag on a property record. Records are never
// removed; an inactive property keeps its ledger and accrual state intact.
func (e *Engine) SetActive(id uint64, active bool, caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	owner, err := e.state.RegistryOwner()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotOwner
	}
	prop, ok, err := e.state.PropertyGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPropertyNotFound
	}
	if prop.Active == active {
		return nil
	}
	prop.Active = active
	if err := e.state.PropertyPut(prop); err != nil {
		return err
	}
	e.emit(NewActiveChangedEvent(prop))
	return nil
}

// TransferOwnership reassigns the registry owner. Only the current owner may
// transfer; the change is an explicit, audited mutation.
func (e *Engine) TransferOwnership(newOwner, caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	owner, err := e.state.RegistryOwner()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotOwner
	}
	if newOwner == owner {
		return nil
	}
	if err := e.state.SetRegistryOwner(newOwner); err != nil {
		return err
	}
	e.emit(NewOwnershipTransferredEvent(owner, newOwner))
	return nil
}
