package shares

import (
	"errors"

	"deedshare/core/events"
	"deedshare/core/types"
)

var (
	ErrNilState            = errors.New("share ledger: state not configured")
	ErrZeroAmount          = errors.New("share ledger: amount must be positive")
	ErrInsufficientBalance = errors.New("share ledger: insufficient balance")
	ErrAlreadyMinted       = errors.New("share ledger: supply already minted")
	ErrInvalidShares       = errors.New("share ledger: total shares must be positive")
	ErrUnknownLedger       = errors.New("share ledger: no ledger for property")
	ErrArithmeticOverflow  = errors.New("share ledger: balance arithmetic overflow")
)

type engineState interface {
	ShareSupply(propertyID uint64) (uint64, bool, error)
	SetShareSupply(propertyID uint64, supply uint64) error
	ShareBalance(propertyID uint64, addr [20]byte) (uint64, error)
	SetShareBalance(propertyID uint64, addr [20]byte, balance uint64) error
}

// Checkpointer settles accrued-but-unclaimed dividends for an account before
// its balance changes. The dividend engine implements this; the ledger only
// cares that it runs on both sides of every transfer, before the mutation.
type Checkpointer interface {
	Checkpoint(propertyID uint64, account [20]byte) error
}

// Engine maintains the fixed-supply share balance table for every registered
// property. Transfer is the sole balance mutation path after the one-time
// mint, which keeps the conservation invariant local to this package.
type Engine struct {
	state        engineState
	checkpointer Checkpointer
	emitter      events.Emitter
}

// NewEngine creates a share ledger engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCheckpointer configures the dividend checkpoint hook. Passing nil
// disables checkpointing (only valid in isolated tests).
func (e *Engine) SetCheckpointer(cp Checkpointer) { e.checkpointer = cp }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(ledgerEvent{evt: evt})
}

// MintInitialSupply issues the full share supply of a property to the
// recipient. It may run exactly once per property; the registry invokes it
// during property creation with the marketplace inventory as recipient.
func (e *Engine) MintInitialSupply(propertyID uint64, to [20]byte, supply uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if supply == 0 {
		return ErrInvalidShares
	}
	if _, exists, err := e.state.ShareSupply(propertyID); err != nil {
		return err
	} else if exists {
		return ErrAlreadyMinted
	}
	if err := e.state.SetShareSupply(propertyID, supply); err != nil {
		return err
	}
	if err := e.state.SetShareBalance(propertyID, to, supply); err != nil {
		return err
	}
	e.emit(NewMintedEvent(propertyID, to, supply))
	return nil
}

// BalanceOf returns the share balance of the account for the property. An
// account that never held shares reports zero.
func (e *Engine) BalanceOf(propertyID uint64, addr [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	return e.state.ShareBalance(propertyID, addr)
}

// TotalShares returns the fixed supply minted for the property.
func (e *Engine) TotalShares(propertyID uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, ErrNilState
	}
	supply, ok, err := e.state.ShareSupply(propertyID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrUnknownLedger
	}
	return supply, nil
}

// Transfer moves shares between two accounts of the same property ledger.
// Both sides are dividend-checkpointed before any balance changes so accrued
// entitlements stay with the sender and the recipient accrues only from the
// post-transfer balance onward.
func (e *Engine) Transfer(propertyID uint64, from, to [20]byte, amount uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	if _, exists, err := e.state.ShareSupply(propertyID); err != nil {
		return err
	} else if !exists {
		return ErrUnknownLedger
	}
	fromBal, err := e.state.ShareBalance(propertyID, from)
	if err != nil {
		return err
	}
	if fromBal < amount {
		return ErrInsufficientBalance
	}
	toBal, err := e.state.ShareBalance(propertyID, to)
	if err != nil {
		return err
	}
	if toBal+amount < toBal {
		return ErrArithmeticOverflow
	}
	if e.checkpointer != nil {
		if err := e.checkpointer.Checkpoint(propertyID, from); err != nil {
			return err
		}
		if err := e.checkpointer.Checkpoint(propertyID, to); err != nil {
			return err
		}
	}
	if from == to {
		return nil
	}
	if err := e.state.SetShareBalance(propertyID, from, fromBal-amount); err != nil {
		return err
	}
	if err := e.state.SetShareBalance(propertyID, to, toBal+amount); err != nil {
		return err
	}
	e.emit(NewTransferredEvent(propertyID, from, to, amount))
	return nil
}
