package dividends

import (
	"errors"
	"math/big"

	"deedshare/core/events"
	"deedshare/core/types"
	"deedshare/native/bank"
)

var (
	ErrNilState        = errors.New("dividends: state not configured")
	ErrNilPool         = errors.New("dividends: pool account not configured")
	ErrNotOwner        = errors.New("dividends: caller is not the marketplace owner")
	ErrZeroAmount      = errors.New("dividends: amount must be positive")
	ErrNothingToClaim  = errors.New("dividends: nothing to claim")
	ErrUnknownProperty = errors.New("dividends: no share ledger for property")
)

// Scale is the fixed-point precision factor applied to the per-share index.
var Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

type engineState interface {
	AccrualGet(propertyID uint64) (*Accrual, bool, error)
	AccrualPut(propertyID uint64, acc *Accrual) error
	CheckpointGet(propertyID uint64, addr [20]byte) (*HolderCheckpoint, bool, error)
	CheckpointPut(propertyID uint64, addr [20]byte, cp *HolderCheckpoint) error
	ShareBalance(propertyID uint64, addr [20]byte) (uint64, error)
	ShareSupply(propertyID uint64) (uint64, bool, error)
	MarketplaceOwner() ([20]byte, error)
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Engine implements proportional rental-income distribution with a
// cumulative-per-share accumulator and lazy per-holder checkpoints. Claim cost
// is O(1) regardless of deposit or holder count; the price is an O(1)
// checkpoint on every balance-changing event, invoked before the balance
// moves.
type Engine struct {
	state   engineState
	pool    [20]byte
	emitter events.Emitter
}

// NewEngine creates a dividend engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPoolAccount configures the module account that escrows deposited
// dividends until holders claim them.
func (e *Engine) SetPoolAccount(addr [20]byte) { e.pool = addr }

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
	e.emitter.Emit(dividendEvent{evt: evt})
}

func (e *Engine) loadAccrual(propertyID uint64) (*Accrual, error) {
	acc, ok, err := e.state.AccrualGet(propertyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return newAccrual(), nil
	}
	return acc.Clone(), nil
}

func (e *Engine) loadCheckpoint(propertyID uint64, addr [20]byte) (*HolderCheckpoint, error) {
	cp, ok, err := e.state.CheckpointGet(propertyID, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return newCheckpoint(), nil
	}
	return cp.Clone(), nil
}

// Deposit moves the payment amount from the caller into the dividend pool and
// advances the per-share index by amount*Scale/totalShares. Division rounds
// down; the remainder is carried in Residue and folded into the next deposit,
// so the pool is never overdrawn and no value is lost.
func (e *Engine) Deposit(propertyID uint64, amount *big.Int, caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.pool == ([20]byte{}) {
		return ErrNilPool
	}
	owner, err := e.state.MarketplaceOwner()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotOwner
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	supply, ok, err := e.state.ShareSupply(propertyID)
	if err != nil {
		return err
	}
	if !ok || supply == 0 {
		return ErrUnknownProperty
	}
	if err := bank.Transfer(e.state, caller, e.pool, amount); err != nil {
		return err
	}
	acc, err := e.loadAccrual(propertyID)
	if err != nil {
		return err
	}
	supplyBig := new(big.Int).SetUint64(supply)
	scaled := new(big.Int).Mul(amount, Scale)
	scaled.Add(scaled, acc.Residue)
	delta := new(big.Int).Quo(scaled, supplyBig)
	acc.Residue = new(big.Int).Rem(scaled, supplyBig)
	acc.CumulativePerShare = new(big.Int).Add(acc.CumulativePerShare, delta)
	acc.TotalDeposited = new(big.Int).Add(acc.TotalDeposited, amount)
	if err := e.state.AccrualPut(propertyID, acc); err != nil {
		return err
	}
	e.emit(NewDepositedEvent(propertyID, caller, amount, acc))
	return nil
}

// Checkpoint settles the account's accrued entitlement against the current
// index. It must run on both sides of every balance-changing event before the
// balance moves; the share ledger wires it through shares.Checkpointer.
func (e *Engine) Checkpoint(propertyID uint64, account [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	acc, err := e.loadAccrual(propertyID)
	if err != nil {
		return err
	}
	cp, err := e.loadCheckpoint(propertyID, account)
	if err != nil {
		return err
	}
	if acc.CumulativePerShare.Cmp(cp.LastCumulative) == 0 {
		return nil
	}
	balance, err := e.state.ShareBalance(propertyID, account)
	if err != nil {
		return err
	}
	if balance > 0 {
		diff := new(big.Int).Sub(acc.CumulativePerShare, cp.LastCumulative)
		owed := new(big.Int).Mul(diff, new(big.Int).SetUint64(balance))
		owed.Quo(owed, Scale)
		cp.Unclaimed = new(big.Int).Add(cp.Unclaimed, owed)
	}
	cp.LastCumulative = new(big.Int).Set(acc.CumulativePerShare)
	return e.state.CheckpointPut(propertyID, account, cp)
}

// Claim settles and pays out the caller's unclaimed dividends from the pool.
func (e *Engine) Claim(propertyID uint64, account [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.pool == ([20]byte{}) {
		return nil, ErrNilPool
	}
	if err := e.Checkpoint(propertyID, account); err != nil {
		return nil, err
	}
	cp, err := e.loadCheckpoint(propertyID, account)
	if err != nil {
		return nil, err
	}
	if cp.Unclaimed.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	payout := new(big.Int).Set(cp.Unclaimed)
	if err := bank.Transfer(e.state, e.pool, account, payout); err != nil {
		return nil, err
	}
	cp.Unclaimed = big.NewInt(0)
	if err := e.state.CheckpointPut(propertyID, account, cp); err != nil {
		return nil, err
	}
	e.emit(NewClaimedEvent(propertyID, account, payout))
	return payout, nil
}

// Preview reports the amount Claim would pay out right now, without mutating
// any state.
func (e *Engine) Preview(propertyID uint64, account [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	acc, err := e.loadAccrual(propertyID)
	if err != nil {
		return nil, err
	}
	cp, err := e.loadCheckpoint(propertyID, account)
	if err != nil {
		return nil, err
	}
	claimable := new(big.Int).Set(cp.Unclaimed)
	if acc.CumulativePerShare.Cmp(cp.LastCumulative) != 0 {
		balance, err := e.state.ShareBalance(propertyID, account)
		if err != nil {
			return nil, err
		}
		if balance > 0 {
			diff := new(big.Int).Sub(acc.CumulativePerShare, cp.LastCumulative)
			owed := new(big.Int).Mul(diff, new(big.Int).SetUint64(balance))
			owed.Quo(owed, Scale)
			claimable.Add(claimable, owed)
		}
	}
	return claimable, nil
}

// TotalDeposited reports the lifetime dividend volume for a property.
func (e *Engine) TotalDeposited(propertyID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	acc, err := e.loadAccrual(propertyID)
	if err != nil {
		return nil, err
	}
	return acc.TotalDeposited, nil
}
