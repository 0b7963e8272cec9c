package bank

import (
	"errors"
	"math/big"

	"deedshare/core/types"
)

var (
	ErrNilState          = errors.New("bank: state required")
	ErrNegativeAmount    = errors.New("bank: negative transfer amount")
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
)

// State is the minimal account access the value-transfer primitive needs.
type State interface {
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Transfer moves a payment amount between two accounts. A zero amount is a
// no-op; the caller decides whether zero is acceptable for its operation.
// Failures leave both accounts untouched.
func Transfer(st State, from, to [20]byte, amount *big.Int) error {
	if st == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	fromAcc, err := st.GetAccount(from)
	if err != nil {
		return err
	}
	fromAcc = types.Ensure(fromAcc)
	if fromAcc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	toAcc, err := st.GetAccount(to)
	if err != nil {
		return err
	}
	toAcc = types.Ensure(toAcc)
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := st.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return st.PutAccount(to, toAcc)
}

// Mint credits freshly issued payment units to an account. It backs genesis
// allocations and the admin faucet; ordinary operations only ever Transfer.
func Mint(st State, to [20]byte, amount *big.Int) error {
	if st == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	acc, err := st.GetAccount(to)
	if err != nil {
		return err
	}
	acc = types.Ensure(acc)
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	return st.PutAccount(to, acc)
}
