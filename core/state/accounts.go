package state

import (
	"math/big"

	"deedshare/core/types"
)

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount returns the payment account for the address. Unknown addresses
// report a zero-balance account rather than an error.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	stored := new(storedAccount)
	ok, err := m.load(kvKey(accountPrefix, addr[:]), stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	return types.Ensure(&types.Account{Nonce: stored.Nonce, Balance: stored.Balance}), nil
}

// PutAccount persists the payment account for the address.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	account = types.Ensure(account)
	return m.store(kvKey(accountPrefix, addr[:]), &storedAccount{
		Nonce:   account.Nonce,
		Balance: account.Balance,
	})
}
