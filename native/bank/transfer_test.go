package bank

import (
	"errors"
	"math/big"
	"testing"

	"deedshare/core/types"
)

type mockState struct {
	accounts map[[20]byte]*types.Account
}

func newMockState() *mockState {
	return &mockState{accounts: make(map[[20]byte]*types.Account)}
}

func (m *mockState) GetAccount(addr [20]byte) (*types.Account, error) {
	return types.Ensure(m.accounts[addr]).Clone(), nil
}

func (m *mockState) PutAccount(addr [20]byte, account *types.Account) error {
	m.accounts[addr] = account.Clone()
	return nil
}

func (m *mockState) balance(addr [20]byte) *big.Int {
	return types.Ensure(m.accounts[addr]).Balance
}

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestTransferMovesFunds(t *testing.T) {
	state := newMockState()
	from := testAddr(0x01)
	to := testAddr(0x02)
	state.accounts[from] = &types.Account{Balance: big.NewInt(100)}

	if err := Transfer(state, from, to, big.NewInt(60)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := state.balance(from); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("expected sender 40, got %s", got)
	}
	if got := state.balance(to); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected recipient 60, got %s", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	state := newMockState()
	from := testAddr(0x01)
	to := testAddr(0x02)
	state.accounts[from] = &types.Account{Balance: big.NewInt(10)}

	if err := Transfer(state, from, to, big.NewInt(11)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := state.balance(from); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("expected sender untouched, got %s", got)
	}
}

func TestTransferZeroIsNoOp(t *testing.T) {
	state := newMockState()
	from := testAddr(0x01)
	to := testAddr(0x02)
	if err := Transfer(state, from, to, big.NewInt(0)); err != nil {
		t.Fatalf("zero transfer: %v", err)
	}
	if err := Transfer(state, from, to, nil); err != nil {
		t.Fatalf("nil transfer: %v", err)
	}
}

func TestTransferNegativeRejected(t *testing.T) {
	state := newMockState()
	if err := Transfer(state, testAddr(0x01), testAddr(0x02), big.NewInt(-5)); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestSelfTransferKeepsBalance(t *testing.T) {
	state := newMockState()
	addr := testAddr(0x01)
	state.accounts[addr] = &types.Account{Balance: big.NewInt(100)}
	if err := Transfer(state, addr, addr, big.NewInt(30)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if got := state.balance(addr); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected balance unchanged, got %s", got)
	}
}

func TestMint(t *testing.T) {
	state := newMockState()
	addr := testAddr(0x01)
	if err := Mint(state, addr, big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := Mint(state, addr, big.NewInt(250)); err != nil {
		t.Fatalf("second mint: %v", err)
	}
	if got := state.balance(addr); got.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("expected 750, got %s", got)
	}
	if err := Mint(state, addr, big.NewInt(-1)); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}
