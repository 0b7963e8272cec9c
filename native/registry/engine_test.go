package registry

import (
	"errors"
	"math/big"
	"testing"

	"deedshare/native/shares"
)

type balanceKey struct {
	property uint64
	addr     [20]byte
}

type mockState struct {
	properties map[uint64]*Property
	nextID     uint64
	owner      [20]byte
	supplies   map[uint64]uint64
	balances   map[balanceKey]uint64
}

func newMockState(owner [20]byte) *mockState {
	return &mockState{
		properties: make(map[uint64]*Property),
		owner:      owner,
		supplies:   make(map[uint64]uint64),
		balances:   make(map[balanceKey]uint64),
	}
}

func (m *mockState) NextPropertyID() (uint64, error) {
	m.nextID++
	return m.nextID, nil
}

func (m *mockState) PropertyPut(p *Property) error {
	m.properties[p.ID] = p.Clone()
	return nil
}

func (m *mockState) PropertyGet(id uint64) (*Property, bool, error) {
	prop, ok := m.properties[id]
	if !ok {
		return nil, false, nil
	}
	return prop.Clone(), true, nil
}

func (m *mockState) RegistryOwner() ([20]byte, error) { return m.owner, nil }

func (m *mockState) SetRegistryOwner(owner [20]byte) error {
	m.owner = owner
	return nil
}

func (m *mockState) ShareSupply(propertyID uint64) (uint64, bool, error) {
	supply, ok := m.supplies[propertyID]
	return supply, ok, nil
}

func (m *mockState) SetShareSupply(propertyID uint64, supply uint64) error {
	m.supplies[propertyID] = supply
	return nil
}

func (m *mockState) ShareBalance(propertyID uint64, addr [20]byte) (uint64, error) {
	return m.balances[balanceKey{propertyID, addr}], nil
}

func (m *mockState) SetShareBalance(propertyID uint64, addr [20]byte, balance uint64) error {
	m.balances[balanceKey{propertyID, addr}] = balance
	return nil
}

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

var (
	registryOwner = testAddr(0xAA)
	inventoryAddr = testAddr(0xBB)
	strangerAddr  = testAddr(0xCC)
)

func newTestEngine(state *mockState) *Engine {
	ledger := shares.NewEngine()
	ledger.SetState(state)
	engine := NewEngine(ledger)
	engine.SetState(state)
	engine.SetInventory(inventoryAddr)
	engine.SetNowFunc(func() int64 { return 1700000000 })
	return engine
}

func TestRegisterMintsSupplyToInventory(t *testing.T) {
	state := newMockState(registryOwner)
	engine := newTestEngine(state)

	prop, err := engine.Register("Dockside Lofts", "ipfs://dockside", 1000, big.NewInt(50), registryOwner)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if prop.ID != 1 {
		t.Fatalf("expected first property id 1, got %d", prop.ID)
	}
	if !prop.Active {
		t.Fatal("expected new property to be active")
	}
	if prop.CreatedAt != 1700000000 {
		t.Fatalf("unexpected CreatedAt %d", prop.CreatedAt)
	}
	if bal := state.balances[balanceKey{1, inventoryAddr}]; bal != 1000 {
		t.Fatalf("expected inventory to hold full supply, got %d", bal)
	}
	if bal := state.balances[balanceKey{1, registryOwner}]; bal != 0 {
		t.Fatalf("expected registering caller to hold nothing, got %d", bal)
	}
}

func TestRegisterSequentialIDs(t *testing.T) {
	state := newMockState(registryOwner)
	engine := newTestEngine(state)
	for want := uint64(1); want <= 3; want++ {
		prop, err := engine.Register("Property", "", 100, big.NewInt(10), registryOwner)
		if err != nil {
			t.Fatalf("register %d: %v", want, err)
		}
		if prop.ID != want {
			t.Fatalf("expected id %d, got %d", want, prop.ID)
		}
	}
}

func TestRegisterGates(t *testing.T) {
	state := newMockState(registryOwner)
	engine := newTestEngine(state)

	if _, err := engine.Register("Property", "", 100, big.NewInt(10), strangerAddr); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := engine.Register("Property", "", 0, big.NewInt(10), registryOwner); !errors.Is(err, ErrInvalidShares) {
		t.Fatalf("expected ErrInvalidShares, got %v", err)
	}
	if _, err := engine.Register("", "", 100, big.NewInt(10), registryOwner); err == nil {
		t.Fatal("expected empty title to be rejected")
	}
}

func TestGetUnknownProperty(t *testing.T) {
	engine := newTestEngine(newMockState(registryOwner))
	if _, err := engine.Get(99); !errors.Is(err, ErrPropertyNotFound) {
		t.Fatalf("expected ErrPropertyNotFound, got %v", err)
	}
}

func TestSetActiveTogglesFlag(t *testing.T) {
	state := newMockState(registryOwner)
	engine := newTestEngine(state)
	prop, err := engine.Register("Property", "", 100, big.NewInt(10), registryOwner)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := engine.SetActive(prop.ID, false, strangerAddr); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := engine.SetActive(prop.ID, false, registryOwner); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, err := engine.Get(prop.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Active {
		t.Fatal("expected property to be inactive")
	}
	// Deactivation keeps the ledger intact.
	if supply := state.supplies[prop.ID]; supply != 100 {
		t.Fatalf("expected supply to survive deactivation, got %d", supply)
	}
}

func TestTransferOwnership(t *testing.T) {
	state := newMockState(registryOwner)
	engine := newTestEngine(state)
	newOwner := testAddr(0xDD)

	if err := engine.TransferOwnership(newOwner, strangerAddr); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := engine.TransferOwnership(newOwner, registryOwner); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	if state.owner != newOwner {
		t.Fatalf("expected owner %x, got %x", newOwner, state.owner)
	}
	// The old owner lost the registration privilege.
	if _, err := engine.Register("Property", "", 100, big.NewInt(10), registryOwner); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected old owner to be rejected, got %v", err)
	}
}
