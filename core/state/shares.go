package state

func shareSupplyKey(propertyID uint64) []byte {
	return kvKey(shareSupplyPrefix, uint64Bytes(propertyID))
}

func shareBalanceKey(propertyID uint64, addr [20]byte) []byte {
	return kvKey(shareBalancePrefix, uint64Bytes(propertyID), addr[:])
}

// ShareSupply returns the fixed share supply minted for the property and
// whether the ledger exists at all.
func (m *Manager) ShareSupply(propertyID uint64) (uint64, bool, error) {
	var supply uint64
	ok, err := m.load(shareSupplyKey(propertyID), &supply)
	if err != nil {
		return 0, false, err
	}
	return supply, ok, nil
}

// SetShareSupply records the one-time supply of a property ledger.
func (m *Manager) SetShareSupply(propertyID uint64, supply uint64) error {
	return m.store(shareSupplyKey(propertyID), supply)
}

// ShareBalance returns the share balance of the address in the property
// ledger. Accounts that never held shares report zero.
func (m *Manager) ShareBalance(propertyID uint64, addr [20]byte) (uint64, error) {
	var balance uint64
	if _, err := m.load(shareBalanceKey(propertyID, addr), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// SetShareBalance writes the share balance of the address in the property
// ledger.
func (m *Manager) SetShareBalance(propertyID uint64, addr [20]byte, balance uint64) error {
	return m.store(shareBalanceKey(propertyID, addr), balance)
}
