package state

import (
	"math/big"

	"deedshare/native/dividends"
)

type storedAccrual struct {
	CumulativePerShare *big.Int
	TotalDeposited     *big.Int
	Residue            *big.Int
}

type storedCheckpoint struct {
	LastCumulative *big.Int
	Unclaimed      *big.Int
}

func accrualKey(propertyID uint64) []byte {
	return kvKey(accrualPrefix, uint64Bytes(propertyID))
}

func checkpointKey(propertyID uint64, addr [20]byte) []byte {
	return kvKey(checkpointPrefix, uint64Bytes(propertyID), addr[:])
}

// AccrualGet loads the per-property dividend accumulator.
func (m *Manager) AccrualGet(propertyID uint64) (*dividends.Accrual, bool, error) {
	stored := new(storedAccrual)
	ok, err := m.load(accrualKey(propertyID), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &dividends.Accrual{
		CumulativePerShare: stored.CumulativePerShare,
		TotalDeposited:     stored.TotalDeposited,
		Residue:            stored.Residue,
	}, true, nil
}

// AccrualPut persists the per-property dividend accumulator.
func (m *Manager) AccrualPut(propertyID uint64, acc *dividends.Accrual) error {
	clone := acc.Clone()
	return m.store(accrualKey(propertyID), &storedAccrual{
		CumulativePerShare: clone.CumulativePerShare,
		TotalDeposited:     clone.TotalDeposited,
		Residue:            clone.Residue,
	})
}

// CheckpointGet loads a holder's dividend checkpoint for the property.
func (m *Manager) CheckpointGet(propertyID uint64, addr [20]byte) (*dividends.HolderCheckpoint, bool, error) {
	stored := new(storedCheckpoint)
	ok, err := m.load(checkpointKey(propertyID, addr), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &dividends.HolderCheckpoint{
		LastCumulative: stored.LastCumulative,
		Unclaimed:      stored.Unclaimed,
	}, true, nil
}

// CheckpointPut persists a holder's dividend checkpoint for the property.
func (m *Manager) CheckpointPut(propertyID uint64, addr [20]byte, cp *dividends.HolderCheckpoint) error {
	clone := cp.Clone()
	return m.store(checkpointKey(propertyID, addr), &storedCheckpoint{
		LastCumulative: clone.LastCumulative,
		Unclaimed:      clone.Unclaimed,
	})
}
