package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"deedshare/storage"
)

// Manager exposes typed accessors for every record the ledger core persists.
// Values are RLP encoded under keccak-hashed, prefix-namespaced keys. The
// manager carries no caching or locking of its own: the node hands it either
// the committed database (reads) or a journaled overlay (mutations), and the
// overlay provides the all-or-nothing contract.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided key-value
// store.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func kvKey(parts ...[]byte) []byte {
	var buf []byte
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return ethcrypto.Keccak256(buf)
}

func uint64Bytes(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

// load decodes the value under key into out, reporting whether the key
// exists.
func (m *Manager) load(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %x: %w", key[:4], err)
	}
	return true, nil
}

func (m *Manager) store(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %x: %w", key[:4], err)
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) loadCounter(key []byte) (uint64, error) {
	var v uint64
	if _, err := m.load(key, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// nextID increments a persistent counter and returns the new value. IDs start
// at 1 so the zero value never names a record.
func (m *Manager) nextID(key []byte) (uint64, error) {
	current, err := m.loadCounter(key)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := m.store(key, next); err != nil {
		return 0, err
	}
	return next, nil
}

// GenesisApplied reports whether the one-time genesis bootstrap has run.
func (m *Manager) GenesisApplied() (bool, error) {
	var v bool
	if _, err := m.load(kvKey(genesisAppliedKey), &v); err != nil {
		return false, err
	}
	return v, nil
}

// SetGenesisApplied marks the genesis bootstrap as complete.
func (m *Manager) SetGenesisApplied() error {
	return m.store(kvKey(genesisAppliedKey), true)
}
