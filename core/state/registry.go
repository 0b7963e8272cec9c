package state

import (
	"math/big"

	"deedshare/native/registry"
)

type storedProperty struct {
	ID                uint64
	Title             string
	MetadataRef       string
	TotalShares       uint64
	InitialSharePrice *big.Int
	CreatedBy         [20]byte
	CreatedAt         uint64
	Active            bool
}

func propertyKey(id uint64) []byte {
	return kvKey(propertyPrefix, uint64Bytes(id))
}

// NextPropertyID allocates the next property identifier. IDs start at 1.
func (m *Manager) NextPropertyID() (uint64, error) {
	return m.nextID(kvKey(propertyNextIDKey))
}

// PropertyCount reports how many properties have been registered.
func (m *Manager) PropertyCount() (uint64, error) {
	return m.loadCounter(kvKey(propertyNextIDKey))
}

// PropertyPut persists a property record.
func (m *Manager) PropertyPut(p *registry.Property) error {
	sanitized, err := registry.SanitizeProperty(p)
	if err != nil {
		return err
	}
	return m.store(propertyKey(sanitized.ID), &storedProperty{
		ID:                sanitized.ID,
		Title:             sanitized.Title,
		MetadataRef:       sanitized.MetadataRef,
		TotalShares:       sanitized.TotalShares,
		InitialSharePrice: sanitized.InitialSharePrice,
		CreatedBy:         sanitized.CreatedBy,
		CreatedAt:         uint64(sanitized.CreatedAt),
		Active:            sanitized.Active,
	})
}

// PropertyGet loads a property record by id.
func (m *Manager) PropertyGet(id uint64) (*registry.Property, bool, error) {
	stored := new(storedProperty)
	ok, err := m.load(propertyKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &registry.Property{
		ID:                stored.ID,
		Title:             stored.Title,
		MetadataRef:       stored.MetadataRef,
		TotalShares:       stored.TotalShares,
		InitialSharePrice: stored.InitialSharePrice,
		CreatedBy:         stored.CreatedBy,
		CreatedAt:         int64(stored.CreatedAt),
		Active:            stored.Active,
	}, true, nil
}

// ListProperties returns property records in id order with offset/limit
// pagination. A limit of zero returns everything after the offset.
func (m *Manager) ListProperties(offset, limit uint64) ([]*registry.Property, error) {
	count, err := m.PropertyCount()
	if err != nil {
		return nil, err
	}
	out := make([]*registry.Property, 0)
	for id := offset + 1; id <= count; id++ {
		prop, ok, err := m.PropertyGet(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, prop)
		if limit > 0 && uint64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

// RegistryOwner returns the account allowed to register properties.
func (m *Manager) RegistryOwner() ([20]byte, error) {
	var owner [20]byte
	if _, err := m.load(kvKey(registryOwnerKey), &owner); err != nil {
		return [20]byte{}, err
	}
	return owner, nil
}

// SetRegistryOwner reassigns the registry owner.
func (m *Manager) SetRegistryOwner(owner [20]byte) error {
	return m.store(kvKey(registryOwnerKey), owner)
}

// MarketplaceOwner returns the platform administrator account.
func (m *Manager) MarketplaceOwner() ([20]byte, error) {
	var owner [20]byte
	if _, err := m.load(kvKey(marketplaceOwnerKey), &owner); err != nil {
		return [20]byte{}, err
	}
	return owner, nil
}

// SetMarketplaceOwner reassigns the platform administrator.
func (m *Manager) SetMarketplaceOwner(owner [20]byte) error {
	return m.store(kvKey(marketplaceOwnerKey), owner)
}
