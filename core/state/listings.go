package state

import (
	"math/big"

	"deedshare/native/marketplace"
)

type storedListing struct {
	ID            uint64
	Seller        [20]byte
	PropertyID    uint64
	Amount        uint64
	PricePerShare *big.Int
	Escrow        [20]byte
	Status        uint8
	CreatedAt     uint64
}

func listingKey(id uint64) []byte {
	return kvKey(listingPrefix, uint64Bytes(id))
}

func listingIndexKey(propertyID uint64) []byte {
	return kvKey(listingIndexPrefix, uint64Bytes(propertyID))
}

// NextListingID allocates the next listing identifier. IDs start at 1.
func (m *Manager) NextListingID() (uint64, error) {
	return m.nextID(kvKey(listingNextIDKey))
}

// ListingPut persists a listing record.
func (m *Manager) ListingPut(l *marketplace.Listing) error {
	sanitized, err := marketplace.SanitizeListing(l)
	if err != nil {
		return err
	}
	return m.store(listingKey(sanitized.ID), &storedListing{
		ID:            sanitized.ID,
		Seller:        sanitized.Seller,
		PropertyID:    sanitized.PropertyID,
		Amount:        sanitized.Amount,
		PricePerShare: sanitized.PricePerShare,
		Escrow:        sanitized.Escrow,
		Status:        uint8(sanitized.Status),
		CreatedAt:     uint64(sanitized.CreatedAt),
	})
}

// ListingGet loads a listing record by id.
func (m *Manager) ListingGet(id uint64) (*marketplace.Listing, bool, error) {
	stored := new(storedListing)
	ok, err := m.load(listingKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &marketplace.Listing{
		ID:            stored.ID,
		Seller:        stored.Seller,
		PropertyID:    stored.PropertyID,
		Amount:        stored.Amount,
		PricePerShare: stored.PricePerShare,
		Escrow:        stored.Escrow,
		Status:        marketplace.ListingStatus(stored.Status),
		CreatedAt:     int64(stored.CreatedAt),
	}, true, nil
}

// ListingIndexProperty appends the listing id to the property's listing
// index.
func (m *Manager) ListingIndexProperty(propertyID, listingID uint64) error {
	ids, err := m.listingIndex(propertyID)
	if err != nil {
		return err
	}
	return m.store(listingIndexKey(propertyID), append(ids, listingID))
}

// ListingsByProperty returns every listing ever created for the property, in
// creation order. Callers filter by status as needed.
func (m *Manager) ListingsByProperty(propertyID uint64) ([]*marketplace.Listing, error) {
	ids, err := m.listingIndex(propertyID)
	if err != nil {
		return nil, err
	}
	out := make([]*marketplace.Listing, 0, len(ids))
	for _, id := range ids {
		listing, ok, err := m.ListingGet(id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, listing)
		}
	}
	return out, nil
}

func (m *Manager) listingIndex(propertyID uint64) ([]uint64, error) {
	ids := make([]uint64, 0)
	if _, err := m.load(listingIndexKey(propertyID), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
