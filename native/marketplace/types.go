package marketplace

import (
	"fmt"
	"math/big"
)

// ListingStatus tracks the lifecycle of a secondary-market listing.
// Open -> Filled and Open -> Cancelled are the only transitions; both targets
// are terminal.
type ListingStatus uint8

const (
	ListingOpen ListingStatus = iota
	ListingFilled
	ListingCancelled
)

// Valid reports whether the status value is within the supported range.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingOpen, ListingFilled, ListingCancelled:
		return true
	default:
		return false
	}
}

func (s ListingStatus) String() string {
	switch s {
	case ListingOpen:
		return "open"
	case ListingFilled:
		return "filled"
	case ListingCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Listing is a fixed-lot secondary-market offer. The full amount is escrowed
// out of the seller's tradable balance when the listing is created, so a fill
// can never fail for lack of seller balance and concurrent listings cannot
// oversell. Lots are atomic: a buyer takes the whole amount or nothing.
type Listing struct {
	ID            uint64
	Seller        [20]byte
	PropertyID    uint64
	Amount        uint64
	PricePerShare *big.Int
	Escrow        [20]byte
	Status        ListingStatus
	CreatedAt     int64
}

// Clone returns a deep copy so callers can safely mutate the result.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.PricePerShare != nil {
		clone.PricePerShare = new(big.Int).Set(l.PricePerShare)
	} else {
		clone.PricePerShare = big.NewInt(0)
	}
	return &clone
}

// SanitizeListing validates a listing definition and returns a normalised
// clone with a non-nil price.
func SanitizeListing(l *Listing) (*Listing, error) {
	if l == nil {
		return nil, fmt.Errorf("marketplace: nil listing")
	}
	clone := l.Clone()
	if clone.Amount == 0 {
		return nil, fmt.Errorf("marketplace: listing amount must be positive")
	}
	if clone.PricePerShare.Sign() < 0 {
		return nil, fmt.Errorf("marketplace: listing price must be non-negative")
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("marketplace: invalid listing status: %d", clone.Status)
	}
	return clone, nil
}
