package registry

import (
	"fmt"
	"math/big"
	"strings"
)

// Property captures the immutable record of a fractionally-owned asset. Only
// the Active flag may change after creation; records are never deleted because
// removing a property with circulating shares would break conservation and
// strand dividend claims.
type Property struct {
	ID                uint64
	Title             string
	MetadataRef       string
	TotalShares       uint64
	InitialSharePrice *big.Int
	CreatedBy         [20]byte
	CreatedAt         int64
	Active            bool
}

// Clone returns a deep copy so callers can safely mutate the result.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	clone := *p
	if p.InitialSharePrice != nil {
		clone.InitialSharePrice = new(big.Int).Set(p.InitialSharePrice)
	} else {
		clone.InitialSharePrice = big.NewInt(0)
	}
	return &clone
}

// SanitizeProperty validates and normalises a property definition, returning a
// cloned instance with trimmed text fields and a non-nil price.
func SanitizeProperty(p *Property) (*Property, error) {
	if p == nil {
		return nil, fmt.Errorf("registry: nil property")
	}
	clone := p.Clone()
	clone.Title = strings.TrimSpace(clone.Title)
	clone.MetadataRef = strings.TrimSpace(clone.MetadataRef)
	if clone.Title == "" {
		return nil, fmt.Errorf("registry: property title required")
	}
	if clone.TotalShares == 0 {
		return nil, fmt.Errorf("registry: total shares must be positive")
	}
	if clone.InitialSharePrice.Sign() < 0 {
		return nil, fmt.Errorf("registry: share price must be non-negative")
	}
	return clone, nil
}
