package rpc

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"deedshare/core/events"
	"deedshare/native/dividends"
	"deedshare/native/marketplace"
	"deedshare/native/registry"
	"deedshare/native/shares"
)

// propertyJSON mirrors a registry property for RPC consumers.
type propertyJSON struct {
	ID                uint64 `json:"id"`
	Title             string `json:"title"`
	MetadataRef       string `json:"metadataRef,omitempty"`
	TotalShares       uint64 `json:"totalShares"`
	InitialSharePrice string `json:"initialSharePrice"`
	CreatedBy         string `json:"createdBy"`
	CreatedAt         int64  `json:"createdAt"`
	Active            bool   `json:"active"`
}

// listingJSON mirrors a marketplace listing for RPC consumers.
type listingJSON struct {
	ID            uint64 `json:"id"`
	Seller        string `json:"seller"`
	PropertyID    uint64 `json:"propertyId"`
	Amount        uint64 `json:"amount"`
	PricePerShare string `json:"pricePerShare"`
	Escrow        string `json:"escrow"`
	Status        string `json:"status"`
	CreatedAt     int64  `json:"createdAt"`
}

// eventJSON mirrors a record from the append-only operation log.
type eventJSON struct {
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func formatProperty(p *registry.Property) *propertyJSON {
	if p == nil {
		return nil
	}
	return &propertyJSON{
		ID:                p.ID,
		Title:             p.Title,
		MetadataRef:       p.MetadataRef,
		TotalShares:       p.TotalShares,
		InitialSharePrice: formatBig(p.InitialSharePrice),
		CreatedBy:         formatAddress(p.CreatedBy),
		CreatedAt:         p.CreatedAt,
		Active:            p.Active,
	}
}

func formatListing(l *marketplace.Listing) *listingJSON {
	if l == nil {
		return nil
	}
	return &listingJSON{
		ID:            l.ID,
		Seller:        formatAddress(l.Seller),
		PropertyID:    l.PropertyID,
		Amount:        l.Amount,
		PricePerShare: formatBig(l.PricePerShare),
		Escrow:        formatAddress(l.Escrow),
		Status:        l.Status.String(),
		CreatedAt:     l.CreatedAt,
	}
}

func formatRecords(records []events.Record) []eventJSON {
	out := make([]eventJSON, 0, len(records))
	for _, rec := range records {
		entry := eventJSON{Sequence: rec.Sequence}
		if rec.Event != nil {
			entry.Type = rec.Event.Type
			entry.Attributes = rec.Event.Attributes
		}
		out = append(out, entry)
	}
	return out
}

// formatAddress renders an address as a 0x-prefixed hex string.
func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// formatBig renders a big integer as a decimal string, treating nil as zero.
func formatBig(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// parseAddress decodes a 20-byte hex address with optional 0x prefix.
func parseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if trimmed == "" {
		return addr, fmt.Errorf("address required")
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address: %w", err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("invalid address: want %d bytes, got %d", len(addr), len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}

// parsePositiveBigInt decodes a positive decimal amount string.
func parsePositiveBigInt(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}

// writeModuleError maps ledger-core sentinel errors onto RPC error codes so
// clients can branch on failure categories without string matching.
func writeModuleError(w http.ResponseWriter, id interface{}, err error) {
	status := http.StatusInternalServerError
	code := codeServerError
	switch {
	case errors.Is(err, registry.ErrPropertyNotFound),
		errors.Is(err, marketplace.ErrListingNotFound),
		errors.Is(err, shares.ErrUnknownLedger),
		errors.Is(err, dividends.ErrUnknownProperty):
		status = http.StatusNotFound
		code = codeNotFound
	case errors.Is(err, marketplace.ErrNotOwner),
		errors.Is(err, marketplace.ErrNotSeller),
		errors.Is(err, registry.ErrNotOwner),
		errors.Is(err, dividends.ErrNotOwner):
		status = http.StatusForbidden
		code = codeForbidden
	case errors.Is(err, marketplace.ErrNotOpen),
		errors.Is(err, marketplace.ErrInactiveProperty),
		errors.Is(err, marketplace.ErrInvalidCounterparty),
		errors.Is(err, shares.ErrAlreadyMinted):
		status = http.StatusConflict
		code = codeConflict
	case errors.Is(err, marketplace.ErrZeroAmount),
		errors.Is(err, marketplace.ErrInsufficientInventory),
		errors.Is(err, marketplace.ErrInsufficientPayment),
		errors.Is(err, marketplace.ErrArithmeticOverflow),
		errors.Is(err, shares.ErrZeroAmount),
		errors.Is(err, shares.ErrInsufficientBalance),
		errors.Is(err, shares.ErrInvalidShares),
		errors.Is(err, shares.ErrArithmeticOverflow),
		errors.Is(err, registry.ErrInvalidShares),
		errors.Is(err, dividends.ErrZeroAmount),
		errors.Is(err, dividends.ErrNothingToClaim):
		status = http.StatusBadRequest
		code = codeInvalidParams
	}
	writeError(w, status, id, code, err.Error(), nil)
}
