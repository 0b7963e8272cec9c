package shares

import (
	"encoding/hex"
	"strconv"

	"deedshare/core/types"
)

const (
	EventTypeSharesMinted      = "shares.minted"
	EventTypeSharesTransferred = "shares.transferred"
)

type ledgerEvent struct {
	evt *types.Event
}

func (e ledgerEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e ledgerEvent) Event() *types.Event { return e.evt }

// NewMintedEvent returns the canonical payload for a one-time supply mint.
func NewMintedEvent(propertyID uint64, to [20]byte, supply uint64) *types.Event {
	return &types.Event{
		Type: EventTypeSharesMinted,
		Attributes: map[string]string{
			"propertyId": strconv.FormatUint(propertyID, 10),
			"to":         hex.EncodeToString(to[:]),
			"supply":     strconv.FormatUint(supply, 10),
		},
	}
}

// NewTransferredEvent returns the canonical payload for a share transfer.
func NewTransferredEvent(propertyID uint64, from, to [20]byte, amount uint64) *types.Event {
	return &types.Event{
		Type: EventTypeSharesTransferred,
		Attributes: map[string]string{
			"propertyId": strconv.FormatUint(propertyID, 10),
			"from":       hex.EncodeToString(from[:]),
			"to":         hex.EncodeToString(to[:]),
			"amount":     strconv.FormatUint(amount, 10),
		},
	}
}
