package dividends

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"deedshare/core/types"
)

const (
	EventTypeDividendDeposited = "dividends.deposited"
	EventTypeDividendClaimed   = "dividends.claimed"
)

type dividendEvent struct {
	evt *types.Event
}

func (e dividendEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e dividendEvent) Event() *types.Event { return e.evt }

// NewDepositedEvent returns the canonical payload for a dividend deposit.
func NewDepositedEvent(propertyID uint64, from [20]byte, amount *big.Int, acc *Accrual) *types.Event {
	attrs := map[string]string{
		"propertyId": strconv.FormatUint(propertyID, 10),
		"from":       hex.EncodeToString(from[:]),
		"amount":     amount.String(),
	}
	if acc != nil {
		attrs["cumulativePerShare"] = acc.CumulativePerShare.String()
		attrs["totalDeposited"] = acc.TotalDeposited.String()
	}
	return &types.Event{Type: EventTypeDividendDeposited, Attributes: attrs}
}

// NewClaimedEvent returns the canonical payload for a dividend claim payout.
func NewClaimedEvent(propertyID uint64, account [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeDividendClaimed,
		Attributes: map[string]string{
			"propertyId": strconv.FormatUint(propertyID, 10),
			"account":    hex.EncodeToString(account[:]),
			"amount":     amount.String(),
		},
	}
}
