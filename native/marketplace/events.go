package marketplace

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"deedshare/core/types"
	"deedshare/native/registry"
)

const (
	EventTypePropertyCreated      = "marketplace.property.created"
	EventTypeSharesBought         = "marketplace.shares.bought"
	EventTypeListingCreated       = "marketplace.listing.created"
	EventTypeListingCancelled     = "marketplace.listing.cancelled"
	EventTypeListingFilled        = "marketplace.listing.filled"
	EventTypeOwnershipTransferred = "marketplace.ownership.transferred"
)

type marketEvent struct {
	evt *types.Event
}

func (e marketEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e marketEvent) Event() *types.Event { return e.evt }

// NewPropertyCreatedEvent records a property creation together with the
// administrator that requested it.
func NewPropertyCreatedEvent(p *registry.Property, admin [20]byte) *types.Event {
	attrs := map[string]string{
		"admin": hex.EncodeToString(admin[:]),
	}
	if p != nil {
		attrs["propertyId"] = strconv.FormatUint(p.ID, 10)
		attrs["totalShares"] = strconv.FormatUint(p.TotalShares, 10)
		attrs["initialSharePrice"] = p.InitialSharePrice.String()
	}
	return &types.Event{Type: EventTypePropertyCreated, Attributes: attrs}
}

// NewSharesBoughtEvent records a primary sale settlement.
func NewSharesBoughtEvent(propertyID uint64, buyer [20]byte, amount uint64, total, refund *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeSharesBought,
		Attributes: map[string]string{
			"propertyId": strconv.FormatUint(propertyID, 10),
			"buyer":      hex.EncodeToString(buyer[:]),
			"amount":     strconv.FormatUint(amount, 10),
			"total":      total.String(),
			"refund":     refund.String(),
		},
	}
}

func listingAttrs(l *Listing) map[string]string {
	attrs := make(map[string]string)
	if l == nil {
		return attrs
	}
	attrs["listingId"] = strconv.FormatUint(l.ID, 10)
	attrs["propertyId"] = strconv.FormatUint(l.PropertyID, 10)
	attrs["seller"] = hex.EncodeToString(l.Seller[:])
	attrs["amount"] = strconv.FormatUint(l.Amount, 10)
	attrs["pricePerShare"] = l.PricePerShare.String()
	attrs["status"] = l.Status.String()
	return attrs
}

// NewListingCreatedEvent records a new open listing with its escrow account.
func NewListingCreatedEvent(l *Listing) *types.Event {
	attrs := listingAttrs(l)
	if l != nil {
		attrs["escrow"] = hex.EncodeToString(l.Escrow[:])
	}
	return &types.Event{Type: EventTypeListingCreated, Attributes: attrs}
}

// NewListingCancelledEvent records a cancellation and escrow return.
func NewListingCancelledEvent(l *Listing) *types.Event {
	return &types.Event{Type: EventTypeListingCancelled, Attributes: listingAttrs(l)}
}

// NewListingFilledEvent records an atomic fill and its settlement amounts.
func NewListingFilledEvent(l *Listing, buyer [20]byte, total, fee, refund *big.Int) *types.Event {
	attrs := listingAttrs(l)
	attrs["buyer"] = hex.EncodeToString(buyer[:])
	attrs["total"] = total.String()
	attrs["fee"] = fee.String()
	attrs["refund"] = refund.String()
	return &types.Event{Type: EventTypeListingFilled, Attributes: attrs}
}

// NewOwnershipTransferredEvent records a marketplace administrator handover.
func NewOwnershipTransferredEvent(previous, next [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeOwnershipTransferred,
		Attributes: map[string]string{
			"previousOwner": hex.EncodeToString(previous[:]),
			"newOwner":      hex.EncodeToString(next[:]),
		},
	}
}
