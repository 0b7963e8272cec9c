package registry

import (
	"encoding/hex"
	"strconv"

	"deedshare/core/types"
)

const (
	EventTypePropertyRegistered    = "registry.property.registered"
	EventTypePropertyActiveChanged = "registry.property.active_changed"
	EventTypeOwnershipTransferred  = "registry.ownership.transferred"
)

type registryEvent struct {
	evt *types.Event
}

func (e registryEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e registryEvent) Event() *types.Event { return e.evt }

// NewRegisteredEvent returns the canonical payload for a property creation.
func NewRegisteredEvent(p *Property) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["propertyId"] = strconv.FormatUint(p.ID, 10)
		attrs["title"] = p.Title
		attrs["metadataRef"] = p.MetadataRef
		attrs["totalShares"] = strconv.FormatUint(p.TotalShares, 10)
		attrs["initialSharePrice"] = p.InitialSharePrice.String()
		attrs["createdBy"] = hex.EncodeToString(p.CreatedBy[:])
		attrs["createdAt"] = strconv.FormatInt(p.CreatedAt, 10)
	}
	return &types.Event{Type: EventTypePropertyRegistered, Attributes: attrs}
}

// NewActiveChangedEvent returns the payload emitted when the visibility flag
// of a property flips.
func NewActiveChangedEvent(p *Property) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["propertyId"] = strconv.FormatUint(p.ID, 10)
		attrs["active"] = strconv.FormatBool(p.Active)
	}
	return &types.Event{Type: EventTypePropertyActiveChanged, Attributes: attrs}
}

// NewOwnershipTransferredEvent returns the payload for a registry ownership
// handover.
func NewOwnershipTransferredEvent(previous, next [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeOwnershipTransferred,
		Attributes: map[string]string{
			"previousOwner": hex.EncodeToString(previous[:]),
			"newOwner":      hex.EncodeToString(next[:]),
		},
	}
}
