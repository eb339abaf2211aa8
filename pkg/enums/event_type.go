package enums

import "fmt"

// InventoryEventType classifies entries on the inventory event log.
type InventoryEventType string

const (
	EventStockAdded     InventoryEventType = "STOCK_ADDED"
	EventStockRemoved   InventoryEventType = "STOCK_REMOVED"
	EventStockMoved     InventoryEventType = "STOCK_MOVED"
	EventThresholdAlert InventoryEventType = "THRESHOLD_ALERT"
	EventExpiryAlert    InventoryEventType = "EXPIRY_ALERT"
)

var validInventoryEventTypes = []InventoryEventType{
	EventStockAdded,
	EventStockRemoved,
	EventStockMoved,
	EventThresholdAlert,
	EventExpiryAlert,
}

// String implements fmt.Stringer.
func (t InventoryEventType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known InventoryEventType.
func (t InventoryEventType) IsValid() bool {
	for _, candidate := range validInventoryEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsStockMutation reports whether the event type changes or relocates stock,
// as opposed to alert events raised by the decision engines.
func (t InventoryEventType) IsStockMutation() bool {
	switch t {
	case EventStockAdded, EventStockRemoved, EventStockMoved:
		return true
	}
	return false
}

// ParseInventoryEventType converts raw input into an InventoryEventType.
func ParseInventoryEventType(value string) (InventoryEventType, error) {
	for _, candidate := range validInventoryEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory event type %q", value)
}
