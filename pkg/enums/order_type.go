package enums

import "fmt"

// OrderType describes how a purchase order came to exist.
type OrderType string

const (
	OrderTypeAutomatic OrderType = "AUTOMATIC"
	OrderTypeManual    OrderType = "MANUAL"
	OrderTypeEmergency OrderType = "EMERGENCY"
)

var validOrderTypes = []OrderType{
	OrderTypeAutomatic,
	OrderTypeManual,
	OrderTypeEmergency,
}

// String implements fmt.Stringer.
func (t OrderType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known OrderType.
func (t OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
