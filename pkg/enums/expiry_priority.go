package enums

import "fmt"

// ExpiryPriority classifies how close a lot is to its expiry date.
type ExpiryPriority string

const (
	ExpiryPriorityUrgent ExpiryPriority = "URGENT"
	ExpiryPriorityHigh   ExpiryPriority = "HIGH"
	ExpiryPriorityMedium ExpiryPriority = "MEDIUM"
)

var validExpiryPriorities = []ExpiryPriority{
	ExpiryPriorityUrgent,
	ExpiryPriorityHigh,
	ExpiryPriorityMedium,
}

// String implements fmt.Stringer.
func (p ExpiryPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ExpiryPriority.
func (p ExpiryPriority) IsValid() bool {
	for _, candidate := range validExpiryPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseExpiryPriority converts raw input into an ExpiryPriority.
func ParseExpiryPriority(value string) (ExpiryPriority, error) {
	for _, candidate := range validExpiryPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expiry priority %q", value)
}
