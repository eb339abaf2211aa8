package enums

import "fmt"

// NotificationType labels in-app notifications raised by the engines.
type NotificationType string

const (
	NotificationStockAlert  NotificationType = "STOCK_ALERT"
	NotificationExpiryAlert NotificationType = "EXPIRY_ALERT"
	NotificationOrderUpdate NotificationType = "ORDER_UPDATE"
	NotificationSystem      NotificationType = "SYSTEM"
)

var validNotificationTypes = []NotificationType{
	NotificationStockAlert,
	NotificationExpiryAlert,
	NotificationOrderUpdate,
	NotificationSystem,
}

// String implements fmt.Stringer.
func (t NotificationType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known NotificationType.
func (t NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
