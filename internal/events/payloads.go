package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// Event metadata is a structured payload per event type. Every payload keeps
// an optional free-text Notes field for operator commentary.

// StockAddedMetadata accompanies STOCK_ADDED events.
type StockAddedMetadata struct {
	Reason        string  `json:"reason"`
	AddedQuantity float64 `json:"addedQuantity"`
	Notes         string  `json:"notes,omitempty"`
}

// StockRemovedMetadata accompanies STOCK_REMOVED events.
type StockRemovedMetadata struct {
	Reason          string  `json:"reason"`
	RemovedQuantity float64 `json:"removedQuantity"`
	Notes           string  `json:"notes,omitempty"`
}

// StockMovedMetadata accompanies STOCK_MOVED events.
type StockMovedMetadata struct {
	Reason      string `json:"reason"`
	OldLocation string `json:"oldLocation"`
	NewLocation string `json:"newLocation"`
	Notes       string `json:"notes,omitempty"`
}

// ThresholdAlertMetadata accompanies THRESHOLD_ALERT events.
type ThresholdAlertMetadata struct {
	AlertLevel               string  `json:"alertLevel"`
	ThresholdValue           float64 `json:"thresholdValue"`
	RecommendedOrderQuantity float64 `json:"recommendedOrderQuantity"`
	Notes                    string  `json:"notes,omitempty"`
}

// ExpiryAlertMetadata accompanies EXPIRY_ALERT events.
type ExpiryAlertMetadata struct {
	AlertLevel        string    `json:"alertLevel"`
	ExpiryDate        time.Time `json:"expiryDate"`
	DaysRemaining     int       `json:"daysRemaining"`
	RecommendedAction string    `json:"recommendedAction,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

// MarshalMetadata serializes a typed metadata payload for storage.
func MarshalMetadata(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event metadata: %w", err)
	}
	return raw, nil
}

// DecodeMetadata deserializes raw metadata into the typed payload matching
// the event type.
func DecodeMetadata(eventType enums.InventoryEventType, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var payload any
	switch eventType {
	case enums.EventStockAdded:
		payload = &StockAddedMetadata{}
	case enums.EventStockRemoved:
		payload = &StockRemovedMetadata{}
	case enums.EventStockMoved:
		payload = &StockMovedMetadata{}
	case enums.EventThresholdAlert:
		payload = &ThresholdAlertMetadata{}
	case enums.EventExpiryAlert:
		payload = &ExpiryAlertMetadata{}
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", eventType, err)
	}
	return payload, nil
}
