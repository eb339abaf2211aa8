package expiry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/internal/events"
	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// Alert is one classified expiring record from a pass.
type Alert struct {
	InventoryID   string
	Priority      enums.ExpiryPriority
	DaysRemaining int
}

// ScanResult reports what one pass found and raised.
type ScanResult struct {
	Scanned int
	Alerts  []Alert
}

// Engine flags stock approaching its expiry date. Alerts are at-least-once;
// a record still expiring on the next pass is flagged again.
type Engine interface {
	Scan(ctx context.Context) (ScanResult, error)
}

type expiringLister interface {
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.InventoryRecord, error)
}

type eventRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, input events.RecordEventInput) (*models.InventoryEvent, error)
}

type broadcaster interface {
	BroadcastTx(ctx context.Context, tx *gorm.DB, input notifications.BroadcastInput) (int, error)
}

type engine struct {
	inventory    expiringLister
	events       eventRecorder
	notify       broadcaster
	tx           db.TxRunner
	logg         *logger.Logger
	horizon      time.Duration
	urgentWithin time.Duration
	highWithin   time.Duration
	now          func() time.Time
}

// NewEngine wires the expiry decision engine from its configuration
// section. All dependencies are required.
func NewEngine(inventory expiringLister, recorder eventRecorder, notify broadcaster, tx db.TxRunner, logg *logger.Logger, cfg config.ExpiryConfig) Engine {
	if inventory == nil || recorder == nil || notify == nil || tx == nil || logg == nil {
		panic("expiry: NewEngine requires inventory, recorder, notify, tx and logg")
	}
	return &engine{
		inventory:    inventory,
		events:       recorder,
		notify:       notify,
		tx:           tx,
		logg:         logg,
		horizon:      cfg.Horizon,
		urgentWithin: cfg.UrgentWithin,
		highWithin:   cfg.HighWithin,
		now:          time.Now,
	}
}

// Scan flags every record with stock on hand expiring inside the horizon,
// closest expiry first. One EXPIRY_ALERT event and one manager notification
// per record per pass; per-record failures come back combined and never
// stop the batch.
func (e *engine) Scan(ctx context.Context) (ScanResult, error) {
	nowUTC := e.now().UTC()
	records, err := e.inventory.ListExpiringBefore(ctx, nowUTC.Add(e.horizon))
	if err != nil {
		return ScanResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to select expiring inventory")
	}

	result := ScanResult{}
	var scanErr error
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(scanErr, err)
		}
		if record.ExpiryDate == nil {
			continue
		}
		result.Scanned++

		remaining := record.ExpiryDate.Sub(nowUTC)
		priority := e.classify(remaining)
		days := daysRemaining(remaining)

		if err := e.raise(ctx, record, priority, days); err != nil {
			scanErr = multierr.Append(scanErr, fmt.Errorf("inventory %s: %w", record.ID, err))
			continue
		}
		result.Alerts = append(result.Alerts, Alert{
			InventoryID:   record.ID.String(),
			Priority:      priority,
			DaysRemaining: days,
		})
	}
	return result, scanErr
}

func (e *engine) classify(remaining time.Duration) enums.ExpiryPriority {
	switch {
	case remaining <= e.urgentWithin:
		return enums.ExpiryPriorityUrgent
	case remaining <= e.highWithin:
		return enums.ExpiryPriorityHigh
	default:
		return enums.ExpiryPriorityMedium
	}
}

// raise commits the event and the notifications for one record together.
func (e *engine) raise(ctx context.Context, record models.InventoryRecord, priority enums.ExpiryPriority, days int) error {
	metadata, err := events.MarshalMetadata(events.ExpiryAlertMetadata{
		AlertLevel:        priority.String(),
		ExpiryDate:        record.ExpiryDate.UTC(),
		DaysRemaining:     days,
		RecommendedAction: recommendedAction(priority),
	})
	if err != nil {
		return err
	}

	return e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, txErr := e.events.RecordTx(ctx, tx, events.RecordEventInput{
			InventoryID:      record.ID,
			ProductID:        record.ProductID,
			WarehouseID:      record.WarehouseID,
			EventType:        enums.EventExpiryAlert,
			PreviousQuantity: record.Quantity,
			NewQuantity:      record.Quantity,
			Metadata:         metadata,
		}); txErr != nil {
			return txErr
		}

		_, txErr := e.notify.BroadcastTx(ctx, tx, notifications.BroadcastInput{
			Roles: []enums.UserRole{enums.UserRoleManager},
			Title: fmt.Sprintf("%s expiry: stock at %s", priority, record.Location),
			Message: fmt.Sprintf("%.2f units expire in %d day(s) (on %s); %s",
				record.Quantity, days, record.ExpiryDate.UTC().Format("2006-01-02"), recommendedAction(priority)),
			Type: enums.NotificationExpiryAlert,
		})
		return txErr
	})
}

func recommendedAction(priority enums.ExpiryPriority) string {
	switch priority {
	case enums.ExpiryPriorityUrgent:
		return "remove or discount immediately"
	case enums.ExpiryPriorityHigh:
		return "prioritize usage this week"
	default:
		return "monitor on the next pass"
	}
}

// daysRemaining floors to whole days; stock already past its date reports 0.
func daysRemaining(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}
