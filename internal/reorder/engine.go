package reorder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/internal/events"
	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/internal/orders"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// Alert levels recorded on THRESHOLD_ALERT events.
const (
	AlertLevelLowStock  = "LOW_STOCK"
	AlertLevelEmergency = "EMERGENCY"
)

// ScanParams controls a single engine pass. RequestedBy attributes the
// created orders; when unset the configured system actor is used.
// EmergencyOnly restricts the pass to candidates at or under the emergency
// ratio (the hourly re-scan).
type ScanParams struct {
	RequestedBy   uuid.UUID
	EmergencyOnly bool
}

// ScanResult reports what one pass did. Skipped counts candidates that
// already had an open order, including those lost to a concurrent insert.
type ScanResult struct {
	Scanned int
	Skipped int
	Created []models.PurchaseOrder
}

// Engine turns under-threshold inventory into pending purchase orders.
type Engine interface {
	Scan(ctx context.Context, params ScanParams) (ScanResult, error)
}

type eventRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, input events.RecordEventInput) (*models.InventoryEvent, error)
}

type broadcaster interface {
	BroadcastTx(ctx context.Context, tx *gorm.DB, input notifications.BroadcastInput) (int, error)
}

type engine struct {
	repo        Repository
	orders      orders.Repository
	events      eventRecorder
	notify      broadcaster
	tx          db.TxRunner
	logg        *logger.Logger
	multiplier  float64
	emergency   float64
	leadTime    time.Duration
	systemActor uuid.UUID
	now         func() time.Time
}

// NewEngine wires the reorder decision engine from its configuration
// section. All dependencies are required.
func NewEngine(repo Repository, orderRepo orders.Repository, recorder eventRecorder, notify broadcaster, tx db.TxRunner, logg *logger.Logger, cfg config.ReorderConfig) Engine {
	if repo == nil || orderRepo == nil || recorder == nil || notify == nil || tx == nil || logg == nil {
		panic("reorder: NewEngine requires repo, orderRepo, recorder, notify, tx and logg")
	}
	systemActor := uuid.Nil
	if cfg.SystemActorID != "" {
		if parsed, err := uuid.Parse(cfg.SystemActorID); err == nil {
			systemActor = parsed
		}
	}
	multiplier := cfg.RestockMultiplier
	if multiplier <= 0 {
		multiplier = 3
	}
	return &engine{
		repo:        repo,
		orders:      orderRepo,
		events:      recorder,
		notify:      notify,
		tx:          tx,
		logg:        logg,
		multiplier:  multiplier,
		emergency:   cfg.EmergencyRatio,
		leadTime:    cfg.DeliveryLeadTime,
		systemActor: systemActor,
		now:         time.Now,
	}
}

// Scan walks the under-threshold candidates in urgency order and raises one
// pending purchase order per (product, warehouse) that has none open. Each
// candidate commits independently so one failure never loses the rest of
// the batch; per-candidate errors come back combined.
func (e *engine) Scan(ctx context.Context, params ScanParams) (ScanResult, error) {
	actor := params.RequestedBy
	if actor == uuid.Nil {
		actor = e.systemActor
	}
	if actor == uuid.Nil {
		return ScanResult{}, pkgerrors.New(pkgerrors.CodeValidation, "no requesting actor and no system actor configured")
	}

	candidates, err := e.repo.ListCandidates(ctx)
	if err != nil {
		return ScanResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to select reorder candidates")
	}

	result := ScanResult{}
	var scanErr error
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(scanErr, err)
		}
		if params.EmergencyOnly && candidate.Ratio() > e.emergency {
			continue
		}
		result.Scanned++

		order, created, err := e.process(ctx, candidate, actor)
		if err != nil {
			scanErr = multierr.Append(scanErr, fmt.Errorf("product %s warehouse %s: %w", candidate.ProductID, candidate.WarehouseID, err))
			continue
		}
		if !created {
			result.Skipped++
			continue
		}
		result.Created = append(result.Created, *order)
	}
	return result, scanErr
}

// process raises one order for one candidate. The order row, its
// THRESHOLD_ALERT event and the manager notifications commit together. The
// partial unique index on open orders is the last word on duplicates; a
// lost insert race reports created=false.
func (e *engine) process(ctx context.Context, candidate Candidate, actor uuid.UUID) (*models.PurchaseOrder, bool, error) {
	open, err := e.orders.HasOpenOrder(ctx, candidate.ProductID, candidate.WarehouseID)
	if err != nil {
		return nil, false, err
	}
	if open {
		return nil, false, nil
	}

	suggested := e.multiplier*candidate.MinimumThreshold - candidate.Quantity
	if suggested <= 0 {
		return nil, false, nil
	}

	ratio := candidate.Ratio()
	orderType := enums.OrderTypeAutomatic
	alertLevel := AlertLevelLowStock
	if ratio <= e.emergency {
		orderType = enums.OrderTypeEmergency
		alertLevel = AlertLevelEmergency
	}

	nowUTC := e.now().UTC()
	expected := nowUTC.Add(e.leadTime)
	order := &models.PurchaseOrder{
		SupplierID:           candidate.SupplierID,
		ProductID:            candidate.ProductID,
		WarehouseID:          candidate.WarehouseID,
		RequestedBy:          actor,
		RequestedQuantity:    suggested,
		UnitPrice:            candidate.UnitPrice,
		TotalAmount:          candidate.UnitPrice.Mul(decimal.NewFromFloat(suggested)),
		Status:               enums.OrderStatusPending,
		OrderType:            orderType,
		RequestedAt:          nowUTC,
		ExpectedDeliveryDate: &expected,
	}

	created := true
	err = e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		inserted, txErr := e.orders.WithTx(tx).CreateIfNoOpen(ctx, order)
		if txErr != nil {
			return txErr
		}
		if !inserted {
			created = false
			return nil
		}

		metadata, txErr := events.MarshalMetadata(events.ThresholdAlertMetadata{
			AlertLevel:               alertLevel,
			ThresholdValue:           candidate.MinimumThreshold,
			RecommendedOrderQuantity: suggested,
		})
		if txErr != nil {
			return txErr
		}
		if _, txErr = e.events.RecordTx(ctx, tx, events.RecordEventInput{
			InventoryID:      candidate.InventoryID,
			ProductID:        candidate.ProductID,
			WarehouseID:      candidate.WarehouseID,
			EventType:        enums.EventThresholdAlert,
			PreviousQuantity: candidate.Quantity,
			NewQuantity:      candidate.Quantity,
			Metadata:         metadata,
		}); txErr != nil {
			return txErr
		}

		_, txErr = e.notify.BroadcastTx(ctx, tx, notifications.BroadcastInput{
			Roles: []enums.UserRole{enums.UserRoleManager},
			Title: fmt.Sprintf("%s order raised: %s", orderType, candidate.ProductName),
			Message: fmt.Sprintf("%s at %.2f of threshold %.2f; ordered %.2f (total %s)",
				candidate.ProductName, candidate.Quantity, candidate.MinimumThreshold, suggested, order.TotalAmount.StringFixed(2)),
			Type: enums.NotificationStockAlert,
		})
		return txErr
	})
	if err != nil {
		return nil, false, err
	}
	if !created {
		e.logg.Debug(ctx, fmt.Sprintf("reorder: open order appeared concurrently for product %s, skipping", candidate.ProductID))
		return nil, false, nil
	}
	return order, true, nil
}
