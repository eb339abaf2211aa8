package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

// Service exposes the append and read surface of the inventory event log.
type Service interface {
	Record(ctx context.Context, input RecordEventInput) (*models.InventoryEvent, error)
	RecordTx(ctx context.Context, tx *gorm.DB, input RecordEventInput) (*models.InventoryEvent, error)
	ListByInventory(ctx context.Context, inventoryID uuid.UUID) ([]models.InventoryEvent, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryEvent, error)
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryEvent, error)
	ListByType(ctx context.Context, eventType enums.InventoryEventType) ([]models.InventoryEvent, error)
	ListByTimeRange(ctx context.Context, start, end time.Time) ([]models.InventoryEvent, error)
	ListRecent(ctx context.Context, limit int) ([]models.InventoryEvent, error)
	ListToday(ctx context.Context) ([]models.InventoryEvent, error)
	CountByType(ctx context.Context) (map[enums.InventoryEventType]int64, error)
}

// RecordEventInput captures the immutable data an inventory event requires.
type RecordEventInput struct {
	InventoryID      uuid.UUID
	ProductID        uuid.UUID
	WarehouseID      uuid.UUID
	EventType        enums.InventoryEventType
	PreviousQuantity float64
	NewQuantity      float64
	Metadata         json.RawMessage
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the event log service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "events repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Record(ctx context.Context, input RecordEventInput) (*models.InventoryEvent, error) {
	return s.RecordTx(ctx, nil, input)
}

// RecordTx appends an event inside the caller's transaction so that a ledger
// mutation and its event commit or roll back together.
func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, input RecordEventInput) (*models.InventoryEvent, error) {
	if input.InventoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory id is required")
	}
	if !input.EventType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid event type").
			WithDetails(map[string]any{"eventType": string(input.EventType)})
	}

	event := &models.InventoryEvent{
		ID:               uuid.New(),
		InventoryID:      input.InventoryID,
		ProductID:        input.ProductID,
		WarehouseID:      input.WarehouseID,
		EventType:        input.EventType,
		PreviousQuantity: input.PreviousQuantity,
		NewQuantity:      input.NewQuantity,
		Timestamp:        s.now().UTC(),
		Metadata:         input.Metadata,
	}

	if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append inventory event")
	}
	return event, nil
}

func (s *service) ListByInventory(ctx context.Context, inventoryID uuid.UUID) ([]models.InventoryEvent, error) {
	if inventoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory id is required")
	}
	return s.repo.ListByInventoryID(ctx, inventoryID)
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.InventoryEvent, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.repo.ListByProductID(ctx, productID)
}

func (s *service) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryEvent, error) {
	if warehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required")
	}
	return s.repo.ListByWarehouseID(ctx, warehouseID)
}

func (s *service) ListByType(ctx context.Context, eventType enums.InventoryEventType) ([]models.InventoryEvent, error) {
	if !eventType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid event type").
			WithDetails(map[string]any{"eventType": string(eventType)})
	}
	return s.repo.ListByType(ctx, eventType)
}

func (s *service) ListByTimeRange(ctx context.Context, start, end time.Time) ([]models.InventoryEvent, error) {
	if !end.After(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return s.repo.ListByTimeRange(ctx, start, end)
}

func (s *service) ListRecent(ctx context.Context, limit int) ([]models.InventoryEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *service) ListToday(ctx context.Context) ([]models.InventoryEvent, error) {
	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.repo.ListByTimeRange(ctx, start, start.Add(24*time.Hour))
}

func (s *service) CountByType(ctx context.Context) (map[enums.InventoryEventType]int64, error) {
	return s.repo.CountByType(ctx)
}
