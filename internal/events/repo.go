package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// Repository manages persistence for inventory events. The store is
// append-only: no update or delete operation exists on purpose.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.InventoryEvent) error
	ListByInventoryID(ctx context.Context, inventoryID uuid.UUID) ([]models.InventoryEvent, error)
	ListByProductID(ctx context.Context, productID uuid.UUID) ([]models.InventoryEvent, error)
	ListByWarehouseID(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryEvent, error)
	ListByType(ctx context.Context, eventType enums.InventoryEventType) ([]models.InventoryEvent, error)
	ListByTimeRange(ctx context.Context, start, end time.Time) ([]models.InventoryEvent, error)
	ListRecent(ctx context.Context, limit int) ([]models.InventoryEvent, error)
	CountByType(ctx context.Context) (map[enums.InventoryEventType]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an event repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.InventoryEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByInventoryID(ctx context.Context, inventoryID uuid.UUID) ([]models.InventoryEvent, error) {
	var events []models.InventoryEvent
	if err := r.db.WithContext(ctx).
		Where("inventory_id = ?", inventoryID).
		Order("timestamp DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListByProductID(ctx context.Context, productID uuid.UUID) ([]models.InventoryEvent, error) {
	var events []models.InventoryEvent
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("timestamp DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListByWarehouseID(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryEvent, error) {
	var events []models.InventoryEvent
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("timestamp DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListByType(ctx context.Context, eventType enums.InventoryEventType) ([]models.InventoryEvent, error) {
	var events []models.InventoryEvent
	if err := r.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		Order("timestamp DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListByTimeRange(ctx context.Context, start, end time.Time) ([]models.InventoryEvent, error) {
	var events []models.InventoryEvent
	if err := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Order("timestamp DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]models.InventoryEvent, error) {
	var events []models.InventoryEvent
	if err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) CountByType(ctx context.Context) (map[enums.InventoryEventType]int64, error) {
	type row struct {
		EventType enums.InventoryEventType
		Total     int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.InventoryEvent{}).
		Select("event_type, count(*) as total").
		Group("event_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[enums.InventoryEventType]int64, len(rows))
	for _, r := range rows {
		counts[r.EventType] = r.Total
	}
	return counts, nil
}
