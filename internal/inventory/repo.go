package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
)

// WarehouseStats aggregates one warehouse's stock position. TotalValue is
// quantity times product unit price summed over the warehouse; records
// without a product row contribute zero value.
type WarehouseStats struct {
	RecordCount   int64           `gorm:"column:record_count"`
	TotalQuantity float64         `gorm:"column:total_quantity"`
	LowStockCount int64           `gorm:"column:low_stock_count"`
	TotalValue    decimal.Decimal `gorm:"column:total_value"`
}

// Repository manages persistence for inventory records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error)
	FindByWarehouseAndProduct(ctx context.Context, warehouseID, productID uuid.UUID) (*models.InventoryRecord, error)
	CreateIfAbsent(ctx context.Context, record *models.InventoryRecord) (bool, error)
	UpdateGuarded(ctx context.Context, id uuid.UUID, version int64, updates map[string]any) (bool, error)
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryRecord, error)
	WarehouseStats(ctx context.Context, warehouseID uuid.UUID) (*WarehouseStats, error)
	ListLowStock(ctx context.Context) ([]models.InventoryRecord, error)
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.InventoryRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindByWarehouseAndProduct(ctx context.Context, warehouseID, productID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := r.db.WithContext(ctx).
		First(&record, "warehouse_id = ? AND product_id = ?", warehouseID, productID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateIfAbsent inserts the record unless the (warehouse, product) pair
// already exists, reporting whether the row was inserted. The conflict is
// swallowed by ON CONFLICT DO NOTHING rather than raised, so an enclosing
// transaction stays usable and the caller can re-read the winner's row.
func (r *repository) CreateIfAbsent(ctx context.Context, record *models.InventoryRecord) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "warehouse_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateGuarded applies updates only when the stored version still matches,
// bumping the version as part of the same statement. It reports whether the
// row was won; a false return means a concurrent writer got there first.
func (r *repository) UpdateGuarded(ctx context.Context, id uuid.UUID, version int64, updates map[string]any) (bool, error) {
	merged := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		merged[k] = v
	}
	merged["version"] = version + 1

	result := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("id = ? AND version = ?", id, version).
		Updates(merged)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("location ASC, product_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) ListLowStock(ctx context.Context) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("quantity <= minimum_threshold AND minimum_threshold > 0").
		Order("quantity / CASE WHEN minimum_threshold < 1 THEN 1 ELSE minimum_threshold END ASC, product_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) WarehouseStats(ctx context.Context, warehouseID uuid.UUID) (*WarehouseStats, error) {
	var stats WarehouseStats
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS record_count,
		       COALESCE(SUM(i.quantity), 0) AS total_quantity,
		       COALESCE(SUM(CASE WHEN i.quantity <= i.minimum_threshold AND i.minimum_threshold > 0 THEN 1 ELSE 0 END), 0) AS low_stock_count,
		       COALESCE(SUM(i.quantity * COALESCE(p.unit_price, 0)), 0) AS total_value
		FROM inventory_records i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.warehouse_id = ?`, warehouseID).
		Scan(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *repository) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.InventoryRecord, error) {
	var records []models.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND quantity > 0 AND expiry_date <= ?", cutoff).
		Order("expiry_date ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
