package reorder

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Candidate is an under-threshold inventory record joined with the product
// master data the engine needs for pricing and supplier routing.
type Candidate struct {
	InventoryID      uuid.UUID       `gorm:"column:inventory_id"`
	ProductID        uuid.UUID       `gorm:"column:product_id"`
	WarehouseID      uuid.UUID       `gorm:"column:warehouse_id"`
	ProductName      string          `gorm:"column:product_name"`
	SupplierID       uuid.UUID       `gorm:"column:supplier_id"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price"`
	Quantity         float64         `gorm:"column:quantity"`
	MinimumThreshold float64         `gorm:"column:minimum_threshold"`
}

// Ratio is quantity over threshold, the engine's urgency measure.
func (c Candidate) Ratio() float64 {
	if c.MinimumThreshold <= 0 {
		return 1
	}
	return c.Quantity / c.MinimumThreshold
}

// Repository selects reorder candidates. Order creation and events go
// through the orders and events packages.
type Repository interface {
	ListCandidates(ctx context.Context) ([]Candidate, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reorder repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ListCandidates returns under-threshold records with pricing, most urgent
// first (lowest quantity/threshold ratio, then product id for a stable
// order).
func (r *repository) ListCandidates(ctx context.Context) ([]Candidate, error) {
	var candidates []Candidate
	err := r.db.WithContext(ctx).
		Table("inventory_records").
		Select(`inventory_records.id AS inventory_id,
			inventory_records.product_id AS product_id,
			inventory_records.warehouse_id AS warehouse_id,
			inventory_records.quantity AS quantity,
			inventory_records.minimum_threshold AS minimum_threshold,
			products.name AS product_name,
			products.supplier_id AS supplier_id,
			products.unit_price AS unit_price`).
		Joins("JOIN products ON products.id = inventory_records.product_id").
		Where("inventory_records.quantity <= inventory_records.minimum_threshold AND inventory_records.minimum_threshold > 0").
		Order("inventory_records.quantity / CASE WHEN inventory_records.minimum_threshold < 1 THEN 1 ELSE inventory_records.minimum_threshold END ASC, inventory_records.product_id ASC").
		Scan(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}
