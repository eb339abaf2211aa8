package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// Repository manages persistence for purchase orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PurchaseOrder) error
	// CreateIfNoOpen inserts unless an open order for the same (product,
	// warehouse) already exists, reporting whether the row was inserted.
	CreateIfNoOpen(ctx context.Context, order *models.PurchaseOrder) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	List(ctx context.Context) ([]models.PurchaseOrder, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.PurchaseOrder, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.PurchaseOrder, error)
	HasOpenOrder(ctx context.Context, productID, warehouseID uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// TransitionGuarded sets updates only while the order is not yet in the
	// given excluded statuses, reporting whether the row was won.
	TransitionGuarded(ctx context.Context, id uuid.UUID, excluded []enums.OrderStatus, updates map[string]any) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// The conflict target must spell out the predicate of
// uq_purchase_orders_open: a partial unique index cannot be named with ON
// CONFLICT ON CONSTRAINT. Losing the insert race is not an error, so an
// enclosing transaction is never aborted and the batch can move on.
func (r *repository) CreateIfNoOpen(ctx context.Context, order *models.PurchaseOrder) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "status IN ('PENDING', 'SENT', 'CONFIRMED', 'IN_TRANSIT')"},
			}},
			DoNothing: true,
		}).
		Create(order)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context) ([]models.PurchaseOrder, error) {
	var orders []models.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Order("requested_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.PurchaseOrder, error) {
	var orders []models.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("requested_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.PurchaseOrder, error) {
	var orders []models.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("requested_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) HasOpenOrder(ctx context.Context, productID, warehouseID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("product_id = ? AND warehouse_id = ? AND status IN ?", productID, warehouseID, enums.OpenOrderStatuses).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) TransitionGuarded(ctx context.Context, id uuid.UUID, excluded []enums.OrderStatus, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ? AND status NOT IN ?", id, excluded).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
