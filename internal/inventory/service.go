package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/internal/events"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

// maxMutationAttempts bounds optimistic-lock retries before the conflict is
// surfaced to the caller.
const maxMutationAttempts = 3

// Service is the inventory ledger. It owns every quantity/location mutation;
// each successful mutation commits together with exactly one event append.
type Service interface {
	AddStock(ctx context.Context, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error)
	AddStockTx(ctx context.Context, tx *gorm.DB, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error)
	RemoveStock(ctx context.Context, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error)
	MoveStock(ctx context.Context, inventoryID uuid.UUID, newLocation, reason string) (*models.InventoryRecord, error)
	FindOrCreate(ctx context.Context, warehouseID, productID uuid.UUID) (*models.InventoryRecord, error)
	FindOrCreateTx(ctx context.Context, tx *gorm.DB, warehouseID, productID uuid.UUID) (*models.InventoryRecord, error)
	GetByID(ctx context.Context, inventoryID uuid.UUID) (*models.InventoryRecord, error)
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryRecord, error)
	ListLowStock(ctx context.Context) ([]models.InventoryRecord, error)
	WarehouseStats(ctx context.Context, warehouseID uuid.UUID) (*WarehouseStats, error)
}

type eventRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, input events.RecordEventInput) (*models.InventoryEvent, error)
}

type service struct {
	repo   Repository
	events eventRecorder
	tx     db.TxRunner
	now    func() time.Time
}

// NewService wires the inventory ledger.
func NewService(repo Repository, recorder eventRecorder, tx db.TxRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
	}
	if recorder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "event recorder required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tx runner required")
	}
	return &service{repo: repo, events: recorder, tx: tx, now: time.Now}, nil
}

func (s *service) AddStock(ctx context.Context, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error) {
	var record *models.InventoryRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		record, txErr = s.AddStockTx(ctx, tx, inventoryID, quantity, reason)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// AddStockTx credits stock inside the caller's transaction. Delivery
// completion uses this so the order transition, the stock credit and the
// event append commit atomically.
func (s *service) AddStockTx(ctx context.Context, tx *gorm.DB, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	return s.mutate(ctx, tx, inventoryID, func(record *models.InventoryRecord) (mutation, error) {
		newQuantity := record.Quantity + quantity
		metadata, err := events.MarshalMetadata(events.StockAddedMetadata{
			Reason:        reason,
			AddedQuantity: quantity,
		})
		if err != nil {
			return mutation{}, err
		}
		return mutation{
			updates:          map[string]any{"quantity": newQuantity},
			apply:            func(r *models.InventoryRecord) { r.Quantity = newQuantity },
			eventType:        enums.EventStockAdded,
			previousQuantity: record.Quantity,
			newQuantity:      newQuantity,
			metadata:         metadata,
		}, nil
	})
}

func (s *service) RemoveStock(ctx context.Context, inventoryID uuid.UUID, quantity float64, reason string) (*models.InventoryRecord, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var record *models.InventoryRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		record, txErr = s.mutate(ctx, tx, inventoryID, func(current *models.InventoryRecord) (mutation, error) {
			newQuantity := current.Quantity - quantity
			if newQuantity < 0 {
				return mutation{}, pkgerrors.New(pkgerrors.CodeInsufficientStock, "remove would drive stock negative").
					WithDetails(map[string]any{
						"currentQuantity":   current.Quantity,
						"requestedQuantity": quantity,
					})
			}
			metadata, err := events.MarshalMetadata(events.StockRemovedMetadata{
				Reason:          reason,
				RemovedQuantity: quantity,
			})
			if err != nil {
				return mutation{}, err
			}
			return mutation{
				updates:          map[string]any{"quantity": newQuantity},
				apply:            func(r *models.InventoryRecord) { r.Quantity = newQuantity },
				eventType:        enums.EventStockRemoved,
				previousQuantity: current.Quantity,
				newQuantity:      newQuantity,
				metadata:         metadata,
			}, nil
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) MoveStock(ctx context.Context, inventoryID uuid.UUID, newLocation, reason string) (*models.InventoryRecord, error) {
	if newLocation == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "new location is required")
	}

	var record *models.InventoryRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		record, txErr = s.mutate(ctx, tx, inventoryID, func(current *models.InventoryRecord) (mutation, error) {
			metadata, err := events.MarshalMetadata(events.StockMovedMetadata{
				Reason:      reason,
				OldLocation: current.Location,
				NewLocation: newLocation,
			})
			if err != nil {
				return mutation{}, err
			}
			return mutation{
				updates:          map[string]any{"location": newLocation},
				apply:            func(r *models.InventoryRecord) { r.Location = newLocation },
				eventType:        enums.EventStockMoved,
				previousQuantity: current.Quantity,
				newQuantity:      current.Quantity,
				metadata:         metadata,
			}, nil
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// mutation describes one guarded read-modify-write against a record.
type mutation struct {
	updates          map[string]any
	apply            func(*models.InventoryRecord)
	eventType        enums.InventoryEventType
	previousQuantity float64
	newQuantity      float64
	metadata         []byte
}

// mutate runs the optimistic-lock loop: read, decide, guarded update, event
// append. A lost version check re-reads and retries; nothing is written for
// the losing attempt.
func (s *service) mutate(ctx context.Context, tx *gorm.DB, inventoryID uuid.UUID, decide func(*models.InventoryRecord) (mutation, error)) (*models.InventoryRecord, error) {
	repo := s.repo.WithTx(tx)

	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		record, err := repo.FindByID(ctx, inventoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
		}

		m, err := decide(record)
		if err != nil {
			return nil, err
		}

		now := s.now().UTC()
		m.updates["updated_at"] = now
		won, err := repo.UpdateGuarded(ctx, record.ID, record.Version, m.updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory record")
		}
		if !won {
			continue
		}

		if _, err := s.events.RecordTx(ctx, tx, events.RecordEventInput{
			InventoryID:      record.ID,
			ProductID:        record.ProductID,
			WarehouseID:      record.WarehouseID,
			EventType:        m.eventType,
			PreviousQuantity: m.previousQuantity,
			NewQuantity:      m.newQuantity,
			Metadata:         m.metadata,
		}); err != nil {
			// The surrounding transaction rolls the mutation back; the
			// ledger write is not committed without its event.
			return nil, err
		}

		m.apply(record)
		record.Version++
		record.UpdatedAt = now
		return record, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeConflict, "concurrent inventory modification, retries exhausted")
}

func (s *service) FindOrCreate(ctx context.Context, warehouseID, productID uuid.UUID) (*models.InventoryRecord, error) {
	return s.FindOrCreateTx(ctx, nil, warehouseID, productID)
}

// FindOrCreateTx returns the record for (warehouse, product), creating an
// empty one on first delivery. The insert carries ON CONFLICT DO NOTHING so
// a concurrent create losing the unique index race leaves the transaction
// healthy; the loser re-reads the winner's row.
func (s *service) FindOrCreateTx(ctx context.Context, tx *gorm.DB, warehouseID, productID uuid.UUID) (*models.InventoryRecord, error) {
	if warehouseID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id and product id are required")
	}

	repo := s.repo.WithTx(tx)
	record, err := repo.FindByWarehouseAndProduct(ctx, warehouseID, productID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}

	fresh := &models.InventoryRecord{
		ID:               uuid.New(),
		WarehouseID:      warehouseID,
		ProductID:        productID,
		Location:         models.DefaultLocation,
		Quantity:         0,
		MinimumThreshold: models.DefaultMinimumThreshold,
	}
	inserted, createErr := repo.CreateIfAbsent(ctx, fresh)
	if createErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create inventory record")
	}
	if !inserted {
		record, err = repo.FindByWarehouseAndProduct(ctx, warehouseID, productID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
		}
		return record, nil
	}
	return fresh, nil
}

func (s *service) GetByID(ctx context.Context, inventoryID uuid.UUID) (*models.InventoryRecord, error) {
	record, err := s.repo.FindByID(ctx, inventoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}
	return record, nil
}

func (s *service) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.InventoryRecord, error) {
	if warehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required")
	}
	return s.repo.ListByWarehouse(ctx, warehouseID)
}

func (s *service) ListLowStock(ctx context.Context) ([]models.InventoryRecord, error) {
	return s.repo.ListLowStock(ctx)
}

// WarehouseStats summarises one warehouse: record and low-stock counts,
// total quantity, and stock value priced from the product master data.
func (s *service) WarehouseStats(ctx context.Context, warehouseID uuid.UUID) (*WarehouseStats, error) {
	if warehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id is required")
	}
	stats, err := s.repo.WarehouseStats(ctx, warehouseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate warehouse stats")
	}
	return stats, nil
}
