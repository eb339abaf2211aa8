package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is master data consumed by the decision engines for pricing and
// supplier routing. CRUD for products lives outside this service.
type Product struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name       string          `gorm:"column:name;not null"`
	Unit       string          `gorm:"column:unit;not null;default:'ea'"`
	Category   string          `gorm:"column:category"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(14,4);not null"`
	SupplierID uuid.UUID       `gorm:"column:supplier_id;type:uuid;not null;index"`
	LastUsedAt *time.Time      `gorm:"column:last_used_at"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
