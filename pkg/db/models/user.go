package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// User exists so alerts can be routed to responsible people. There is no
// authentication in this service; actors are passed explicitly per request.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Username  string         `gorm:"column:username;not null;uniqueIndex"`
	Email     string         `gorm:"column:email;not null"`
	Role      enums.UserRole `gorm:"column:role;type:text;not null;default:'STAFF'"`
	Active    bool           `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
