package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

const defaultListLimit = 50

// BroadcastInput fans one message out to every active user holding one of
// the given roles.
type BroadcastInput struct {
	Roles   []enums.UserRole
	Title   string
	Message string
	Type    enums.NotificationType
}

// Service creates and reads in-app notifications. Transport beyond the
// database (email, push) is out of scope here.
type Service interface {
	Broadcast(ctx context.Context, input BroadcastInput) (int, error)
	BroadcastTx(ctx context.Context, tx *gorm.DB, input BroadcastInput) (int, error)
	NotifyOrderUpdate(ctx context.Context, order *models.PurchaseOrder, message string) error
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo         Repository
	recipientCap int
	now          func() time.Time
}

// NewService wires a notifications service. recipientCap bounds how many
// users a single broadcast may reach.
func NewService(repo Repository, recipientCap int) Service {
	if repo == nil {
		panic("notifications: NewService requires a repository")
	}
	if recipientCap <= 0 {
		recipientCap = 20
	}
	return &service{
		repo:         repo,
		recipientCap: recipientCap,
		now:          time.Now,
	}
}

func (s *service) Broadcast(ctx context.Context, input BroadcastInput) (int, error) {
	return s.BroadcastTx(ctx, nil, input)
}

func (s *service) BroadcastTx(ctx context.Context, tx *gorm.DB, input BroadcastInput) (int, error) {
	if input.Title == "" || input.Message == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "notification title and message are required")
	}
	if !input.Type.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification type")
	}
	roles := input.Roles
	if len(roles) == 0 {
		roles = []enums.UserRole{enums.UserRoleManager, enums.UserRoleAdmin}
	}

	repo := s.repo.WithTx(tx)
	users, err := repo.ListActiveUsersByRole(ctx, roles, s.recipientCap)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to resolve notification recipients")
	}
	if len(users) == 0 {
		return 0, nil
	}

	rows := make([]models.Notification, 0, len(users))
	for _, user := range users {
		rows = append(rows, models.Notification{
			UserID:  user.ID,
			Title:   input.Title,
			Message: input.Message,
			Type:    input.Type,
		})
	}
	if err := repo.CreateBatch(ctx, rows); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create notifications")
	}
	return len(rows), nil
}

// NotifyOrderUpdate tells the order's requester (and managers, if the
// requester is unknown to the users table) that its status changed.
func (s *service) NotifyOrderUpdate(ctx context.Context, order *models.PurchaseOrder, message string) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	rows := []models.Notification{{
		UserID:  order.RequestedBy,
		Title:   fmt.Sprintf("Order %s", order.Status),
		Message: message,
		Type:    enums.NotificationOrderUpdate,
	}}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create order notification")
	}
	return nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}
	rows, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list notifications")
	}
	return rows, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to count notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if id == uuid.Nil || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id and user id are required")
	}
	found, err := s.repo.MarkRead(ctx, id, userID, s.now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mark notification read")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	updated, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mark notifications read")
	}
	return updated, nil
}
