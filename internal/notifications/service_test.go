package notifications

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:notifications_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Notification{}, &models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, role enums.UserRole, active bool) *models.User {
	t.Helper()
	user := &models.User{
		Username: fmt.Sprintf("user_%s", uuid.NewString()[:8]),
		Email:    "user@example.test",
		Role:     role,
		Active:   active,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestBroadcastReachesActiveRoleHolders(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := NewService(NewRepository(conn), 20)

	manager := seedUser(t, conn, enums.UserRoleManager, true)
	seedUser(t, conn, enums.UserRoleManager, false) // inactive, skipped
	seedUser(t, conn, enums.UserRoleStaff, true)    // wrong role, skipped

	sent, err := svc.Broadcast(context.Background(), BroadcastInput{
		Roles:   []enums.UserRole{enums.UserRoleManager},
		Title:   "Low stock",
		Message: "widgets are under threshold",
		Type:    enums.NotificationStockAlert,
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 recipient, got %d", sent)
	}

	var note models.Notification
	if err := conn.First(&note, "user_id = ?", manager.ID).Error; err != nil {
		t.Fatalf("load notification: %v", err)
	}
	if note.ReadAt != nil {
		t.Fatal("new notifications must start unread")
	}
}

func TestBroadcastCapsRecipients(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := NewService(NewRepository(conn), 2)

	for i := 0; i < 5; i++ {
		seedUser(t, conn, enums.UserRoleManager, true)
	}

	sent, err := svc.Broadcast(context.Background(), BroadcastInput{
		Title:   "Low stock",
		Message: "widgets are under threshold",
		Type:    enums.NotificationStockAlert,
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected capped broadcast of 2, got %d", sent)
	}
}

func TestBroadcastWithNoRecipientsIsNoop(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := NewService(NewRepository(conn), 20)

	sent, err := svc.Broadcast(context.Background(), BroadcastInput{
		Title:   "Low stock",
		Message: "widgets are under threshold",
		Type:    enums.NotificationStockAlert,
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected no recipients, got %d", sent)
	}
}

func TestBroadcastValidatesInput(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := NewService(NewRepository(conn), 20)

	if _, err := svc.Broadcast(context.Background(), BroadcastInput{
		Message: "no title",
		Type:    enums.NotificationStockAlert,
	}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Broadcast(context.Background(), BroadcastInput{
		Title:   "title",
		Message: "message",
		Type:    enums.NotificationType("BOGUS"),
	}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNotifyOrderUpdateTargetsRequester(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := NewService(NewRepository(conn), 20)

	requester := uuid.New()
	order := &models.PurchaseOrder{
		ID:          uuid.New(),
		RequestedBy: requester,
		Status:      enums.OrderStatusSent,
	}
	if err := svc.NotifyOrderUpdate(context.Background(), order, "order sent to supplier"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	var note models.Notification
	if err := conn.First(&note, "user_id = ?", requester).Error; err != nil {
		t.Fatalf("load notification: %v", err)
	}
	if note.Type != enums.NotificationOrderUpdate {
		t.Fatalf("expected ORDER_UPDATE, got %s", note.Type)
	}
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := NewService(NewRepository(conn), 20)
	user := seedUser(t, conn, enums.UserRoleManager, true)

	for i := 0; i < 3; i++ {
		if _, err := svc.Broadcast(context.Background(), BroadcastInput{
			Roles:   []enums.UserRole{enums.UserRoleManager},
			Title:   "alert",
			Message: fmt.Sprintf("message %d", i),
			Type:    enums.NotificationStockAlert,
		}); err != nil {
			t.Fatalf("broadcast: %v", err)
		}
	}

	count, err := svc.UnreadCount(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 unread, got %d", count)
	}

	rows, err := svc.ListForUser(context.Background(), user.ID, true, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if err := svc.MarkRead(context.Background(), rows[0].ID, user.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	// Marking the same row again reports not found.
	if err := svc.MarkRead(context.Background(), rows[0].ID, user.ID); !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found on re-read, got %v", err)
	}
	// Another user cannot read someone else's notification.
	if err := svc.MarkRead(context.Background(), rows[1].ID, uuid.New()); !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}

	updated, err := svc.MarkAllRead(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 remaining rows marked, got %d", updated)
	}

	count, err = svc.UnreadCount(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}

	unread, err := svc.ListForUser(context.Background(), user.ID, true, 10)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("expected no unread rows, got %d", len(unread))
	}
}
