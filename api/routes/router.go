package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockroomhq/stockroom-backend/api/controllers"
	"github.com/stockroomhq/stockroom-backend/api/middleware"
	"github.com/stockroomhq/stockroom-backend/internal/events"
	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	"github.com/stockroomhq/stockroom-backend/internal/notifications"
	"github.com/stockroomhq/stockroom-backend/internal/orders"
	"github.com/stockroomhq/stockroom-backend/internal/reorder"
	"github.com/stockroomhq/stockroom-backend/pkg/config"
	"github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	inventoryService inventory.Service,
	eventsService events.Service,
	ordersService orders.Service,
	notificationsService notifications.Service,
	reorderEngine reorder.Engine,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/", controllers.CreateInventory(inventoryService, logg))
			r.Get("/", controllers.ListInventory(inventoryService, logg))
			r.Get("/low-stock", controllers.ListLowStock(inventoryService, logg))
			r.Get("/stats", controllers.WarehouseStats(inventoryService, logg))
			r.Post("/trigger-auto-orders", controllers.TriggerAutoOrders(reorderEngine, logg))
			r.Route("/{inventoryId}", func(r chi.Router) {
				r.Get("/", controllers.GetInventory(inventoryService, logg))
				r.Post("/add", controllers.AddStock(inventoryService, logg))
				r.Post("/remove", controllers.RemoveStock(inventoryService, logg))
				r.Post("/move", controllers.MoveStock(inventoryService, logg))
				r.Get("/events", controllers.ListInventoryEvents(eventsService, logg))
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", controllers.ListEvents(eventsService, logg))
			r.Get("/today", controllers.ListTodayEvents(eventsService, logg))
			r.Get("/stats", controllers.EventStats(eventsService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(ordersService, logg))
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.GetOrder(ordersService, logg))
				r.Post("/status", controllers.UpdateOrderStatus(ordersService, logg))
				r.Post("/complete-delivery", controllers.CompleteDelivery(ordersService, logg))
				r.Post("/cancel", controllers.CancelOrder(ordersService, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
