package notification

import (
	"github.com/gofiber/fiber/v3"

	"github.com/SaaSForest/mechx-sub001/internal/middleware"
)

// SetupRoutes настраивает маршруты для API уведомлений
func (s *NotificationService) SetupRoutes(app *fiber.App) {
	// Группа для API уведомлений
	api := app.Group("/api/notifications")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения списка уведомлений
	api.Get("/", s.GetNotifications)

	// Маршрут для получения количества непрочитанных уведомлений
	api.Get("/unread-count", s.GetUnreadCount)

	// Маршрут для отметки уведомлений прочитанными
	api.Post("/read", s.MarkRead)
}
