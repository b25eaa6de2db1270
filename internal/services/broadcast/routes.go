package broadcast

import (
	"github.com/gofiber/fiber/v3"

	"github.com/SaaSForest/mechx-sub001/internal/middleware"
)

// SetupRoutes настраивает маршруты для авторизации каналов
func (s *BroadcastService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/broadcasting")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для авторизации подписки на приватный канал
	api.Post("/auth", s.Authorize)
}
