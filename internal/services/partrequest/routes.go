package partrequest

import (
	"github.com/gofiber/fiber/v3"

	"github.com/SaaSForest/mechx-sub001/internal/middleware"
)

// SetupRoutes настраивает маршруты для API запросов на запчасти
func (s *PartRequestService) SetupRoutes(app *fiber.App) {
	// Группа для API запросов
	api := app.Group("/api/part-requests")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания запроса
	api.Post("/", s.CreateRequest)

	// Маршрут для получения своих запросов
	api.Get("/", s.GetMyRequests)

	// Маршрут для просмотра активных запросов (лента продавца)
	api.Get("/browse", s.BrowseRequests)

	// Маршрут для получения одного запроса
	api.Get("/:id", s.GetRequest)

	// Маршрут для завершения запроса
	api.Post("/:id/complete", s.CompleteRequest)

	// Маршрут для отмены запроса
	api.Post("/:id/cancel", s.CancelRequest)
}
