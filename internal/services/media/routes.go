package media

import (
	"github.com/gofiber/fiber/v3"

	"github.com/SaaSForest/mechx-sub001/internal/middleware"
)

// SetupRoutes настраивает маршруты для API медиафайлов
func (s *MediaService) SetupRoutes(app *fiber.App) {
	// Группа для API загрузки
	api := app.Group("/api/upload")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения параметров прямой загрузки
	api.Get("/params", s.GenerateUploadParams)
}
