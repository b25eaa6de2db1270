package carlisting

import (
	"github.com/gofiber/fiber/v3"

	"github.com/SaaSForest/mechx-sub001/internal/middleware"
)

// SetupRoutes настраивает маршруты для API объявлений
func (s *CarListingService) SetupRoutes(app *fiber.App) {
	// Публичный каталог автомобилей
	app.Get("/api/cars", s.GetCars)
	app.Get("/api/cars/:id", s.GetCar)

	// Защищенные маршруты (требуют авторизации)
	api := app.Group("/api/listings")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания объявления
	api.Post("/", s.CreateListing)

	// Маршрут для получения своих объявлений
	api.Get("/", s.GetMyListings)

	// Маршрут для обновления объявления
	api.Put("/:id", s.UpdateListing)

	// Маршрут для пометки объявления проданным
	api.Post("/:id/sold", s.MarkSold)

	// Маршрут для удаления объявления
	api.Delete("/:id", s.DeleteListing)
}
