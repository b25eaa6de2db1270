package review

import (
	"github.com/gofiber/fiber/v3"

	"github.com/SaaSForest/mechx-sub001/internal/middleware"
)

// SetupRoutes настраивает маршруты для API отзывов
func (s *ReviewService) SetupRoutes(app *fiber.App) {
	// Группа для API отзывов
	api := app.Group("/api/reviews")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания отзыва
	api.Post("/", s.CreateReview)

	// Отзывы о пользователе доступны без авторизации
	app.Get("/api/users/:id/reviews", s.GetUserReviews)
}
