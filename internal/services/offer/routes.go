package offer

import (
	"github.com/gofiber/fiber/v3"

	"github.com/SaaSForest/mechx-sub001/internal/middleware"
)

// SetupRoutes настраивает маршруты для API предложений
func (s *OfferService) SetupRoutes(app *fiber.App) {
	// Группа для API предложений
	api := app.Group("/api/offers")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания предложения
	api.Post("/", s.CreateOffer)

	// Маршрут для получения своих предложений
	api.Get("/", s.GetMyOffers)

	// Маршрут для принятия предложения
	api.Post("/:id/accept", s.AcceptOffer)

	// Маршрут для отклонения предложения
	api.Post("/:id/reject", s.RejectOffer)

	// Маршрут для отзыва предложения продавцом
	api.Post("/:id/withdraw", s.WithdrawOffer)

	// Маршрут для проверки права на отзыв
	api.Get("/:id/can-review", s.CanReviewOffer)

	// Предложения по конкретному запросу (для его автора)
	requests := app.Group("/api/part-requests")
	requests.Use(middleware.AuthMiddleware(s.jwtService))
	requests.Get("/:id/offers", s.GetRequestOffers)
}
