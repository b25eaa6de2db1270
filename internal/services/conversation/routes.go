package conversation

import (
	"github.com/gofiber/fiber/v3"

	"github.com/SaaSForest/mechx-sub001/internal/middleware"
)

// SetupRoutes настраивает маршруты для API диалогов
func (s *ConversationService) SetupRoutes(app *fiber.App) {
	// Группа для API диалогов
	api := app.Group("/api/conversations")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения всех диалогов пользователя
	api.Get("/", s.GetConversations)

	// Маршрут для создания (или поиска) диалога
	api.Post("/", s.CreateConversation)

	// Маршрут для получения сообщений диалога
	api.Get("/:id/messages", s.GetMessages)

	// Маршрут для отправки сообщения
	api.Post("/:id/messages", s.SendMessage)

	// Маршрут для отметки сообщений прочитанными
	api.Post("/:id/read", s.MarkRead)

	// Маршрут для количества непрочитанных сообщений
	api.Get("/:id/unread-count", s.GetUnreadCount)
}
