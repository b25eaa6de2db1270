package notification

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/SaaSForest/mechx-sub001/internal/config"
	"github.com/SaaSForest/mechx-sub001/internal/db"
	"github.com/SaaSForest/mechx-sub001/internal/models"
	"github.com/SaaSForest/mechx-sub001/internal/utils"
)

// NotificationService представляет сервис для работы с уведомлениями
type NotificationService struct {
	cfg        *config.Config
	pool       db.PgxIface
	jwtService *utils.JWTService
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{
		cfg:        cfg,
		pool:       db.Pool,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetNotifications возвращает список уведомлений пользователя
func (s *NotificationService) GetNotifications(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	limit := 50
	offsetStr := c.Query("offset", "0")
	offset, _ := strconv.Atoi(offsetStr)

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := s.pool.Query(ctx, `
        SELECT id, user_id, type, title, body, payload, is_read, created_at
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `, userUUID, limit, offset)
	if err != nil {
		log.Printf("Ошибка запроса уведомлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения уведомлений"})
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Body,
			&n.Payload,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования уведомления: %v", err)
			continue
		}
		notifications = append(notifications, n)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// GetUnreadCount возвращает количество непрочитанных уведомлений
func (s *NotificationService) GetUnreadCount(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var count int
	err = s.pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false
    `, userUUID).Scan(&count)
	if err != nil {
		log.Printf("Ошибка подсчета непрочитанных уведомлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения количества уведомлений"})
	}

	return c.JSON(fiber.Map{"unread_count": count})
}

// MarkRead отмечает уведомления прочитанными. Если notification_id не указан,
// отмечаются все уведомления пользователя. Повторный вызов ничего не меняет.
func (s *NotificationService) MarkRead(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		NotificationID string `json:"notification_id,omitempty"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		// Пустое тело допустимо - означает "отметить все"
		requestData.NotificationID = ""
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if requestData.NotificationID != "" {
		notificationUUID, err := uuid.Parse(requestData.NotificationID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID уведомления"})
		}

		_, err = s.pool.Exec(ctx, `
            UPDATE notifications SET is_read = true
            WHERE id = $1 AND user_id = $2 AND is_read = false
        `, notificationUUID, userUUID)
		if err != nil {
			log.Printf("Ошибка обновления уведомления: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления уведомления"})
		}
	} else {
		_, err = s.pool.Exec(ctx, `
            UPDATE notifications SET is_read = true
            WHERE user_id = $1 AND is_read = false
        `, userUUID)
		if err != nil {
			log.Printf("Ошибка обновления уведомлений: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления уведомлений"})
		}
	}

	return c.JSON(fiber.Map{"success": true})
}
