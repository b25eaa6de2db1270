package conversation

import (
	"bytes"
	"context"
	"errors"
	"log"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SaaSForest/mechx-sub001/internal/config"
	"github.com/SaaSForest/mechx-sub001/internal/db"
	"github.com/SaaSForest/mechx-sub001/internal/models"
	"github.com/SaaSForest/mechx-sub001/internal/services/notification"
	"github.com/SaaSForest/mechx-sub001/internal/services/push"
	"github.com/SaaSForest/mechx-sub001/internal/utils"
	"github.com/SaaSForest/mechx-sub001/internal/websocket"
)

// Серверный предел длины сообщения. Мобильный клиент ограничивает ввод
// 500 символами, это ограничение - защита от аномальных запросов.
const maxMessageLength = 2000

// ConversationService представляет сервис для работы с диалогами
type ConversationService struct {
	cfg        *config.Config
	pool       db.PgxIface
	jwtService *utils.JWTService
	push       *push.PushService
	ws         *websocket.Manager
}

// NewConversationService создает новый экземпляр ConversationService
func NewConversationService(cfg *config.Config, pushService *push.PushService, wsManager *websocket.Manager) *ConversationService {
	return &ConversationService{
		cfg:        cfg,
		pool:       db.Pool,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		push:       pushService,
		ws:         wsManager,
	}
}

// canonicalPair возвращает пару участников в каноническом порядке хранения
// (меньший UUID первым). Благодаря этому уникальный ключ диалога покрывает
// оба направления поиска без двойной проверки.
func canonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

// IsParticipant проверяет, является ли пользователь участником диалога
func IsParticipant(ctx context.Context, q db.Querier, conversationID, userID uuid.UUID) (bool, error) {
	var count int
	err := q.QueryRow(ctx, `
        SELECT COUNT(*) FROM conversations
        WHERE id = $1 AND (participant_one_id = $2 OR participant_two_id = $2)
    `, conversationID, userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateConversation находит или создает диалог между текущим пользователем
// и получателем в рамках указанного контекста
func (s *ConversationService) CreateConversation(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	senderUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		RecipientID string `json:"recipient_id"`
		ContextType string `json:"context_type"` // part_request, car_listing
		ContextID   string `json:"context_id"`
		Message     string `json:"message,omitempty"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.RecipientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID получателя не указан"})
	}

	recipientUUID, err := uuid.Parse(requestData.RecipientID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID получателя"})
	}

	if senderUUID == recipientUUID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Нельзя создать диалог с самим собой"})
	}

	contextID, err := uuid.Parse(requestData.ContextID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID контекста"})
	}

	convContext := models.ConversationContext{Type: requestData.ContextType, ID: contextID}
	if !convContext.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Тип контекста должен быть part_request или car_listing"})
	}

	// Первое сообщение проверяется до создания диалога
	if requestData.Message != "" {
		if err := validateMessageContent(requestData.Message); err != nil {
			return utils.RespondError(c, err)
		}
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Проверяем, существует ли получатель
	var count int
	err = s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE id = $1", recipientUUID).Scan(&count)
	if err != nil {
		log.Printf("Ошибка проверки существования получателя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки получателя"})
	}
	if count == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Получатель не найден"})
	}

	// Проверяем существование контекста
	if err := checkContextExists(ctx, s.pool, convContext); err != nil {
		return utils.RespondError(c, err)
	}

	p1, p2 := canonicalPair(senderUUID, recipientUUID)

	// Ищем существующий диалог: благодаря каноническому порядку хранения
	// достаточно одной проверки
	var conversationID uuid.UUID
	err = s.pool.QueryRow(ctx, `
        SELECT id FROM conversations
        WHERE participant_one_id = $1 AND participant_two_id = $2 AND context_type = $3 AND context_id = $4
    `, p1, p2, convContext.Type, convContext.ID).Scan(&conversationID)

	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("Ошибка проверки существующего диалога: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки существования диалога"})
	}

	if err == nil {
		// Диалог существует - при наличии текста отправляем сообщение
		if requestData.Message != "" {
			if _, err := s.deliverMessage(ctx, conversationID, senderUUID, recipientUUID, requestData.Message); err != nil {
				log.Printf("Ошибка отправки сообщения: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения сообщения"})
			}
		}

		return c.JSON(fiber.Map{
			"conversation_id": conversationID,
			"is_new":          false,
			"success":         true,
		})
	}

	// Создаем новый диалог. last_message_at остается NULL до первого сообщения.
	err = s.pool.QueryRow(ctx, `
        INSERT INTO conversations (participant_one_id, participant_two_id, context_type, context_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, p1, p2, convContext.Type, convContext.ID).Scan(&conversationID)

	if err != nil {
		// Гонка с параллельным созданием: перечитываем существующий диалог
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			err = s.pool.QueryRow(ctx, `
                SELECT id FROM conversations
                WHERE participant_one_id = $1 AND participant_two_id = $2 AND context_type = $3 AND context_id = $4
            `, p1, p2, convContext.Type, convContext.ID).Scan(&conversationID)
			if err == nil {
				// Диалог создала параллельная сторона, сообщение не теряем
				if requestData.Message != "" {
					if _, err := s.deliverMessage(ctx, conversationID, senderUUID, recipientUUID, requestData.Message); err != nil {
						log.Printf("Ошибка отправки сообщения: %v", err)
						return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения сообщения"})
					}
				}

				return c.JSON(fiber.Map{
					"conversation_id": conversationID,
					"is_new":          false,
					"success":         true,
				})
			}
		}
		log.Printf("Ошибка создания диалога: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания диалога"})
	}

	if requestData.Message != "" {
		if _, err := s.deliverMessage(ctx, conversationID, senderUUID, recipientUUID, requestData.Message); err != nil {
			log.Printf("Ошибка отправки первого сообщения: %v", err)
			// Диалог создан, ошибку не возвращаем
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"conversation_id": conversationID,
		"is_new":          true,
		"success":         true,
	})
}

// GetConversations возвращает список диалогов пользователя
func (s *ConversationService) GetConversations(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Счетчик непрочитанного у каждого участника свой: считаются только
	// сообщения другой стороны
	rows, err := s.pool.Query(ctx, `
        SELECT c.id, c.participant_one_id, c.participant_two_id, c.context_type, c.context_id,
               c.last_message_at, c.created_at, c.updated_at,
               COUNT(m.id) FILTER (WHERE m.sender_id != $1 AND m.is_read = false) AS unread_count
        FROM conversations c
        LEFT JOIN messages m ON c.id = m.conversation_id
        WHERE c.participant_one_id = $1 OR c.participant_two_id = $1
        GROUP BY c.id
        ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
    `, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса диалогов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения диалогов"})
	}
	defer rows.Close()

	var conversations []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.ParticipantOneID,
			&conv.ParticipantTwoID,
			&conv.ContextType,
			&conv.ContextID,
			&conv.LastMessageAt,
			&conv.CreatedAt,
			&conv.UpdatedAt,
			&conv.UnreadCount,
		); err != nil {
			log.Printf("Ошибка сканирования диалога: %v", err)
			continue
		}
		conversations = append(conversations, conv)
	}

	// Дополняем каждый диалог собеседником и последним сообщением
	for i := range conversations {
		otherID := conversations[i].ParticipantOneID
		if otherID == userUUID {
			otherID = conversations[i].ParticipantTwoID
		}
		conversations[i].OtherParticipant = getUserInfo(ctx, s.pool, otherID)
		conversations[i].LastMessage = getLastMessage(ctx, s.pool, conversations[i].ID)
	}

	return c.JSON(fiber.Map{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// GetMessages возвращает сообщения диалога
func (s *ConversationService) GetMessages(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID диалога"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	isParticipant, err := IsParticipant(ctx, s.pool, conversationID, userUUID)
	if err != nil {
		log.Printf("Ошибка проверки доступа к диалогу: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки доступа к диалогу"})
	}
	if !isParticipant {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к этому диалогу"})
	}

	limit := 50 // Ограничение количества сообщений

	// Обрабатываем пагинацию
	before := c.Query("before")
	var rows pgx.Rows

	if before != "" {
		beforeTime, parseErr := time.Parse(time.RFC3339, before)
		if parseErr != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат метки времени"})
		}
		rows, err = s.pool.Query(ctx, `
            SELECT m.id, m.conversation_id, m.sender_id, m.content, m.is_read, m.created_at, m.updated_at
            FROM messages m
            WHERE m.conversation_id = $1 AND m.created_at < $2
            ORDER BY m.created_at DESC
            LIMIT $3
        `, conversationID, beforeTime, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
            SELECT m.id, m.conversation_id, m.sender_id, m.content, m.is_read, m.created_at, m.updated_at
            FROM messages m
            WHERE m.conversation_id = $1
            ORDER BY m.created_at DESC
            LIMIT $2
        `, conversationID, limit)
	}

	if err != nil {
		log.Printf("Ошибка запроса сообщений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сообщений"})
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.Content,
			&msg.IsRead,
			&msg.CreatedAt,
			&msg.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования сообщения: %v", err)
			continue
		}
		messages = append(messages, msg)
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"has_more": len(messages) == limit,
	})
}

// SendMessage отправляет новое сообщение в диалог
func (s *ConversationService) SendMessage(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID диалога"})
	}

	var requestData struct {
		Content string `json:"content"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Проверяем доступ и определяем собеседника
	var p1, p2 uuid.UUID
	err = s.pool.QueryRow(ctx, `
        SELECT participant_one_id, participant_two_id FROM conversations
        WHERE id = $1 AND (participant_one_id = $2 OR participant_two_id = $2)
    `, conversationID, userUUID).Scan(&p1, &p2)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к этому диалогу"})
		}
		log.Printf("Ошибка проверки доступа к диалогу: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки доступа к диалогу"})
	}

	otherID := p1
	if otherID == userUUID {
		otherID = p2
	}

	message, err := s.deliverMessage(ctx, conversationID, userUUID, otherID, requestData.Content)
	if err != nil {
		var validationErr *utils.ValidationError
		if errors.As(err, &validationErr) {
			return utils.RespondError(c, err)
		}
		log.Printf("Ошибка отправки сообщения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения сообщения"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"success": true,
	})
}

// MarkRead отмечает прочитанными все сообщения собеседника в диалоге.
// Операция идемпотентна.
func (s *ConversationService) MarkRead(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID диалога"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var p1, p2 uuid.UUID
	err = s.pool.QueryRow(ctx, `
        SELECT participant_one_id, participant_two_id FROM conversations
        WHERE id = $1 AND (participant_one_id = $2 OR participant_two_id = $2)
    `, conversationID, userUUID).Scan(&p1, &p2)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к этому диалогу"})
		}
		log.Printf("Ошибка проверки доступа к диалогу: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки доступа к диалогу"})
	}

	tag, err := s.pool.Exec(ctx, `
        UPDATE messages SET is_read = true, updated_at = NOW()
        WHERE conversation_id = $1 AND sender_id != $2 AND is_read = false
    `, conversationID, userUUID)

	if err != nil {
		log.Printf("Ошибка обновления статуса прочтения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления статуса прочтения"})
	}

	// Сообщаем собеседнику, что его сообщения прочитаны
	otherID := p1
	if otherID == userUUID {
		otherID = p2
	}
	if tag.RowsAffected() > 0 {
		s.ws.SendMessageRead(otherID.String(), conversationID.String())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"updated": tag.RowsAffected(),
	})
}

// GetUnreadCount возвращает количество непрочитанных сообщений в диалоге
func (s *ConversationService) GetUnreadCount(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID диалога"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	isParticipant, err := IsParticipant(ctx, s.pool, conversationID, userUUID)
	if err != nil {
		log.Printf("Ошибка проверки доступа к диалогу: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки доступа к диалогу"})
	}
	if !isParticipant {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к этому диалогу"})
	}

	count, err := unreadCount(ctx, s.pool, conversationID, userUUID)
	if err != nil {
		log.Printf("Ошибка подсчета непрочитанных сообщений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка подсчета сообщений"})
	}

	return c.JSON(fiber.Map{"unread_count": count})
}

// unreadCount считает сообщения собеседника с is_read = false.
// Значение не кешируется и вычисляется по требованию.
func unreadCount(ctx context.Context, q db.Querier, conversationID, viewerID uuid.UUID) (int, error) {
	var count int
	err := q.QueryRow(ctx, `
        SELECT COUNT(*) FROM messages
        WHERE conversation_id = $1 AND sender_id != $2 AND is_read = false
    `, conversationID, viewerID).Scan(&count)
	return count, err
}

// validateMessageContent проверяет текст сообщения перед сохранением
func validateMessageContent(content string) error {
	if content == "" {
		return &utils.ValidationError{Field: "content", Reason: "Текст сообщения не может быть пустым"}
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return &utils.ValidationError{Field: "content", Reason: "Сообщение слишком длинное"}
	}
	return nil
}

// deliverMessage - единственный путь записи сообщений: проверяет текст,
// одной транзакцией сохраняет сообщение, обновляет last_message_at и создает
// уведомление получателю, после фиксации выполняет realtime- и push-доставку.
// Через него проходят и SendMessage, и первое сообщение нового диалога.
func (s *ConversationService) deliverMessage(ctx context.Context, conversationID, senderID, recipientID uuid.UUID, content string) (*models.Message, error) {
	if err := validateMessageContent(content); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	var messageID uuid.UUID
	err = tx.QueryRow(ctx, `
        INSERT INTO messages (conversation_id, sender_id, content, is_read, created_at, updated_at)
        VALUES ($1, $2, $3, false, $4, $4)
        RETURNING id
    `, conversationID, senderID, content, now).Scan(&messageID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE conversations SET last_message_at = $1, updated_at = $1 WHERE id = $2
    `, now, conversationID)
	if err != nil {
		return nil, err
	}

	// Фан-аут: уведомление собеседнику в той же транзакции
	err = notification.Insert(ctx, tx, recipientID, models.NotificationTypeMessage,
		"Новое сообщение", "",
		map[string]any{"conversation_id": conversationID.String(), "message_id": messageID.String()})
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:             messageID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		IsRead:         false,
		CreatedAt:      now,
		UpdatedAt:      now,
		Sender:         getUserInfo(ctx, s.pool, senderID),
	}

	// Realtime-доставка и push - best-effort, после фиксации
	s.ws.SendNewMessage(recipientID.String(), conversationID.String(), *message)
	s.push.Send(recipientID, "Новое сообщение", content,
		map[string]any{"conversation_id": conversationID.String()})

	return message, nil
}

// checkContextExists проверяет существование сущности контекста.
// Разбор типа исчерпывающий: других типов контекста нет.
func checkContextExists(ctx context.Context, q db.Querier, convContext models.ConversationContext) error {
	var exists bool
	var err error

	switch convContext.Type {
	case models.ContextTypePartRequest:
		err = q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM part_requests WHERE id = $1)`, convContext.ID).Scan(&exists)
	case models.ContextTypeCarListing:
		err = q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM car_listings WHERE id = $1)`, convContext.ID).Scan(&exists)
	default:
		return &utils.ValidationError{Field: "context_type", Reason: "Неизвестный тип контекста"}
	}

	if err != nil {
		return err
	}
	if !exists {
		return &utils.NotFoundError{Entity: "Контекст диалога"}
	}
	return nil
}

// getLastMessage получает последнее сообщение диалога
func getLastMessage(ctx context.Context, q db.Querier, conversationID uuid.UUID) *models.Message {
	var msg models.Message
	err := q.QueryRow(ctx, `
        SELECT id, conversation_id, sender_id, content, is_read, created_at, updated_at
        FROM messages
        WHERE conversation_id = $1
        ORDER BY created_at DESC
        LIMIT 1
    `, conversationID).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.SenderID,
		&msg.Content,
		&msg.IsRead,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)

	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("Ошибка получения последнего сообщения: %v", err)
		}
		return nil
	}

	return &msg
}

// getUserInfo получает базовую информацию о пользователе
func getUserInfo(ctx context.Context, q db.Querier, userID uuid.UUID) *models.PublicUser {
	var user models.PublicUser
	err := q.QueryRow(ctx, `
        SELECT id, name, role, is_verified, rating, avatar_url
        FROM users
        WHERE id = $1
    `, userID).Scan(
		&user.ID,
		&user.Name,
		&user.Role,
		&user.IsVerified,
		&user.Rating,
		&user.AvatarURL,
	)

	if err != nil {
		log.Printf("Ошибка получения данных пользователя %s: %v", userID, err)
		return nil
	}

	return &user
}
