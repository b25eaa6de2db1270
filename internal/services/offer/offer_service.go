package offer

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/SaaSForest/mechx-sub001/internal/config"
	"github.com/SaaSForest/mechx-sub001/internal/db"
	"github.com/SaaSForest/mechx-sub001/internal/models"
	"github.com/SaaSForest/mechx-sub001/internal/services/notification"
	"github.com/SaaSForest/mechx-sub001/internal/services/push"
	"github.com/SaaSForest/mechx-sub001/internal/utils"
)

// OfferService представляет сервис для работы с предложениями продавцов
type OfferService struct {
	cfg        *config.Config
	pool       db.PgxIface
	jwtService *utils.JWTService
	push       *push.PushService
}

// NewOfferService создает новый экземпляр OfferService
func NewOfferService(cfg *config.Config, pushService *push.PushService) *OfferService {
	return &OfferService{
		cfg:        cfg,
		pool:       db.Pool,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		push:       pushService,
	}
}

// CreateOffer создает новое предложение продавца по запросу на запчасть
func (s *OfferService) CreateOffer(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	sellerID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		PartRequestID string  `json:"part_request_id"`
		Price         float64 `json:"price"`
		Message       string  `json:"message"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.PartRequestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID запроса не указан"})
	}
	if requestData.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Цена должна быть больше нуля"})
	}

	partRequestID, err := uuid.Parse(requestData.PartRequestID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID запроса"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Предложения создают только продавцы
	var role string
	err = s.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, sellerID).Scan(&role)
	if err != nil {
		log.Printf("Ошибка запроса роли пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки пользователя"})
	}
	if role != models.RoleSeller {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Создавать предложения могут только продавцы"})
	}

	// Запрос должен существовать и быть активным
	var buyerID uuid.UUID
	var requestStatus, requestTitle string
	err = s.pool.QueryRow(ctx, `
        SELECT buyer_id, status, title FROM part_requests WHERE id = $1
    `, partRequestID).Scan(&buyerID, &requestStatus, &requestTitle)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Запрос на запчасть не найден"})
		}
		log.Printf("Ошибка запроса part_request: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки запроса"})
	}

	if requestStatus != models.PartRequestStatusActive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Запрос больше не принимает предложения"})
	}
	if buyerID == sellerID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Нельзя сделать предложение по собственному запросу"})
	}

	// Не допускаем дубликат активного предложения от того же продавца
	var existingCount int
	err = s.pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM offers
        WHERE part_request_id = $1 AND seller_id = $2 AND status = 'pending'
    `, partRequestID, sellerID).Scan(&existingCount)

	if err != nil {
		log.Printf("Ошибка проверки существующих предложений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки существующих предложений"})
	}

	if existingCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Вы уже сделали предложение по этому запросу"})
	}

	// Начинаем транзакцию
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	var offerID uuid.UUID
	err = tx.QueryRow(ctx, `
        INSERT INTO offers (part_request_id, seller_id, price, message)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, partRequestID, sellerID, requestData.Price, requestData.Message).Scan(&offerID)

	if err != nil {
		log.Printf("Ошибка создания предложения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения предложения"})
	}

	// Уведомляем покупателя о новом предложении
	err = notification.Insert(ctx, tx, buyerID, models.NotificationTypeOffer,
		"Новое предложение", "По вашему запросу «"+requestTitle+"» поступило предложение",
		map[string]any{"offer_id": offerID.String(), "part_request_id": partRequestID.String()})
	if err != nil {
		log.Printf("Ошибка создания уведомления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	s.push.Send(buyerID, "Новое предложение", "По вашему запросу поступило предложение",
		map[string]any{"offer_id": offerID.String()})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"offer_id": offerID,
		"message":  "Предложение успешно создано",
	})
}

// GetMyOffers возвращает список предложений текущего продавца
func (s *OfferService) GetMyOffers(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	sellerID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	status := c.Query("status", "all") // all, pending, accepted, rejected, withdrawn

	ctx, cancel := db.GetContext()
	defer cancel()

	var rows pgx.Rows
	if status == "all" {
		rows, err = s.pool.Query(ctx, `
            SELECT id, part_request_id, seller_id, price, message, status, created_at, updated_at
            FROM offers
            WHERE seller_id = $1
            ORDER BY created_at DESC
        `, sellerID)
	} else {
		rows, err = s.pool.Query(ctx, `
            SELECT id, part_request_id, seller_id, price, message, status, created_at, updated_at
            FROM offers
            WHERE seller_id = $1 AND status = $2
            ORDER BY created_at DESC
        `, sellerID, status)
	}

	if err != nil {
		log.Printf("Ошибка запроса предложений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предложений"})
	}
	defer rows.Close()

	offers := scanOffers(rows)
	return c.JSON(fiber.Map{
		"offers": offers,
		"count":  len(offers),
	})
}

// GetRequestOffers возвращает предложения по конкретному запросу (для его автора)
func (s *OfferService) GetRequestOffers(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	partRequestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID запроса"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var buyerID uuid.UUID
	err = s.pool.QueryRow(ctx, `SELECT buyer_id FROM part_requests WHERE id = $1`, partRequestID).Scan(&buyerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Запрос на запчасть не найден"})
		}
		log.Printf("Ошибка запроса part_request: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки запроса"})
	}

	if buyerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Просматривать предложения может только автор запроса"})
	}

	rows, err := s.pool.Query(ctx, `
        SELECT o.id, o.part_request_id, o.seller_id, o.price, o.message, o.status, o.created_at, o.updated_at
        FROM offers o
        WHERE o.part_request_id = $1 AND o.status <> 'withdrawn'
        ORDER BY o.created_at DESC
    `, partRequestID)
	if err != nil {
		log.Printf("Ошибка запроса предложений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предложений"})
	}
	defer rows.Close()

	offers := scanOffers(rows)

	// Добавляем информацию о продавцах
	for i := range offers {
		offers[i].Seller = getUserInfo(ctx, s.pool, offers[i].SellerID)
	}

	return c.JSON(fiber.Map{
		"offers": offers,
		"count":  len(offers),
	})
}

// AcceptOffer принимает предложение. Эксклюзивность принятия обеспечивается
// транзакцией с блокировкой строки запроса: параллельный второй вызов
// дожидается фиксации первого и получает отказ по статусу.
func (s *OfferService) AcceptOffer(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	offerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предложения"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	result, err := acceptOffer(ctx, tx, offerID, userUUID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	// Push-доставка после фиксации, best-effort
	s.push.Send(result.SellerID, "Предложение принято", "Ваше предложение по запросу «"+result.RequestTitle+"» принято",
		map[string]any{"offer_id": offerID.String()})
	for _, rejectedSellerID := range result.RejectedSellers {
		s.push.Send(rejectedSellerID, "Предложение не принято", "Покупатель выбрал другое предложение",
			map[string]any{"part_request_id": result.PartRequestID.String()})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"offer_id": offerID,
		"status":   models.OfferStatusAccepted,
		"message":  "Предложение принято",
	})
}

// acceptResult содержит итог принятия предложения
type acceptResult struct {
	PartRequestID   uuid.UUID
	SellerID        uuid.UUID
	RequestTitle    string
	RejectedSellers []uuid.UUID
}

// acceptOffer выполняет принятие предложения внутри транзакции.
// Блокировка берется сначала на строке запроса, затем на строке предложения -
// в том же порядке, что и у всех остальных переходов статуса, иначе возможен
// дедлок двух параллельных принятий разных предложений одного запроса.
func acceptOffer(ctx context.Context, tx pgx.Tx, offerID, actorID uuid.UUID) (*acceptResult, error) {
	var partRequestID uuid.UUID
	err := tx.QueryRow(ctx, `
        SELECT part_request_id FROM offers WHERE id = $1
    `, offerID).Scan(&partRequestID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &utils.NotFoundError{Entity: "Предложение"}
		}
		return nil, err
	}

	// Точка сериализации: блокируем строку запроса
	var buyerID uuid.UUID
	var requestTitle string
	err = tx.QueryRow(ctx, `
        SELECT buyer_id, title FROM part_requests WHERE id = $1 FOR UPDATE
    `, partRequestID).Scan(&buyerID, &requestTitle)
	if err != nil {
		return nil, err
	}

	if buyerID != actorID {
		return nil, &utils.ForbiddenError{Reason: "Принять предложение может только автор запроса"}
	}

	// Перечитываем предложение уже под блокировкой запроса
	var sellerID uuid.UUID
	var offerStatus string
	err = tx.QueryRow(ctx, `
        SELECT seller_id, status FROM offers WHERE id = $1 FOR UPDATE
    `, offerID).Scan(&sellerID, &offerStatus)
	if err != nil {
		return nil, err
	}

	if offerStatus != models.OfferStatusPending {
		return nil, &utils.InvalidStateError{Reason: "Предложение уже обработано и не может быть принято"}
	}

	_, err = tx.Exec(ctx, `
        UPDATE offers SET status = 'accepted', updated_at = NOW() WHERE id = $1
    `, offerID)
	if err != nil {
		return nil, err
	}

	// Остальные ожидающие предложения по запросу отклоняются атомарно
	rows, err := tx.Query(ctx, `
        UPDATE offers SET status = 'rejected', updated_at = NOW()
        WHERE part_request_id = $1 AND id <> $2 AND status = 'pending'
        RETURNING seller_id
    `, partRequestID, offerID)
	if err != nil {
		return nil, err
	}

	var rejectedSellers []uuid.UUID
	for rows.Next() {
		var rejectedSellerID uuid.UUID
		if err := rows.Scan(&rejectedSellerID); err != nil {
			rows.Close()
			return nil, err
		}
		rejectedSellers = append(rejectedSellers, rejectedSellerID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Фан-аут уведомлений в той же транзакции
	err = notification.Insert(ctx, tx, sellerID, models.NotificationTypeOffer,
		"Предложение принято", "Ваше предложение по запросу «"+requestTitle+"» принято",
		map[string]any{"offer_id": offerID.String(), "part_request_id": partRequestID.String()})
	if err != nil {
		return nil, err
	}

	for _, rejectedSellerID := range rejectedSellers {
		err = notification.Insert(ctx, tx, rejectedSellerID, models.NotificationTypeOffer,
			"Предложение не принято", "Покупатель выбрал другое предложение по запросу «"+requestTitle+"»",
			map[string]any{"part_request_id": partRequestID.String()})
		if err != nil {
			return nil, err
		}
	}

	return &acceptResult{
		PartRequestID:   partRequestID,
		SellerID:        sellerID,
		RequestTitle:    requestTitle,
		RejectedSellers: rejectedSellers,
	}, nil
}

// RejectOffer отклоняет предложение (доступно автору запроса)
func (s *OfferService) RejectOffer(c fiber.Ctx) error {
	return s.transitionOffer(c, models.OfferStatusRejected)
}

// WithdrawOffer отзывает предложение (доступно его продавцу)
func (s *OfferService) WithdrawOffer(c fiber.Ctx) error {
	return s.transitionOffer(c, models.OfferStatusWithdrawn)
}

// transitionOffer выполняет одиночный переход статуса pending → rejected/withdrawn
func (s *OfferService) transitionOffer(c fiber.Ctx, newStatus string) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	offerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предложения"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var sellerID, buyerID uuid.UUID
	var offerStatus string
	err = s.pool.QueryRow(ctx, `
        SELECT o.seller_id, o.status, r.buyer_id
        FROM offers o
        JOIN part_requests r ON r.id = o.part_request_id
        WHERE o.id = $1
    `, offerID).Scan(&sellerID, &offerStatus, &buyerID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Предложение не найдено"})
		}
		log.Printf("Ошибка запроса предложения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предложения"})
	}

	// Отклоняет покупатель, отзывает продавец
	if newStatus == models.OfferStatusRejected && buyerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Отклонить предложение может только автор запроса"})
	}
	if newStatus == models.OfferStatusWithdrawn && sellerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Отозвать предложение может только его автор"})
	}

	if offerStatus != models.OfferStatusPending {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Предложение уже обработано"})
	}

	// Условие по статусу в WHERE защищает от гонки с параллельным принятием
	tag, err := s.pool.Exec(ctx, `
        UPDATE offers SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = 'pending'
    `, newStatus, offerID)
	if err != nil {
		log.Printf("Ошибка обновления статуса предложения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления статуса предложения"})
	}
	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Предложение уже обработано"})
	}

	if newStatus == models.OfferStatusRejected {
		if err := notification.Insert(ctx, s.pool, sellerID, models.NotificationTypeOffer,
			"Предложение не принято", "Покупатель отклонил ваше предложение",
			map[string]any{"offer_id": offerID.String()}); err != nil {
			log.Printf("Ошибка создания уведомления: %v", err)
			// Основная операция выполнена, ошибку не возвращаем
		}
		s.push.Send(sellerID, "Предложение не принято", "Покупатель отклонил ваше предложение",
			map[string]any{"offer_id": offerID.String()})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"offer_id": offerID,
		"status":   newStatus,
	})
}

// CanReviewOffer сообщает, может ли текущий пользователь оставить отзыв
func (s *OfferService) CanReviewOffer(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	offerID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предложения"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	canReview, reason, err := CanReview(ctx, s.pool, offerID, userUUID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	resp := fiber.Map{"can_review": canReview}
	if reason != "" {
		resp["reason"] = reason
	}
	return c.JSON(resp)
}

// CanReview - чистый предикат права на отзыв: предложение принято, пользователь
// является стороной сделки и отзыв по предложению еще не оставлен
func CanReview(ctx context.Context, q db.Querier, offerID, actorID uuid.UUID) (bool, string, error) {
	var sellerID, buyerID uuid.UUID
	var offerStatus string
	err := q.QueryRow(ctx, `
        SELECT o.seller_id, o.status, r.buyer_id
        FROM offers o
        JOIN part_requests r ON r.id = o.part_request_id
        WHERE o.id = $1
    `, offerID).Scan(&sellerID, &offerStatus, &buyerID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", &utils.NotFoundError{Entity: "Предложение"}
		}
		return false, "", err
	}

	if offerStatus != models.OfferStatusAccepted {
		return false, "Предложение не принято", nil
	}
	if actorID != buyerID && actorID != sellerID {
		return false, "Вы не участник этой сделки", nil
	}

	var reviewExists bool
	err = q.QueryRow(ctx, `
        SELECT EXISTS(SELECT 1 FROM reviews WHERE offer_id = $1)
    `, offerID).Scan(&reviewExists)
	if err != nil {
		return false, "", err
	}

	if reviewExists {
		return false, "Отзыв по этой сделке уже оставлен", nil
	}

	return true, "", nil
}

// TransactionParties возвращает стороны сделки по предложению
func TransactionParties(ctx context.Context, q db.Querier, offerID uuid.UUID) (buyerID, sellerID uuid.UUID, status string, err error) {
	err = q.QueryRow(ctx, `
        SELECT r.buyer_id, o.seller_id, o.status
        FROM offers o
        JOIN part_requests r ON r.id = o.part_request_id
        WHERE o.id = $1
    `, offerID).Scan(&buyerID, &sellerID, &status)

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		err = &utils.NotFoundError{Entity: "Предложение"}
	}
	return
}

// scanOffers читает строки предложений
func scanOffers(rows pgx.Rows) []models.Offer {
	var offers []models.Offer
	for rows.Next() {
		var o models.Offer
		if err := rows.Scan(
			&o.ID,
			&o.PartRequestID,
			&o.SellerID,
			&o.Price,
			&o.Message,
			&o.Status,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования предложения: %v", err)
			continue
		}
		offers = append(offers, o)
	}
	return offers
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
