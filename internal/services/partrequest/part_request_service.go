package partrequest

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"

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

// RequestImagePayload представляет структуру изображения в запросе создания
type RequestImagePayload struct {
	URL                string          `json:"url"`
	PublicID           string          `json:"public_id"`
	FileName           string          `json:"file_name"`
	IsMain             bool            `json:"is_main"`
	CloudinaryResponse json.RawMessage `json:"cloudinary_response,omitempty"`
}

// PartRequestService представляет сервис для работы с запросами на запчасти
type PartRequestService struct {
	cfg        *config.Config
	pool       db.PgxIface
	jwtService *utils.JWTService
	push       *push.PushService
}

// NewPartRequestService создает новый экземпляр PartRequestService
func NewPartRequestService(cfg *config.Config, pushService *push.PushService) *PartRequestService {
	return &PartRequestService{
		cfg:        cfg,
		pool:       db.Pool,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		push:       pushService,
	}
}

// CreateRequest создает новый запрос на запчасть
func (s *PartRequestService) CreateRequest(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	buyerID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		Title        string                `json:"title"`
		Description  string                `json:"description"`
		VehicleMake  string                `json:"vehicle_make"`
		VehicleModel string                `json:"vehicle_model"`
		VehicleYear  *int                  `json:"vehicle_year"`
		BudgetMin    *float64              `json:"budget_min"`
		BudgetMax    *float64              `json:"budget_max"`
		Images       []RequestImagePayload `json:"images"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Название обязательно"})
	}
	if requestData.VehicleMake == "" || requestData.VehicleModel == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Укажите марку и модель автомобиля"})
	}
	if requestData.BudgetMin != nil && requestData.BudgetMax != nil && *requestData.BudgetMin > *requestData.BudgetMax {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Минимальный бюджет не может превышать максимальный"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Запросы создают только покупатели
	var role string
	err = s.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, buyerID).Scan(&role)
	if err != nil {
		log.Printf("Ошибка запроса роли пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки пользователя"})
	}
	if role != models.RoleBuyer {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Создавать запросы могут только покупатели"})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	var partRequestID uuid.UUID
	err = tx.QueryRow(ctx, `
        INSERT INTO part_requests (buyer_id, title, description, vehicle_make, vehicle_model, vehicle_year, budget_min, budget_max)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `, buyerID, requestData.Title, requestData.Description, requestData.VehicleMake,
		requestData.VehicleModel, requestData.VehicleYear, requestData.BudgetMin, requestData.BudgetMax).Scan(&partRequestID)

	if err != nil {
		log.Printf("Ошибка создания запроса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения запроса"})
	}

	// Вставляем изображения, если они есть
	for i, img := range requestData.Images {
		isMain := i == 0 // Первое изображение - основное

		var metadata []byte
		var previewURL string
		if len(img.CloudinaryResponse) > 0 {
			var cloudinaryResp models.CloudinaryResponse
			if err := json.Unmarshal(img.CloudinaryResponse, &cloudinaryResp); err != nil {
				log.Printf("Ошибка парсинга ответа Cloudinary: %v", err)
			} else {
				previewURL = models.ExtractPreviewURL(cloudinaryResp)
				metadataObj := models.ExtractMetadata(cloudinaryResp)
				metadata, _ = json.Marshal(metadataObj)
			}
		}

		_, err = tx.Exec(ctx, `
            INSERT INTO part_request_images (part_request_id, url, preview_url, public_id, file_name, is_main, position, metadata)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        `, partRequestID, img.URL, previewURL, img.PublicID, img.FileName, isMain, i, metadata)

		if err != nil {
			log.Printf("Ошибка вставки изображения: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения изображений"})
		}
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":         true,
		"part_request_id": partRequestID,
		"message":         "Запрос успешно создан",
	})
}

// GetMyRequests возвращает запросы текущего покупателя
func (s *PartRequestService) GetMyRequests(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	buyerID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	status := c.Query("status", "all")

	ctx, cancel := db.GetContext()
	defer cancel()

	var rows pgx.Rows
	if status == "all" {
		rows, err = s.pool.Query(ctx, `
            SELECT r.id, r.buyer_id, r.title, r.description, r.vehicle_make, r.vehicle_model,
                   r.vehicle_year, r.budget_min, r.budget_max, r.status, r.created_at, r.updated_at,
                   (SELECT COUNT(*) FROM offers o WHERE o.part_request_id = r.id AND o.status <> 'withdrawn') AS offers_count
            FROM part_requests r
            WHERE r.buyer_id = $1
            ORDER BY r.created_at DESC
        `, buyerID)
	} else {
		rows, err = s.pool.Query(ctx, `
            SELECT r.id, r.buyer_id, r.title, r.description, r.vehicle_make, r.vehicle_model,
                   r.vehicle_year, r.budget_min, r.budget_max, r.status, r.created_at, r.updated_at,
                   (SELECT COUNT(*) FROM offers o WHERE o.part_request_id = r.id AND o.status <> 'withdrawn') AS offers_count
            FROM part_requests r
            WHERE r.buyer_id = $1 AND r.status = $2
            ORDER BY r.created_at DESC
        `, buyerID, status)
	}

	if err != nil {
		log.Printf("Ошибка запроса списка запросов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения запросов"})
	}
	defer rows.Close()

	requests := scanRequestsWithCount(rows)
	return c.JSON(fiber.Map{
		"part_requests": requests,
		"count":         len(requests),
	})
}

// BrowseRequests возвращает активные запросы для продавцов
func (s *PartRequestService) BrowseRequests(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	vehicleMake := c.Query("make")
	limit := 20
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	ctx, cancel := db.GetContext()
	defer cancel()

	var rows pgx.Rows
	if vehicleMake != "" {
		rows, err = s.pool.Query(ctx, `
            SELECT r.id, r.buyer_id, r.title, r.description, r.vehicle_make, r.vehicle_model,
                   r.vehicle_year, r.budget_min, r.budget_max, r.status, r.created_at, r.updated_at,
                   (SELECT COUNT(*) FROM offers o WHERE o.part_request_id = r.id AND o.status <> 'withdrawn') AS offers_count
            FROM part_requests r
            WHERE r.status = 'active' AND r.buyer_id <> $1 AND r.vehicle_make ILIKE $2
            ORDER BY r.created_at DESC
            LIMIT $3 OFFSET $4
        `, userUUID, vehicleMake, limit, offset)
	} else {
		rows, err = s.pool.Query(ctx, `
            SELECT r.id, r.buyer_id, r.title, r.description, r.vehicle_make, r.vehicle_model,
                   r.vehicle_year, r.budget_min, r.budget_max, r.status, r.created_at, r.updated_at,
                   (SELECT COUNT(*) FROM offers o WHERE o.part_request_id = r.id AND o.status <> 'withdrawn') AS offers_count
            FROM part_requests r
            WHERE r.status = 'active' AND r.buyer_id <> $1
            ORDER BY r.created_at DESC
            LIMIT $2 OFFSET $3
        `, userUUID, limit, offset)
	}

	if err != nil {
		log.Printf("Ошибка запроса активных запросов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения запросов"})
	}
	defer rows.Close()

	requests := scanRequestsWithCount(rows)

	// Добавляем информацию о покупателях и изображениях
	for i := range requests {
		requests[i].Buyer = getUserInfo(ctx, s.pool, requests[i].BuyerID)
		requests[i].Images = getRequestImages(ctx, s.pool, requests[i].ID)
	}

	return c.JSON(fiber.Map{
		"part_requests": requests,
		"count":         len(requests),
		"has_more":      len(requests) == limit,
	})
}

// GetRequest возвращает один запрос по ID
func (s *PartRequestService) GetRequest(c fiber.Ctx) error {
	partRequestID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID запроса"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var r models.PartRequest
	err = s.pool.QueryRow(ctx, `
        SELECT id, buyer_id, title, description, vehicle_make, vehicle_model,
               vehicle_year, budget_min, budget_max, status, created_at, updated_at
        FROM part_requests
        WHERE id = $1
    `, partRequestID).Scan(
		&r.ID,
		&r.BuyerID,
		&r.Title,
		&r.Description,
		&r.VehicleMake,
		&r.VehicleModel,
		&r.VehicleYear,
		&r.BudgetMin,
		&r.BudgetMax,
		&r.Status,
		&r.CreatedAt,
		&r.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Запрос на запчасть не найден"})
		}
		log.Printf("Ошибка запроса part_request: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения запроса"})
	}

	r.Buyer = getUserInfo(ctx, s.pool, r.BuyerID)
	r.Images = getRequestImages(ctx, s.pool, r.ID)

	return c.JSON(fiber.Map{"part_request": r})
}

// CompleteRequest отмечает запрос завершенным. Завершение возможно только
// при наличии принятого предложения.
func (s *PartRequestService) CompleteRequest(c fiber.Ctx) error {
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
	var status, title string
	err = s.pool.QueryRow(ctx, `
        SELECT buyer_id, status, title FROM part_requests WHERE id = $1
    `, partRequestID).Scan(&buyerID, &status, &title)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Запрос на запчасть не найден"})
		}
		log.Printf("Ошибка запроса part_request: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения запроса"})
	}

	if buyerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Завершить запрос может только его автор"})
	}
	if status == models.PartRequestStatusCompleted || status == models.PartRequestStatusCancelled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Запрос уже закрыт"})
	}

	// Завершение требует принятого предложения
	var acceptedSellerID uuid.UUID
	err = s.pool.QueryRow(ctx, `
        SELECT seller_id FROM offers WHERE part_request_id = $1 AND status = 'accepted'
    `, partRequestID).Scan(&acceptedSellerID)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Нельзя завершить запрос без принятого предложения"})
		}
		log.Printf("Ошибка проверки принятого предложения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки предложений"})
	}

	_, err = s.pool.Exec(ctx, `
        UPDATE part_requests SET status = 'completed', updated_at = NOW() WHERE id = $1
    `, partRequestID)
	if err != nil {
		log.Printf("Ошибка обновления статуса запроса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления запроса"})
	}

	if err := notification.Insert(ctx, s.pool, acceptedSellerID, models.NotificationTypeOrder,
		"Сделка завершена", "Покупатель завершил запрос «"+title+"»",
		map[string]any{"part_request_id": partRequestID.String()}); err != nil {
		log.Printf("Ошибка создания уведомления: %v", err)
		// Основная операция выполнена, ошибку не возвращаем
	}
	s.push.Send(acceptedSellerID, "Сделка завершена", "Покупатель завершил запрос «"+title+"»",
		map[string]any{"part_request_id": partRequestID.String()})

	return c.JSON(fiber.Map{
		"success":         true,
		"part_request_id": partRequestID,
		"status":          models.PartRequestStatusCompleted,
	})
}

// CancelRequest отменяет запрос
func (s *PartRequestService) CancelRequest(c fiber.Ctx) error {
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
	var status string
	err = s.pool.QueryRow(ctx, `
        SELECT buyer_id, status FROM part_requests WHERE id = $1
    `, partRequestID).Scan(&buyerID, &status)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Запрос на запчасть не найден"})
		}
		log.Printf("Ошибка запроса part_request: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения запроса"})
	}

	if buyerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Отменить запрос может только его автор"})
	}
	if status == models.PartRequestStatusCompleted || status == models.PartRequestStatusCancelled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Запрос уже закрыт"})
	}

	_, err = s.pool.Exec(ctx, `
        UPDATE part_requests SET status = 'cancelled', updated_at = NOW() WHERE id = $1
    `, partRequestID)
	if err != nil {
		log.Printf("Ошибка обновления статуса запроса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления запроса"})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"part_request_id": partRequestID,
		"status":          models.PartRequestStatusCancelled,
	})
}

// scanRequestsWithCount читает строки запросов с количеством предложений
func scanRequestsWithCount(rows pgx.Rows) []models.PartRequest {
	var requests []models.PartRequest
	for rows.Next() {
		var r models.PartRequest
		if err := rows.Scan(
			&r.ID,
			&r.BuyerID,
			&r.Title,
			&r.Description,
			&r.VehicleMake,
			&r.VehicleModel,
			&r.VehicleYear,
			&r.BudgetMin,
			&r.BudgetMax,
			&r.Status,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.OffersCount,
		); err != nil {
			log.Printf("Ошибка сканирования запроса: %v", err)
			continue
		}
		requests = append(requests, r)
	}
	return requests
}

// getRequestImages получает изображения запроса
func getRequestImages(ctx context.Context, q db.Querier, partRequestID uuid.UUID) []models.RequestImage {
	rows, err := q.Query(ctx, `
        SELECT id, url, preview_url, public_id, is_main, position
        FROM part_request_images
        WHERE part_request_id = $1
        ORDER BY position ASC
    `, partRequestID)
	if err != nil {
		log.Printf("Ошибка получения изображений: %v", err)
		return nil
	}
	defer rows.Close()

	var images []models.RequestImage
	for rows.Next() {
		var img models.RequestImage
		if err := rows.Scan(&img.ID, &img.URL, &img.PreviewURL, &img.PublicID, &img.IsMain, &img.Position); err != nil {
			log.Printf("Ошибка сканирования изображения: %v", err)
			continue
		}
		img.PartRequestID = partRequestID
		images = append(images, img)
	}
	return images
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
