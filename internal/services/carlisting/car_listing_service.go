package carlisting

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/SaaSForest/mechx-sub001/internal/config"
	"github.com/SaaSForest/mechx-sub001/internal/db"
	"github.com/SaaSForest/mechx-sub001/internal/models"
	"github.com/SaaSForest/mechx-sub001/internal/services/media"
	"github.com/SaaSForest/mechx-sub001/internal/utils"
)

// CarListingService представляет сервис для работы с объявлениями о продаже автомобилей
type CarListingService struct {
	cfg        *config.Config
	pool       db.PgxIface
	jwtService *utils.JWTService
	media      *media.MediaService
}

// NewCarListingService создает новый экземпляр CarListingService
func NewCarListingService(cfg *config.Config, mediaService *media.MediaService) *CarListingService {
	return &CarListingService{
		cfg:        cfg,
		pool:       db.Pool,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		media:      mediaService,
	}
}

// CreateListing создает новое объявление о продаже автомобиля
func (s *CarListingService) CreateListing(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Make        string  `json:"make"`
		Model       string  `json:"model"`
		Year        *int    `json:"year,omitempty"`
		Mileage     *int    `json:"mileage,omitempty"`
		Price       float64 `json:"price"`
		Images      []struct {
			URL                string          `json:"url"`
			PublicID           string          `json:"public_id"`
			FileName           string          `json:"file_name,omitempty"`
			CloudinaryResponse json.RawMessage `json:"cloudinary_response,omitempty"`
		} `json:"images,omitempty"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Title == "" || requestData.Make == "" || requestData.Model == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Название, марка и модель обязательны"})
	}

	if requestData.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Цена должна быть больше нуля"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Объявления создают только продавцы
	var role string
	err = s.pool.QueryRow(ctx, "SELECT role FROM users WHERE id = $1", userUUID).Scan(&role)
	if err != nil {
		log.Printf("Ошибка получения роли пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки пользователя"})
	}
	if role != models.RoleSeller {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Объявления могут создавать только продавцы"})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	var listingID uuid.UUID
	err = tx.QueryRow(ctx, `
        INSERT INTO car_listings (seller_id, title, description, make, model, year, mileage, price)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `, userUUID, requestData.Title, requestData.Description, requestData.Make,
		requestData.Model, requestData.Year, requestData.Mileage, requestData.Price).Scan(&listingID)

	if err != nil {
		log.Printf("Ошибка создания объявления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения объявления"})
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
            INSERT INTO car_listing_images (car_listing_id, url, preview_url, public_id, file_name, is_main, position, metadata)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        `, listingID, img.URL, previewURL, img.PublicID, img.FileName, isMain, i, metadata)

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
		"listing_id": listingID,
		"success":    true,
	})
}

// GetCars возвращает список активных объявлений (публичный каталог)
func (s *CarListingService) GetCars(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	query := `
        SELECT id, seller_id, title, description, make, model, year, mileage, price,
               status, is_featured, created_at, updated_at
        FROM car_listings
        WHERE status = 'active'
    `
	args := []any{}
	argPos := 1

	// Фильтры каталога
	if makeFilter := c.Query("make"); makeFilter != "" {
		query += fmt.Sprintf(" AND make ILIKE $%d", argPos)
		args = append(args, "%"+makeFilter+"%")
		argPos++
	}
	if modelFilter := c.Query("model"); modelFilter != "" {
		query += fmt.Sprintf(" AND model ILIKE $%d", argPos)
		args = append(args, "%"+modelFilter+"%")
		argPos++
	}
	if priceMin := c.Query("price_min"); priceMin != "" {
		if v, err := strconv.ParseFloat(priceMin, 64); err == nil {
			query += fmt.Sprintf(" AND price >= $%d", argPos)
			args = append(args, v)
			argPos++
		}
	}
	if priceMax := c.Query("price_max"); priceMax != "" {
		if v, err := strconv.ParseFloat(priceMax, 64); err == nil {
			query += fmt.Sprintf(" AND price <= $%d", argPos)
			args = append(args, v)
			argPos++
		}
	}

	limit := 20
	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil && v >= 0 {
			offset = v
		}
	}

	// Продвигаемые объявления показываются первыми
	query += fmt.Sprintf(" ORDER BY is_featured DESC, created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Ошибка запроса объявлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявлений"})
	}
	defer rows.Close()

	listings := scanListings(rows)

	for i := range listings {
		listings[i].Seller = getUserInfo(ctx, s.pool, listings[i].SellerID)
		listings[i].Images = getListingImages(ctx, s.pool, listings[i].ID)
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"count":    len(listings),
		"has_more": len(listings) == limit,
	})
}

// GetCar возвращает одно объявление
func (s *CarListingService) GetCar(c fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, err := getListing(ctx, s.pool, listingID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	listing.Seller = getUserInfo(ctx, s.pool, listing.SellerID)
	listing.Images = getListingImages(ctx, s.pool, listing.ID)

	return c.JSON(fiber.Map{"listing": listing})
}

// GetMyListings возвращает объявления текущего продавца
func (s *CarListingService) GetMyListings(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := s.pool.Query(ctx, `
        SELECT id, seller_id, title, description, make, model, year, mileage, price,
               status, is_featured, created_at, updated_at
        FROM car_listings
        WHERE seller_id = $1
        ORDER BY created_at DESC
    `, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса объявлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявлений"})
	}
	defer rows.Close()

	listings := scanListings(rows)

	for i := range listings {
		listings[i].Images = getListingImages(ctx, s.pool, listings[i].ID)
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"count":    len(listings),
	})
}

// UpdateListing обновляет объявление (только владелец)
func (s *CarListingService) UpdateListing(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	var requestData struct {
		Title       *string  `json:"title,omitempty"`
		Description *string  `json:"description,omitempty"`
		Year        *int     `json:"year,omitempty"`
		Mileage     *int     `json:"mileage,omitempty"`
		Price       *float64 `json:"price,omitempty"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Price != nil && *requestData.Price <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Цена должна быть больше нуля"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, err := getListing(ctx, s.pool, listingID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if listing.SellerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Вы не являетесь владельцем этого объявления"})
	}

	if requestData.Title != nil {
		listing.Title = *requestData.Title
	}
	if requestData.Description != nil {
		listing.Description = *requestData.Description
	}
	if requestData.Year != nil {
		listing.Year = requestData.Year
	}
	if requestData.Mileage != nil {
		listing.Mileage = requestData.Mileage
	}
	if requestData.Price != nil {
		listing.Price = *requestData.Price
	}

	_, err = s.pool.Exec(ctx, `
        UPDATE car_listings
        SET title = $1, description = $2, year = $3, mileage = $4, price = $5, updated_at = NOW()
        WHERE id = $6
    `, listing.Title, listing.Description, listing.Year, listing.Mileage, listing.Price, listingID)

	if err != nil {
		log.Printf("Ошибка обновления объявления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления объявления"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkSold помечает объявление проданным
func (s *CarListingService) MarkSold(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, err := getListing(ctx, s.pool, listingID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if listing.SellerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Вы не являетесь владельцем этого объявления"})
	}

	// Продать можно только активное объявление. Условие в WHERE защищает
	// от гонки с параллельным изменением статуса.
	tag, err := s.pool.Exec(ctx, `
        UPDATE car_listings SET status = 'sold', updated_at = NOW()
        WHERE id = $1 AND status = 'active'
    `, listingID)

	if err != nil {
		log.Printf("Ошибка обновления статуса объявления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления объявления"})
	}
	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Объявление уже не активно"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteListing удаляет объявление вместе с изображениями
func (s *CarListingService) DeleteListing(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, err := getListing(ctx, s.pool, listingID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	if listing.SellerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Вы не являетесь владельцем этого объявления"})
	}

	// Собираем public_id изображений до удаления записей
	var publicIDs []string
	rows, err := s.pool.Query(ctx, `
        SELECT public_id FROM car_listing_images WHERE car_listing_id = $1 AND public_id != ''
    `, listingID)
	if err == nil {
		for rows.Next() {
			var publicID string
			if err := rows.Scan(&publicID); err == nil {
				publicIDs = append(publicIDs, publicID)
			}
		}
		rows.Close()
	}

	// Записи изображений удаляются каскадно
	_, err = s.pool.Exec(ctx, `DELETE FROM car_listings WHERE id = $1`, listingID)
	if err != nil {
		log.Printf("Ошибка удаления объявления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления объявления"})
	}

	// Файлы в Cloudinary чистим в фоне, ошибки не критичны
	s.media.DestroyAssets(publicIDs)

	return c.JSON(fiber.Map{"success": true})
}

// getListing получает объявление по ID
func getListing(ctx context.Context, q db.Querier, listingID uuid.UUID) (*models.CarListing, error) {
	var listing models.CarListing
	err := q.QueryRow(ctx, `
        SELECT id, seller_id, title, description, make, model, year, mileage, price,
               status, is_featured, created_at, updated_at
        FROM car_listings
        WHERE id = $1
    `, listingID).Scan(
		&listing.ID,
		&listing.SellerID,
		&listing.Title,
		&listing.Description,
		&listing.Make,
		&listing.Model,
		&listing.Year,
		&listing.Mileage,
		&listing.Price,
		&listing.Status,
		&listing.IsFeatured,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &utils.NotFoundError{Entity: "Объявление"}
		}
		return nil, err
	}

	return &listing, nil
}

// scanListings сканирует строки результата в список объявлений
func scanListings(rows pgx.Rows) []models.CarListing {
	var listings []models.CarListing
	for rows.Next() {
		var listing models.CarListing
		if err := rows.Scan(
			&listing.ID,
			&listing.SellerID,
			&listing.Title,
			&listing.Description,
			&listing.Make,
			&listing.Model,
			&listing.Year,
			&listing.Mileage,
			&listing.Price,
			&listing.Status,
			&listing.IsFeatured,
			&listing.CreatedAt,
			&listing.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования объявления: %v", err)
			continue
		}
		listings = append(listings, listing)
	}
	return listings
}

// getListingImages получает изображения объявления
func getListingImages(ctx context.Context, q db.Querier, listingID uuid.UUID) []models.ListingImage {
	rows, err := q.Query(ctx, `
        SELECT id, url, preview_url, public_id, is_main, position
        FROM car_listing_images
        WHERE car_listing_id = $1
        ORDER BY position ASC
    `, listingID)
	if err != nil {
		log.Printf("Ошибка получения изображений: %v", err)
		return nil
	}
	defer rows.Close()

	var images []models.ListingImage
	for rows.Next() {
		var img models.ListingImage
		if err := rows.Scan(&img.ID, &img.URL, &img.PreviewURL, &img.PublicID, &img.IsMain, &img.Position); err != nil {
			log.Printf("Ошибка сканирования изображения: %v", err)
			continue
		}
		img.CarListingID = listingID
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
