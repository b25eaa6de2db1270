package review

import (
	"context"
	"errors"
	"log"
	"math"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SaaSForest/mechx-sub001/internal/config"
	"github.com/SaaSForest/mechx-sub001/internal/db"
	"github.com/SaaSForest/mechx-sub001/internal/models"
	"github.com/SaaSForest/mechx-sub001/internal/services/offer"
	"github.com/SaaSForest/mechx-sub001/internal/utils"
)

// ReviewService представляет сервис для работы с отзывами
type ReviewService struct {
	cfg        *config.Config
	pool       db.PgxIface
	jwtService *utils.JWTService
}

// NewReviewService создает новый экземпляр ReviewService
func NewReviewService(cfg *config.Config) *ReviewService {
	return &ReviewService{
		cfg:        cfg,
		pool:       db.Pool,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// CreateReview создает отзыв по завершенной сделке.
// Отзыв оставляет участник сделки о второй стороне, один раз на сделку.
func (s *ReviewService) CreateReview(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		OfferID string `json:"offer_id"`
		Rating  int    `json:"rating"`
		Comment string `json:"comment,omitempty"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	offerUUID, err := uuid.Parse(requestData.OfferID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предложения"})
	}

	if requestData.Rating < 1 || requestData.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Оценка должна быть от 1 до 5"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	buyerID, sellerID, status, err := offer.TransactionParties(ctx, s.pool, offerUUID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	if status != models.OfferStatusAccepted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Отзыв можно оставить только по принятому предложению"})
	}

	// Получатель отзыва - вторая сторона сделки
	var reviewedID uuid.UUID
	switch userUUID {
	case buyerID:
		reviewedID = sellerID
	case sellerID:
		reviewedID = buyerID
	default:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Вы не участвовали в этой сделке"})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	var review models.Review
	err = tx.QueryRow(ctx, `
        INSERT INTO reviews (offer_id, reviewer_id, reviewed_user_id, rating, comment)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, offer_id, reviewer_id, reviewed_user_id, rating, comment, created_at
    `, offerUUID, userUUID, reviewedID, requestData.Rating, requestData.Comment).Scan(
		&review.ID,
		&review.OfferID,
		&review.ReviewerID,
		&review.ReviewedUserID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Отзыв по этой сделке уже оставлен"})
		}
		log.Printf("Ошибка создания отзыва: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания отзыва"})
	}

	// Пересчитываем рейтинг получателя в той же транзакции
	newRating, err := recalcRating(ctx, tx, reviewedID)
	if err != nil {
		log.Printf("Ошибка пересчета рейтинга: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка пересчета рейтинга"})
	}

	if err = tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"review":     review,
		"new_rating": newRating,
		"success":    true,
	})
}

// GetUserReviews возвращает отзывы о пользователе
func (s *ReviewService) GetUserReviews(c fiber.Ctx) error {
	reviewedID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := s.pool.Query(ctx, `
        SELECT r.id, r.offer_id, r.reviewer_id, r.reviewed_user_id, r.rating, r.comment, r.created_at,
               u.id, u.name, u.role, u.is_verified, u.rating, u.avatar_url
        FROM reviews r
        JOIN users u ON r.reviewer_id = u.id
        WHERE r.reviewed_user_id = $1
        ORDER BY r.created_at DESC
    `, reviewedID)
	if err != nil {
		log.Printf("Ошибка запроса отзывов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения отзывов"})
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		var reviewer models.PublicUser
		if err := rows.Scan(
			&review.ID,
			&review.OfferID,
			&review.ReviewerID,
			&review.ReviewedUserID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
			&reviewer.ID,
			&reviewer.Name,
			&reviewer.Role,
			&reviewer.IsVerified,
			&reviewer.Rating,
			&reviewer.AvatarURL,
		); err != nil {
			log.Printf("Ошибка сканирования отзыва: %v", err)
			continue
		}
		review.Reviewer = &reviewer
		reviews = append(reviews, review)
	}

	return c.JSON(fiber.Map{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// recalcRating пересчитывает рейтинг пользователя как среднее всех оценок,
// округленное до одного знака. Без отзывов рейтинг равен нулю.
func recalcRating(ctx context.Context, q db.Querier, userID uuid.UUID) (float64, error) {
	var avg float64
	err := q.QueryRow(ctx, `
        SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE reviewed_user_id = $1
    `, userID).Scan(&avg)
	if err != nil {
		return 0, err
	}

	rating := round1(avg)

	_, err = q.Exec(ctx, `UPDATE users SET rating = $1, updated_at = NOW() WHERE id = $2`, rating, userID)
	if err != nil {
		return 0, err
	}

	return rating, nil
}

// round1 округляет до одного знака после запятой
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
