package auth

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/SaaSForest/mechx-sub001/internal/config"
	"github.com/SaaSForest/mechx-sub001/internal/db"
	"github.com/SaaSForest/mechx-sub001/internal/models"
	"github.com/SaaSForest/mechx-sub001/internal/utils"
)

// AuthService – структура для обработки авторизации
type AuthService struct {
	cfg        *config.Config
	pool       db.PgxIface
	jwtService *utils.JWTService
}

// NewAuthService – конструктор AuthService
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		cfg:        cfg,
		pool:       db.Pool,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetJWTService возвращает JWT сервис
func (s *AuthService) GetJWTService() *utils.JWTService {
	return s.jwtService
}

// Register регистрирует нового пользователя и возвращает JWT
func (s *AuthService) Register(c fiber.Ctx) error {
	var requestData struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
		Role     string `json:"role"` // buyer, seller
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	requestData.Email = strings.ToLower(strings.TrimSpace(requestData.Email))

	if requestData.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Имя обязательно"})
	}
	if requestData.Email == "" || !strings.Contains(requestData.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат email"})
	}
	if len(requestData.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Пароль должен содержать не менее 6 символов"})
	}
	// Роль задается один раз при регистрации
	if requestData.Role != models.RoleBuyer && requestData.Role != models.RoleSeller {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Роль должна быть buyer или seller"})
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(requestData.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Ошибка хеширования пароля: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обработки пароля"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var user models.User
	err = s.pool.QueryRow(ctx, `
        INSERT INTO users (name, email, password_hash, phone, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, name, email, phone, role, is_verified, rating, created_at, updated_at
    `, requestData.Name, requestData.Email, string(passwordHash), requestData.Phone, requestData.Role).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.IsVerified,
		&user.Rating,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Пользователь с таким email уже существует"})
		}
		log.Printf("Ошибка создания пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка регистрации"})
	}

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		log.Printf("Ошибка генерации токена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка генерации токена"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login проверяет учетные данные и возвращает JWT
func (s *AuthService) Login(c fiber.Ctx) error {
	var requestData struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	requestData.Email = strings.ToLower(strings.TrimSpace(requestData.Email))

	if requestData.Email == "" || requestData.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email и пароль обязательны"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var user models.User
	var passwordHash string
	err := s.pool.QueryRow(ctx, `
        SELECT id, name, email, password_hash, phone, role, is_verified, rating, created_at, updated_at
        FROM users
        WHERE email = $1
    `, requestData.Email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&passwordHash,
		&user.Phone,
		&user.Role,
		&user.IsVerified,
		&user.Rating,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Не раскрываем, существует ли email
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Неверный email или пароль"})
		}
		log.Printf("Ошибка запроса пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка авторизации"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(requestData.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Неверный email или пароль"})
	}

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		log.Printf("Ошибка генерации токена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка генерации токена"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Profile возвращает профиль текущего пользователя
func (s *AuthService) Profile(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var user models.User
	err = s.pool.QueryRow(ctx, `
        SELECT id, name, email, phone, role, is_verified, rating, avatar_url, created_at, updated_at
        FROM users
        WHERE id = $1
    `, userUUID).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.IsVerified,
		&user.Rating,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
		}
		log.Printf("Ошибка запроса профиля: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения профиля"})
	}

	return c.JSON(fiber.Map{"user": user})
}
