package broadcast

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/SaaSForest/mechx-sub001/internal/config"
	"github.com/SaaSForest/mechx-sub001/internal/db"
	"github.com/SaaSForest/mechx-sub001/internal/services/conversation"
	"github.com/SaaSForest/mechx-sub001/internal/utils"
)

// Типы приватных каналов
const (
	ChannelUser         = "user"
	ChannelConversation = "conversation"
)

// Channel представляет разобранное имя приватного канала
type Channel struct {
	Type string
	ID   uuid.UUID
}

// BroadcastService проверяет права подписки на приватные каналы
type BroadcastService struct {
	cfg        *config.Config
	pool       db.PgxIface
	jwtService *utils.JWTService
}

// NewBroadcastService создает новый экземпляр BroadcastService
func NewBroadcastService(cfg *config.Config) *BroadcastService {
	return &BroadcastService{
		cfg:        cfg,
		pool:       db.Pool,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// ParseChannel разбирает имя канала вида "user.<uuid>" или "conversation.<uuid>"
func ParseChannel(name string) (Channel, bool) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) != 2 {
		return Channel{}, false
	}

	if parts[0] != ChannelUser && parts[0] != ChannelConversation {
		return Channel{}, false
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Channel{}, false
	}

	return Channel{Type: parts[0], ID: id}, true
}

// Authorize проверяет право текущего пользователя на подписку на канал.
// Личный канал доступен только самому пользователю, канал диалога -
// только его участникам.
func (s *BroadcastService) Authorize(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var requestData struct {
		ChannelName string `json:"channel_name"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	channel, ok := ParseChannel(requestData.ChannelName)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверное имя канала"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var authorized bool
	switch channel.Type {
	case ChannelUser:
		authorized = channel.ID == userUUID
	case ChannelConversation:
		authorized, err = conversation.IsParticipant(ctx, s.pool, channel.ID, userUUID)
		if err != nil {
			log.Printf("Ошибка проверки участия в диалоге: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки доступа"})
		}
	}

	if !authorized {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"authorized": false,
			"error":      "Доступ к каналу запрещен",
		})
	}

	return c.JSON(fiber.Map{"authorized": true})
}
