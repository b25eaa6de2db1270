package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений
const (
	NotificationTypeOffer   = "offer"
	NotificationTypeMessage = "message"
	NotificationTypeOrder   = "order"
	NotificationTypeSystem  = "system"
)

// Notification представляет уведомление пользователя. Payload - произвольные
// данные, привязанные к сущности (например {"offer_id": "..."}), клиент
// интерпретирует их по полю type.
type Notification struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Type      string          `json:"type"` // offer, message, order, system
	Title     string          `json:"title"`
	Body      string          `json:"body,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}
