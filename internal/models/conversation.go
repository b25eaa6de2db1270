package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы контекста, к которому привязан диалог
const (
	ContextTypePartRequest = "part_request"
	ContextTypeCarListing  = "car_listing"
)

// ConversationContext представляет контекст диалога: запрос на запчасть
// или объявление о продаже автомобиля
type ConversationContext struct {
	Type string    `json:"type"` // part_request, car_listing
	ID   uuid.UUID `json:"id"`
}

// Valid проверяет, что тип контекста один из допустимых
func (c ConversationContext) Valid() bool {
	return c.Type == ContextTypePartRequest || c.Type == ContextTypeCarListing
}

// Conversation представляет диалог между двумя пользователями о конкретном
// запросе или объявлении. Участники хранятся в каноническом порядке
// (меньший UUID - participant_one).
type Conversation struct {
	ID               uuid.UUID  `json:"id"`
	ParticipantOneID uuid.UUID  `json:"participant_one_id"`
	ParticipantTwoID uuid.UUID  `json:"participant_two_id"`
	ContextType      string     `json:"context_type"` // part_request, car_listing
	ContextID        uuid.UUID  `json:"context_id"`
	LastMessageAt    *time.Time `json:"last_message_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	// Дополнительные поля для API
	OtherParticipant *PublicUser `json:"other_participant,omitempty"`
	LastMessage      *Message    `json:"last_message,omitempty"`
	UnreadCount      int         `json:"unread_count"`
}

// Message представляет сообщение в диалоге. Сообщения не редактируются,
// меняется только признак прочтения.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Sender *PublicUser `json:"sender,omitempty"`
}
