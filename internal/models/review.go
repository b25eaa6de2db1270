package models

import (
	"time"

	"github.com/google/uuid"
)

// Review представляет отзыв по завершенной сделке. Не более одного отзыва
// на принятое предложение.
type Review struct {
	ID             uuid.UUID `json:"id"`
	OfferID        uuid.UUID `json:"offer_id"`
	ReviewerID     uuid.UUID `json:"reviewer_id"`
	ReviewedUserID uuid.UUID `json:"reviewed_user_id"`
	Rating         int       `json:"rating"` // 1-5
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	// Дополнительные поля для API
	Reviewer *PublicUser `json:"reviewer,omitempty"`
}
