package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы предложения продавца
const (
	OfferStatusPending   = "pending"
	OfferStatusAccepted  = "accepted"
	OfferStatusRejected  = "rejected"
	OfferStatusWithdrawn = "withdrawn"
)

// Offer представляет предложение продавца по запросу на запчасть
type Offer struct {
	ID            uuid.UUID `json:"id"`
	PartRequestID uuid.UUID `json:"part_request_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	Price         float64   `json:"price"`
	Message       string    `json:"message,omitempty"`
	Status        string    `json:"status"` // pending, accepted, rejected, withdrawn
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Seller      *PublicUser  `json:"seller,omitempty"`
	PartRequest *PartRequest `json:"part_request,omitempty"`
}
