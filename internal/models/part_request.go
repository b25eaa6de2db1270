package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы запроса на запчасть
const (
	PartRequestStatusActive    = "active"
	PartRequestStatusPending   = "pending"
	PartRequestStatusCompleted = "completed"
	PartRequestStatusCancelled = "cancelled"
)

// PartRequest представляет запрос покупателя на запчасть
type PartRequest struct {
	ID           uuid.UUID `json:"id"`
	BuyerID      uuid.UUID `json:"buyer_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VehicleMake  string    `json:"vehicle_make"`
	VehicleModel string    `json:"vehicle_model"`
	VehicleYear  *int      `json:"vehicle_year,omitempty"`
	BudgetMin    *float64  `json:"budget_min,omitempty"`
	BudgetMax    *float64  `json:"budget_max,omitempty"`
	Status       string    `json:"status"` // active, pending, completed, cancelled
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Buyer       *PublicUser    `json:"buyer,omitempty"`
	Images      []RequestImage `json:"images,omitempty"`
	OffersCount int            `json:"offers_count,omitempty"`
}

// RequestImage представляет изображение запроса на запчасть
type RequestImage struct {
	ID            uuid.UUID     `json:"id"`
	PartRequestID uuid.UUID     `json:"part_request_id"`
	URL           string        `json:"url"`
	PreviewURL    string        `json:"preview_url,omitempty"`
	PublicID      string        `json:"public_id"`
	FileName      string        `json:"file_name,omitempty"`
	IsMain        bool          `json:"is_main"`
	Position      int           `json:"position"`
	Metadata      ImageMetadata `json:"metadata,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
