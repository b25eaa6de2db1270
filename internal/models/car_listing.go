package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы объявления о продаже автомобиля
const (
	CarListingStatusActive  = "active"
	CarListingStatusSold    = "sold"
	CarListingStatusExpired = "expired"
)

// CarListing представляет объявление о продаже автомобиля
type CarListing struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Make        string    `json:"make"`
	Model       string    `json:"model"`
	Year        *int      `json:"year,omitempty"`
	Mileage     *int      `json:"mileage,omitempty"`
	Price       float64   `json:"price"`
	Status      string    `json:"status"` // active, sold, expired
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Seller *PublicUser    `json:"seller,omitempty"`
	Images []ListingImage `json:"images,omitempty"`
}

// ListingImage представляет изображение объявления
type ListingImage struct {
	ID           uuid.UUID     `json:"id"`
	CarListingID uuid.UUID     `json:"car_listing_id"`
	URL          string        `json:"url"`
	PreviewURL   string        `json:"preview_url,omitempty"`
	PublicID     string        `json:"public_id"`
	FileName     string        `json:"file_name,omitempty"`
	IsMain       bool          `json:"is_main"`
	Position     int           `json:"position"`
	Metadata     ImageMetadata `json:"metadata,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ImageMetadata содержит ключевые метаданные изображения из Cloudinary
type ImageMetadata struct {
	AssetID   string    `json:"asset_id"`
	PublicID  string    `json:"public_id"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
	Bytes     int       `json:"bytes"`
}
