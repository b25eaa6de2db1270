package models

import (
	"encoding/json"
	"time"
)

// CloudinaryResponse представляет ответ от Cloudinary API
type CloudinaryResponse struct {
	AssetID           string    `json:"asset_id"`
	PublicID          string    `json:"public_id"`
	Version           int       `json:"version"`
	VersionID         string    `json:"version_id"`
	Signature         string    `json:"signature"`
	Width             int       `json:"width"`
	Height            int       `json:"height"`
	Format            string    `json:"format"`
	ResourceType      string    `json:"resource_type"`
	CreatedAt         time.Time `json:"created_at"`
	Tags              []string  `json:"tags"`
	Bytes             int       `json:"bytes"`
	Type              string    `json:"type"`
	Etag              string    `json:"etag"`
	URL               string    `json:"url"`
	SecureURL         string    `json:"secure_url"`
	AssetFolder       string    `json:"asset_folder"`
	DisplayName       string    `json:"display_name"`
	OriginalFilename  string    `json:"original_filename"`
	OriginalExtension string    `json:"original_extension"`
	Eager             []Eager   `json:"eager"`
}

// Eager содержит информацию о трансформациях изображения
type Eager struct {
	Status    string `json:"status"`
	BatchID   string `json:"batch_id"`
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
}

// ExtractMetadata извлекает основные метаданные из ответа Cloudinary
func ExtractMetadata(cr CloudinaryResponse) ImageMetadata {
	return ImageMetadata{
		AssetID:   cr.AssetID,
		PublicID:  cr.PublicID,
		Width:     cr.Width,
		Height:    cr.Height,
		CreatedAt: cr.CreatedAt,
		Bytes:     cr.Bytes,
	}
}

// ExtractPreviewURL извлекает URL превью из ответа Cloudinary
func ExtractPreviewURL(cr CloudinaryResponse) string {
	for _, eager := range cr.Eager {
		if eager.Status == "processing" || eager.Status == "completed" {
			return eager.SecureURL
		}
	}
	return ""
}

// ParseCloudinaryResponse конвертирует JSON-ответ от Cloudinary в структуру
func ParseCloudinaryResponse(jsonData string) (CloudinaryResponse, error) {
	var response CloudinaryResponse
	err := json.Unmarshal([]byte(jsonData), &response)
	return response, err
}
