package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"

	"github.com/SaaSForest/mechx-sub001/internal/config"
	"github.com/SaaSForest/mechx-sub001/internal/utils"
)

// MediaService представляет сервис для работы с медиафайлами
type MediaService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	cld        *cloudinary.Cloudinary
}

// NewMediaService создает новый экземпляр MediaService
func NewMediaService(cfg *config.Config) *MediaService {
	cld, err := cloudinary.NewFromParams(
		cfg.CloudinaryConfig.CloudName,
		cfg.CloudinaryConfig.APIKey,
		cfg.CloudinaryConfig.APISecret,
	)
	if err != nil {
		log.Printf("Ошибка инициализации Cloudinary: %v", err)
	}

	return &MediaService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		cld:        cld,
	}
}

// GenerateUploadParams генерирует параметры для прямой загрузки в Cloudinary
func (s *MediaService) GenerateUploadParams(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	timestamp := time.Now().Unix()

	// Параметры, участвующие в подписи
	params := map[string]string{
		"timestamp":     fmt.Sprintf("%d", timestamp),
		"upload_preset": s.cfg.CloudinaryConfig.UploadPreset,
		"folder":        fmt.Sprintf("%s/%s", s.cfg.CloudinaryConfig.UploadFolder, userID),
	}

	signature := generateSignature(params, s.cfg.CloudinaryConfig.APISecret)

	return c.JSON(fiber.Map{
		"cloud_name":    s.cfg.CloudinaryConfig.CloudName,
		"api_key":       s.cfg.CloudinaryConfig.APIKey,
		"timestamp":     timestamp,
		"upload_preset": s.cfg.CloudinaryConfig.UploadPreset,
		"folder":        params["folder"],
		"signature":     signature,
	})
}

// DestroyAssets удаляет файлы из Cloudinary в фоне. Ошибки удаления
// логируются и не влияют на основную операцию.
func (s *MediaService) DestroyAssets(publicIDs []string) {
	if s == nil || s.cld == nil || len(publicIDs) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		for _, publicID := range publicIDs {
			if publicID == "" {
				continue
			}
			_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
			if err != nil {
				log.Printf("Ошибка удаления файла %s из Cloudinary: %v", publicID, err)
			}
		}
	}()
}

// generateSignature создает SHA-1 подпись запроса по правилам Cloudinary:
// параметры сортируются по ключу и объединяются в строку запроса
func generateSignature(params map[string]string, apiSecret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}

	toSign := strings.Join(parts, "&") + apiSecret

	hash := sha1.Sum([]byte(toSign))
	return hex.EncodeToString(hash[:])
}
