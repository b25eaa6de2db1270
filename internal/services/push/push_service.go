package push

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/SaaSForest/mechx-sub001/internal/config"
)

// PushService отправляет push-уведомления внешнему провайдеру доставки.
// Контракт best-effort: неудача доставки логируется и никогда не влияет
// на основную доменную операцию.
type PushService struct {
	cfg    *config.Config
	client *http.Client
}

// NewPushService создает новый экземпляр PushService
func NewPushService(cfg *config.Config) *PushService {
	return &PushService{
		cfg: cfg,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// pushRequest представляет тело запроса к провайдеру
type pushRequest struct {
	UserID  string         `json:"user_id"`
	Title   string         `json:"title"`
	Body    string         `json:"body,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Send отправляет уведомление в фоне, не блокируя запрос
func (s *PushService) Send(userID uuid.UUID, title, body string, payload map[string]any) {
	if s == nil || s.cfg.PushConfig.ProviderURL == "" {
		return
	}

	go func() {
		data, err := json.Marshal(pushRequest{
			UserID:  userID.String(),
			Title:   title,
			Body:    body,
			Payload: payload,
		})
		if err != nil {
			log.Printf("Ошибка сериализации push-уведомления: %v", err)
			return
		}

		req, err := http.NewRequest(http.MethodPost, s.cfg.PushConfig.ProviderURL, bytes.NewReader(data))
		if err != nil {
			log.Printf("Ошибка создания запроса к push-провайдеру: %v", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if s.cfg.PushConfig.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.cfg.PushConfig.APIKey)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			log.Printf("Ошибка отправки push-уведомления: %v", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			log.Printf("Push-провайдер вернул статус %d для пользователя %s", resp.StatusCode, userID)
		}
	}()
}
