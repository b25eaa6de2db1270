package websocket

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/SaaSForest/mechx-sub001/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Источник проверяется на уровне токена, соединения принимаются с любого origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler отвечает за установку WebSocket соединений
type Handler struct {
	manager    *Manager
	jwtService *utils.JWTService
}

// NewHandler создает новый экземпляр Handler
func NewHandler(manager *Manager, jwtService *utils.JWTService) *Handler {
	return &Handler{
		manager:    manager,
		jwtService: jwtService,
	}
}

// ServeHTTP обрабатывает запрос на подключение. Клиент передает JWT
// в параметре token, браузерный WebSocket API не позволяет задать заголовки.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Токен не указан", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ExtractUserID(token)
	if err != nil {
		http.Error(w, "Недействительный токен", http.StatusUnauthorized)
		return
	}

	if _, err := uuid.Parse(userID); err != nil {
		http.Error(w, "Неверный формат ID пользователя", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Ошибка установки WebSocket соединения: %v", err)
		return
	}

	client := NewClient(userID, conn, h.manager)
	client.Start()
}

// ListenAndServe запускает отдельный HTTP-сервер для WebSocket соединений
func (h *Handler) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	return http.ListenAndServe(addr, mux)
}
