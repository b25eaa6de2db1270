package main

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/SaaSForest/mechx-sub001/internal/config"
	"github.com/SaaSForest/mechx-sub001/internal/db"
	"github.com/SaaSForest/mechx-sub001/internal/services/auth"
	"github.com/SaaSForest/mechx-sub001/internal/services/broadcast"
	"github.com/SaaSForest/mechx-sub001/internal/services/carlisting"
	"github.com/SaaSForest/mechx-sub001/internal/services/conversation"
	"github.com/SaaSForest/mechx-sub001/internal/services/media"
	"github.com/SaaSForest/mechx-sub001/internal/services/notification"
	"github.com/SaaSForest/mechx-sub001/internal/services/offer"
	"github.com/SaaSForest/mechx-sub001/internal/services/partrequest"
	"github.com/SaaSForest/mechx-sub001/internal/services/push"
	"github.com/SaaSForest/mechx-sub001/internal/services/review"
	"github.com/SaaSForest/mechx-sub001/internal/utils"
	"github.com/SaaSForest/mechx-sub001/internal/websocket"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Применяем миграции
	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("❌ Ошибка при применении миграций: %v", err)
	}

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "MechX API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Создаём сервисы
	pushService := push.NewPushService(cfg)
	wsManager := websocket.NewManager()
	defer wsManager.Shutdown()

	mediaService := media.NewMediaService(cfg)

	authService := auth.NewAuthService(cfg)
	partRequestService := partrequest.NewPartRequestService(cfg, pushService)
	offerService := offer.NewOfferService(cfg, pushService)
	reviewService := review.NewReviewService(cfg)
	carListingService := carlisting.NewCarListingService(cfg, mediaService)
	conversationService := conversation.NewConversationService(cfg, pushService, wsManager)
	notificationService := notification.NewNotificationService(cfg)
	broadcastService := broadcast.NewBroadcastService(cfg)

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	partRequestService.SetupRoutes(app)
	offerService.SetupRoutes(app)
	reviewService.SetupRoutes(app)
	carListingService.SetupRoutes(app)
	conversationService.SetupRoutes(app)
	notificationService.SetupRoutes(app)
	broadcastService.SetupRoutes(app)
	mediaService.SetupRoutes(app)

	// Запускаем WebSocket сервер на отдельном порту
	wsHandler := websocket.NewHandler(wsManager, utils.NewJWTService(cfg.JWTSecret))
	go func() {
		log.Printf("✅ WebSocket сервер запущен на порту %s", cfg.WSPort)
		if err := wsHandler.ListenAndServe(":" + cfg.WSPort); err != nil {
			log.Fatalf("❌ Ошибка WebSocket сервера: %v", err)
		}
	}()

	// Запускаем сервер
	log.Printf("✅ MechX API запущен на порту %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
