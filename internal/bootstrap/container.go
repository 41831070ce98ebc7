package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"tryon-widget-be/internal/config"
	"tryon-widget-be/internal/controller"
	"tryon-widget-be/internal/handler"
	"tryon-widget-be/internal/pkg/logger"
	"tryon-widget-be/internal/pkg/mailer"
	"tryon-widget-be/internal/pkg/storage"
	"tryon-widget-be/internal/repository/unitofwork"
	"tryon-widget-be/internal/service"
	"tryon-widget-be/internal/websocket"
	pktNats "tryon-widget-be/pkg/nats"
)

const generationTopic = "fit_session_generation"

type Container struct {
	// Controllers
	FittingController controller.IFittingController
	BridgeController  controller.IBridgeController
	AuthController    controller.IAuthController

	// Background services (exposed for main.go to run)
	GenerationWorker service.IGenerationWorker

	// WebSockets & notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	photoStore := storage.NewLocalPhotoStore(cfg.App.UploadDir, cfg.App.BaseURL)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	redisUp := true
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		redisUp = false
	}

	// WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	var hubRedis *redis.Client
	if redisUp {
		hubRedis = rdb
	}
	wsHub := websocket.NewHub(hubRedis, wsLogger)
	go wsHub.Run()

	// 3. Services
	fittingService := service.NewFittingService(
		uowFactory,
		photoStore,
		pubSub,
		generationTopic,
		emailService,
		sysLogger,
	)

	generator := service.NewHTTPGenerator(cfg.Engine.GeneratorURL)
	var eventBus service.EventPublisher
	if natsPub != nil {
		eventBus = natsPub
	}
	generationWorker := service.NewGenerationWorker(
		pubSub,
		generationTopic,
		uowFactory,
		generator,
		eventBus,
		sysLogger,
	)

	var grants service.GrantStore
	if redisUp {
		grants = service.NewRedisGrantStore(rdb)
	} else {
		// Single-instance fallback so local dev works without redis.
		grants = service.NewMemoryGrantStore()
	}
	bridgeService := service.NewBridgeService(
		grants,
		cfg.Bridge.JWTSecret,
		time.Duration(cfg.Bridge.TokenTTLMinutes)*time.Minute,
		sysLogger,
	)

	authService := service.NewAuthService(cfg.Bridge.JWTSecret, sysLogger)

	// 3.5 Notification system
	if natsSub != nil {
		notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
		go func() {
			if err := notifService.Start(); err != nil {
				log.Printf("[WARN] Notification subscriber failed to start: %v", err)
			}
		}()
	}
	notifHandler := handler.NewNotificationHandler(wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		FittingController: controller.NewFittingController(fittingService),
		BridgeController:  controller.NewBridgeController(bridgeService, authService),
		AuthController:    controller.NewAuthController(authService, cfg.App.Environment == "production"),

		GenerationWorker: generationWorker,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}
