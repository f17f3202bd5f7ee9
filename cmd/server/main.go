package main

import (
	"context"
	"log"
	"ticketchain/config"
	"ticketchain/internal/database"
	"ticketchain/internal/handler"
	"ticketchain/internal/middleware"
	"ticketchain/internal/monitoring"
	"ticketchain/internal/notify"
	"ticketchain/internal/queue"
	"ticketchain/internal/repository"
	"ticketchain/internal/service"
	"ticketchain/internal/worker"
	"ticketchain/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.LoadConfig()
	ctx := context.Background()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	defer logger.Sync()

	// Repositories
	eventRepo := repository.NewEventRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	listingRepo := repository.NewListingRepository(pool)
	swapRepo := repository.NewSwapOfferRepository(pool)
	loyaltyRepo := repository.NewLoyaltyRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	transferRepo := repository.NewTransferRepository(pool)

	// Configured economics seed the settings table only on first boot;
	// admin changes survive restarts.
	seedDefaults(ctx, settingsRepo, cfg.Platform)
	if err := loyaltyRepo.SetSpender(ctx, cfg.Platform.EngineAddress, true); err != nil {
		log.Fatalf("Failed to register purchase engine as spender: %v", err)
	}

	notifier := notify.NewRedisPublisher(rdb)

	// Services
	loyaltyService := service.NewLoyaltyService(pool, loyaltyRepo, settingsRepo, notifier, cfg.Platform)
	registryService := service.NewRegistryService(pool, ticketRepo, notifier, cfg.Platform)
	eventService := service.NewEventService(pool, eventRepo, ticketRepo, loyaltyService, notifier, cfg.Platform)
	marketService := service.NewMarketService(pool, listingRepo, ticketRepo, eventRepo, settingsRepo, transferRepo, notifier, cfg.Platform)
	swapService := service.NewSwapService(pool, swapRepo, ticketRepo, settingsRepo, transferRepo, notifier, cfg.Platform)

	// Admission queue + oracle purchase stream
	admissionQueue := queue.NewAdmissionQueue(cfg.Platform.QueueWindow)
	purchaseQueue, err := queue.NewRedisPurchaseQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize purchase queue: %v", err)
	}
	queueService := service.NewQueueService(admissionQueue, purchaseQueue, loyaltyService, cfg.Platform)

	purchaseWorker := worker.NewPurchaseWorker(eventService, admissionQueue, purchaseQueue, cfg.Platform.OracleAddress)
	if err := purchaseWorker.Start(ctx); err != nil {
		log.Fatalf("Failed to start purchase worker: %v", err)
	}

	router := gin.Default()
	router.Use(monitoring.RequestMetrics())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", monitoring.Handler())

	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuth(cfg.HTTP.JWTSecret))

	handler.NewEventHandler(eventService).RegisterRoutes(api)
	handler.NewTicketHandler(registryService).RegisterRoutes(api)
	handler.NewMarketHandler(marketService).RegisterRoutes(api)
	handler.NewSwapHandler(swapService).RegisterRoutes(api)
	handler.NewLoyaltyHandler(loyaltyService).RegisterRoutes(api)
	handler.NewQueueHandler(queueService, cfg.Platform.OracleAddress).RegisterRoutes(api)

	if err := router.Run(cfg.HTTP.Addr); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}

func seedDefaults(ctx context.Context, settings repository.SettingsRepository, platform config.PlatformConfig) {
	defaults := map[string]string{
		repository.SettingResaleCapBps:   decimal.NewFromInt(platform.ResaleCapBps).String(),
		repository.SettingRoyaltyBps:     decimal.NewFromInt(platform.RoyaltyBps).String(),
		repository.SettingPointsPerEther: platform.PointsPerEther.String(),
		repository.SettingSwapFeeBalance: "0",
	}
	for key, value := range defaults {
		if err := settings.SetDefault(ctx, key, value); err != nil {
			log.Fatalf("Failed to seed setting %s: %v", key, err)
		}
	}
}
