package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"communitycart/market/internal/api"
	"communitycart/market/internal/cache"
	"communitycart/market/internal/config"
	"communitycart/market/internal/db"
	"communitycart/market/internal/logging"
	"communitycart/market/internal/notify"
	"communitycart/market/internal/services"
	"communitycart/market/internal/storage"
	"communitycart/market/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'img' (image processing), 'all' (default)")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Initialize Database
	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Error().Err(err).Msg("error disconnecting from MongoDB")
		}
	}()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx, mongoDb); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure indexes")
	}
	cancelIndex()

	// Initialize Cache (Redis)
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Error().Err(err).Msg("error disconnecting from Redis")
		}
	}()

	// S3 is optional for the API, required for the image worker
	var s3StorageService storage.IS3Storage
	if cfg.AwsS3Bucket != "" {
		s3StorageService, err = storage.NewS3Storage(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize S3 storage")
		}
	} else {
		log.Warn().Msg("AWS_S3_BUCKET not set, image uploads disabled")
	}

	// Initialize Notification Sender
	var primarySender notify.Sender
	if cfg.MockServices {
		log.Info().Msg("MOCK_SERVICES enabled: using Redis notification sender")
		primarySender = notify.NewRedisSender(redisClient, cfg.SmtpFromAddress)
	} else {
		primarySender = notify.NewSMTPSender(cfg)
	}
	compositeSender := notify.NewCompositeSender(primarySender)
	if cfg.NotifyLogFile != "" {
		fileSender, err := notify.NewFileSender(cfg.NotifyLogFile, cfg.SmtpFromAddress)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.NotifyLogFile).Msg("failed to open notification log, continuing without it")
		} else {
			compositeSender.AddSender(fileSender)
			log.Info().Str("path", cfg.NotifyLogFile).Msg("notification file log enabled")
		}
	}

	// Initialize Services needed by handlers and/or task processor
	groupBuyService := services.NewGroupBuyService(mongoDb)
	orderService := services.NewOrderService(mongoDb)
	snapshotCache := cache.NewSnapshotCache(redisClient, cfg.GetCacheTTL)
	marketplaceService := services.NewMarketplaceService(groupBuyService, orderService, snapshotCache, cfg, time.Now)
	analyticsService := services.NewVendorAnalyticsService(groupBuyService, orderService, time.Now)
	catalogService := services.NewCatalogService(cfg, redisClient)
	templateService := services.NewNotificationTemplateService(mongoDb)

	// Initialize Task Client
	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()

	taskProcessor := tasks.NewTaskProcessor(cfg, compositeSender, templateService, s3StorageService, groupBuyService, orderService, taskClient, time.Now)

	// Background goroutines stop when this context is cancelled
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	var wg sync.WaitGroup

	// Channel to signal shutdown from Service API
	shutdownChan := make(chan struct{}, 1)

	// Start Service API (always runs)
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(cfg, redisClient, shutdownChan, catalogService, taskClient),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("port", cfg.ServiceApiPort).Msg("service API listening")
		if err := serviceSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("service API ListenAndServe error")
		}
	}()

	// --- Mode-specific servers ---
	var mainApiSrv *http.Server
	var taskSrv *asynq.Server
	var scheduler *asynq.Scheduler

	log.Info().Str("mode", cfg.RunMode).Msg("starting application")

	apiMode := func() {
		mainApiSrv = &http.Server{
			Addr: ":" + cfg.ApiPort,
			Handler: api.SetupRouter(cfg, api.Services{
				Marketplace: marketplaceService,
				Analytics:   analyticsService,
				Catalog:     catalogService,
				Templates:   templateService,
				Storage:     s3StorageService,
				TaskClient:  taskClient,
			}),
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			log.Info().Str("port", cfg.ApiPort).Msg("main API listening")
			if err := mainApiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("main API ListenAndServe error")
			}
		}()
		go func() {
			defer wg.Done()
			if err := catalogService.SubscribeToChanges(appCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("catalog subscription ended")
			}
		}()
	}

	// One asynq server handles both worker roles so "all" mode does not
	// start two servers competing for the same queues.
	workerMode := func(isImageWorker, isBgWorker bool) {
		if isImageWorker && s3StorageService == nil {
			log.Fatal().Msg("image worker requires AWS_S3_BUCKET")
		}
		taskSrv = tasks.NewServer(redisClient)
		mux := tasks.NewServeMux(taskProcessor, isImageWorker, isBgWorker)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := taskSrv.Run(mux); err != nil {
				log.Fatal().Err(err).Msg("task server error")
			}
		}()

		if isBgWorker {
			scheduler, err = tasks.NewScheduler(redisClient, cfg.ClosingSoonScanInterval)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create scheduler")
			}
			if err := scheduler.Start(); err != nil {
				log.Fatal().Err(err).Msg("failed to start scheduler")
			}
			log.Info().Dur("interval", cfg.ClosingSoonScanInterval).Msg("closing-soon scan scheduled")
		}
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		workerMode(false, true)
	case "img":
		workerMode(true, false)
	case "all":
		apiMode()
		workerMode(s3StorageService != nil, true)
	default:
		log.Fatal().Str("mode", cfg.RunMode).Msg("invalid run mode")
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case <-shutdownChan:
		log.Info().Msg("shutdown requested via service API")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	cancelApp()
	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("service API shutdown error")
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("main API shutdown error")
		}
	}
	if scheduler != nil {
		scheduler.Shutdown()
	}
	if taskSrv != nil {
		taskSrv.Shutdown()
	}

	wg.Wait()
	log.Info().Msg("server gracefully stopped")
}
