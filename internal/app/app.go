package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	mongoadapter "github.com/pawmates/adoption-service/internal/adapter/mongo"
	natsadapter "github.com/pawmates/adoption-service/internal/adapter/nats"
	redisadapter "github.com/pawmates/adoption-service/internal/adapter/redis"
	"github.com/pawmates/adoption-service/internal/adapter/storage/s3"
	"github.com/pawmates/adoption-service/internal/app/config"
	"github.com/pawmates/adoption-service/internal/mailer"
	"github.com/pawmates/adoption-service/internal/platform/logger"
	"github.com/pawmates/adoption-service/internal/platform/metrics"
	"github.com/pawmates/adoption-service/internal/platform/tracer"
	httpserver "github.com/pawmates/adoption-service/internal/port/http"
	"github.com/pawmates/adoption-service/internal/repository"
	"github.com/pawmates/adoption-service/internal/service"
)

type App struct {
	cfg            *config.Config
	log            logger.Logger
	server         *httpserver.Server
	metricsServer  *http.Server
	tracerProvider *sdktrace.TracerProvider
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	natsConn       *natsgo.Conn
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	appLogger, err := logger.NewZapLogger(logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Infof("Configuration loaded: Env=%s, HTTP Port: %s", cfg.Env, cfg.HTTPServer.Port)

	appLogger.Info("Initializing MongoDB client...")
	mongoClient, err := mongoadapter.NewClient(ctx, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	appLogger.Info("MongoDB client initialized successfully")

	appLogger.Info("Initializing Redis client...")
	redisClient, err := redisadapter.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}
	appLogger.Info("Redis client initialized successfully")

	appLogger.Info("Connecting to NATS...")
	natsConn, err := natsadapter.NewConnection(cfg.NATS)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	publisher, err := natsadapter.NewPublisher(natsConn)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	appLogger.Info("NATS publisher initialized")

	photoStorage, err := s3.NewStorage(ctx, cfg.MinIO, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize photo storage: %w", err)
	}

	listingRepo := mongoadapter.NewListingRepository(mongoClient, cfg.MongoDB)
	ledgerRepo := mongoadapter.NewAdoptionLedgerRepository(mongoClient, cfg.MongoDB)
	userRepo := mongoadapter.NewUserRepository(mongoClient, cfg.MongoDB)
	postRepo := mongoadapter.NewPostRepository(mongoClient, cfg.MongoDB)
	engagementRepo := mongoadapter.NewEngagementRepository(mongoClient, cfg.MongoDB)
	listingCache := redisadapter.NewListingCache(redisClient)
	appLogger.Info("Repositories initialized")

	var txRunner repository.TxRunner
	if cfg.MongoDB.Transactions {
		txRunner = mongoadapter.NewTxRunner(mongoClient)
		appLogger.Info("MongoDB transactions enabled for adoption approval")
	} else {
		txRunner = mongoadapter.NoopTxRunner{}
		appLogger.Warn("MongoDB transactions disabled, approvals use the compensating protocol")
	}

	var mail mailer.Mailer = mailer.NoopMailer{}
	if cfg.SMTP.Enabled {
		mail = mailer.NewSMTPMailer(cfg.SMTP)
		appLogger.Info("SMTP mailer enabled")
	}

	metricsManager := metrics.NewManager("adoption_service")

	opTimeout := cfg.MongoDB.OpTimeout
	adoptionService := service.NewAdoptionService(
		listingRepo, ledgerRepo, userRepo, txRunner, listingCache,
		publisher, mail, metricsManager, appLogger, opTimeout,
	)
	listingService := service.NewListingService(
		listingRepo, listingCache, photoStorage, publisher, appLogger,
		cfg.Cache.ListingTTL, opTimeout,
	)
	authService := service.NewAuthService(userRepo, mail, cfg.Auth, appLogger)
	postService := service.NewPostService(postRepo, photoStorage, appLogger, opTimeout)
	chatService := service.NewChatService(userRepo, cfg.Chat)
	engagementService := service.NewEngagementService(engagementRepo, appLogger, opTimeout)
	appLogger.Info("Services initialized")

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Auth:       authService,
		Listings:   listingService,
		Adoptions:  adoptionService,
		Posts:      postService,
		Chat:       chatService,
		Engagement: engagementService,
		Metrics:    metricsManager,
		Log:        appLogger,
	})
	srv := httpserver.NewServer(cfg.HTTPServer, router, appLogger)
	appLogger.Info("HTTP server instance created")

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.StartServer(cfg.Metrics.Port, appLogger, metricsManager.Registry)
		appLogger.Infof("Metrics server started on port %s", cfg.Metrics.Port)
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracer.Init(ctx, cfg.Tracing.OTLPEndpoint)
		if err != nil {
			appLogger.Errorf("Failed to initialize tracing: %v", err)
		} else {
			appLogger.Info("Tracing initialized")
		}
	}

	return &App{
		cfg:            cfg,
		log:            appLogger,
		server:         srv,
		metricsServer:  metricsSrv,
		tracerProvider: tp,
		mongoClient:    mongoClient,
		redisClient:    redisClient,
		natsConn:       natsConn,
	}, nil
}

func (a *App) Run() {
	a.log.Info("Starting application components...")

	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()
	a.log.Info("HTTP server started in a goroutine")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down application...", receivedSignal)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.TimeoutGraceful+5*time.Second)
	defer cancel()

	if err := a.server.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error during HTTP server graceful shutdown: %v", err)
	}

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.log.Errorf("Error during metrics server shutdown: %v", err)
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			a.log.Errorf("Error shutting down tracer provider: %v", err)
		}
	}

	if a.natsConn != nil {
		a.natsConn.Close()
		a.log.Info("NATS connection closed")
	}

	a.log.Info("Closing database connections...")
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
			a.log.Errorf("Error disconnecting from MongoDB: %v", err)
		} else {
			a.log.Info("MongoDB connection closed successfully")
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		} else {
			a.log.Info("Redis client closed successfully")
		}
	}

	a.log.Info("Application shut down successfully")
}
