package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"rune-settle.backend/internal/config"
	"rune-settle.backend/internal/domain/entities"
	"rune-settle.backend/internal/infrastructure/bitcoin"
	"rune-settle.backend/internal/infrastructure/jobs"
	"rune-settle.backend/internal/infrastructure/repositories"
	"rune-settle.backend/internal/interfaces/http/handlers"
	"rune-settle.backend/internal/interfaces/http/middleware"
	"rune-settle.backend/internal/usecases"
	"rune-settle.backend/pkg/jwt"
	"rune-settle.backend/pkg/logger"
	"rune-settle.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	newSessionStore = redis.NewSessionStore
	runServer       = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB        = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.Warn(context.Background(), "Database not available, endpoints will return errors", zap.Error(err))
	} else {
		logger.Info(context.Background(), "Connected to PostgreSQL")
	}

	jwtService := jwt.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	sessionStore, err := newSessionStore(cfg.Security.SessionEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	requestRepo := repositories.NewSettlementRequestRepository(db)
	eventRepo := repositories.NewSettlementEventRepository(db)
	balanceRepo := repositories.NewRuneBalanceRepository(db)
	batchRepo := repositories.NewBatchWindowRepository(db)
	savedAddressRepo := repositories.NewSavedAddressRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Collaborator clients
	timeout := cfg.Bitcoin.RequestTimeout
	signer := bitcoin.NewSignerClient(cfg.Bitcoin.SignerURL, timeout)
	broadcaster := bitcoin.NewBroadcasterClient(cfg.Bitcoin.BroadcasterURL, timeout)
	chainQuery := bitcoin.NewChainQueryClient(cfg.Bitcoin.ChainQueryURL, timeout)
	feeOracle := bitcoin.NewFeeOracleClient(cfg.Bitcoin.FeeOracleURL, timeout)
	priceOracle := bitcoin.NewPriceOracleClient(cfg.Bitcoin.PriceOracleURL, timeout)

	// Usecases
	classifier := usecases.NewAddressClassifier()
	estimator := usecases.NewFeeEstimator()
	notifier := usecases.NewStatusNotifier()
	coordinator := usecases.NewBatchCoordinator(batchRepo, cfg.Settlement.BatchTargetSize, cfg.Settlement.BatchMaxWait)
	tracker := usecases.NewConfirmationTracker(
		chainQuery,
		requestRepo,
		notifier,
		cfg.Settlement.PollInterval,
		cfg.Settlement.RequiredConfirmations,
		cfg.Settlement.NotFoundGrace,
		cfg.Settlement.ConfirmHorizon,
	)
	settlementUsecase := usecases.NewSettlementUsecase(
		requestRepo,
		eventRepo,
		balanceRepo,
		savedAddressRepo,
		uow,
		classifier,
		estimator,
		coordinator,
		tracker,
		notifier,
		signer,
		broadcaster,
		priceOracle,
		feeOracle,
		usecases.SettlementOptions{
			RequireNetwork:   entities.Network(cfg.Bitcoin.Network),
			BroadcastTimeout: cfg.Settlement.BroadcastTimeout,
			BroadcastRetries: cfg.Settlement.BroadcastRetries,
			RetryBackoffBase: cfg.Settlement.RetryBackoffBase,
		},
	)
	lifecycleUsecase := usecases.NewRuneLifecycleUsecase(balanceRepo, requestRepo)
	authUsecase := usecases.NewAuthUsecase(userRepo, jwtService, sessionStore)

	// Handlers
	authHandler := handlers.NewAuthHandler(authUsecase)
	settlementHandler := handlers.NewSettlementHandler(settlementUsecase)
	addressHandler := handlers.NewAddressHandler(classifier, savedAddressRepo, entities.Network(cfg.Bitcoin.Network))
	feeHandler := handlers.NewFeeHandler(estimator, feeOracle, priceOracle)
	runeHandler := handlers.NewRuneHandler(lifecycleUsecase)

	// Background recovery
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recoveryJob := jobs.NewSettlementRecoveryJob(settlementUsecase, coordinator, cfg.Settlement.RecoveryInterval)
	go recoveryJob.Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		authHandler:       authHandler,
		settlementHandler: settlementHandler,
		addressHandler:    addressHandler,
		feeHandler:        feeHandler,
		runeHandler:       runeHandler,
		authMiddleware:    middleware.AuthMiddleware(jwtService),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info(context.Background(), "Shutting down server")
		recoveryJob.Stop()
		tracker.Shutdown()
		cancel()
	}()

	logger.Info(context.Background(), "Settlement engine starting",
		zap.String("port", cfg.Server.Port),
		zap.String("network", cfg.Bitcoin.Network),
	)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
