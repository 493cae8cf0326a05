package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"rune-settle.backend/internal/domain/entities"
	infrarepos "rune-settle.backend/internal/infrastructure/repositories"
	"rune-settle.backend/internal/interfaces/http/handlers"
	"rune-settle.backend/internal/interfaces/http/middleware"
	"rune-settle.backend/internal/usecases"
	"rune-settle.backend/pkg/jwt"
	"rune-settle.backend/pkg/redis"
)

const (
	testDest       = "bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0"
	testSessionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	testTxid       = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
)

type stubSigner struct{}

func (stubSigner) Sign(ctx context.Context, tx *usecases.UnsignedTxDescriptor) ([]byte, error) {
	return []byte{0x02, 0x00}, nil
}

type stubBroadcaster struct{}

func (stubBroadcaster) Broadcast(ctx context.Context, signedTx []byte) (string, error) {
	return testTxid, nil
}

type stubChain struct{}

func (stubChain) GetConfirmations(ctx context.Context, txid string) (int32, error) {
	return 6, nil
}

type stubFeeOracle struct{}

func (stubFeeOracle) CurrentTiers(ctx context.Context) (entities.FeeTiers, error) {
	return entities.FeeTiers{Slow: 5, Medium: 20, Fast: 60, FetchedAt: time.Now()}, nil
}

type stubPriceOracle struct{}

func (stubPriceOracle) BtcUsdRate(ctx context.Context) (float64, error) {
	return 60000, nil
}

// serverFixture runs the full API surface over sqlite-backed repositories and
// stubbed external collaborators.
type serverFixture struct {
	router      *gin.Engine
	db          *gorm.DB
	balanceRepo *infrarepos.RuneBalanceRepository
	requestRepo *infrarepos.SettlementRequestRepository
	settlements *usecases.SettlementUsecase
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	redis.SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Serialize access: the engine settles on background goroutines and
	// sqlite does not tolerate concurrent writers.
	sqlDB.SetMaxOpenConns(1)
	createSchema(t, db)

	userRepo := infrarepos.NewUserRepository(db)
	requestRepo := infrarepos.NewSettlementRequestRepository(db)
	eventRepo := infrarepos.NewSettlementEventRepository(db)
	balanceRepo := infrarepos.NewRuneBalanceRepository(db)
	batchRepo := infrarepos.NewBatchWindowRepository(db)
	savedRepo := infrarepos.NewSavedAddressRepository(db)
	uow := infrarepos.NewUnitOfWork(db)

	jwtSvc := jwt.NewJWTService("test-secret", time.Minute, time.Hour)
	sessions, err := redis.NewSessionStore(testSessionKey)
	require.NoError(t, err)

	classifier := usecases.NewAddressClassifier()
	estimator := usecases.NewFeeEstimator()
	notifier := usecases.NewStatusNotifier()
	coordinator := usecases.NewBatchCoordinator(batchRepo, 2, 40*time.Millisecond)
	tracker := usecases.NewConfirmationTracker(stubChain{}, requestRepo, notifier, 5*time.Millisecond, 6, 200*time.Millisecond, 2*time.Second)
	t.Cleanup(tracker.Shutdown)

	settlements := usecases.NewSettlementUsecase(
		requestRepo, eventRepo, balanceRepo, savedRepo, uow,
		classifier, estimator, coordinator, tracker, notifier,
		stubSigner{}, stubBroadcaster{}, stubPriceOracle{}, stubFeeOracle{},
		usecases.SettlementOptions{
			RequireNetwork:   entities.NetworkMainnet,
			BroadcastTimeout: time.Second,
			BroadcastRetries: 1,
			RetryBackoffBase: time.Millisecond,
		},
	)
	lifecycle := usecases.NewRuneLifecycleUsecase(balanceRepo, requestRepo)
	auth := usecases.NewAuthUsecase(userRepo, jwtSvc, sessions)

	authHandler := handlers.NewAuthHandler(auth)
	settlementHandler := handlers.NewSettlementHandler(settlements)
	addressHandler := handlers.NewAddressHandler(classifier, savedRepo, entities.NetworkMainnet)
	feeHandler := handlers.NewFeeHandler(estimator, stubFeeOracle{}, stubPriceOracle{})
	runeHandler := handlers.NewRuneHandler(lifecycle)
	authMW := middleware.AuthMiddleware(jwtSvc)

	r := gin.New()
	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/logout", authMW, authHandler.Logout)
		authGroup.GET("/me", authMW, authHandler.GetMe)

		settlementsGroup := v1.Group("/settlements")
		settlementsGroup.Use(authMW)
		settlementsGroup.POST("", middleware.IdempotencyMiddleware(), settlementHandler.Submit)
		settlementsGroup.GET("", settlementHandler.List)
		settlementsGroup.GET("/:id", settlementHandler.Get)
		settlementsGroup.GET("/:id/events", settlementHandler.Events)
		settlementsGroup.GET("/:id/subscribe", settlementHandler.Subscribe)

		v1.POST("/addresses/classify", addressHandler.Classify)

		saved := v1.Group("/saved-addresses")
		saved.Use(authMW)
		saved.GET("", addressHandler.ListSaved)
		saved.POST("", addressHandler.Save)
		saved.PUT("/:id/primary", addressHandler.SetPrimary)
		saved.DELETE("/:id", addressHandler.Delete)

		v1.GET("/fees/quote", authMW, feeHandler.Quote)

		runes := v1.Group("/runes")
		runes.Use(authMW)
		runes.GET("", runeHandler.List)
		runes.GET("/:key", runeHandler.Get)
	}

	return &serverFixture{
		router:      r,
		db:          db,
		balanceRepo: balanceRepo,
		requestRepo: requestRepo,
		settlements: settlements,
	}
}

func createSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	stmts := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'USER',
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		);`,
		`CREATE TABLE settlement_requests (
			id TEXT PRIMARY KEY,
			idempotency_key TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			rune_key TEXT NOT NULL,
			rune_name TEXT,
			amount INTEGER NOT NULL,
			destination_address TEXT NOT NULL,
			mode TEXT NOT NULL,
			custom_fee_rate REAL,
			fee_rate_sat_per_vb REAL NOT NULL DEFAULT 0,
			fee_total_sats INTEGER NOT NULL DEFAULT 0,
			fee_usd REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			batch_id TEXT,
			txid TEXT,
			confirmations INTEGER NOT NULL DEFAULT 0,
			failure_reason TEXT,
			archived BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME,
			UNIQUE (owner_id, idempotency_key)
		);`,
		`CREATE TABLE settlement_events (
			id TEXT PRIMARY KEY,
			settlement_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			from_status TEXT,
			to_status TEXT NOT NULL,
			detail TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE batch_windows (
			id TEXT PRIMARY KEY,
			fee_cohort TEXT NOT NULL,
			target_size INTEGER NOT NULL,
			max_wait_ms INTEGER NOT NULL,
			opened_at DATETIME NOT NULL,
			closed_at DATETIME
		);`,
		`CREATE TABLE batch_members (
			id TEXT PRIMARY KEY,
			batch_id TEXT NOT NULL,
			settlement_id TEXT NOT NULL UNIQUE,
			join_index INTEGER NOT NULL,
			fee_share_sats INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME
		);`,
		`CREATE TABLE rune_balances (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			rune_key TEXT NOT NULL,
			rune_name TEXT,
			total_amount INTEGER NOT NULL DEFAULT 0,
			held_amount INTEGER NOT NULL DEFAULT 0,
			settled_amount INTEGER NOT NULL DEFAULT 0,
			native_txid TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			UNIQUE (owner_id, rune_key)
		);`,
		`CREATE TABLE saved_addresses (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			address TEXT NOT NULL,
			label TEXT NOT NULL,
			type TEXT,
			network TEXT,
			is_primary BOOLEAN NOT NULL DEFAULT 0,
			use_count INTEGER NOT NULL DEFAULT 0,
			last_used_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME,
			UNIQUE (owner_id, address)
		);`,
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}
}

func (f *serverFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}

// registerAndLogin creates a fresh account and returns its access token and
// user ID.
func (f *serverFixture) registerAndLogin(t *testing.T, email string) (string, string) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    email,
		"name":     "Test Owner",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decodeBody(t, rec)["user"].(map[string]interface{})

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody(t, rec)["accessToken"].(string), user["id"].(string)
}

func (f *serverFixture) seedBalance(t *testing.T, ownerID string, runeKey string, total int64) {
	t.Helper()
	id, err := uuid.Parse(ownerID)
	require.NoError(t, err)
	require.NoError(t, f.balanceRepo.Upsert(context.Background(), &entities.RuneBalance{
		OwnerID:     id,
		RuneKey:     runeKey,
		RuneName:    "UNCOMMON GOODS",
		TotalAmount: total,
	}))
}
