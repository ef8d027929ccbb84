package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/account-api/api/swagger"
	"github.com/noah-isme/account-api/internal/handler"
	"github.com/noah-isme/account-api/internal/models"
	"github.com/noah-isme/account-api/internal/repository"
	"github.com/noah-isme/account-api/internal/service"
	"github.com/noah-isme/account-api/pkg/cache"
	"github.com/noah-isme/account-api/pkg/config"
	"github.com/noah-isme/account-api/pkg/database"
	"github.com/noah-isme/account-api/pkg/i18n"
	"github.com/noah-isme/account-api/pkg/logger"
)

// @title Account API
// @version 1.0.0
// @description Login, token refresh and registration for the SPA client
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// userStore is satisfied by both the PostgreSQL and the in-memory repositories.
type userStore interface {
	FindByNormalizedUserName(ctx context.Context, normalized string) (*models.User, error)
	FindByNormalizedEmail(ctx context.Context, normalized string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error
	AddToRole(ctx context.Context, userID string, role models.UserRole) error
	Roles(ctx context.Context, userID string) ([]models.UserRole, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	checks := make(map[string]handler.Pinger)

	store, db, err := openStore(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open user store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		checks["postgres"] = db
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	var locker service.RefreshLocker = repository.NewLocalRefreshLock(cfg.JWT.RefreshLockTTL)
	if redisClient != nil {
		defer redisClient.Close()
		locker = repository.NewRedisRefreshLock(redisClient, cfg.JWT.RefreshLockTTL, logr)
		checks["redis"] = redisPinger(redisClient)
	}

	validate := validator.New()
	catalog, err := i18n.New(cfg.Locale.Default, validate)
	if err != nil {
		logr.Fatal("failed to build message catalog", zap.Error(err))
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	identity := service.NewIdentityService(store, validate, logr)
	tokens, err := service.NewTokenService(store, logr, service.TokenConfig{
		SigningKey:         cfg.JWT.Secret,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	if err != nil {
		logr.Fatal("failed to init token service", zap.Error(err))
	}
	accounts := service.NewAccountService(identity, tokens, store, locker, validate, logr, metrics)

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logr,
		Catalog:        catalog,
		Metrics:        metrics,
		Tokens:         tokens,
		Accounts:       handler.NewAccountHandler(accounts),
		ClientRoutes:   handler.NewClientRouteHandler(service.NewClientRouteService()),
		Observability:  handler.NewMetricsHandler(metrics, checks, logr),
		Extra: func(r *gin.Engine) {
			if cfg.Env != config.EnvProduction {
				r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
			}
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logr.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logr.Error("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("shutdown error", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (userStore, *sqlx.DB, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logr.Warn("using in-memory user store; accounts are lost on restart")
		return repository.NewMemoryUserRepository(), nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logr.Info("database migrations applied")
	}
	return repository.NewUserRepository(db), db, nil
}

func redisPinger(client *redis.Client) handler.PingerFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
