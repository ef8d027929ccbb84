package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/account-api/internal/middleware"
	"github.com/noah-isme/account-api/internal/models"
	"github.com/noah-isme/account-api/internal/service"
	"github.com/noah-isme/account-api/pkg/i18n"
	"github.com/noah-isme/account-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/account-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/account-api/pkg/middleware/requestid"
)

// RouterConfig carries everything the HTTP surface is built from.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	Logger         *zap.Logger
	Catalog        *i18n.Catalog
	Metrics        *service.MetricsService
	Tokens         middleware.TokenValidator
	Accounts       *AccountHandler
	ClientRoutes   *ClientRouteHandler
	Observability  *MetricsHandler
	// Extra registers routes outside the API prefix, such as docs.
	Extra func(r *gin.Engine)
}

// NewRouter assembles the gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.Locale(cfg.Catalog))

	if cfg.Observability != nil {
		r.GET("/health", cfg.Observability.Health)
		r.GET("/ready", cfg.Observability.Ready)
		if cfg.Metrics != nil {
			r.GET("/metrics", cfg.Observability.Prometheus)
		}
	}

	api := r.Group("/" + strings.Trim(cfg.APIPrefix, "/"))

	if cfg.Accounts != nil {
		account := api.Group("/account")
		account.POST("/login", cfg.Accounts.Login)
		account.POST("/refresh", cfg.Accounts.Refresh)
		account.POST("/register", cfg.Accounts.Register)
		account.GET("/me", middleware.JWT(cfg.Tokens), middleware.RequireRoles(models.AllRoles...), cfg.Accounts.Me)
	}

	if cfg.ClientRoutes != nil {
		client := api.Group("/client", middleware.OptionalJWT(cfg.Tokens))
		client.GET("/routes", cfg.ClientRoutes.List)
		client.GET("/routes/resolve", cfg.ClientRoutes.Resolve)
	}

	if cfg.Extra != nil {
		cfg.Extra(r)
	}

	return r
}
