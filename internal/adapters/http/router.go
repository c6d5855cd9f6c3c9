package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/dkrylov/coinledger/internal/adapters/http/middleware"
)

// RouterConfig wires the handlers and cross-cutting middleware.
type RouterConfig struct {
	Logger           *slog.Logger
	ServiceName      string
	Environment      string
	EnableStackTrace bool

	MovementHandler    MovementRoutes
	TransactionHandler TransactionRoutes
	HealthHandler      HealthRoutes
}

// MovementRoutes is implemented by the movement handler.
type MovementRoutes interface {
	TopUp(c *gin.Context)
	Bonus(c *gin.Context)
	Purchase(c *gin.Context)
}

// TransactionRoutes is implemented by the transaction handler.
type TransactionRoutes interface {
	GetTransaction(c *gin.Context)
	GetByIdempotencyKey(c *gin.Context)
	ListTransactions(c *gin.Context)
}

// HealthRoutes is implemented by the health handler.
type HealthRoutes interface {
	RegisterRoutes(router *gin.Engine)
}

// NewRouter builds the gin engine with the full middleware chain.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           cfg.Logger,
		EnableStackTrace: cfg.EnableStackTrace,
	}))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    cfg.Logger,
		SkipPaths: []string{"/health", "/ready", "/metrics"},
	}))
	router.Use(middleware.Metrics())
	router.Use(otelgin.Middleware(cfg.ServiceName))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(router)
	}

	v1 := router.Group("/api/v1")
	{
		movements := v1.Group("/movements")
		{
			movements.POST("/topup", cfg.MovementHandler.TopUp)
			movements.POST("/bonus", cfg.MovementHandler.Bonus)
			movements.POST("/purchase", cfg.MovementHandler.Purchase)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.GET("", cfg.TransactionHandler.ListTransactions)
			transactions.GET("/:id", cfg.TransactionHandler.GetTransaction)
			transactions.GET("/by-key/:key", cfg.TransactionHandler.GetByIdempotencyKey)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, &APIError{
			Code:    ErrCodeNotFound,
			Message: "route not found",
		})
	})

	return router
}
