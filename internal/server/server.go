// Package server assembles the HTTP API: repositories, services, handlers and
// the middleware chain.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/events"
	"fintrack/internal/handlers"
	"fintrack/internal/logging"
	"fintrack/internal/middleware"
	"fintrack/internal/repositories"
	"fintrack/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Dependencies are the process-wide collaborators the server does not own.
type Dependencies struct {
	DB        *database.DB
	Publisher events.Publisher
	Metrics   services.MetricsRecorderInterface
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
}

type Server struct {
	Echo        *echo.Echo
	RateLimiter *middleware.RateLimiter
	Cleanup     services.CleanupServiceInterface
	DemoData    services.DemoDataServiceInterface

	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, deps Dependencies) *Server {
	// amounts, sums and percentages go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	gatherer := deps.Gatherer
	metrics := deps.Metrics
	if metrics == nil {
		reg := prometheus.NewRegistry()
		metrics = services.NewPrometheusMetrics(reg)
		if gatherer == nil {
			gatherer = reg
		}
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	gormDB := deps.DB.DB

	userRepo := repositories.NewUserRepository(gormDB)
	categoryRepo := repositories.NewCategoryRepository(gormDB)
	transactionRepo := repositories.NewTransactionRepository(gormDB)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(gormDB)
	blacklistedTokenRepo := repositories.NewBlacklistedTokenRepository(gormDB)
	auditLogRepo := repositories.NewAuditLogRepository(gormDB)

	auditService := services.NewAuditService(auditLogRepo, logging.WithComponent(logger, "audit"))
	passwordService := services.NewPasswordService(cfg.Security)
	tokenService := services.NewTokenService(&cfg.JWT)
	categoryService := services.NewCategoryService(categoryRepo, auditService, publisher, metrics, logging.WithComponent(logger, "categories"))
	transactionService := services.NewTransactionService(transactionRepo, categoryRepo, auditService, publisher, metrics, logging.WithComponent(logger, "transactions"))
	statsService := services.NewStatsService(transactionRepo, metrics)
	authService := services.NewAuthService(
		userRepo,
		refreshTokenRepo,
		blacklistedTokenRepo,
		categoryService,
		passwordService,
		tokenService,
		auditService,
		metrics,
		cfg.Security,
		logging.WithComponent(logger, "auth"),
	)
	userService := services.NewUserService(userRepo, refreshTokenRepo, passwordService, auditService, logging.WithComponent(logger, "users"))
	demoDataService := services.NewDemoDataService(userRepo, categoryRepo, transactionRepo, passwordService, auditService, metrics, logging.WithComponent(logger, "demo"))
	cleanupService := services.NewCleanupService(refreshTokenRepo, blacklistedTokenRepo, auditService, metrics, cfg.Maintenance, logging.WithComponent(logger, "cleanup"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery(logger))
	e.Use(logging.RequestLogger(logger))
	e.Use(middleware.SecurityHeaders())
	if len(cfg.Server.CORSAllowOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:  cfg.Server.CORSAllowOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.TraceIDHeader},
			ExposeHeaders: []string{middleware.TraceIDHeader},
		}))
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.Security.RateLimitPerSecond > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitBurst)
		e.Use(rateLimiter.Middleware())
	}

	healthHandler := handlers.NewHealthCheckHandler(gormDB)
	authHandler := handlers.NewAuthHandler(authService, tokenService)
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	statsHandler := handlers.NewStatsHandler(statsService)

	requireAuth := middleware.RequireAuth(tokenService, blacklistedTokenRepo)

	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	users := e.Group("/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.POST("/refresh", authHandler.RefreshToken)
	users.POST("/logout", authHandler.Logout, requireAuth)
	users.GET("/profile", userHandler.GetProfile, requireAuth)
	users.PUT("/profile", userHandler.UpdateProfile, requireAuth)
	users.PUT("/change-password", userHandler.ChangePassword, requireAuth)
	users.GET("/activity", userHandler.GetActivity, requireAuth)

	api := e.Group("/api", requireAuth)

	categories := api.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.POST("", categoryHandler.CreateCategory)
	categories.POST("/defaults", categoryHandler.RestoreDefaults)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := api.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	api.GET("/balance", statsHandler.GetBalance)
	api.GET("/stats/monthly", statsHandler.GetMonthlyStats)
	api.GET("/stats/categories", statsHandler.GetCategoryStats)

	if cfg.IsDevelopment() {
		devHandler := handlers.NewDevHandler(demoDataService)
		api.POST("/dev/demo-data", devHandler.GenerateDemoData)
	}

	return &Server{
		Echo:        e,
		RateLimiter: rateLimiter,
		Cleanup:     cleanupService,
		DemoData:    demoDataService,
		cfg:         cfg,
		logger:      logging.WithComponent(logger, "server"),
	}
}

// Start blocks until the listener fails or Shutdown is called. A clean
// shutdown returns nil.
func (s *Server) Start() error {
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("Starting server", "addr", httpServer.Addr, "env", s.cfg.Server.Environment)

	if err := s.Echo.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.Echo.Shutdown(ctx)
}
