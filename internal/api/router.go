package api

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	"github.com/xaxo/auth-service/internal/api/handler"
	"github.com/xaxo/auth-service/internal/api/middleware"
	"github.com/xaxo/auth-service/internal/core/domain"
	"github.com/xaxo/auth-service/internal/core/ports"
	"github.com/xaxo/auth-service/internal/core/service"
	pgdb "github.com/xaxo/auth-service/internal/infrastructure/db/postgres"
	redisdb "github.com/xaxo/auth-service/internal/infrastructure/db/redis"
	"github.com/xaxo/auth-service/internal/infrastructure/hash"
	"github.com/xaxo/auth-service/internal/infrastructure/token"
	"github.com/xaxo/auth-service/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(pool *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("auth"))

	// --- Dependencies ---
	userRepo := pgdb.NewUserRepository(pool)
	roleRepo := pgdb.NewRoleRepository(pool)
	refreshRepo := pgdb.NewRefreshTokenRepository(pool)
	hasher := hash.NewBcryptHasher(0)
	issuer := token.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL)

	var limiter ports.AttemptLimiter
	if cfg.Limiter.Enabled {
		limiter = redisdb.NewAttemptLimiter(rdb, cfg.Limiter.MaxFailures, cfg.Limiter.Cooldown)
	}

	authService := service.NewAuthService(
		userRepo, roleRepo, refreshRepo, hasher, issuer, limiter, cfg.JWT.RefreshTTL, log,
	)
	authHandler := handler.NewAuthHandler(authService)
	authMiddleware := middleware.Auth(cfg.JWT.Secret)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/signup", authHandler.SignUp)
	auth.POST("/signin", authHandler.SignIn)
	auth.POST("/refresh", authHandler.Refresh)

	// --- Role-gated demo content ---
	contentHandler := handler.NewContentHandler()
	test := e.Group("/api/test")
	test.GET("/all", contentHandler.Public)
	test.GET("/user", contentHandler.User, authMiddleware)
	test.GET("/mod", contentHandler.Moderator, authMiddleware,
		middleware.RBAC(string(domain.RoleModerator), string(domain.RoleAdmin)))
	test.GET("/admin", contentHandler.Admin, authMiddleware,
		middleware.RBAC(string(domain.RoleAdmin)))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(pool, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
