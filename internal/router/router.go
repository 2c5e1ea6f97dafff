package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/reading-list/internal/config"
	"github.com/iliyamo/reading-list/internal/handler"
	"github.com/iliyamo/reading-list/internal/middleware"
	"github.com/iliyamo/reading-list/internal/queue"
	"github.com/iliyamo/reading-list/internal/repository"
	"github.com/iliyamo/reading-list/internal/service"
	"github.com/iliyamo/reading-list/internal/utils"
)

// Deps are the long-lived collaborators the HTTP layer is built from. Redis
// and Events may be nil.
type Deps struct {
	Config config.Config
	Log    *logrus.Logger
	DB     *sql.DB
	Codec  *utils.TokenCodec
	Redis  *redis.Client
	Events queue.Publisher
}

// New builds the echo instance with the global middleware chain, the problem
// error handler and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ProblemHandler(d.Log)
	e.Validator = handler.NewValidator()

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator:    utils.NewID,
		TargetHeader: middleware.CorrelationHeader,
	}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  d.Config.CORSOrigins,
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, handler.DeviceHeader, middleware.CorrelationHeader},
		ExposeHeaders: []string{middleware.CorrelationHeader, "Retry-After"},
	}))
	e.Use(middleware.JWTAuth(d.Codec, repository.NewRevokedRepo(d.DB), d.Config.Gate))

	RegisterRoutes(e, d.DB)

	api := e.Group("/api/v1")
	auth := service.NewAuthService(d.DB, d.Codec, d.Config.BcryptCost, d.Events)
	RegisterAuth(api, handler.NewAuthHandler(auth), middleware.NewTokenBucket(d.Config.RateLimit, d.Redis))
	RegisterEntries(api, handler.NewEntryHandler(repository.NewEntryRepo(d.DB)))
	RegisterAdmin(api, handler.NewAdminHandler(repository.NewUserRepo(d.DB)))
	return e
}

// RegisterRoutes registers the unauthenticated probes.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the auth endpoints. The anonymous ones sit behind the
// rate limiter; me, logout and sessions are guarded by the global JWTAuth.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := api.Group("/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh, limiter)

	g.GET("/me", a.Me)
	g.POST("/logout", a.Logout)
	g.GET("/sessions", a.Sessions)
}
