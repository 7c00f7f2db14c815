// Package api assembles the HTTP router from middleware and handlers.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/activity"
	"github.com/haneul-labs/complyhub/internal/api/handlers"
	"github.com/haneul-labs/complyhub/internal/api/middleware"
	"github.com/haneul-labs/complyhub/internal/assistant"
	"github.com/haneul-labs/complyhub/internal/auth"
	"github.com/haneul-labs/complyhub/internal/config"
	"github.com/haneul-labs/complyhub/internal/db"
	"github.com/haneul-labs/complyhub/internal/metrics"
	"github.com/haneul-labs/complyhub/internal/storage"
)

// Deps holds everything the router needs.
type Deps struct {
	Config    config.ServerConfig
	DB        *db.DB
	Blobs     *storage.BlobStore
	Tokens    *auth.TokenManager
	Feed      *activity.Feed
	Assistant *assistant.Client
	Metrics   *metrics.Metrics
	Version   string
	Logger    zerolog.Logger
}

// NewRouter builds the Gin engine with all routes registered.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.Config.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	cors, err := middleware.CORS(deps.Config.CORSOrigins, deps.Config.Environment, deps.Logger)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(cors)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", deps.Metrics.Handler())
	}

	health := handlers.NewHealthHandler(deps.DB, deps.Version, deps.Logger)
	health.RegisterRoutes(r.Group("/"))

	v1 := r.Group("/api/v1")
	health.RegisterRoutes(v1)

	// Login and registration take the brunt of credential stuffing; cap
	// them harder than the rest of the API.
	public := v1.Group("/", middleware.RateLimit(20, time.Minute))
	handlers.NewAuthHandler(deps.DB, deps.Tokens, deps.Logger).RegisterRoutes(public)

	protected := v1.Group("/", middleware.RequireUser(deps.Tokens))
	handlers.NewUsersHandler(deps.DB, deps.Feed, deps.Logger).RegisterRoutes(protected)
	handlers.NewOrganizationsHandler(deps.DB, deps.Logger).RegisterRoutes(protected)
	handlers.NewControlsHandler(deps.DB, deps.Feed, deps.Logger).RegisterRoutes(protected)
	handlers.NewTasksHandler(deps.DB, deps.Feed, deps.Config.UpcomingWindowDays, deps.Logger).RegisterRoutes(protected)
	handlers.NewDocumentsHandler(deps.DB, deps.Blobs, deps.Feed, deps.Logger).RegisterRoutes(protected)
	handlers.NewActivityHandler(deps.DB, deps.Feed, deps.Logger).RegisterRoutes(protected)
	handlers.NewNotificationsHandler(deps.DB, deps.Logger).RegisterRoutes(protected)
	handlers.NewAssistantHandler(deps.DB, deps.Assistant, deps.Logger).RegisterRoutes(protected)

	return r, nil
}
