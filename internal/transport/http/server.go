package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appsvc "eventhub/internal/app"
	"eventhub/internal/bootstrap"
	"eventhub/internal/cache"
	"eventhub/internal/imageref"
	"eventhub/internal/metrics"
	"eventhub/internal/platform/rabbitmq"
	"eventhub/internal/repository"
	"eventhub/internal/transport/http/handler"
	"eventhub/internal/transport/http/middleware"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth     *appsvc.AuthService
	Users    *appsvc.UserService
	Events   *appsvc.EventService
	Admin    *appsvc.AdminService
	Contents *appsvc.ContentService
}

type Options struct {
	GinMode        string
	AllowedOrigins []string
	AuthPerMinute  int
	AuthBurst      int
	Health         *handler.HealthHandler
	Logger         zerolog.Logger
}

// Stores groups one implementation of each store interface.
type Stores struct {
	Users       appsvc.UserStore
	Events      appsvc.EventStore
	Memberships appsvc.MembershipStore
	Activities  appsvc.ActivityStore
	Contents    appsvc.ContentStore
}

// Deps is the non-storage wiring shared by every service.
type Deps struct {
	Principals appsvc.PrincipalCache
	Images     appsvc.ImageValidator
	Publisher  appsvc.ActivityPublisher
	Auth       appsvc.AuthOptions
	Logger     zerolog.Logger
}

func NewServices(stores Stores, deps Deps) Services {
	events := appsvc.NewEventService(stores.Events, stores.Memberships, deps.Images, deps.Publisher, deps.Logger)
	return Services{
		Auth:     appsvc.NewAuthService(stores.Users, deps.Principals, deps.Publisher, deps.Auth, deps.Logger),
		Users:    appsvc.NewUserService(stores.Users, deps.Principals, deps.Images, deps.Publisher, deps.Logger),
		Events:   events,
		Admin:    appsvc.NewAdminService(stores.Users, events, stores.Activities, deps.Principals, deps.Publisher, deps.Auth.Passwords, deps.Logger),
		Contents: appsvc.NewContentService(stores.Contents),
	}
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	stores := Stores{
		Users:       repository.NewUserRepository(app.DB),
		Events:      repository.NewEventRepository(app.DB),
		Memberships: repository.NewMembershipRepository(app.DB),
		Activities:  repository.NewActivityRepository(app.DB),
		Contents:    repository.NewSiteContentRepository(app.DB),
	}
	services := NewServices(stores, Deps{
		Principals: cache.NewPrincipalCache(app.Redis, cfg.PrincipalTTL()),
		Images:     imageref.New(cfg.Images.AllowedHosts, cfg.Images.RequireHTTPS),
		Publisher:  rabbitmq.NewActivityPublisher(app.MQConn, cfg.RabbitMQ.ActivityQueue),
		Auth: appsvc.AuthOptions{
			JWTSecret: cfg.Auth.SecretKey,
			TokenTTL:  cfg.TokenTTL(),
			Issuer:    cfg.Auth.Issuer,
			Passwords: appsvc.PasswordPolicy{MinLength: cfg.Auth.PasswordMinLength},
		},
		Logger: app.Logger,
	})

	health := handler.NewHealthHandler(cfg.App.Name, cfg.App.Env, app.StartedAt, map[string]handler.CheckFunc{
		"database": func(ctx context.Context) error {
			sqlDB, err := app.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		},
		"rabbitmq": func(context.Context) error {
			if app.MQConn == nil || app.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
	})

	return Build(services, Options{
		GinMode:        cfg.App.GinMode,
		AllowedOrigins: cfg.AllowedOrigins(),
		AuthPerMinute:  cfg.RateLimit.AuthPerMinute,
		AuthBurst:      cfg.RateLimit.Burst,
		Health:         health,
		Logger:         app.Logger,
	})
}

// Build mounts every route on a fresh engine.
func Build(svc Services, opts Options) *gin.Engine {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CorrelationID(opts.Logger),
		middleware.RequestLogging(),
		metrics.Middleware(),
		middleware.CORS(opts.AllowedOrigins, opts.Logger),
	)

	if opts.Health != nil {
		router.GET("/healthz", opts.Health.Check)
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	authHandler := handler.NewAuthHandler(svc.Auth)
	userHandler := handler.NewUserHandler(svc.Users)
	eventHandler := handler.NewEventHandler(svc.Events)
	adminHandler := handler.NewAdminHandler(svc.Admin, svc.Contents)
	authRequired := middleware.AuthJWT(svc.Auth)
	limiter := middleware.NewRateLimiter(opts.AuthPerMinute, opts.AuthBurst)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", limiter.Middleware(), authHandler.Register)
	authGroup.POST("/login", limiter.Middleware(), authHandler.Login)
	authGroup.GET("/me", authRequired, authHandler.Me)

	userGroup := v1.Group("/users", authRequired)
	userGroup.GET("", userHandler.List)
	userGroup.GET("/me", userHandler.Me)
	userGroup.PATCH("/me", userHandler.UpdateMe)
	userGroup.GET("/me/profile", userHandler.Profile)
	userGroup.PATCH("/me/profile", userHandler.UpdateProfile)
	userGroup.PUT("/me/photo", userHandler.SetPhoto)
	userGroup.GET("/me/onboarding", userHandler.Onboarding)
	userGroup.GET("/:id", userHandler.Get)
	userGroup.DELETE("/:id", userHandler.Delete)

	eventGroup := v1.Group("/events", authRequired)
	eventGroup.GET("", eventHandler.List)
	eventGroup.POST("", eventHandler.Create)
	eventGroup.GET("/:id", eventHandler.Get)
	eventGroup.PATCH("/:id", eventHandler.Update)
	eventGroup.DELETE("/:id", eventHandler.Delete)
	eventGroup.PUT("/:id/image", eventHandler.SetImage)
	eventGroup.POST("/:id/join", eventHandler.Join)
	eventGroup.POST("/:id/leave", eventHandler.Leave)
	eventGroup.GET("/:id/participants", eventHandler.Participants)

	adminGroup := v1.Group("/admin", authRequired, middleware.RequireAdmin())
	adminGroup.GET("/users", adminHandler.ListUsers)
	adminGroup.GET("/users/:id", adminHandler.GetUser)
	adminGroup.PATCH("/users/:id", adminHandler.UpdateUser)
	adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
	adminGroup.POST("/users/:id/suspend", adminHandler.SuspendUser)
	adminGroup.POST("/users/:id/reactivate", adminHandler.ReactivateUser)
	adminGroup.GET("/events", adminHandler.ListEvents)
	adminGroup.DELETE("/events/:id", adminHandler.DeleteEvent)
	adminGroup.GET("/activities", adminHandler.ListActivities)
	adminGroup.GET("/content", adminHandler.ListContent)
	adminGroup.POST("/content", adminHandler.CreateContent)
	adminGroup.GET("/content/:key", adminHandler.GetContent)
	adminGroup.PATCH("/content/:key", adminHandler.UpdateContent)
	adminGroup.DELETE("/content/:key", adminHandler.DeleteContent)

	return router
}
