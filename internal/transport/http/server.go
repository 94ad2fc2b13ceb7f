package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	appsvc "identity-service/internal/app"
	"identity-service/internal/bootstrap"
	"identity-service/internal/cache"
	"identity-service/internal/pkg/password"
	"identity-service/internal/platform/rabbitmq"
	"identity-service/internal/repository"
	"identity-service/internal/transport/http/handler"
	"identity-service/internal/transport/http/middleware"
)

// NewHandler returns the router wrapped with CORS for the configured
// browser origins.
func NewHandler(app *bootstrap.App) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: app.Config.CORS.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", middleware.HeaderRequestID},
		ExposedHeaders: []string{middleware.HeaderRequestID},
	})
	return c.Handler(NewRouter(app))
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLog(app.Logger),
		middleware.Recovery(app.Logger),
	)

	hashCfg := app.Config.Hash
	hasher := password.NewHasher(password.Params{
		N:      hashCfg.N,
		R:      hashCfg.R,
		P:      hashCfg.P,
		KeyLen: hashCfg.KeyLen,
	})
	userRepo := repository.NewUserRepository(app.DB, hasher, hashCfg.SaltBytes)

	var opts []appsvc.UserServiceOption
	if app.Redis != nil {
		ttl := time.Duration(app.Config.Redis.UserTTLSeconds) * time.Second
		opts = append(opts, appsvc.WithUserCache(cache.NewUserCache(app.Redis, ttl)))
	}
	if app.MQConn != nil {
		opts = append(opts, appsvc.WithEventPublisher(rabbitmq.NewEventPublisher(app.MQConn, app.Config.RabbitMQ.Exchange)))
	}
	userService := appsvc.NewUserService(userRepo, hasher, app.Logger, opts...)

	healthHandler := handler.NewHealthHandler(app)
	userHandler := handler.NewUserHandler(userService, app.Logger)
	authHandler := handler.NewAuthHandler(userHandler)

	router.GET("/ping", healthHandler.Ping)
	router.GET("/healthz", healthHandler.Check)

	users := router.Group("/users")
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.PATCH("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	router.POST("/auth/login", authHandler.Login)

	return router
}
