package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"carpool/internal/infra/config"
	"carpool/internal/infra/obs"
)

type RideHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Start(c *gin.Context)
	Complete(c *gin.Context)
	Cancel(c *gin.Context)
	ListMine(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Accept(c *gin.Context)
	Reject(c *gin.Context)
	Cancel(c *gin.Context)
	ListMine(c *gin.Context)
	Inbox(c *gin.Context)
}

type RatingHTTP interface {
	Eligibility(c *gin.Context)
	Submit(c *gin.Context)
	ListForUser(c *gin.Context)
}

type Handlers struct {
	Ride               RideHTTP
	Booking            BookingHTTP
	Rating             RatingHTTP
	IdentityMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.IdentityMiddleware != nil {
		router.Use(h.IdentityMiddleware)
	}

	registerSwaggerRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Ride != nil {
		api.GET("/rides", h.Ride.Search)
		api.POST("/rides", h.Ride.Create)
		api.GET("/rides/:id", h.Ride.Get)
		api.PUT("/rides/:id", h.Ride.Update)
		api.DELETE("/rides/:id", h.Ride.Delete)
		api.POST("/rides/:id/start", h.Ride.Start)
		api.POST("/rides/:id/complete", h.Ride.Complete)
		api.POST("/rides/:id/cancel", h.Ride.Cancel)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/accept", h.Booking.Accept)
		api.POST("/bookings/:id/reject", h.Booking.Reject)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Rating != nil {
		api.GET("/bookings/:id/rating-eligibility", h.Rating.Eligibility)
		api.POST("/bookings/:id/ratings", h.Rating.Submit)
		api.GET("/users/:id/ratings", h.Rating.ListForUser)
	}

	meGroup := api.Group("/me")
	if h.Ride != nil {
		meGroup.GET("/rides", h.Ride.ListMine)
	}
	if h.Booking != nil {
		meGroup.GET("/bookings", h.Booking.ListMine)
		meGroup.GET("/ride-bookings", h.Booking.Inbox)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
