package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"taskboard-backend/config"
	"taskboard-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, server config.ServerConfig, auth config.AuthConfig) *gin.Engine {
	r := gin.Default()

	r.Use(mw.RateLimiter(rate.Limit(server.RateLimitPerSec), server.RateLimitBurst))

	ttl := time.Duration(server.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)
	authed := mw.Auth(auth.JWTSecret)

	r.GET("/api", h.Health)
	r.GET("/api/push/vapid_public_key", h.GetVAPIDPublicKey)

	// Live notification channel. Browsers pass the token as ?token= here.
	r.GET("/ws", authed, h.ServeWS)

	api := r.Group("/api")
	api.Use(authed)
	{
		api.GET("/notifications", h.ListNotifications)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)

		api.POST("/tasks", h.CreateTask)
		api.GET("/tasks", h.ListTasks)
		api.GET("/tasks/:id", h.GetTask)
		api.PATCH("/tasks/:id/status", h.UpdateTaskStatus)
		api.POST("/tasks/:id/share", h.ShareTask)

		api.GET("/analytics/overview", caching, h.GetOverview)

		api.PUT("/push/subscriptions", h.PutSubscription)
		api.DELETE("/push/subscriptions", h.DeleteSubscription)
	}

	return r
}
