package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/compoundaccess/config"
	"github.com/Domenick1991/compoundaccess/internal/mw"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

type Handlers struct {
	Amenities *AmenityHandler
	Bookings  *BookingHandler
	Passes    *PassHandler
	Push      *PushHandler
}

// NewRouter mounts every handler under /api. Availability reads are cached
// briefly and the cache is dropped whenever a booking changes.
func NewRouter(h Handlers, cfg config.HTTPConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	store := cache.New(ttl, 2*ttl)

	api := router.Group("/api")
	h.Amenities.Register(api.Group("/amenities", mw.Cache(store, ttl)))
	h.Bookings.Register(api.Group("/bookings", mw.Invalidate(store)))
	h.Passes.Register(api.Group("/passes"), mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst))
	h.Push.Register(api.Group("/residents"))

	return router
}
