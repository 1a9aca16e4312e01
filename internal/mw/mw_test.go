package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestCache(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.Use(Cache(store, time.Minute))
	r.GET("/slots", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	first := serve(r, http.MethodGet, "/slots?date=2026-10-17")
	second := serve(r, http.MethodGet, "/slots?date=2026-10-17")
	other := serve(r, http.MethodGet, "/slots?date=2026-10-18")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))
	assert.Equal(t, `{"calls":2}`, other.Body.String())
	assert.Equal(t, 2, calls)
}

func TestCache_SkipsErrorsAndDisabledTTL(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.GET("/missing", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.GET("/uncached", Cache(store, 0), func(c *gin.Context) {
		calls++
		c.Status(http.StatusOK)
	})

	serve(r, http.MethodGet, "/missing")
	serve(r, http.MethodGet, "/missing")
	serve(r, http.MethodGet, "/uncached")
	serve(r, http.MethodGet, "/uncached")

	assert.Equal(t, 4, calls)
	assert.Zero(t, store.ItemCount())
}

func TestInvalidate(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	store.Set("/api/amenities/pool/slots?date=2026-10-17", cachedResponse{status: http.StatusOK}, time.Minute)

	r := gin.New()
	r.Use(Invalidate(store))
	r.POST("/bookings/rejected", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.GET("/bookings/read", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/bookings", func(c *gin.Context) { c.Status(http.StatusCreated) })

	serve(r, http.MethodPost, "/bookings/rejected")
	serve(r, http.MethodGet, "/bookings/read")
	assert.Equal(t, 1, store.ItemCount())

	serve(r, http.MethodPost, "/bookings")
	assert.Zero(t, store.ItemCount())
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Every(time.Hour), 2))
	r.POST("/scan", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/scan").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/scan").Code)

	limited := serve(r, http.MethodPost, "/scan")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Contains(t, limited.Body.String(), "RATE_LIMITED")
}

func TestIPRateLimiter_PerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Every(time.Hour), 1)

	assert.Same(t, l.GetLimiter("10.0.0.1"), l.GetLimiter("10.0.0.1"))
	assert.True(t, l.GetLimiter("10.0.0.1").Allow())
	assert.False(t, l.GetLimiter("10.0.0.1").Allow())
	assert.True(t, l.GetLimiter("10.0.0.2").Allow())
}
