package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/compoundaccess/api"
	"github.com/Domenick1991/compoundaccess/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandlers() api.Handlers {
	return api.Handlers{
		Amenities: api.NewAmenityHandler(nil, nil),
		Bookings:  api.NewBookingHandler(nil),
		Passes:    api.NewPassHandler(nil),
		Push:      api.NewPushHandler(nil),
	}
}

func TestNewServer(t *testing.T) {
	cfg := &config.Config{HTTP: config.HTTPConfig{Address: ":0", RateLimitPerSec: 1, RateLimitBurst: 1}}

	srv := newServer(cfg, testHandlers())
	assert.Equal(t, ":0", srv.Addr)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := &config.Config{HTTP: config.HTTPConfig{Address: "127.0.0.1:0", RateLimitPerSec: 1, RateLimitBurst: 1}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, testHandlers()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * shutdownTimeout):
		t.Fatal("server did not stop")
	}
}
