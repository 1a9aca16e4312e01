package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/gin-gonic/gin"
)

type PushSubscriptions interface {
	Upsert(ctx context.Context, sub domain.PushSubscription) error
	Delete(ctx context.Context, endpoint string) error
}

type PushHandler struct {
	store PushSubscriptions
	now   func() time.Time
}

// subscribeRequest mirrors the browser's PushSubscription.toJSON().
type subscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256DH string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func NewPushHandler(store PushSubscriptions) *PushHandler {
	return &PushHandler{store: store, now: time.Now}
}

func (h *PushHandler) Register(router *gin.RouterGroup) {
	router.PUT("/:id/push-subscriptions", h.subscribe)
	router.DELETE("/:id/push-subscriptions", h.unsubscribe)
}

func (h *PushHandler) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.store.Upsert(c.Request.Context(), domain.PushSubscription{
		Endpoint:   req.Endpoint,
		ResidentID: c.Param("id"),
		P256DH:     req.Keys.P256DH,
		Auth:       req.Keys.Auth,
		CreatedAt:  h.now(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PushHandler) unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.store.Delete(c.Request.Context(), req.Endpoint); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
