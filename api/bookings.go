package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/Domenick1991/compoundaccess/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	AmenityID  string `json:"amenity_id" binding:"required"`
	ResidentID string `json:"resident_id" binding:"required"`
	UnitNumber string `json:"unit_number" binding:"required"`
	Date       string `json:"date" binding:"required"`
	StartTime  string `json:"start_time" binding:"required"`
	EndTime    string `json:"end_time" binding:"required"`
	GuestCount int    `json:"guest_count"`
}

type bookingResponse struct {
	ID          string  `json:"id"`
	AmenityID   string  `json:"amenity_id"`
	ResidentID  string  `json:"resident_id"`
	UnitNumber  string  `json:"unit_number"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	GuestCount  int     `json:"guest_count"`
	Status      string  `json:"status"`
	TotalPrice  string  `json:"total_price"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PUT("/:id/confirm", h.confirm)
	router.DELETE("/:id", h.cancel)
}

func newBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:         b.ID,
		AmenityID:  b.AmenityID,
		ResidentID: b.ResidentID,
		UnitNumber: b.UnitNumber,
		Date:       b.Date.Format(domain.DateLayout),
		StartTime:  b.StartTime.String(),
		EndTime:    b.EndTime.String(),
		GuestCount: b.GuestCount,
		Status:     string(b.Status),
		TotalPrice: b.TotalPrice.StringFixed(2),
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
	}
	if b.CancelledAt != nil {
		at := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &at
	}
	return resp
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, err := domain.ParseTimeOfDay(req.StartTime)
	if err != nil {
		badRequest(c, fmt.Errorf("start_time: %w", err))
		return
	}
	end, err := domain.ParseTimeOfDay(req.EndTime)
	if err != nil {
		badRequest(c, fmt.Errorf("end_time: %w", err))
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		AmenityID:  req.AmenityID,
		ResidentID: req.ResidentID,
		UnitNumber: req.UnitNumber,
		Date:       req.Date,
		StartTime:  start,
		EndTime:    end,
		GuestCount: req.GuestCount,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newBookingResponse(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) confirm(c *gin.Context) {
	b, err := h.service.ConfirmBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}
