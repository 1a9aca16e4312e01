package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/Domenick1991/compoundaccess/internal/service/amenities"
	"github.com/Domenick1991/compoundaccess/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type AmenityHandler struct {
	amenities amenities.AmenityUseCase
	bookings  booking.BookingUseCase
}

type openingHoursResponse struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

type amenityResponse struct {
	ID                 string                          `json:"id"`
	Name               string                          `json:"name"`
	CompoundName       string                          `json:"compound_name"`
	Capacity           int                             `json:"capacity"`
	OperatingHours     map[string]openingHoursResponse `json:"operating_hours"`
	AdvanceBookingDays int                             `json:"advance_booking_days"`
	MaxBookingHours    int                             `json:"max_booking_hours"`
	SlotMinutes        int                             `json:"slot_minutes"`
	PricePerHour       *string                         `json:"price_per_hour"`
	ConfirmationPolicy string                          `json:"confirmation_policy"`
	IsActive           bool                            `json:"is_active"`
}

type slotResponse struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type slotsResponse struct {
	AmenityID string         `json:"amenity_id"`
	Date      string         `json:"date"`
	Slots     []slotResponse `json:"slots"`
}

func NewAmenityHandler(amenities amenities.AmenityUseCase, bookings booking.BookingUseCase) *AmenityHandler {
	return &AmenityHandler{amenities: amenities, bookings: bookings}
}

func (h *AmenityHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/slots", h.slots)
}

func newAmenityResponse(a *domain.Amenity) amenityResponse {
	hours := make(map[string]openingHoursResponse, len(a.OperatingHours))
	for day, h := range a.OperatingHours {
		hours[day.String()] = openingHoursResponse{Open: h.Open.String(), Close: h.Close.String()}
	}
	resp := amenityResponse{
		ID:                 a.ID,
		Name:               a.Name,
		CompoundName:       a.CompoundName,
		Capacity:           a.Capacity,
		OperatingHours:     hours,
		AdvanceBookingDays: a.AdvanceBookingDays,
		MaxBookingHours:    a.MaxBookingHours,
		SlotMinutes:        int(a.SlotWidth() / time.Minute),
		ConfirmationPolicy: string(a.ConfirmationPolicy),
		IsActive:           a.IsActive,
	}
	if !a.IsFree() {
		price := a.PricePerHour.Decimal.StringFixed(2)
		resp.PricePerHour = &price
	}
	return resp
}

func newSlotResponse(s domain.TimeSlot) slotResponse {
	return slotResponse{Date: s.Date.Format(domain.DateLayout), Start: s.Start.String(), End: s.End.String()}
}

func (h *AmenityHandler) list(c *gin.Context) {
	list, err := h.amenities.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]amenityResponse, 0, len(list))
	for i := range list {
		resp = append(resp, newAmenityResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AmenityHandler) get(c *gin.Context) {
	amenity, err := h.amenities.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAmenityResponse(amenity))
}

func (h *AmenityHandler) slots(c *gin.Context) {
	date, err := domain.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD", Code: "INVALID_INPUT"})
		return
	}

	id := c.Param("id")
	slots, err := h.bookings.ListAvailableSlots(c.Request.Context(), id, date)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := slotsResponse{AmenityID: id, Date: date.Format(domain.DateLayout), Slots: make([]slotResponse, 0, len(slots))}
	for _, s := range slots {
		resp.Slots = append(resp.Slots, newSlotResponse(s))
	}
	c.JSON(http.StatusOK, resp)
}
