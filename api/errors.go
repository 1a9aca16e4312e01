package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error    string        `json:"error"`
	Code     string        `json:"code"`
	Conflict *slotResponse `json:"conflict,omitempty"`
}

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{domain.ErrDateOutOfWindow, http.StatusUnprocessableEntity, "DATE_OUT_OF_WINDOW"},
	{domain.ErrInvalidDuration, http.StatusUnprocessableEntity, "INVALID_DURATION"},
	{domain.ErrOutsideOperatingHours, http.StatusUnprocessableEntity, "OUTSIDE_OPERATING_HOURS"},
	{domain.ErrCapacityExceeded, http.StatusUnprocessableEntity, "CAPACITY_EXCEEDED"},
	{domain.ErrAmenityInactive, http.StatusUnprocessableEntity, "AMENITY_INACTIVE"},
	{domain.ErrSlotConflict, http.StatusConflict, "SLOT_CONFLICT"},
	{domain.ErrInvalidPassFormat, http.StatusBadRequest, "INVALID_PASS_FORMAT"},
	{domain.ErrPassNotFound, http.StatusNotFound, "PASS_NOT_FOUND"},
	{domain.ErrPassCancelled, http.StatusGone, "PASS_CANCELLED"},
	{domain.ErrPassExpired, http.StatusGone, "PASS_EXPIRED"},
	{domain.ErrAlreadyCheckedIn, http.StatusConflict, "ALREADY_CHECKED_IN"},
	{domain.ErrAlreadyTerminal, http.StatusConflict, "ALREADY_TERMINAL"},
	{domain.ErrAmenityNotFound, http.StatusNotFound, "AMENITY_NOT_FOUND"},
	{domain.ErrBookingNotFound, http.StatusNotFound, "BOOKING_NOT_FOUND"},
	{domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
}

func writeError(c *gin.Context, err error) {
	for _, e := range errorStatuses {
		if !errors.Is(err, e.err) {
			continue
		}
		resp := errorResponse{Error: err.Error(), Code: e.code}
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) && conflict.Existing.Start < conflict.Existing.End {
			slot := newSlotResponse(conflict.Existing)
			resp.Conflict = &slot
		}
		c.JSON(e.status, resp)
		return
	}

	log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "INTERNAL"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "INVALID_INPUT"})
}
