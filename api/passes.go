package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/Domenick1991/compoundaccess/internal/service/passes"
	"github.com/gin-gonic/gin"
)

type PassHandler struct {
	service passes.PassUseCase
}

type issuePassRequest struct {
	ResidentID        string     `json:"resident_id" binding:"required"`
	UnitNumber        string     `json:"unit_number" binding:"required"`
	CompoundName      string     `json:"compound_name"`
	VisitorName       string     `json:"visitor_name" binding:"required"`
	VisitorPhone      string     `json:"visitor_phone"`
	VisitPurpose      string     `json:"visit_purpose"`
	ExpectedArrival   time.Time  `json:"expected_arrival" binding:"required"`
	ExpectedDeparture *time.Time `json:"expected_departure"`
}

type scanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

type passResponse struct {
	ID                string  `json:"id"`
	ResidentID        string  `json:"resident_id"`
	UnitNumber        string  `json:"unit_number"`
	CompoundName      string  `json:"compound_name"`
	VisitorName       string  `json:"visitor_name"`
	VisitorPhone      string  `json:"visitor_phone,omitempty"`
	VisitPurpose      string  `json:"visit_purpose,omitempty"`
	ExpectedArrival   string  `json:"expected_arrival"`
	ExpectedDeparture *string `json:"expected_departure,omitempty"`
	Status            string  `json:"status"`
	QRPayload         string  `json:"qr_payload"`
	EntryTime         *string `json:"entry_time,omitempty"`
}

type checkInResponse struct {
	Pass         passResponse `json:"pass"`
	PriorStatus  string       `json:"prior_status"`
	CheckedInAt  string       `json:"checked_in_at"`
	VisitorName  string       `json:"visitor_name"`
	UnitNumber   string       `json:"unit_number"`
	CompoundName string       `json:"compound_name"`
}

func NewPassHandler(service passes.PassUseCase) *PassHandler {
	return &PassHandler{service: service}
}

// Register mounts the pass routes. scanLimit guards the gate scan endpoint.
func (h *PassHandler) Register(router *gin.RouterGroup, scanLimit ...gin.HandlerFunc) {
	router.POST("", h.issue)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.cancel)
	router.POST("/scan", append(scanLimit, h.scan)...)
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func newPassResponse(p *domain.VisitorPass) passResponse {
	return passResponse{
		ID:                p.ID,
		ResidentID:        p.ResidentID,
		UnitNumber:        p.UnitNumber,
		CompoundName:      p.CompoundName,
		VisitorName:       p.VisitorName,
		VisitorPhone:      p.VisitorPhone,
		VisitPurpose:      p.VisitPurpose,
		ExpectedArrival:   p.ExpectedArrival.Format(time.RFC3339),
		ExpectedDeparture: formatTime(p.ExpectedDeparture),
		Status:            string(p.Status),
		QRPayload:         p.QRPayload,
		EntryTime:         formatTime(p.EntryTime),
	}
}

func (h *PassHandler) issue(c *gin.Context) {
	var req issuePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pass, err := h.service.IssuePass(c.Request.Context(), passes.IssuePassInput{
		ResidentID:        req.ResidentID,
		UnitNumber:        req.UnitNumber,
		CompoundName:      req.CompoundName,
		VisitorName:       req.VisitorName,
		VisitorPhone:      req.VisitorPhone,
		VisitPurpose:      req.VisitPurpose,
		ExpectedArrival:   req.ExpectedArrival,
		ExpectedDeparture: req.ExpectedDeparture,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPassResponse(pass))
}

func (h *PassHandler) get(c *gin.Context) {
	pass, err := h.service.GetPass(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPassResponse(pass))
}

func (h *PassHandler) cancel(c *gin.Context) {
	pass, err := h.service.CancelPass(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPassResponse(pass))
}

func (h *PassHandler) scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.CheckIn(c.Request.Context(), req.Payload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkInResponse{
		Pass:         newPassResponse(&result.Pass),
		PriorStatus:  string(result.Transition.From),
		CheckedInAt:  result.Transition.At.Format(time.RFC3339),
		VisitorName:  result.Pass.VisitorName,
		UnitNumber:   result.Pass.UnitNumber,
		CompoundName: result.Pass.CompoundName,
	})
}
