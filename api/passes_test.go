package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/compoundaccess/internal/domain"
	"github.com/Domenick1991/compoundaccess/internal/service/passes"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPassUseCase struct {
	mock.Mock
}

func (m *MockPassUseCase) IssuePass(ctx context.Context, input passes.IssuePassInput) (*domain.VisitorPass, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VisitorPass), args.Error(1)
}

func (m *MockPassUseCase) GetPass(ctx context.Context, id string) (*domain.VisitorPass, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VisitorPass), args.Error(1)
}

func (m *MockPassUseCase) CheckIn(ctx context.Context, scanned string) (*domain.CheckInResult, error) {
	args := m.Called(ctx, scanned)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckInResult), args.Error(1)
}

func (m *MockPassUseCase) CancelPass(ctx context.Context, id string) (*domain.VisitorPass, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VisitorPass), args.Error(1)
}

func (m *MockPassUseCase) ActivateDuePasses(ctx context.Context) ([]domain.VisitorPass, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.VisitorPass), args.Error(1)
}

func (m *MockPassUseCase) ExpireOverduePasses(ctx context.Context) ([]domain.VisitorPass, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.VisitorPass), args.Error(1)
}

var arrival = time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)

func samplePass(status domain.PassStatus) *domain.VisitorPass {
	return &domain.VisitorPass{
		ID:              "5f0c7a3e-8f7d-4d4b-9a53-3c2b1f8e6a10",
		ResidentID:      "resident-1",
		UnitNumber:      "B-204",
		CompoundName:    "Palm Hills",
		VisitorName:     "Omar Said",
		ExpectedArrival: arrival,
		Status:          status,
		QRPayload:       `{"id":"5f0c7a3e-8f7d-4d4b-9a53-3c2b1f8e6a10"}`,
	}
}

func TestPassHandler_issue(t *testing.T) {
	mockService := &MockPassUseCase{}
	handler := NewPassHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = jsonRequest("POST", "/api/passes", map[string]any{
		"resident_id":      "resident-1",
		"unit_number":      "B-204",
		"compound_name":    "Palm Hills",
		"visitor_name":     "Omar Said",
		"expected_arrival": "2026-10-16T18:00:00Z",
	})

	input := passes.IssuePassInput{
		ResidentID:      "resident-1",
		UnitNumber:      "B-204",
		CompoundName:    "Palm Hills",
		VisitorName:     "Omar Said",
		ExpectedArrival: arrival,
	}
	mockService.On("IssuePass", c.Request.Context(), mock.MatchedBy(func(in passes.IssuePassInput) bool {
		return in.ExpectedArrival.Equal(input.ExpectedArrival) && in.VisitorName == input.VisitorName &&
			in.UnitNumber == input.UnitNumber && in.ExpectedDeparture == nil
	})).Return(samplePass(domain.PassStatusPending), nil)

	handler.issue(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response passResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "PENDING", response.Status)
	assert.Equal(t, "2026-10-16T18:00:00Z", response.ExpectedArrival)
	assert.NotEmpty(t, response.QRPayload)
	mockService.AssertExpectations(t)
}

func TestPassHandler_issue_BadRequest(t *testing.T) {
	mockService := &MockPassUseCase{}
	handler := NewPassHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/passes", map[string]any{"resident_id": "resident-1"})

	handler.issue(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "IssuePass", mock.Anything, mock.Anything)
}

func TestPassHandler_scan(t *testing.T) {
	mockService := &MockPassUseCase{}
	handler := NewPassHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	payload := samplePass(domain.PassStatusPending).QRPayload
	c.Request = jsonRequest("POST", "/api/passes/scan", scanRequest{Payload: payload})

	entry := time.Date(2026, 10, 16, 17, 45, 0, 0, time.UTC)
	used := samplePass(domain.PassStatusUsed)
	used.EntryTime = &entry
	result := &domain.CheckInResult{
		Pass:       *used,
		Transition: domain.PassTransition{PassID: used.ID, From: domain.PassStatusPending, To: domain.PassStatusUsed, At: entry},
	}
	mockService.On("CheckIn", c.Request.Context(), payload).Return(result, nil)

	handler.scan(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response checkInResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "USED", response.Pass.Status)
	assert.Equal(t, "PENDING", response.PriorStatus)
	assert.Equal(t, "2026-10-16T17:45:00Z", response.CheckedInAt)
	assert.Equal(t, "Omar Said", response.VisitorName)
	assert.Equal(t, "B-204", response.UnitNumber)
	mockService.AssertExpectations(t)
}

func TestPassHandler_scan_Errors(t *testing.T) {
	testCases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrInvalidPassFormat, http.StatusBadRequest, "INVALID_PASS_FORMAT"},
		{domain.ErrPassNotFound, http.StatusNotFound, "PASS_NOT_FOUND"},
		{domain.ErrPassCancelled, http.StatusGone, "PASS_CANCELLED"},
		{domain.ErrPassExpired, http.StatusGone, "PASS_EXPIRED"},
		{domain.ErrAlreadyCheckedIn, http.StatusConflict, "ALREADY_CHECKED_IN"},
	}

	for _, tc := range testCases {
		t.Run(tc.code, func(t *testing.T) {
			mockService := &MockPassUseCase{}
			handler := NewPassHandler(mockService)

			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = jsonRequest("POST", "/api/passes/scan", scanRequest{Payload: "scanned"})

			mockService.On("CheckIn", c.Request.Context(), "scanned").Return(nil, tc.err)

			handler.scan(c)

			assert.Equal(t, tc.status, w.Code)
			var response errorResponse
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tc.code, response.Code)
		})
	}
}

func TestPassHandler_scan_MissingPayload(t *testing.T) {
	mockService := &MockPassUseCase{}
	handler := NewPassHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/passes/scan", map[string]string{})

	handler.scan(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CheckIn", mock.Anything, mock.Anything)
}

func TestPassHandler_cancel(t *testing.T) {
	mockService := &MockPassUseCase{}
	handler := NewPassHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "p-1"}}
	c.Request = httptest.NewRequest("DELETE", "/api/passes/p-1", nil)

	mockService.On("CancelPass", c.Request.Context(), "p-1").Return(nil, domain.ErrAlreadyTerminal)

	handler.cancel(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_TERMINAL")
}

func TestPassHandler_get(t *testing.T) {
	mockService := &MockPassUseCase{}
	handler := NewPassHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "p-1"}}
	c.Request = httptest.NewRequest("GET", "/api/passes/p-1", nil)

	mockService.On("GetPass", c.Request.Context(), "p-1").Return(samplePass(domain.PassStatusActive), nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response passResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ACTIVE", response.Status)
	assert.Nil(t, response.EntryTime)
}
