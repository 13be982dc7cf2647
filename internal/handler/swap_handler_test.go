package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-sams/sams-api/internal/dto"
	"github.com/open-sams/sams-api/internal/middleware"
	"github.com/open-sams/sams-api/internal/models"
	appErrors "github.com/open-sams/sams-api/pkg/errors"
)

type swapServiceMock struct {
	createResp  *models.SwapRequestDetail
	createErr   error
	listResp    []models.SwapRequestDetail
	listErr     error
	getResp     *models.SwapRequestDetail
	getErr      error
	decideResp  *models.SwapRequestDetail
	decideErr   error
	lastQuery   dto.SwapQuery
	lastID      string
	lastReject  dto.RejectSwapRequest
	createCall  bool
	approveCall bool
	rejectCall  bool
}

func (m *swapServiceMock) Create(ctx context.Context, req dto.CreateSwapRequest, claims *models.JWTClaims) (*models.SwapRequestDetail, error) {
	m.createCall = true
	return m.createResp, m.createErr
}

func (m *swapServiceMock) List(ctx context.Context, query dto.SwapQuery, claims *models.JWTClaims) ([]models.SwapRequestDetail, error) {
	m.lastQuery = query
	return m.listResp, m.listErr
}

func (m *swapServiceMock) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.SwapRequestDetail, error) {
	m.lastID = id
	return m.getResp, m.getErr
}

func (m *swapServiceMock) ApproveFirst(ctx context.Context, id string, claims *models.JWTClaims) (*models.SwapRequestDetail, error) {
	m.approveCall = true
	m.lastID = id
	return m.decideResp, m.decideErr
}

func (m *swapServiceMock) ApproveFinal(ctx context.Context, id string, claims *models.JWTClaims) (*models.SwapRequestDetail, error) {
	m.approveCall = true
	m.lastID = id
	return m.decideResp, m.decideErr
}

func (m *swapServiceMock) Reject(ctx context.Context, id string, req dto.RejectSwapRequest, claims *models.JWTClaims) (*models.SwapRequestDetail, error) {
	m.rejectCall = true
	m.lastID = id
	m.lastReject = req
	return m.decideResp, m.decideErr
}

func swapDetail(status models.SwapStatus) *models.SwapRequestDetail {
	d := &models.SwapRequestDetail{}
	d.ID = "swap-1"
	d.Status = status
	return d
}

func headClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "head-1", Role: models.RoleDepartmentHead}
}

func TestSwapHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &swapServiceMock{createResp: swapDetail(models.SwapStatusPending)}
	handler := NewSwapHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateSwapRequest{OriginalEntryID: "entry-1", TargetEntryID: "entry-2"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/swap-requests", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, headClaims())

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCall)
}

func TestSwapHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &swapServiceMock{}
	handler := NewSwapHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/swap-requests", bytes.NewBufferString(`{"original_entry_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, headClaims())

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.createCall)
}

func TestSwapHandlerCreateMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSwapHandler(&swapServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/swap-requests", bytes.NewBufferString(`{}`))
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSwapHandlerListPassesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &swapServiceMock{listResp: []models.SwapRequestDetail{*swapDetail(models.SwapStatusPending)}}
	handler := NewSwapHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedules/swap-requests?status=pending&department_id=dept-sci", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, headClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", mockSvc.lastQuery.Status)
	assert.Equal(t, "dept-sci", mockSvc.lastQuery.DepartmentID)
}

func TestSwapHandlerApproveFirstServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &swapServiceMock{decideErr: appErrors.InvalidTransition("approved")}
	handler := NewSwapHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/schedules/swap-requests/swap-1/approve-first", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "swap-1"}}
	c.Set(middleware.ContextUserKey, headClaims())

	handler.ApproveFirst(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "swap-1", mockSvc.lastID)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, appErrors.CodeInvalidTransition, body.Error.Code)
	assert.Equal(t, "request is already approved", body.Error.Message)
}

func TestSwapHandlerApproveFinal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &swapServiceMock{decideResp: swapDetail(models.SwapStatusApproved)}
	handler := NewSwapHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/schedules/swap-requests/swap-1/approve-final", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "swap-1"}}
	c.Set(middleware.ContextUserKey, headClaims())

	handler.ApproveFinal(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.approveCall)
}

func TestSwapHandlerRejectRequiresReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &swapServiceMock{decideResp: swapDetail(models.SwapStatusRejected)}
	handler := NewSwapHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/schedules/swap-requests/swap-1/reject", bytes.NewBufferString(`not-json`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "swap-1"}}
	c.Set(middleware.ContextUserKey, headClaims())

	handler.Reject(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.rejectCall)
}

func TestSwapHandlerReject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &swapServiceMock{decideResp: swapDetail(models.SwapStatusRejected)}
	handler := NewSwapHandler(mockSvc)

	payload, _ := json.Marshal(dto.RejectSwapRequest{RejectionReason: "slot already covered"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/schedules/swap-requests/swap-1/reject", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "swap-1"}}
	c.Set(middleware.ContextUserKey, headClaims())

	handler.Reject(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.rejectCall)
	assert.Equal(t, "slot already covered", mockSvc.lastReject.RejectionReason)
}

func TestSwapHandlerGetForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &swapServiceMock{getErr: appErrors.ErrForbidden}
	handler := NewSwapHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedules/swap-requests/swap-9", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "swap-9"}}
	c.Set(middleware.ContextUserKey, headClaims())

	handler.Get(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "swap-9", mockSvc.lastID)
}
