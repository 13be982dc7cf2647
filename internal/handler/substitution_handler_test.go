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

type substitutionServiceMock struct {
	createResp *models.SubstitutionDetail
	createErr  error
	getResp    *models.SubstitutionDetail
	getErr     error
	listResp   []models.SubstitutionDetail
	listErr    error
	cancelResp *models.SubstitutionDetail
	cancelErr  error
	lastQuery  dto.SubstitutionQuery
	lastID     string
	createCall bool
}

func (m *substitutionServiceMock) Create(ctx context.Context, req dto.CreateSubstitutionRequest, claims *models.JWTClaims) (*models.SubstitutionDetail, error) {
	m.createCall = true
	return m.createResp, m.createErr
}

func (m *substitutionServiceMock) Get(ctx context.Context, id string) (*models.SubstitutionDetail, error) {
	m.lastID = id
	return m.getResp, m.getErr
}

func (m *substitutionServiceMock) List(ctx context.Context, query dto.SubstitutionQuery, claims *models.JWTClaims) ([]models.SubstitutionDetail, error) {
	m.lastQuery = query
	return m.listResp, m.listErr
}

func (m *substitutionServiceMock) Cancel(ctx context.Context, id string, claims *models.JWTClaims) (*models.SubstitutionDetail, error) {
	m.lastID = id
	return m.cancelResp, m.cancelErr
}

func substitutionDetail(status models.SubstitutionStatus) *models.SubstitutionDetail {
	d := &models.SubstitutionDetail{}
	d.ID = "sub-1"
	d.Status = status
	return d
}

func TestSubstitutionHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &substitutionServiceMock{createResp: substitutionDetail(models.SubstitutionActive)}
	handler := NewSubstitutionHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateSubstitutionRequest{
		OriginalScheduleEntryID: "entry-1",
		SubstituteTeacherUserID: "teacher-2",
		SubstitutionDate:        "2026-09-07",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/substitutions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, headClaims())

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCall)
}

func TestSubstitutionHandlerCreateDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &substitutionServiceMock{createErr: appErrors.Clone(appErrors.ErrConflict, "an active substitution already exists for this entry on that date")}
	handler := NewSubstitutionHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateSubstitutionRequest{
		OriginalScheduleEntryID: "entry-1",
		SubstituteTeacherUserID: "teacher-2",
		SubstitutionDate:        "2026-09-07",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/substitutions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, headClaims())

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestSubstitutionHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &substitutionServiceMock{}
	handler := NewSubstitutionHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/substitutions", bytes.NewBufferString(`{"substitution_date"`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, headClaims())

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.createCall)
}

func TestSubstitutionHandlerListPassesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &substitutionServiceMock{listResp: []models.SubstitutionDetail{*substitutionDetail(models.SubstitutionActive)}}
	handler := NewSubstitutionHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/substitutions?date=2026-09-07&teacher_id=teacher-1", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, headClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-09-07", mockSvc.lastQuery.Date)
	assert.Equal(t, "teacher-1", mockSvc.lastQuery.TeacherID)
}

func TestSubstitutionHandlerCancelAlreadyCancelled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &substitutionServiceMock{cancelErr: appErrors.Clone(appErrors.ErrInvalidTransition, "substitution is already cancelled")}
	handler := NewSubstitutionHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/substitutions/sub-1/cancel", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	c.Set(middleware.ContextUserKey, headClaims())

	handler.Cancel(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "sub-1", mockSvc.lastID)
}

func TestSubstitutionHandlerCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &substitutionServiceMock{cancelResp: substitutionDetail(models.SubstitutionCancelled)}
	handler := NewSubstitutionHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/substitutions/sub-1/cancel", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	c.Set(middleware.ContextUserKey, headClaims())

	handler.Cancel(c)
	require.Equal(t, http.StatusOK, w.Code)
}
