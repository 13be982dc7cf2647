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

type scheduleServiceMock struct {
	createResp *models.ScheduleEntryDetail
	createErr  error
	getResp    *models.ScheduleEntryDetail
	getErr     error
	listResp   []models.ScheduleEntryDetail
	listErr    error
	updateResp *models.ScheduleEntryDetail
	updateErr  error
	deleteErr  error
	lastQuery  dto.ScheduleQuery
	lastActor  string
	lastID     string
}

func (m *scheduleServiceMock) Create(ctx context.Context, req dto.CreateScheduleEntryRequest, actorID string) (*models.ScheduleEntryDetail, error) {
	m.lastActor = actorID
	return m.createResp, m.createErr
}

func (m *scheduleServiceMock) Get(ctx context.Context, id string) (*models.ScheduleEntryDetail, error) {
	m.lastID = id
	return m.getResp, m.getErr
}

func (m *scheduleServiceMock) List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleEntryDetail, error) {
	m.lastQuery = query
	return m.listResp, m.listErr
}

func (m *scheduleServiceMock) Update(ctx context.Context, id string, req dto.UpdateScheduleEntryRequest, actorID string) (*models.ScheduleEntryDetail, error) {
	m.lastID = id
	m.lastActor = actorID
	return m.updateResp, m.updateErr
}

func (m *scheduleServiceMock) Delete(ctx context.Context, id, actorID string) error {
	m.lastID = id
	m.lastActor = actorID
	return m.deleteErr
}

func scheduleDetail() *models.ScheduleEntryDetail {
	d := &models.ScheduleEntryDetail{}
	d.ID = "entry-1"
	d.ClassName = "10A"
	return d
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleSystemAdmin}
}

func TestScheduleHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{createResp: scheduleDetail()}
	handler := NewScheduleHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateScheduleEntryRequest{
		ClassID: "class-1", SubjectID: "subject-1", TeacherUserID: "teacher-1",
		TimeSlotID: "slot-1", AcademicYear: "2026/2027",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "admin-1", mockSvc.lastActor)
}

func TestScheduleHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{createErr: appErrors.Clone(appErrors.ErrConflict, "the class already has an entry in that time slot for the academic year")}
	handler := NewScheduleHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateScheduleEntryRequest{
		ClassID: "class-1", SubjectID: "subject-1", TeacherUserID: "teacher-1",
		TimeSlotID: "slot-1", AcademicYear: "2026/2027",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestScheduleHandlerListPassesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{listResp: []models.ScheduleEntryDetail{*scheduleDetail()}}
	handler := NewScheduleHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedules?class_id=class-1&day_of_week=3", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "class-1", mockSvc.lastQuery.ClassID)
	assert.Equal(t, "3", mockSvc.lastQuery.DayOfWeek)
}

func TestScheduleHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{getErr: appErrors.ErrNotFound}
	handler := NewScheduleHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedules/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "missing", mockSvc.lastID)
}

func TestScheduleHandlerUpdateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/schedules/entry-1", bytes.NewBufferString(`{"class_id"`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "entry-1"}}
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{}
	handler := NewScheduleHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/schedules/entry-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "entry-1"}}
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.Delete(c)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "entry-1", mockSvc.lastID)
}
