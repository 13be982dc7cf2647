package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/open-sams/sams-api/internal/dto"
	"github.com/open-sams/sams-api/internal/models"
	appErrors "github.com/open-sams/sams-api/pkg/errors"
	"github.com/open-sams/sams-api/pkg/response"
)

type substitutionService interface {
	Create(ctx context.Context, req dto.CreateSubstitutionRequest, claims *models.JWTClaims) (*models.SubstitutionDetail, error)
	Get(ctx context.Context, id string) (*models.SubstitutionDetail, error)
	List(ctx context.Context, query dto.SubstitutionQuery, claims *models.JWTClaims) ([]models.SubstitutionDetail, error)
	Cancel(ctx context.Context, id string, claims *models.JWTClaims) (*models.SubstitutionDetail, error)
}

// SubstitutionHandler exposes REST endpoints for one-day replacements.
type SubstitutionHandler struct {
	service substitutionService
}

// NewSubstitutionHandler constructs the handler.
func NewSubstitutionHandler(service substitutionService) *SubstitutionHandler {
	return &SubstitutionHandler{service: service}
}

// Create godoc
// @Summary Record a substitution
// @Tags Substitutions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubstitutionRequest true "Substitution payload"
// @Success 201 {object} response.Envelope
// @Router /substitutions [post]
func (h *SubstitutionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateSubstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid substitution payload"))
		return
	}
	detail, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, detail, nil)
}

// List godoc
// @Summary List substitutions
// @Tags Substitutions
// @Produce json
// @Param date query string false "Date filter (YYYY-MM-DD)"
// @Param teacher_id query string false "Original teacher filter"
// @Param substitute_id query string false "Substitute teacher filter"
// @Param department_id query string false "Department filter"
// @Success 200 {object} response.Envelope
// @Router /substitutions [get]
func (h *SubstitutionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.SubstitutionQuery{
		Date:         strings.TrimSpace(c.Query("date")),
		TeacherID:    strings.TrimSpace(c.Query("teacher_id")),
		SubstituteID: strings.TrimSpace(c.Query("substitute_id")),
		DepartmentID: strings.TrimSpace(c.Query("department_id")),
	}
	list, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Get godoc
// @Summary Get substitution detail
// @Tags Substitutions
// @Produce json
// @Param id path string true "Substitution ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id} [get]
func (h *SubstitutionHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Cancel godoc
// @Summary Cancel an active substitution
// @Tags Substitutions
// @Produce json
// @Param id path string true "Substitution ID"
// @Success 200 {object} response.Envelope
// @Router /substitutions/{id}/cancel [post]
func (h *SubstitutionHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.service.Cancel(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
