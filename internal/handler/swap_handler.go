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

type swapService interface {
	Create(ctx context.Context, req dto.CreateSwapRequest, claims *models.JWTClaims) (*models.SwapRequestDetail, error)
	List(ctx context.Context, query dto.SwapQuery, claims *models.JWTClaims) ([]models.SwapRequestDetail, error)
	Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.SwapRequestDetail, error)
	ApproveFirst(ctx context.Context, id string, claims *models.JWTClaims) (*models.SwapRequestDetail, error)
	ApproveFinal(ctx context.Context, id string, claims *models.JWTClaims) (*models.SwapRequestDetail, error)
	Reject(ctx context.Context, id string, req dto.RejectSwapRequest, claims *models.JWTClaims) (*models.SwapRequestDetail, error)
}

// SwapHandler exposes REST endpoints for the swap request workflow.
type SwapHandler struct {
	service swapService
}

// NewSwapHandler constructs the handler.
func NewSwapHandler(service swapService) *SwapHandler {
	return &SwapHandler{service: service}
}

// Create godoc
// @Summary Request a schedule swap
// @Tags Swaps
// @Accept json
// @Produce json
// @Param payload body dto.CreateSwapRequest true "Swap payload"
// @Success 201 {object} response.Envelope
// @Router /schedules/swap-requests [post]
func (h *SwapHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid swap payload"))
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
// @Summary List swap requests
// @Tags Swaps
// @Produce json
// @Param status query string false "Swap status"
// @Param department_id query string false "Department filter"
// @Success 200 {object} response.Envelope
// @Router /schedules/swap-requests [get]
func (h *SwapHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.SwapQuery{
		Status:       strings.TrimSpace(c.Query("status")),
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
// @Summary Get swap request detail
// @Tags Swaps
// @Produce json
// @Param id path string true "Swap request ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/swap-requests/{id} [get]
func (h *SwapHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ApproveFirst godoc
// @Summary First approval step for a swap request
// @Tags Swaps
// @Produce json
// @Param id path string true "Swap request ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/swap-requests/{id}/approve-first [put]
func (h *SwapHandler) ApproveFirst(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.service.ApproveFirst(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ApproveFinal godoc
// @Summary Final approval for a swap request
// @Tags Swaps
// @Produce json
// @Param id path string true "Swap request ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/swap-requests/{id}/approve-final [put]
func (h *SwapHandler) ApproveFinal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.service.ApproveFinal(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Reject godoc
// @Summary Reject a swap request
// @Tags Swaps
// @Accept json
// @Produce json
// @Param id path string true "Swap request ID"
// @Param payload body dto.RejectSwapRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Router /schedules/swap-requests/{id}/reject [put]
func (h *SwapHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RejectSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "rejection_reason is required"))
		return
	}
	detail, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
