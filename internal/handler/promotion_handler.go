package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/fee-api/internal/service"
	appErrors "github.com/campusops/fee-api/pkg/errors"
	"github.com/campusops/fee-api/pkg/response"
)

// PromotionHandler exposes year promotion endpoints.
type PromotionHandler struct {
	promotions *service.PromotionService
}

// NewPromotionHandler constructs PromotionHandler.
func NewPromotionHandler(promotions *service.PromotionService) *PromotionHandler {
	return &PromotionHandler{promotions: promotions}
}

// Preview godoc
// @Summary Preview promotion eligibility for a cohort
// @Tags Promotions
// @Accept json
// @Produce json
// @Param payload body service.PromotionRequest true "Cohort scope"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /promotions/preview [post]
func (h *PromotionHandler) Preview(c *gin.Context) {
	var req service.PromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	rows, err := h.promotions.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Execute godoc
// @Summary Promote the fee-clear students of a cohort
// @Tags Promotions
// @Accept json
// @Produce json
// @Param payload body service.PromotionRequest true "Cohort scope"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /promotions/execute [post]
func (h *PromotionHandler) Execute(c *gin.Context) {
	var req service.PromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	outcome, err := h.promotions.Execute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}
