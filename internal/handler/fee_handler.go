package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/fee-api/internal/service"
	appErrors "github.com/campusops/fee-api/pkg/errors"
	"github.com/campusops/fee-api/pkg/response"
)

// FeeHandler exposes fee ledger endpoints.
type FeeHandler struct {
	fees    *service.FeeService
	metrics *service.MetricsService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees *service.FeeService, metrics *service.MetricsService) *FeeHandler {
	return &FeeHandler{fees: fees, metrics: metrics}
}

// GetLedger godoc
// @Summary Get a student's fee ledger
// @Tags Fees
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/ledger [get]
func (h *FeeHandler) GetLedger(c *gin.Context) {
	detail, err := h.fees.GetLedger(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ApplyConcession godoc
// @Summary Apply a fee concession
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.ConcessionRequest true "Concession payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees/concession [post]
func (h *FeeHandler) ApplyConcession(c *gin.Context) {
	var req service.ConcessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	ledger, err := h.fees.ApplyConcession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordLedgerMutation("concession")
	response.JSON(c, http.StatusOK, ledger, nil)
}

// MarkFullyPaid godoc
// @Summary Mark a fee bucket fully paid
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.MarkPaidRequest true "Mark-paid payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees/mark-paid [post]
func (h *FeeHandler) MarkFullyPaid(c *gin.Context) {
	var req service.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	ledger, err := h.fees.MarkFullyPaid(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordLedgerMutation("mark_paid")
	response.JSON(c, http.StatusOK, ledger, nil)
}

// AssignFee godoc
// @Summary Assign or overwrite a fee record
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.AssignFeeRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees/assign [post]
func (h *FeeHandler) AssignFee(c *gin.Context) {
	var req service.AssignFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	ledger, err := h.fees.AssignFee(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordLedgerMutation("assign")
	response.JSON(c, http.StatusOK, ledger, nil)
}

// RolloutGovernmentFees godoc
// @Summary Roll out a government fee structure to a cohort
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.GovFeeRolloutRequest true "Rollout payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /fees/government-rollout [post]
func (h *FeeHandler) RolloutGovernmentFees(c *gin.Context) {
	var req service.GovFeeRolloutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.fees.RolloutGovernmentFees(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordLedgerMutation("government_rollout")
	response.JSON(c, http.StatusOK, result, nil)
}
