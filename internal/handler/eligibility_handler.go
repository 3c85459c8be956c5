package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusops/fee-api/internal/service"
	"github.com/campusops/fee-api/pkg/response"
)

// EligibilityHandler exposes fee-clearance and registration checks.
type EligibilityHandler struct {
	eligibility *service.EligibilityService
	metrics     *service.MetricsService
}

// NewEligibilityHandler constructs EligibilityHandler.
func NewEligibilityHandler(eligibility *service.EligibilityService, metrics *service.MetricsService) *EligibilityHandler {
	return &EligibilityHandler{eligibility: eligibility, metrics: metrics}
}

// Snapshot godoc
// @Summary Get a student's fee clearance snapshot
// @Tags Eligibility
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/eligibility [get]
func (h *EligibilityHandler) Snapshot(c *gin.Context) {
	snap, err := h.eligibility.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, nil)
}

// CheckRegistration godoc
// @Summary Check exam registration for a student against a notification
// @Tags Eligibility
// @Produce json
// @Param id path string true "Student ID"
// @Param notificationId path string true "Exam notification ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/exam-registration/{notificationId} [get]
func (h *EligibilityHandler) CheckRegistration(c *gin.Context) {
	decision, err := h.eligibility.CheckRegistration(c.Request.Context(), c.Param("id"), c.Param("notificationId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordRegistrationCheck(decision.ReasonCode)
	response.JSON(c, http.StatusOK, decision, nil)
}
