package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusops/fee-api/internal/models"
	"github.com/campusops/fee-api/internal/service"
	"github.com/campusops/fee-api/pkg/response"
)

// AnalyticsHandler exposes collection analytics endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Dashboard godoc
// @Summary Collection dashboard stats
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	stats, err := h.analytics.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Defaulters godoc
// @Summary List fee defaulters
// @Tags Analytics
// @Produce json
// @Param department query string false "Filter by department"
// @Param year query int false "Filter by year"
// @Param feeType query string false "Filter by fee type"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analytics/defaulters [get]
func (h *AnalyticsHandler) Defaulters(c *gin.Context) {
	year := 0
	if v, err := strconv.Atoi(c.Query("year")); err == nil {
		year = v
	}
	rows, err := h.analytics.Defaulters(c.Request.Context(), c.Query("department"), year, models.FeeType(c.Query("feeType")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
