package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusops/fee-api/internal/models"
	"github.com/campusops/fee-api/internal/service"
	appErrors "github.com/campusops/fee-api/pkg/errors"
	"github.com/campusops/fee-api/pkg/response"
)

// NotificationHandler exposes exam notification endpoints.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary List exam notifications
// @Tags Notifications
// @Produce json
// @Param year query int false "Filter by year"
// @Param semester query int false "Filter by semester"
// @Param batch query string false "Filter by target batch"
// @Param examType query string false "Filter by exam type"
// @Param active query bool false "Only active windows"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var filter models.NotificationFilter
	if year, err := strconv.Atoi(c.Query("year")); err == nil {
		filter.Year = year
	}
	if semester, err := strconv.Atoi(c.Query("semester")); err == nil {
		filter.Semester = semester
	}
	filter.Batch = c.Query("batch")
	filter.ExamType = models.ExamType(c.Query("examType"))
	filter.ActiveOnly = c.Query("active") == "true"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	notifications, total, err := h.notifications.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, models.NewPagination(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get an exam notification
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/{id} [get]
func (h *NotificationHandler) Get(c *gin.Context) {
	n, err := h.notifications.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, n, nil)
}

// Create godoc
// @Summary Open a new exam registration window
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body service.CreateNotificationRequest true "Notification payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var req service.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	n, err := h.notifications.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, n)
}

// Extend godoc
// @Summary Extend or toggle an exam notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param id path string true "Notification ID"
// @Param payload body models.NotificationExtension true "Extension payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/{id}/extend [put]
func (h *NotificationHandler) Extend(c *gin.Context) {
	var req models.NotificationExtension
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	n, err := h.notifications.Extend(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, n, nil)
}

// Delete godoc
// @Summary Delete an exam notification
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Security BearerAuth
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.notifications.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
