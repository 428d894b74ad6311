package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-api/internal/models"
	"github.com/noah-isme/sma-adp-api/internal/service"
	"github.com/noah-isme/sma-adp-api/pkg/export"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/response"
)

// ScheduleHandler manages schedule generation-run endpoints.
type ScheduleHandler struct {
	service *service.ScheduleService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc, csv: &export.CSVExporter{}, pdf: &export.PDFExporter{}}
}

// List returns schedules, optionally filtered by institution and status.
func (h *ScheduleHandler) List(c *gin.Context) {
	var filter models.ScheduleFilter
	filter.InstitutionID = c.Param("institutionId")
	if status := strings.ToUpper(c.Query("status")); status != "" {
		s := models.ScheduleStatus(status)
		filter.Status = &s
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	schedules, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// Get returns a single schedule's status and metadata.
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create starts a new generation run for an institution.
func (h *ScheduleHandler) Create(c *gin.Context) {
	req := service.CreateScheduleRequest{InstitutionID: c.Param("institutionId")}
	schedule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete removes a schedule and its placements.
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ScheduledActivities returns the placements produced by a COMPLETED run.
func (h *ScheduleHandler) ScheduledActivities(c *gin.Context) {
	placements, err := h.service.ScheduledActivities(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placements, nil)
}

// Export renders a schedule's placements as CSV or PDF (spec.md §6).
func (h *ScheduleHandler) Export(c *gin.Context) {
	id := c.Param("id")
	format := c.Param("format")

	placements, err := h.service.ScheduledActivities(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	dataset := export.Dataset{
		Headers: []string{"activity_id", "room_id", "start_timeslot", "active_weeks"},
	}
	for _, p := range placements {
		weeks, _ := p.ActiveWeekList()
		dataset.Rows = append(dataset.Rows, map[string]string{
			"activity_id":    p.ActivityID,
			"room_id":        p.RoomID,
			"start_timeslot": strconv.Itoa(p.StartTimeslot),
			"active_weeks":   fmt.Sprint(weeks),
		})
	}

	switch format {
	case "csv":
		body, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Data(http.StatusOK, "text/csv", body)
	case "pdf":
		body, err := h.pdf.Render(dataset, "Schedule "+id)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Data(http.StatusOK, "application/pdf", body)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
	}
}
