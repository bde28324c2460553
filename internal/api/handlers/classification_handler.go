package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/manoj99-eng/krisco-backend/internal/domain"
	"github.com/manoj99-eng/krisco-backend/internal/service"
)

type ClassificationHandler struct {
	service *service.ClassificationService
}

func NewClassificationHandler(service *service.ClassificationService) *ClassificationHandler {
	return &ClassificationHandler{service: service}
}

// Run triggers a classification batch. The report date defaults to
// today; re-running a date overwrites its snapshot.
func (h *ClassificationHandler) Run(c *gin.Context) {
	reportDate := time.Now().Truncate(24 * time.Hour)
	if raw := strings.TrimSpace(c.Query("report_date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report_date, want YYYY-MM-DD"})
			return
		}
		reportDate = parsed
	}

	result, err := h.service.Run(c.Request.Context(), reportDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "classification run failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Snapshots returns stored classification rows matching the filter.
func (h *ClassificationHandler) Snapshots(c *gin.Context) {
	filter := domain.SnapshotFilter{
		ReportDate: strings.TrimSpace(c.Query("report_date")),
		Brand:      strings.TrimSpace(c.Query("brand")),
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		parsed, ok := domain.ParseSellerCategory(category)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category", "category": category})
			return
		}
		filter.Category = parsed
	}

	snapshots, err := h.service.Query(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch snapshots", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": snapshots,
		"total":     len(snapshots),
	})
}

// AvailableDates lists report dates that have a stored snapshot.
func (h *ClassificationHandler) AvailableDates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if limit <= 0 {
		limit = 30
	}

	dates, err := h.service.AvailableDates(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch available dates", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dates": dates})
}
