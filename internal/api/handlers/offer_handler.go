package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/manoj99-eng/krisco-backend/internal/api/middleware"
	"github.com/manoj99-eng/krisco-backend/internal/domain"
	"github.com/manoj99-eng/krisco-backend/internal/offers"
	"github.com/manoj99-eng/krisco-backend/internal/service"
)

type OfferHandler struct {
	service *service.OfferService
}

func NewOfferHandler(service *service.OfferService) *OfferHandler {
	return &OfferHandler{service: service}
}

type filterRequest struct {
	OfferType     string   `json:"offer_type"`
	Categories    []string `json:"categories"`
	BrandPrefixes []string `json:"brand_prefixes"`
}

// Filter seeds a fresh working set for the session from the latest
// snapshot.
func (h *OfferHandler) Filter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	categories := make([]domain.SellerCategory, 0, len(req.Categories))
	for _, label := range req.Categories {
		category, ok := domain.ParseSellerCategory(label)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category", "category": label})
			return
		}
		categories = append(categories, category)
	}

	rows, err := h.service.WorkingSets().Filter(
		c.Request.Context(),
		middleware.TokenFrom(c),
		domain.ParseOfferType(req.OfferType),
		categories,
		req.BrandPrefixes,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build working set", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows, "total": len(rows)})
}

// Rows returns the session's current working set.
func (h *OfferHandler) Rows(c *gin.Context) {
	rows, err := h.service.WorkingSets().Rows(c.Request.Context(), middleware.TokenFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load working set", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "total": len(rows)})
}

// EditRow applies field overrides to one working-set row.
func (h *OfferHandler) EditRow(c *gin.Context) {
	var fields offers.EditRowFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	row, err := h.service.WorkingSets().EditRow(c.Request.Context(), middleware.TokenFrom(c), c.Param("sku"), fields)
	if err != nil {
		respondWorkingSetError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// RemoveRow drops one row from the working set.
func (h *OfferHandler) RemoveRow(c *gin.Context) {
	if err := h.service.WorkingSets().RemoveRow(c.Request.Context(), middleware.TokenFrom(c), c.Param("sku")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove row", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type discountRequest struct {
	Discounts map[string]decimal.Decimal `json:"discounts"`
}

// ApplyDiscounts applies a per-brand discount schedule to the session's
// working set.
func (h *OfferHandler) ApplyDiscounts(c *gin.Context) {
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rows, err := h.service.WorkingSets().ApplyDiscount(c.Request.Context(), middleware.TokenFrom(c), req.Discounts)
	if err != nil {
		respondWorkingSetError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "total": len(rows)})
}

// Reset discards all edits and re-seeds the working set from the
// current snapshot.
func (h *OfferHandler) Reset(c *gin.Context) {
	rows, err := h.service.WorkingSets().Reset(c.Request.Context(), middleware.TokenFrom(c))
	if err != nil {
		respondWorkingSetError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "total": len(rows)})
}

// Discard drops the session's working set.
func (h *OfferHandler) Discard(c *gin.Context) {
	if err := h.service.WorkingSets().Discard(c.Request.Context(), middleware.TokenFrom(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to discard working set", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type exportRequest struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

// Export commits the working set into a stored spreadsheet artifact.
func (h *OfferHandler) Export(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	artifact, err := h.service.Export(c.Request.Context(), middleware.TokenFrom(c), domain.Identity{
		Name:  req.AuthorName,
		Email: req.AuthorEmail,
	})
	if err != nil {
		respondWorkingSetError(c, err)
		return
	}
	c.JSON(http.StatusCreated, artifact)
}

// ListArtifacts returns the artifact catalog, newest first.
func (h *OfferHandler) ListArtifacts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var offerType domain.OfferType
	if raw := strings.TrimSpace(c.Query("offer_type")); raw != "" {
		offerType = domain.ParseOfferType(raw)
	}

	artifacts, err := h.service.ListArtifacts(c.Request.Context(), offerType, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch artifacts", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"artifacts": artifacts, "total": len(artifacts)})
}

// GetArtifact returns one artifact's metadata.
func (h *OfferHandler) GetArtifact(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	artifact, err := h.service.GetArtifact(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// DownloadArtifact streams the stored spreadsheet back to the caller.
func (h *OfferHandler) DownloadArtifact(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	artifact, data, err := h.service.DownloadArtifact(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found", "details": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(artifact.FileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

type sendRequest struct {
	Rank     string `json:"rank"`
	Category string `json:"category"`
}

// SendArtifact mails an artifact to the matching customer segment.
func (h *OfferHandler) SendArtifact(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact id"})
		return
	}

	var req sendRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	result, err := h.service.SendArtifact(c.Request.Context(), id, domain.CustomerFilter{
		Rank:     req.Rank,
		Category: req.Category,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send artifact", "details": err.Error()})
		return
	}

	status := http.StatusOK
	if !result.AllSucceeded() {
		// Partial delivery is still reported in full; the status tells
		// the caller the batch did not complete cleanly.
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// EmailLog returns the delivery audit trail.
func (h *OfferHandler) EmailLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	var status domain.DeliveryStatus
	switch strings.ToLower(strings.TrimSpace(c.Query("status"))) {
	case "success":
		status = domain.DeliverySuccess
	case "failure":
		status = domain.DeliveryFailure
	}

	var since time.Time
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since, want YYYY-MM-DD"})
			return
		}
		since = parsed
	}

	records, err := h.service.EmailLog(c.Request.Context(), status, since, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch email log", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "total": len(records)})
}

func respondWorkingSetError(c *gin.Context, err error) {
	var fieldErrs domain.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldErrs})
	case errors.Is(err, domain.ErrRowNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrRowNotFound.Error()})
	case errors.Is(err, domain.ErrEmptyWorkingSet):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrEmptyWorkingSet.Error()})
	case errors.Is(err, domain.ErrMissingBrand):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingBrand.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed", "details": err.Error()})
	}
}
