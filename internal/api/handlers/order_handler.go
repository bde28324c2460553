package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/manoj99-eng/krisco-backend/internal/api/middleware"
	"github.com/manoj99-eng/krisco-backend/internal/domain"
	"github.com/manoj99-eng/krisco-backend/internal/service"
)

type OrderHandler struct {
	service *service.OrderService
}

func NewOrderHandler(service *service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

type submitOrderRequest struct {
	CustomerID string         `json:"customer_id" binding:"required"`
	Quantities map[string]int `json:"quantities" binding:"required"`
}

// Submit places an order for the given customer against the session's
// working set.
func (h *OrderHandler) Submit(c *gin.Context) {
	var req submitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, result, err := h.service.Submit(c.Request.Context(), middleware.TokenFrom(c), domain.OrderRequest{
		CustomerID: req.CustomerID,
		Quantities: req.Quantities,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}

	status := http.StatusCreated
	if !result.AllSucceeded() {
		// The order is committed either way; the status flags that the
		// confirmation mail did not go out cleanly.
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{"order": order, "delivery": result})
}

// Get returns one order with its lines.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.service.Get(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// List returns orders newest first, optionally filtered by approval
// state.
func (h *OrderHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var approved *bool
	if raw := strings.TrimSpace(c.Query("approved")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approved, want true or false"})
			return
		}
		approved = &parsed
	}

	orders, err := h.service.List(c.Request.Context(), approved, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch orders", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

type approveOrderRequest struct {
	Notes string `json:"notes"`
}

// Approve marks an order fulfilled, optionally recording the 3PL
// transaction number.
func (h *OrderHandler) Approve(c *gin.Context) {
	var req approveOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	if err := h.service.Approve(c.Request.Context(), c.Param("order_id"), req.Notes); err != nil {
		respondOrderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondOrderError(c *gin.Context, err error) {
	var fieldErrs domain.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldErrs})
	case errors.Is(err, domain.ErrEmptyOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrEmptyOrder.Error()})
	case errors.Is(err, domain.ErrEmptyWorkingSet):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrEmptyWorkingSet.Error()})
	case errors.Is(err, domain.ErrRowNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrOrderNotFound.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed", "details": err.Error()})
	}
}
