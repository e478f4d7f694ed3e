package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/shopauthsvc/domain"
)

// OrderHandlers exposes the order ledger on the admin surface
type OrderHandlers struct {
	orders domain.OrderRepository
}

func NewOrderHandlers(orders domain.OrderRepository) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// StatusRequest requests a status transition
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Get returns one order by id
func (h *OrderHandlers) Get(c *gin.Context) {
	order, err := h.orders.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orderBody(order)})
}

// UpdateStatus advances an order through the forward-only status machine
func (h *OrderHandlers) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, domain.ErrInvalidOrderTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": c.Param("id"), "status": req.Status}})
}
