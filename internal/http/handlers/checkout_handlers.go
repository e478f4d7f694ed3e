package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/shopauthsvc/domain"
)

// CheckoutHandlers converts carts into orders
type CheckoutHandlers struct {
	checkoutSvc domain.CheckoutService
}

func NewCheckoutHandlers(checkoutSvc domain.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkoutSvc: checkoutSvc}
}

// CheckoutRequest represents a checkout submission. GuestEmail is required
// only for anonymous checkouts.
type CheckoutRequest struct {
	Shipping struct {
		Name    string `json:"name" binding:"required"`
		Address string `json:"address" binding:"required"`
		City    string `json:"city" binding:"required"`
		Country string `json:"country" binding:"required"`
		Zip     string `json:"zip" binding:"required"`
	} `json:"shipping" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	GuestEmail    string `json:"guest_email"`
}

// Checkout places an order from the caller's cart
func (h *CheckoutHandlers) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner, ok := resolveOwner(c)
	if !ok {
		return
	}

	shipping := domain.ShippingInfo{
		Name:    req.Shipping.Name,
		Address: req.Shipping.Address,
		City:    req.Shipping.City,
		Country: req.Shipping.Country,
		Zip:     req.Shipping.Zip,
	}

	order, err := h.checkoutSvc.Checkout(c.Request.Context(), owner, shipping, req.PaymentMethod, req.GuestEmail, c.GetHeader("Idempotency-Key"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			c.JSON(http.StatusConflict, gin.H{"error": "Cart is empty"})
		case errors.Is(err, domain.ErrGuestEmailRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Guest email is required"})
		case errors.Is(err, domain.ErrProductUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": "A product in the cart is unavailable"})
		case errors.Is(err, domain.ErrStoreUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": orderBody(order)})
}

func orderBody(order *domain.Order) gin.H {
	items := make([]gin.H, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		items = append(items, gin.H{
			"product_ref": li.ProductRef,
			"name":        li.Name,
			"unit_price":  li.UnitPrice,
			"quantity":    li.Quantity,
		})
	}
	return gin.H{
		"id":           order.ID,
		"status":       order.Status,
		"total_amount": order.TotalAmount,
		"line_items":   items,
		"created_at":   order.CreatedAt,
	}
}
