package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/shopauthsvc/domain"
)

// CartHandlers serves cart reads and mutations for guests and
// authenticated accounts alike. The owner is resolved from the request:
// a verified access token wins, otherwise the session cookie.
type CartHandlers struct {
	cartSvc domain.CartService
}

func NewCartHandlers(cartSvc domain.CartService) *CartHandlers {
	return &CartHandlers{cartSvc: cartSvc}
}

// AddItemRequest represents a cart line addition
type AddItemRequest struct {
	ProductRef string `json:"product_ref" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
}

// UpdateItemRequest replaces a line's quantity
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// Get returns the owner's current cart
func (h *CartHandlers) Get(c *gin.Context) {
	owner, ok := resolveOwner(c)
	if !ok {
		return
	}

	cart, err := h.cartSvc.GetCart(c.Request.Context(), owner)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to load cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cartBody(cart)})
}

// AddItem folds a line into the cart, summing quantities
func (h *CartHandlers) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner, ok := resolveOwner(c)
	if !ok {
		return
	}

	cart, err := h.cartSvc.AddItem(c.Request.Context(), owner, req.ProductRef, req.Quantity)
	if err != nil {
		h.writeCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cartBody(cart)})
}

// UpdateItem replaces the quantity of one line
func (h *CartHandlers) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner, ok := resolveOwner(c)
	if !ok {
		return
	}

	cart, err := h.cartSvc.UpdateItem(c.Request.Context(), owner, c.Param("ref"), req.Quantity)
	if err != nil {
		h.writeCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cartBody(cart)})
}

// RemoveItem drops one line from the cart
func (h *CartHandlers) RemoveItem(c *gin.Context) {
	owner, ok := resolveOwner(c)
	if !ok {
		return
	}

	cart, err := h.cartSvc.RemoveItem(c.Request.Context(), owner, c.Param("ref"))
	if err != nil {
		h.writeCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cartBody(cart)})
}

func (h *CartHandlers) writeCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be a positive integer"})
	case errors.Is(err, domain.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cart operation failed"})
	}
}

// resolveOwner picks the cart owner for this request. It writes the error
// response itself when neither identity is available.
func resolveOwner(c *gin.Context) (domain.CartOwner, bool) {
	if accountID := c.GetUint("account_id"); accountID != 0 {
		return domain.AccountOwner{AccountID: accountID}, true
	}
	if sessionID := c.GetString("session_id"); sessionID != "" {
		return domain.GuestOwner{SessionID: sessionID}, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "No cart session"})
	return nil, false
}

func cartBody(cart domain.Cart) gin.H {
	items := make([]gin.H, 0, len(cart))
	for _, item := range cart {
		items = append(items, gin.H{
			"product_ref": item.ProductRef,
			"quantity":    item.Quantity,
		})
	}
	return gin.H{"items": items}
}
