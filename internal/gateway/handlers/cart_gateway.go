package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bloomcart-system/internal/cart"
	"bloomcart-system/internal/checkout"
	"bloomcart-system/internal/events"
	"bloomcart-system/internal/pricing"
)

type CartHTTPHandler struct {
	store     *cart.Store
	publisher checkout.EventPublisher
}

func NewCartHTTPHandler(store *cart.Store, publisher checkout.EventPublisher) *CartHTTPHandler {
	return &CartHTTPHandler{
		store:     store,
		publisher: publisher,
	}
}

type AddItemRequest struct {
	ID                  string          `json:"id" binding:"required"`
	PosProductID        string          `json:"posProductId" binding:"required"`
	Title               string          `json:"title" binding:"required"`
	Brand               string          `json:"brand,omitempty"`
	Category            string          `json:"category,omitempty"`
	Image               string          `json:"image,omitempty"`
	Weight              string          `json:"weight,omitempty"`
	Price               string          `json:"price" binding:"required"`
	DiscountedPrice     string          `json:"discountedPrice,omitempty"`
	DiscountDescription string          `json:"discountDescription,omitempty"`
	BogoRules           []cart.BogoRule `json:"bogoRules,omitempty"`
	Quantity            int             `json:"quantity" binding:"required,min=1"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// cartID resolves the cart identity from the X-Cart-Id header, minting a new
// one for first-time visitors. The id is echoed back on every response.
func (h *CartHTTPHandler) cartID(c *gin.Context) string {
	id := c.GetHeader("X-Cart-Id")
	if id == "" {
		id = uuid.New().String()
	}
	c.Header("X-Cart-Id", id)
	return id
}

func (h *CartHTTPHandler) GetCart(c *gin.Context) {
	cartID := h.cartID(c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	items, err := h.store.Get(ctx, cartID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load cart"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Cart retrieved successfully", items, cartMeta(items)))
}

func (h *CartHTTPHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	cartID := h.cartID(c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	items, err := h.store.AddItem(ctx, cartID, cart.CartItem{
		ID:                  req.ID,
		PosProductID:        req.PosProductID,
		Title:               req.Title,
		Brand:               req.Brand,
		Category:            req.Category,
		Image:               req.Image,
		Weight:              req.Weight,
		Price:               req.Price,
		DiscountedPrice:     req.DiscountedPrice,
		DiscountDescription: req.DiscountDescription,
		BogoRules:           req.BogoRules,
		Quantity:            req.Quantity,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to add item"))
		return
	}

	if h.publisher != nil {
		h.publisher.PublishOrderEvent(events.EventItemAddedToCart, cartID, map[string]interface{}{
			"cartId":       cartID,
			"posProductId": req.PosProductID,
			"title":        req.Title,
			"quantity":     req.Quantity,
		})
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Item added to cart", items, cartMeta(items)))
}

func (h *CartHTTPHandler) UpdateQuantity(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	cartID := h.cartID(c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	items, err := h.store.UpdateQuantity(ctx, cartID, c.Param("id"), req.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update item"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Cart updated", items, cartMeta(items)))
}

func (h *CartHTTPHandler) RemoveItem(c *gin.Context) {
	cartID := h.cartID(c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	items, err := h.store.RemoveItem(ctx, cartID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to remove item"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Item removed", items, cartMeta(items)))
}

func (h *CartHTTPHandler) ClearCart(c *gin.Context) {
	cartID := h.cartID(c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.store.Clear(ctx, cartID); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to clear cart"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Cart cleared", nil))
}

func cartMeta(items []cart.CartItem) map[string]interface{} {
	count := 0
	for _, it := range items {
		count += it.Quantity
	}
	return map[string]interface{}{
		"itemCount":          count,
		"discountedSubtotal": pricing.DiscountedSubtotal(items).StringFixed(2),
	}
}
