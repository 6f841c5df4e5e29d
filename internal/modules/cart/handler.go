package cart

import (
	"errors"
	"net/http"
	"strconv"

	"marketplace/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the cart endpoints. The group must already carry
// session auth; all routes operate on the caller's own cart.
func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) {
	cart := v1.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddItem)
		cart.PUT("/items/:id", h.UpdateItem)
		cart.DELETE("/items/:id", h.RemoveItem)
		cart.DELETE("", h.Clear)
	}
}

func (h *Handler) GetCart(c *gin.Context) {
	view, err := h.service.GetCart(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "CART_FAILED", "Failed to load cart")
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	item, err := h.service.AddItem(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeCartError(c, err, "ADD_ITEM_FAILED", "Failed to add item to cart")
		return
	}
	response.Success(c, http.StatusOK, item)
}

func (h *Handler) UpdateItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid item id")
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.service.UpdateItem(c.Request.Context(), c.GetInt64("user_id"), itemID, req); err != nil {
		h.writeCartError(c, err, "UPDATE_ITEM_FAILED", "Failed to update cart item")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Item updated"})
}

func (h *Handler) RemoveItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid item id")
		return
	}

	if err := h.service.RemoveItem(c.Request.Context(), c.GetInt64("user_id"), itemID); err != nil {
		h.writeCartError(c, err, "REMOVE_ITEM_FAILED", "Failed to remove cart item")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Item removed"})
}

func (h *Handler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context(), c.GetInt64("user_id")); err != nil {
		response.Error(c, http.StatusInternalServerError, "CLEAR_CART_FAILED", "Failed to clear cart")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Cart cleared"})
}

func (h *Handler) writeCartError(c *gin.Context, err error, fallbackCode, fallbackMsg string) {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		response.Error(c, http.StatusBadRequest, "INVALID_QUANTITY", err.Error())
	case errors.Is(err, ErrProductUnavailable):
		response.Error(c, http.StatusUnprocessableEntity, "PRODUCT_UNAVAILABLE", err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Cart item not found")
	default:
		response.Error(c, http.StatusInternalServerError, fallbackCode, fallbackMsg)
	}
}
