package order

import (
	"errors"
	"net/http"
	"strconv"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the order endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) {
	orders := v1.Group("/orders")
	{
		orders.POST("", h.PlaceOrder)
		orders.GET("", h.ListMyOrders)
		orders.GET("/merchant", middleware.MerchantOnly(), h.ListMerchantOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/cancel", h.Cancel)
		orders.PUT("/:id/status", middleware.MerchantOnly(), h.UpdateStatus)
	}
}

func (h *Handler) PlaceOrder(c *gin.Context) {
	order, err := h.service.PlaceOrder(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeOrderError(c, err, "PLACE_ORDER_FAILED", "Failed to place order")
		return
	}
	response.Success(c, http.StatusCreated, order)
}

func (h *Handler) ListMyOrders(c *gin.Context) {
	page, limit := pagination(c)
	orders, total, err := h.service.ListMyOrders(c.Request.Context(), c.GetInt64("user_id"), limit, (page-1)*limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list orders")
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Orders: orders, Total: total, Page: page, Limit: limit})
}

func (h *Handler) ListMerchantOrders(c *gin.Context) {
	page, limit := pagination(c)
	orders, total, err := h.service.ListMerchantOrders(c.Request.Context(), c.GetInt64("user_id"), limit, (page-1)*limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list orders")
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Orders: orders, Total: total, Page: page, Limit: limit})
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	callerRole := domain.Role(c.GetString("role"))

	order, err := h.service.GetOrder(c.Request.Context(), c.GetInt64("user_id"), callerRole, orderID)
	if err != nil {
		h.writeOrderError(c, err, "GET_ORDER_FAILED", "Failed to load order")
		return
	}
	response.Success(c, http.StatusOK, order)
}

func (h *Handler) Cancel(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	order, err := h.service.Cancel(c.Request.Context(), c.GetInt64("user_id"), orderID)
	if err != nil {
		h.writeOrderError(c, err, "CANCEL_FAILED", "Failed to cancel order")
		return
	}
	response.Success(c, http.StatusOK, order)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	order, err := h.service.UpdateFulfilment(c.Request.Context(), c.GetInt64("user_id"), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		h.writeOrderError(c, err, "UPDATE_STATUS_FAILED", "Failed to update order status")
		return
	}
	response.Success(c, http.StatusOK, order)
}

func (h *Handler) writeOrderError(c *gin.Context, err error, fallbackCode, fallbackMsg string) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		response.Error(c, http.StatusBadRequest, "EMPTY_CART", err.Error())
	case errors.Is(err, ErrOutOfStock):
		response.Error(c, http.StatusConflict, "OUT_OF_STOCK", err.Error())
	case errors.Is(err, ErrProductGone):
		response.Error(c, http.StatusUnprocessableEntity, "PRODUCT_UNAVAILABLE", err.Error())
	case errors.Is(err, ErrCurrencyMismatch):
		response.Error(c, http.StatusUnprocessableEntity, "CURRENCY_MISMATCH", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Order not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Not allowed for this order")
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidStatus):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, fallbackCode, fallbackMsg)
	}
}

func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
