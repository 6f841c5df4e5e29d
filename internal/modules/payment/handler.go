package payment

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

// RegisterRoutes mounts payment endpoints on an authenticated group.
// Refunds are admin-only; the provider side of a refund happens outside
// this service.
func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) {
	payments := v1.Group("/payments")
	{
		payments.POST("/capture", h.Capture)
		payments.GET("/order/:id", h.GetOrderPayments)
		payments.POST("/:id/refund", middleware.AdminOnly(), h.Refund)
	}
}

func (h *Handler) Capture(c *gin.Context) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	p, err := h.service.Capture(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writePaymentError(c, err, "CAPTURE_FAILED", "Failed to record capture")
		return
	}
	response.Success(c, http.StatusCreated, p)
}

func (h *Handler) Refund(c *gin.Context) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid payment id")
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	view, err := h.service.Refund(c.Request.Context(), paymentID, req)
	if err != nil {
		h.writePaymentError(c, err, "REFUND_FAILED", "Failed to record refund")
		return
	}
	response.Success(c, http.StatusOK, view)
}

func (h *Handler) GetOrderPayments(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	callerRole := domain.Role(c.GetString("role"))

	views, err := h.service.GetOrderPayments(c.Request.Context(), c.GetInt64("user_id"), callerRole, orderID)
	if err != nil {
		h.writePaymentError(c, err, "LIST_FAILED", "Failed to list payments")
		return
	}
	response.Success(c, http.StatusOK, views)
}

func (h *Handler) writePaymentError(c *gin.Context, err error, fallbackCode, fallbackMsg string) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		response.Error(c, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrPaymentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrOrderNotPayable):
		response.Error(c, http.StatusConflict, "ORDER_NOT_PAYABLE", err.Error())
	case errors.Is(err, ErrAmountMismatch), errors.Is(err, ErrCurrencyMismatch):
		response.Error(c, http.StatusUnprocessableEntity, "CAPTURE_MISMATCH", err.Error())
	case errors.Is(err, ErrRefundExceeds):
		response.Error(c, http.StatusConflict, "REFUND_EXCEEDS", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, fallbackCode, fallbackMsg)
	}
}
