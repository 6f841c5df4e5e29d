package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"marketplace/internal/pkg/response"
	"marketplace/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	v1.GET("/products", h.ListProducts)
	v1.GET("/products/:id", h.GetProduct)
}

func (h *Handler) RegisterMerchantRoutes(merchant *gin.RouterGroup) {
	merchant.GET("/products", h.ListOwnProducts)
	merchant.POST("/products", h.CreateProduct)
	merchant.PUT("/products/:id", h.UpdateProduct)
	merchant.DELETE("/products/:id", h.DeleteProduct)
}

// ListProducts handles GET /api/v1/products with filters and pagination.
func (h *Handler) ListProducts(c *gin.Context) {
	var f repository.ProductFilters

	f.Category = c.Query("category")
	f.Search = c.Query("search")

	if v := c.Query("merchant_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MerchantID = id
		}
	}
	if v := c.Query("min_price"); v != "" {
		if val, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MinPrice = val
		}
	}
	if v := c.Query("max_price"); v != "" {
		if val, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MaxPrice = val
		}
	}

	f.Limit = 20
	if v := c.Query("limit"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 && val <= 100 {
			f.Limit = val
		}
	}
	f.Offset = 0
	if v := c.Query("page"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			f.Offset = (val - 1) * f.Limit
		}
	}

	products, total, err := h.service.ListPublished(c.Request.Context(), f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list products")
		return
	}

	totalPages := (int(total) + f.Limit - 1) / f.Limit
	currentPage := (f.Offset / f.Limit) + 1

	response.Success(c, http.StatusOK, gin.H{
		"products": products,
		"pagination": gin.H{
			"page":        currentPage,
			"limit":       f.Limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

func (h *Handler) GetProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID")
		return
	}

	product, err := h.service.GetPublishedProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Product not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "GET_FAILED", "Failed to load product")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"product": product})
}

func (h *Handler) ListOwnProducts(c *gin.Context) {
	products, err := h.service.GetProductsByMerchant(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list products")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"products": products})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		if errors.Is(err, ErrInvalidPrice) || errors.Is(err, ErrInvalidCurrency) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create product")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"product": product})
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID")
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), c.GetInt64("user_id"), productID, req)
	if err != nil {
		h.writeProductError(c, err, "UPDATE_FAILED", "Failed to update product")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"product": product})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID")
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), c.GetInt64("user_id"), productID); err != nil {
		h.writeProductError(c, err, "DELETE_FAILED", "Failed to delete product")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Product deleted"})
}

func (h *Handler) writeProductError(c *gin.Context, err error, failCode, failMessage string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Product not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't own this product")
	case errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrInvalidCurrency):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, failCode, failMessage)
	}
}
