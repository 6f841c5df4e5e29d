package admin

import (
	"errors"
	"net/http"
	"strconv"

	"marketplace/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the admin endpoints. The group must already carry
// session auth plus the admin role check.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	users := admin.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.POST("/:id/ban", h.BanUser)
		users.POST("/:id/unban", h.UnbanUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

func (h *Handler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := h.service.ListUsers(c.Request.Context(), limit, (page-1)*limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list users")
		return
	}
	response.Success(c, http.StatusOK, ListUsersResponse{Users: users, Total: total, Page: page, Limit: limit})
}

func (h *Handler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user id")
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.writeAdminError(c, err, "GET_USER_FAILED", "Failed to load user")
		return
	}
	response.Success(c, http.StatusOK, user)
}

func (h *Handler) BanUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user id")
		return
	}

	var req BanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	user, err := h.service.BanUser(c.Request.Context(), c.GetInt64("user_id"), userID, req.Reason)
	if err != nil {
		h.writeAdminError(c, err, "BAN_FAILED", "Failed to ban user")
		return
	}
	response.Success(c, http.StatusOK, user)
}

func (h *Handler) UnbanUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user id")
		return
	}

	user, err := h.service.UnbanUser(c.Request.Context(), userID)
	if err != nil {
		h.writeAdminError(c, err, "UNBAN_FAILED", "Failed to unban user")
		return
	}
	response.Success(c, http.StatusOK, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user id")
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), c.GetInt64("user_id"), userID); err != nil {
		h.writeAdminError(c, err, "DELETE_FAILED", "Failed to delete user")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *Handler) writeAdminError(c *gin.Context, err error, fallbackCode, fallbackMsg string) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, ErrCannotActOnSelf):
		response.Error(c, http.StatusBadRequest, "SELF_ACTION", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, fallbackCode, fallbackMsg)
	}
}
