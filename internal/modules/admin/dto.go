package admin

import "marketplace/internal/domain"

type BanRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ListUsersResponse struct {
	Users []domain.User `json:"users"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}
