package order

import "marketplace/internal/domain"

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ListResponse struct {
	Orders []domain.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}
