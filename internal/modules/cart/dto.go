package cart

type AddItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int64 `json:"quantity" binding:"required"`
}

type UpdateItemRequest struct {
	Quantity int64 `json:"quantity" binding:"required"`
}

// CartView joins item lines with live product data for display. Totals
// here are informational; the authoritative total is computed at order
// placement.
type CartView struct {
	ID         int64          `json:"id"`
	Items      []CartItemView `json:"items"`
	TotalCents int64          `json:"total_cents"`
}

type CartItemView struct {
	ID         int64  `json:"id"`
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
	Quantity   int64  `json:"quantity"`
	Available  bool   `json:"available"`
}
