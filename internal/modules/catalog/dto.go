package catalog

type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required,min=2,max=255"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	PriceCents  int64    `json:"price_cents" binding:"required"`
	Currency    string   `json:"currency" binding:"required,len=3"`
	ImageURLs   []string `json:"image_urls"`
	Stock       int64    `json:"stock"`
	Published   bool     `json:"published"`
}

type UpdateProductRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	PriceCents  *int64    `json:"price_cents,omitempty"`
	ImageURLs   *[]string `json:"image_urls,omitempty"`
	Stock       *int64    `json:"stock,omitempty"`
	Published   *bool     `json:"published,omitempty"`
}
