package payment

import "marketplace/internal/domain"

// CaptureRequest records a capture already performed by the external
// provider. The capture id is the provider's and acts as the idempotency
// key.
type CaptureRequest struct {
	OrderID     int64  `json:"order_id" binding:"required"`
	Provider    string `json:"provider" binding:"required"`
	CaptureID   string `json:"capture_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Currency    string `json:"currency" binding:"required"`
	RawPayload  string `json:"raw_payload,omitempty"`
}

type RefundRequest struct {
	RefundID    string `json:"refund_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Reason      string `json:"reason,omitempty"`
}

type PaymentView struct {
	Payment       domain.Payment  `json:"payment"`
	Refunds       []domain.Refund `json:"refunds"`
	RefundedCents int64           `json:"refunded_cents"`
}
