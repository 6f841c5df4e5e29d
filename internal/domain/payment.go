package domain

import "time"

type PaymentStatus string

const (
	PaymentCaptured          PaymentStatus = "captured"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentRefunded          PaymentStatus = "refunded"
)

// Payment is bookkeeping for a capture performed by the external provider.
// The provider's capture id is the idempotency key: recording the same
// capture twice returns the existing row instead of double-paying.
type Payment struct {
	ID      int64 `json:"id" gorm:"primaryKey"`
	OrderID int64 `json:"order_id" gorm:"index;not null"`

	Provider  string `json:"provider" gorm:"size:32;not null"`
	CaptureID string `json:"capture_id" gorm:"size:128;uniqueIndex;not null"`

	AmountCents int64         `json:"amount_cents" gorm:"not null"`
	Currency    string        `json:"currency" gorm:"size:3;not null"`
	Status      PaymentStatus `json:"status" gorm:"size:24;not null"`

	RawPayload string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

type Refund struct {
	ID        int64 `json:"id" gorm:"primaryKey"`
	PaymentID int64 `json:"payment_id" gorm:"index;not null"`

	RefundID    string `json:"refund_id" gorm:"size:128;uniqueIndex;not null"`
	AmountCents int64  `json:"amount_cents" gorm:"not null"`
	Reason      string `json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Refund) TableName() string { return "refunds" }
