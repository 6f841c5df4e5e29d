package payment

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"marketplace/internal/database"
	"marketplace/internal/domain"
	"marketplace/internal/repository"
)

var memCounter int

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	memCounter++
	db, err := database.Connect(fmt.Sprintf("file:paytest%d?mode=memory&cache=shared", memCounter))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	svc := NewService(repository.NewPaymentRepository(db), repository.NewOrderRepository(db), nil)
	return svc, db
}

func seedOrder(t *testing.T, db *gorm.DB, userID, totalCents int64, status domain.OrderStatus) *domain.Order {
	t.Helper()
	o := &domain.Order{
		UserID:     userID,
		Status:     status,
		TotalCents: totalCents,
		Currency:   "USD",
		Items: []domain.OrderItem{
			{ProductID: 1, MerchantID: 9, Name: "Mug", PriceCents: totalCents, Quantity: 1},
		},
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func captureReq(orderID int64, captureID string, amount int64) CaptureRequest {
	return CaptureRequest{
		OrderID:     orderID,
		Provider:    "paypal",
		CaptureID:   captureID,
		AmountCents: amount,
		Currency:    "USD",
	}
}

func TestCapture_MovesOrderToPaid(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	order := seedOrder(t, db, 1, 6500, domain.OrderPending)

	p, err := svc.Capture(ctx, 1, captureReq(order.ID, "CAP-1", 6500))

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCaptured, p.Status)

	var reloaded domain.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, domain.OrderPaid, reloaded.Status)
}

func TestCapture_IdempotentOnCaptureID(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	order := seedOrder(t, db, 1, 6500, domain.OrderPending)

	first, err := svc.Capture(ctx, 1, captureReq(order.ID, "CAP-1", 6500))
	require.NoError(t, err)

	// Replaying the provider callback returns the same row, no double entry.
	second, err := svc.Capture(ctx, 1, captureReq(order.ID, "CAP-1", 6500))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	payments, err := repository.NewPaymentRepository(db).GetByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestCapture_AmountMustMatchTotal(t *testing.T) {
	svc, db := newTestService(t)
	order := seedOrder(t, db, 1, 6500, domain.OrderPending)

	_, err := svc.Capture(context.Background(), 1, captureReq(order.ID, "CAP-1", 6000))

	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestCapture_CurrencyMustMatch(t *testing.T) {
	svc, db := newTestService(t)
	order := seedOrder(t, db, 1, 6500, domain.OrderPending)

	req := captureReq(order.ID, "CAP-1", 6500)
	req.Currency = "EUR"
	_, err := svc.Capture(context.Background(), 1, req)

	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestCapture_OnlyOwnerAndOnlyPending(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	order := seedOrder(t, db, 1, 6500, domain.OrderPending)
	_, err := svc.Capture(ctx, 2, captureReq(order.ID, "CAP-1", 6500))
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled := seedOrder(t, db, 1, 6500, domain.OrderCancelled)
	_, err = svc.Capture(ctx, 1, captureReq(cancelled.ID, "CAP-2", 6500))
	assert.ErrorIs(t, err, ErrOrderNotPayable)

	_, err = svc.Capture(ctx, 1, captureReq(999, "CAP-3", 6500))
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRefund_PartialThenFull(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	order := seedOrder(t, db, 1, 6500, domain.OrderPending)

	p, err := svc.Capture(ctx, 1, captureReq(order.ID, "CAP-1", 6500))
	require.NoError(t, err)

	view, err := svc.Refund(ctx, p.ID, RefundRequest{RefundID: "REF-1", AmountCents: 2000, Reason: "damaged item"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPartiallyRefunded, view.Payment.Status)
	assert.Equal(t, int64(2000), view.RefundedCents)

	view, err = svc.Refund(ctx, p.ID, RefundRequest{RefundID: "REF-2", AmountCents: 4500})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, view.Payment.Status)
	assert.Equal(t, int64(6500), view.RefundedCents)

	// A fully refunded payment flips its order to refunded.
	var reloaded domain.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, domain.OrderRefunded, reloaded.Status)
}

func TestRefund_CannotExceedCapture(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	order := seedOrder(t, db, 1, 6500, domain.OrderPending)

	p, err := svc.Capture(ctx, 1, captureReq(order.ID, "CAP-1", 6500))
	require.NoError(t, err)

	_, err = svc.Refund(ctx, p.ID, RefundRequest{RefundID: "REF-1", AmountCents: 7000})
	assert.ErrorIs(t, err, ErrRefundExceeds)

	_, err = svc.Refund(ctx, p.ID, RefundRequest{RefundID: "REF-2", AmountCents: 4000})
	require.NoError(t, err)
	_, err = svc.Refund(ctx, p.ID, RefundRequest{RefundID: "REF-3", AmountCents: 3000})
	assert.ErrorIs(t, err, ErrRefundExceeds)
}

func TestRefund_IdempotentOnRefundID(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	order := seedOrder(t, db, 1, 6500, domain.OrderPending)

	p, err := svc.Capture(ctx, 1, captureReq(order.ID, "CAP-1", 6500))
	require.NoError(t, err)

	_, err = svc.Refund(ctx, p.ID, RefundRequest{RefundID: "REF-1", AmountCents: 2000})
	require.NoError(t, err)
	view, err := svc.Refund(ctx, p.ID, RefundRequest{RefundID: "REF-1", AmountCents: 2000})
	require.NoError(t, err)

	assert.Equal(t, int64(2000), view.RefundedCents)
	require.Len(t, view.Refunds, 1)
}

func TestGetOrderPayments_Visibility(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	order := seedOrder(t, db, 1, 6500, domain.OrderPending)

	_, err := svc.Capture(ctx, 1, captureReq(order.ID, "CAP-1", 6500))
	require.NoError(t, err)

	views, err := svc.GetOrderPayments(ctx, 1, domain.RoleCustomer, order.ID)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	_, err = svc.GetOrderPayments(ctx, 2, domain.RoleCustomer, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetOrderPayments(ctx, 2, domain.RoleAdmin, order.ID)
	assert.NoError(t, err)
}
