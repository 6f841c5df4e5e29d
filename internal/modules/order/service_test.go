package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"marketplace/internal/database"
	"marketplace/internal/domain"
	"marketplace/internal/pkg/events"
	"marketplace/internal/repository"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) NotifyUser(userID int64, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, fmt.Sprintf("%d:%s", userID, event))
}

var memCounter int

func newTestService(t *testing.T) (*Service, *gorm.DB, *recordingNotifier) {
	t.Helper()
	memCounter++
	db, err := database.Connect(fmt.Sprintf("file:ordertest%d?mode=memory&cache=shared", memCounter))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	notifier := &recordingNotifier{}
	svc := NewService(
		repository.NewOrderRepository(db),
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
		events.NewPublisher(""), // broker disabled in tests
		notifier,
	)
	return svc, db, notifier
}

func seedProduct(t *testing.T, db *gorm.DB, merchantID int64, name string, priceCents, stock int64) *domain.Product {
	t.Helper()
	p := &domain.Product{
		MerchantID: merchantID,
		Name:       name,
		PriceCents: priceCents,
		Currency:   "USD",
		Stock:      stock,
		Published:  true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func fillCart(t *testing.T, db *gorm.DB, userID int64, lines map[int64]int64) {
	t.Helper()
	carts := repository.NewCartRepository(db)
	cart, err := carts.GetOrCreateByUser(context.Background(), userID)
	require.NoError(t, err)
	for productID, qty := range lines {
		_, err := carts.UpsertItem(context.Background(), cart.ID, productID, qty)
		require.NoError(t, err)
	}
}

func TestPlaceOrder_HappyPath(t *testing.T) {
	svc, db, notifier := newTestService(t)
	ctx := context.Background()

	mug := seedProduct(t, db, 9, "Mug", 1500, 10)
	lamp := seedProduct(t, db, 9, "Lamp", 3500, 5)
	fillCart(t, db, 1, map[int64]int64{mug.ID: 2, lamp.ID: 1})

	order, err := svc.PlaceOrder(ctx, 1)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, int64(6500), order.TotalCents)
	assert.Equal(t, "USD", order.Currency)
	require.Len(t, order.Items, 2)

	// Stock went down, cart is empty, merchant got a push.
	var reloaded domain.Product
	require.NoError(t, db.First(&reloaded, mug.ID).Error)
	assert.Equal(t, int64(8), reloaded.Stock)

	cart, err := repository.NewCartRepository(db).GetOrCreateByUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	assert.Contains(t, notifier.events, "9:order.placed")
}

func TestPlaceOrder_SnapshotsPrices(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	mug := seedProduct(t, db, 9, "Mug", 1500, 10)
	fillCart(t, db, 1, map[int64]int64{mug.ID: 1})

	order, err := svc.PlaceOrder(ctx, 1)
	require.NoError(t, err)

	// A later price change must not rewrite order history.
	require.NoError(t, db.Model(mug).Update("price_cents", 9900).Error)

	reloaded, err := svc.GetOrder(ctx, 1, domain.RoleCustomer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), reloaded.Items[0].PriceCents)
	assert.Equal(t, "Mug", reloaded.Items[0].Name)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.PlaceOrder(context.Background(), 1)

	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_InsufficientStockRollsBack(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	mug := seedProduct(t, db, 9, "Mug", 1500, 10)
	rare := seedProduct(t, db, 9, "Rare", 5000, 1)
	fillCart(t, db, 1, map[int64]int64{mug.ID: 2, rare.ID: 3})

	_, err := svc.PlaceOrder(ctx, 1)

	assert.ErrorIs(t, err, ErrOutOfStock)

	// The whole transaction rolled back: mug stock untouched, cart intact.
	var reloaded domain.Product
	require.NoError(t, db.First(&reloaded, mug.ID).Error)
	assert.Equal(t, int64(10), reloaded.Stock)

	cart, err := repository.NewCartRepository(db).GetOrCreateByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestPlaceOrder_UnpublishedProductFails(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, 9, "Gone", 1000, 5)
	fillCart(t, db, 1, map[int64]int64{p.ID: 1})
	require.NoError(t, db.Model(p).Update("published", false).Error)

	_, err := svc.PlaceOrder(ctx, 1)

	assert.ErrorIs(t, err, ErrProductGone)
}

func TestGetOrder_Visibility(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, 9, "Mug", 1500, 10)
	fillCart(t, db, 1, map[int64]int64{p.ID: 1})
	placed, err := svc.PlaceOrder(ctx, 1)
	require.NoError(t, err)

	// Owner, selling merchant and admin can view; a stranger cannot.
	_, err = svc.GetOrder(ctx, 1, domain.RoleCustomer, placed.ID)
	assert.NoError(t, err)
	_, err = svc.GetOrder(ctx, 9, domain.RoleMerchant, placed.ID)
	assert.NoError(t, err)
	_, err = svc.GetOrder(ctx, 50, domain.RoleAdmin, placed.ID)
	assert.NoError(t, err)
	_, err = svc.GetOrder(ctx, 2, domain.RoleCustomer, placed.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCancel_RestoresStock(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, 9, "Mug", 1500, 10)
	fillCart(t, db, 1, map[int64]int64{p.ID: 4})
	placed, err := svc.PlaceOrder(ctx, 1)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, 1, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)

	var reloaded domain.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, int64(10), reloaded.Stock)

	// Terminal state: a second cancel hits the conditional update and fails.
	_, err = svc.Cancel(ctx, 1, placed.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

type failingRestoreProducts struct {
	*repository.ProductRepository
	failID int64
}

func (f *failingRestoreProducts) RestoreStock(ctx context.Context, tx *gorm.DB, productID, quantity int64) error {
	if productID == f.failID {
		return errors.New("restore failed")
	}
	return f.ProductRepository.RestoreStock(ctx, tx, productID, quantity)
}

func TestCancel_RestoreFailureRollsBackStatus(t *testing.T) {
	svc, db, notifier := newTestService(t)
	ctx := context.Background()

	mug := seedProduct(t, db, 9, "Mug", 1500, 10)
	lamp := seedProduct(t, db, 9, "Lamp", 3500, 5)
	fillCart(t, db, 1, map[int64]int64{mug.ID: 2, lamp.ID: 1})
	placed, err := svc.PlaceOrder(ctx, 1)
	require.NoError(t, err)

	products := repository.NewProductRepository(db)
	broken := NewService(
		repository.NewOrderRepository(db),
		repository.NewCartRepository(db),
		&failingRestoreProducts{ProductRepository: products, failID: lamp.ID},
		events.NewPublisher(""),
		notifier,
	)

	_, err = broken.Cancel(ctx, 1, placed.ID)
	require.Error(t, err)

	// Nothing moved: the order is still pending and no restore stuck.
	reloaded, err := svc.GetOrder(ctx, 1, domain.RoleCustomer, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, reloaded.Status)

	var mugRow, lampRow domain.Product
	require.NoError(t, db.First(&mugRow, mug.ID).Error)
	require.NoError(t, db.First(&lampRow, lamp.ID).Error)
	assert.Equal(t, int64(8), mugRow.Stock)
	assert.Equal(t, int64(4), lampRow.Stock)

	// The retry with a healthy repo succeeds and restores everything.
	cancelled, err := svc.Cancel(ctx, 1, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)
	require.NoError(t, db.First(&mugRow, mug.ID).Error)
	require.NoError(t, db.First(&lampRow, lamp.ID).Error)
	assert.Equal(t, int64(10), mugRow.Stock)
	assert.Equal(t, int64(5), lampRow.Stock)
}

func TestCancel_OnlyOwner(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, 9, "Mug", 1500, 10)
	fillCart(t, db, 1, map[int64]int64{p.ID: 1})
	placed, err := svc.PlaceOrder(ctx, 1)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, 2, placed.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateFulfilment_FollowsStateMachine(t *testing.T) {
	svc, db, notifier := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, 9, "Mug", 1500, 10)
	fillCart(t, db, 1, map[int64]int64{p.ID: 1})
	placed, err := svc.PlaceOrder(ctx, 1)
	require.NoError(t, err)

	// Pending orders cannot ship; they have to be paid first.
	_, err = svc.UpdateFulfilment(ctx, 9, placed.ID, domain.OrderShipped)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	ok, err := repository.NewOrderRepository(db).UpdateStatus(ctx, placed.ID, domain.OrderPending, domain.OrderPaid)
	require.NoError(t, err)
	require.True(t, ok)

	shipped, err := svc.UpdateFulfilment(ctx, 9, placed.ID, domain.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderShipped, shipped.Status)
	assert.Contains(t, notifier.events, "1:order.status")

	delivered, err := svc.UpdateFulfilment(ctx, 9, placed.ID, domain.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDelivered, delivered.Status)
}

func TestUpdateFulfilment_OnlySellingMerchant(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, 9, "Mug", 1500, 10)
	fillCart(t, db, 1, map[int64]int64{p.ID: 1})
	placed, err := svc.PlaceOrder(ctx, 1)
	require.NoError(t, err)

	ok, err := repository.NewOrderRepository(db).UpdateStatus(ctx, placed.ID, domain.OrderPending, domain.OrderPaid)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.UpdateFulfilment(ctx, 8, placed.ID, domain.OrderShipped)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListMerchantOrders(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	mine := seedProduct(t, db, 9, "Mine", 1000, 10)
	other := seedProduct(t, db, 8, "Other", 2000, 10)

	fillCart(t, db, 1, map[int64]int64{mine.ID: 1})
	_, err := svc.PlaceOrder(ctx, 1)
	require.NoError(t, err)

	fillCart(t, db, 2, map[int64]int64{other.ID: 1})
	_, err = svc.PlaceOrder(ctx, 2)
	require.NoError(t, err)

	orders, total, err := svc.ListMerchantOrders(ctx, 9, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, orders, 1)
	assert.Equal(t, "Mine", orders[0].Items[0].Name)
}
