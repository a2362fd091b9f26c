package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository/repotest"
	"github.com/MelannyAlzate/VinsBakery/internal/metrics"
)

var orderDay = time.Date(2026, 6, 12, 10, 30, 0, 0, time.UTC)

type orderFixture struct {
	svc       *OrderService
	orders    *repotest.Orders
	customers *repotest.Customers
	publisher *repotest.Publisher
	activity  *repotest.Activity
	metrics   *metrics.Metrics
}

func date(y int, m time.Month, d int) *entity.Date {
	dt := entity.NewDate(y, m, d)
	return &dt
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orders: repotest.NewOrders(
			&entity.Product{ID: "croissant", Name: "Croissant", Price: decimal.RequireFromString("2.50"), Stock: 10, Active: true},
			&entity.Product{ID: "cake", Name: "Chocolate cake", Price: decimal.RequireFromString("28.00"), Stock: 1, Active: true},
		),
		customers: repotest.NewCustomers(
			&entity.Customer{ID: "ana", Name: "Ana", Tier: entity.TierSilver, DiscountPercent: decimal.NewFromInt(5), Approval: entity.ApprovalApproved, Active: true, BirthDate: date(1990, time.June, 12)},
			&entity.Customer{ID: "luis", Name: "Luis", Tier: entity.TierGold, DiscountPercent: decimal.NewFromInt(10), Approval: entity.ApprovalApproved, Active: true, BirthDate: date(1985, time.January, 3)},
			&entity.Customer{ID: "maria", Name: "Maria", Tier: entity.TierBronze, Approval: entity.ApprovalPending, Active: true},
			&entity.Customer{ID: "gone", Name: "Gone", Approval: entity.ApprovalApproved, Active: false},
		),
		publisher: &repotest.Publisher{},
		activity:  &repotest.Activity{},
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	f.svc = NewOrderService(f.orders, f.customers, f.publisher, f.activity, entity.DefaultDiscountPolicy, f.metrics)
	f.svc.now = func() time.Time { return orderDay }
	return f
}

var (
	staff = &entity.Caller{UserID: "staff-1", Role: entity.RoleStaff}
	admin = &entity.Caller{UserID: "admin-1", Role: entity.RoleAdmin}
)

func customerCaller(id string) *entity.Caller {
	return &entity.Caller{UserID: "user-" + id, Role: entity.RoleCustomer, CustomerID: id}
}

func line(productID string, qty int) entity.OrderLine {
	return entity.OrderLine{ProductID: productID, Quantity: qty}
}

func TestPlaceOrder_BirthdayDiscountAndTotals(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.PlaceOrder(context.Background(), customerCaller("ana"), &entity.PlaceOrder{
		CustomerID: "ana",
		Lines:      []entity.OrderLine{line("croissant", 4), line("cake", 1)},
		Notes:      "birthday",
	})
	require.NoError(t, err)

	// 5% tier + 15% birthday bonus on 38.00
	assert.Equal(t, "20", order.DiscountPercent.String())
	assert.Equal(t, "38.00", entity.Display(order.Subtotal))
	assert.Equal(t, "7.60", entity.Display(order.Discount))
	assert.Equal(t, "30.40", entity.Display(order.Total))
	assert.Equal(t, "Ana", order.CustomerName)
	assert.Equal(t, entity.TierSilver, order.CustomerTier)
	assert.Equal(t, entity.OrderStatusPending, order.Status)

	sum := decimal.Zero
	for _, it := range order.Items {
		sum = sum.Add(it.Subtotal)
	}
	assert.True(t, sum.Equal(order.Subtotal))
	assert.True(t, order.Total.Equal(order.Subtotal.Sub(order.Discount)))

	assert.Equal(t, 6, f.orders.Stock("croissant"))
	assert.Equal(t, 0, f.orders.Stock("cake"))

	assert.Equal(t, []string{"order.create"}, f.activity.Actions())
	assert.Equal(t, []string{entity.TopicOrdersPlaced, entity.TopicInventoryStockLevel, entity.TopicInventoryStockLevel}, f.publisher.Topics())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.OrdersPlaced))
}

func TestPlaceOrder_NonBirthdayKeepsTierDiscount(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.PlaceOrder(context.Background(), staff, &entity.PlaceOrder{CustomerID: "luis", Lines: []entity.OrderLine{line("croissant", 2)}})
	require.NoError(t, err)
	assert.Equal(t, "10", order.DiscountPercent.String())
	assert.Equal(t, "4.50", entity.Display(order.Total))
}

func TestPlaceOrder_ClientSnapshotWins(t *testing.T) {
	f := newOrderFixture(t)
	price := decimal.RequireFromString("2.00")

	order, err := f.svc.PlaceOrder(context.Background(), staff, &entity.PlaceOrder{
		CustomerID: "maria",
		Lines:      []entity.OrderLine{{ProductID: "croissant", Name: "Day-old croissant", UnitPrice: &price, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Day-old croissant", order.Items[0].Name)
	assert.Equal(t, "6.00", entity.Display(order.Total))
}

func TestPlaceOrder_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		caller *entity.Caller
		cmd    *entity.PlaceOrder
		check  func(t *testing.T, err error)
	}{
		{
			name:   "empty lines",
			caller: staff,
			cmd:    &entity.PlaceOrder{CustomerID: "ana"},
			check: func(t *testing.T, err error) {
				var v *entity.ValidationError
				require.ErrorAs(t, err, &v)
				assert.Equal(t, []string{"lines"}, v.Fields)
			},
		},
		{
			name:   "zero quantity",
			caller: staff,
			cmd:    &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("croissant", 0)}},
			check: func(t *testing.T, err error) {
				var v *entity.ValidationError
				require.ErrorAs(t, err, &v)
				assert.Equal(t, []string{"lines[0].quantity"}, v.Fields)
			},
		},
		{
			name:   "quantity above line limit",
			caller: staff,
			cmd:    &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("croissant", entity.MaxLineQuantity+1)}},
			check: func(t *testing.T, err error) {
				var v *entity.ValidationError
				require.ErrorAs(t, err, &v)
				assert.Equal(t, []string{"lines[0].quantity"}, v.Fields)
			},
		},
		{
			name:   "customer ordering for someone else",
			caller: customerCaller("maria"),
			cmd:    &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("croissant", 1)}},
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, entity.ErrForbidden) },
		},
		{
			name:   "unapproved customer",
			caller: customerCaller("maria"),
			cmd:    &entity.PlaceOrder{CustomerID: "maria", Lines: []entity.OrderLine{line("croissant", 1)}},
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, entity.ErrCustomerNotApproved) },
		},
		{
			name:   "inactive customer",
			caller: staff,
			cmd:    &entity.PlaceOrder{CustomerID: "gone", Lines: []entity.OrderLine{line("croissant", 1)}},
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, entity.ErrNotFound) },
		},
		{
			name:   "unknown product",
			caller: staff,
			cmd:    &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("bagel", 1)}},
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, entity.ErrNotFound) },
		},
		{
			name:   "insufficient stock on second line",
			caller: admin,
			cmd:    &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("croissant", 2), line("cake", 2)}},
			check: func(t *testing.T, err error) {
				var s *entity.InsufficientStockError
				require.ErrorAs(t, err, &s)
				assert.Equal(t, "Chocolate cake", s.ProductName)
				assert.Equal(t, 1, s.Available)
				assert.Equal(t, 2, s.Requested)
			},
		},
		{
			name:   "same product on two lines",
			caller: staff,
			cmd:    &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("croissant", 6), line("croissant", 6)}},
			check: func(t *testing.T, err error) {
				var s *entity.InsufficientStockError
				require.ErrorAs(t, err, &s)
				assert.Equal(t, 10, s.Available)
				assert.Equal(t, 12, s.Requested)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)

			order, err := f.svc.PlaceOrder(context.Background(), tt.caller, tt.cmd)
			assert.Nil(t, order)
			tt.check(t, err)

			assert.Equal(t, 10, f.orders.Stock("croissant"))
			assert.Equal(t, 1, f.orders.Stock("cake"))
			assert.Empty(t, f.orders.Orders)
			assert.Empty(t, f.activity.Actions())
			assert.Empty(t, f.publisher.Topics())
		})
	}
}

func TestPlaceOrder_ValidationRunsBeforeStore(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), customerCaller("maria"), &entity.PlaceOrder{CustomerID: "ana"})
	var v *entity.ValidationError
	assert.ErrorAs(t, err, &v)
	assert.Empty(t, f.orders.Drafts)
}

func TestPlaceOrder_InsufficientStockCounted(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), staff, &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("cake", 5)}})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.InsufficientStock))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.OrdersPlaced))
}

func TestPlaceOrder_PublishFailureDoesNotFailOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.publisher.Err = errors.New("broker down")

	order, err := f.svc.PlaceOrder(context.Background(), staff, &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("croissant", 1)}})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, 9, f.orders.Stock("croissant"))
}

func TestPlaceOrder_UnreachableBrokerDoesNotStallResponse(t *testing.T) {
	f := newOrderFixture(t)
	f.publisher.Hang = true
	defer func(d time.Duration) { publishTimeout = d }(publishTimeout)
	publishTimeout = 20 * time.Millisecond

	start := time.Now()
	order, err := f.svc.PlaceOrder(context.Background(), staff, &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("croissant", 1)}})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPlaceOrder_SameProductOnTwoLines(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.svc.PlaceOrder(context.Background(), staff, &entity.PlaceOrder{CustomerID: "luis", Lines: []entity.OrderLine{line("croissant", 3), line("croissant", 4)}})
	require.NoError(t, err)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 3, f.orders.Stock("croissant"))
	assert.Equal(t, []string{entity.TopicOrdersPlaced, entity.TopicInventoryStockLevel}, f.publisher.Topics())
}

func TestPlaceOrder_ResubmissionCreatesSecondOrder(t *testing.T) {
	f := newOrderFixture(t)
	cmd := &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("croissant", 1)}}

	first, err := f.svc.PlaceOrder(context.Background(), staff, cmd)
	require.NoError(t, err)
	second, err := f.svc.PlaceOrder(context.Background(), staff, cmd)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 8, f.orders.Stock("croissant"))
}

func TestPlaceOrder_ConcurrentOrdersForLastItem(t *testing.T) {
	f := newOrderFixture(t)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		rejected int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.PlaceOrder(context.Background(), staff, &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("cake", 1)}})
			mu.Lock()
			defer mu.Unlock()
			var s *entity.InsufficientStockError
			switch {
			case err == nil:
				success++
			case errors.As(err, &s):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 0, f.orders.Stock("cake"))
}

func TestOrders_CustomerVisibility(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	anaOrder, err := f.svc.PlaceOrder(ctx, staff, &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("croissant", 1)}})
	require.NoError(t, err)
	_, err = f.svc.PlaceOrder(ctx, staff, &entity.PlaceOrder{CustomerID: "luis", Lines: []entity.OrderLine{line("croissant", 1)}})
	require.NoError(t, err)

	all, err := f.svc.ListOrders(ctx, staff, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.svc.ListOrders(ctx, customerCaller("ana"), 0)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, anaOrder.ID, own[0].ID)

	_, err = f.svc.GetOrder(ctx, customerCaller("luis"), anaOrder.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	got, err := f.svc.GetOrder(ctx, customerCaller("ana"), anaOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, anaOrder.ID, got.ID)
}

func TestUpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.svc.PlaceOrder(ctx, staff, &entity.PlaceOrder{CustomerID: "ana", Lines: []entity.OrderLine{line("croissant", 3)}})
	require.NoError(t, err)
	assert.Equal(t, 7, f.orders.Stock("croissant"))

	_, err = f.svc.UpdateStatus(ctx, staff, order.ID, "shipped")
	var v *entity.ValidationError
	assert.ErrorAs(t, err, &v)

	_, err = f.svc.UpdateStatus(ctx, staff, order.ID, "completed")
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	updated, err := f.svc.UpdateStatus(ctx, staff, order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 10, f.orders.Stock("croissant"))
	assert.Contains(t, f.publisher.Topics(), entity.TopicOrderStatusChanged)
	assert.Contains(t, f.activity.Actions(), "order.status")
}
