package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
)

var decrementSQL = regexp.QuoteMeta("UPDATE products SET stock = stock - $1 WHERE id = $2 AND active AND stock >= $1")

func decremented(name, price string, stock int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"name", "price", "stock"}).AddRow(name, price, stock)
}

func TestOrderRepository_PlaceOrder_Commits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepository(db)
	override := decimal.RequireFromString("3.00")
	draft := &entity.OrderDraft{
		ID:         "o1",
		CustomerID: "c1",
		Lines: []entity.OrderLine{
			{ProductID: "p2", Quantity: 1, UnitPrice: &override},
			{ProductID: "p1", Quantity: 2},
		},
		DiscountPercent: decimal.NewFromInt(10),
		CreatedAt:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	// Rows are locked in product id order, not request order.
	mock.ExpectQuery(decrementSQL).WithArgs(2, "p1").WillReturnRows(decremented("Croissant", "2.50", 8))
	mock.ExpectQuery(decrementSQL).WithArgs(1, "p2").WillReturnRows(decremented("Baguette", "4.00", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs("o1", "c1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "", entity.OrderStatusPending, draft.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO order_items"))
	prep.ExpectExec().WithArgs("o1", "p2", "Baguette", sqlmock.AnyArg(), 1, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs("o1", "p1", "Croissant", sqlmock.AnyArg(), 2, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	order, stock, err := repo.PlaceOrder(context.Background(), draft)
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "p2", order.Items[0].ProductID)
	assert.Equal(t, "3", order.Items[0].UnitPrice.String())
	assert.Equal(t, "2.5", order.Items[1].UnitPrice.String())
	assert.Equal(t, "8", order.Subtotal.String())
	assert.Equal(t, "0.8", order.Discount.String())
	assert.Equal(t, "7.2", order.Total.String())
	assert.Equal(t, entity.OrderStatusPending, order.Status)

	require.Len(t, stock, 2)
	assert.Equal(t, entity.ProductStockUpdated{ProductID: "p1", Name: "Croissant", NewStock: 8, UpdatedAt: draft.CreatedAt}, stock[0])
	assert.Equal(t, 0, stock[1].NewStock)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_PlaceOrder_InsufficientStockRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepository(db)
	draft := &entity.OrderDraft{
		ID:         "o1",
		CustomerID: "c1",
		Lines: []entity.OrderLine{
			{ProductID: "p1", Quantity: 1},
			{ProductID: "p2", Quantity: 5},
		},
		CreatedAt: time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(decrementSQL).WithArgs(1, "p1").WillReturnRows(decremented("Croissant", "2.50", 9))
	mock.ExpectQuery(decrementSQL).WithArgs(5, "p2").WillReturnRows(sqlmock.NewRows([]string{"name", "price", "stock"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, stock, active FROM products WHERE id = $1")).
		WithArgs("p2").
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock", "active"}).AddRow("Baguette", 3, true))
	mock.ExpectRollback()

	order, stock, err := repo.PlaceOrder(context.Background(), draft)
	assert.Nil(t, order)
	assert.Nil(t, stock)

	var stockErr *entity.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "p2", stockErr.ProductID)
	assert.Equal(t, "Baguette", stockErr.ProductName)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_PlaceOrder_SameProductLinesShareOneDecrement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepository(db)
	draft := &entity.OrderDraft{
		ID:         "o1",
		CustomerID: "c1",
		Lines: []entity.OrderLine{
			{ProductID: "p1", Quantity: 6},
			{ProductID: "p1", Quantity: 6},
		},
		CreatedAt: time.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(decrementSQL).WithArgs(12, "p1").WillReturnRows(sqlmock.NewRows([]string{"name", "price", "stock"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, stock, active FROM products WHERE id = $1")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock", "active"}).AddRow("Croissant", 10, true))
	mock.ExpectRollback()

	_, _, err = repo.PlaceOrder(context.Background(), draft)

	var stockErr *entity.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 10, stockErr.Available)
	assert.Equal(t, 12, stockErr.Requested)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_PlaceOrder_UnknownProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepository(db)
	draft := &entity.OrderDraft{ID: "o1", CustomerID: "c1", Lines: []entity.OrderLine{{ProductID: "ghost", Quantity: 1}}}

	mock.ExpectBegin()
	mock.ExpectQuery(decrementSQL).WithArgs(1, "ghost").WillReturnRows(sqlmock.NewRows([]string{"name", "price", "stock"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, stock, active FROM products")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"name", "stock", "active"}))
	mock.ExpectRollback()

	_, _, err = repo.PlaceOrder(context.Background(), draft)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.EqualError(t, err, "product not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func orderRow(status entity.OrderStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "customer_id", "name", "loyalty_tier", "subtotal", "discount_percent", "discount", "total", "notes", "status", "created_at"}).
		AddRow("o1", "c1", "Ana", "Bronze", "10", "0", "0", "10", "", string(status), time.Now())
}

func TestOrderRepository_UpdateStatus_RejectsInvalidTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF o")).WithArgs("o1").WillReturnRows(orderRow(entity.OrderStatusCompleted))
	mock.ExpectRollback()

	_, err = repo.UpdateStatus(context.Background(), "o1", entity.OrderStatusPending)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_CancelRestocks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF o")).WithArgs("o1").WillReturnRows(orderRow(entity.OrderStatusPending))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = $1 WHERE id = $2")).
		WithArgs(entity.OrderStatusCancelled, "o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products p SET stock = p.stock + i.quantity")).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock"}).AddRow("p1", "Croissant", 12))
	mock.ExpectCommit()

	change, err := repo.UpdateStatus(context.Background(), "o1", entity.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, change.From)
	assert.Equal(t, entity.OrderStatusCancelled, change.Order.Status)
	require.Len(t, change.Restocked, 1)
	assert.Equal(t, 12, change.Restocked[0].NewStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_CompleteCreditsLoyalty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF o")).WithArgs("o1").WillReturnRows(orderRow(entity.OrderStatusInProgress))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status")).
		WithArgs(entity.OrderStatusCompleted, "o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT purchase_count, amount_spent FROM customers WHERE id = $1 FOR UPDATE")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"purchase_count", "amount_spent"}).AddRow(9, "90"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE customers SET purchase_count")).
		WithArgs(10, sqlmock.AnyArg(), entity.TierSilver, sqlmock.AnyArg(), "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	change, err := repo.UpdateStatus(context.Background(), "o1", entity.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, change.Order.Status)
	assert.Empty(t, change.Restocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
