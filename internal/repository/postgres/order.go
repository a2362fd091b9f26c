package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository backed by Postgres.
func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) PlaceOrder(ctx context.Context, draft *entity.OrderDraft) (*entity.Order, []entity.ProductStockUpdated, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lines for the same product share one decrement. Rows are locked in
	// product id order so concurrent orders cannot deadlock.
	wanted := make(map[string]int, len(draft.Lines))
	for _, line := range draft.Lines {
		wanted[line.ProductID] += line.Quantity
	}
	ids := make([]string, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	type catalogEntry struct {
		name  string
		price decimal.Decimal
	}
	catalog := make(map[string]catalogEntry, len(ids))
	stock := make([]entity.ProductStockUpdated, 0, len(ids))
	for _, id := range ids {
		var (
			entry     catalogEntry
			remaining int
		)
		err := tx.QueryRowContext(ctx,
			"UPDATE products SET stock = stock - $1 WHERE id = $2 AND active AND stock >= $1 RETURNING name, price, stock",
			wanted[id], id,
		).Scan(&entry.name, &entry.price, &remaining)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, stockFailure(ctx, tx, id, wanted[id])
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to update product stock: %w", err)
		}
		catalog[id] = entry
		stock = append(stock, entity.ProductStockUpdated{
			ProductID: id,
			Name:      entry.name,
			NewStock:  remaining,
			UpdatedAt: draft.CreatedAt,
		})
	}

	items := make([]entity.OrderItem, len(draft.Lines))
	for i, line := range draft.Lines {
		entry := catalog[line.ProductID]
		item := entity.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: entry.price,
			Quantity:  line.Quantity,
		}
		if item.Name == "" {
			item.Name = entry.name
		}
		if line.UnitPrice != nil {
			item.UnitPrice = *line.UnitPrice
		}
		items[i] = item
	}

	totals := entity.PriceItems(items, draft.DiscountPercent)
	order := &entity.Order{
		ID:              draft.ID,
		CustomerID:      draft.CustomerID,
		Items:           items,
		Subtotal:        totals.Subtotal,
		DiscountPercent: draft.DiscountPercent,
		Discount:        totals.Discount,
		Total:           totals.Total,
		Notes:           draft.Notes,
		Status:          entity.OrderStatusPending,
		CreatedAt:       draft.CreatedAt,
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO orders (id, customer_id, subtotal, discount_percent, discount, total, notes, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		order.ID, order.CustomerID, order.Subtotal, order.DiscountPercent, order.Discount, order.Total, order.Notes, order.Status, order.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert order: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, subtotal) VALUES ($1, $2, $3, $4, $5, $6)")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to prepare order item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err = stmt.ExecContext(ctx, order.ID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.Subtotal)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, stock, nil
}

// stockFailure explains why the conditional decrement of productID matched no
// row. Nothing has been taken from that product yet in this transaction.
func stockFailure(ctx context.Context, tx *sql.Tx, productID string, requested int) error {
	var (
		name   string
		stock  int
		active bool
	)
	err := tx.QueryRowContext(ctx, "SELECT name, stock, active FROM products WHERE id = $1", productID).Scan(&name, &stock, &active)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !active) {
		return entity.NotFound("product")
	}
	if err != nil {
		return fmt.Errorf("failed to read product stock: %w", err)
	}
	return &entity.InsufficientStockError{
		ProductID:   productID,
		ProductName: name,
		Available:   stock,
		Requested:   requested,
	}
}

const orderColumns = "o.id, o.customer_id, c.name, c.loyalty_tier, o.subtotal, o.discount_percent, o.discount, o.total, o.notes, o.status, o.created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	var o entity.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.CustomerTier, &o.Subtotal, &o.DiscountPercent, &o.Discount, &o.Total, &o.Notes, &o.Status, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) FindRecent(ctx context.Context, limit int, customerID string) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders o JOIN customers c ON c.id = o.customer_id WHERE ($2 = '' OR o.customer_id = $2) ORDER BY o.created_at DESC LIMIT $1",
		limit, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []entity.Order
	index := make(map[string]int)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		index[o.ID] = len(orders)
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := r.findItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for orderID, its := range items {
		orders[index[orderID]].Items = its
	}
	return orders, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders o JOIN customers c ON c.id = o.customer_id WHERE o.id = $1",
		id,
	)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFound("order")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.findItems(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return o, nil
}

func (r *orderRepository) findItems(ctx context.Context, orderIDs []string) (map[string][]entity.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT order_id, product_id, name, unit_price, quantity, subtotal FROM order_items WHERE order_id = ANY($1) ORDER BY id",
		pq.Array(orderIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]entity.OrderItem)
	for rows.Next() {
		var (
			orderID string
			item    entity.OrderItem
		)
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items[orderID] = append(items[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order item rows: %w", err)
	}
	return items, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, next entity.OrderStatus) (*entity.StatusChange, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders o JOIN customers c ON c.id = o.customer_id WHERE o.id = $1 FOR UPDATE OF o",
		id,
	)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.NotFound("order")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	from := order.Status
	if !from.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", entity.ErrInvalidTransition, from, next)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", next, id); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	change := &entity.StatusChange{Order: order, From: from}
	switch next {
	case entity.OrderStatusCancelled:
		change.Restocked, err = restock(ctx, tx, id)
		if err != nil {
			return nil, err
		}
	case entity.OrderStatusCompleted:
		if err := creditLoyalty(ctx, tx, order.CustomerID, order.Total); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.Status = next
	return change, nil
}

// restock returns a cancelled order's quantities to the shelf.
func restock(ctx context.Context, tx *sql.Tx, orderID string) ([]entity.ProductStockUpdated, error) {
	rows, err := tx.QueryContext(ctx, `
		UPDATE products p SET stock = p.stock + i.quantity
		FROM (SELECT product_id, SUM(quantity) AS quantity FROM order_items WHERE order_id = $1 GROUP BY product_id) i
		WHERE p.id = i.product_id
		RETURNING p.id, p.name, p.stock`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to restock products: %w", err)
	}
	defer rows.Close()

	var updates []entity.ProductStockUpdated
	for rows.Next() {
		var u entity.ProductStockUpdated
		if err := rows.Scan(&u.ProductID, &u.Name, &u.NewStock); err != nil {
			return nil, fmt.Errorf("failed to scan restocked product: %w", err)
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// creditLoyalty counts a completed purchase towards the customer's tier.
func creditLoyalty(ctx context.Context, tx *sql.Tx, customerID string, total decimal.Decimal) error {
	var (
		count int
		spent decimal.Decimal
	)
	err := tx.QueryRowContext(ctx, "SELECT purchase_count, amount_spent FROM customers WHERE id = $1 FOR UPDATE", customerID).Scan(&count, &spent)
	if err != nil {
		return fmt.Errorf("failed to lock customer: %w", err)
	}

	count++
	spent = spent.Add(total.Round(2))
	tier, percent := entity.TierFor(count)

	_, err = tx.ExecContext(ctx,
		"UPDATE customers SET purchase_count = $1, amount_spent = $2, loyalty_tier = $3, discount_percent = $4 WHERE id = $5",
		count, spent, tier, percent, customerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer loyalty: %w", err)
	}
	return nil
}
