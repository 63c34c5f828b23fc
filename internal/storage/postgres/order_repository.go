package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fooddash/api/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `
SELECT id, user_id, status, total_price_cents, placed_at
FROM orders
WHERE id = $1
FOR UPDATE`

	var o domain.Order
	var status string
	err := r.queryRow(ctx, query, orderID).
		Scan(&o.ID, &o.UserID, &status, &o.TotalPriceCents, &o.PlacedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order for update: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

// CreateOrder persists the order header, its line items and their add-ons in
// one transaction.
func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	return withTx(ctx, r.pool, func(txCtx context.Context) error {
		const orderStmt = `
INSERT INTO orders (id, user_id, status, total_price_cents, placed_at)
VALUES ($1, $2, $3, $4, $5)`

		if _, err := r.exec(txCtx, orderStmt,
			order.ID, order.UserID, string(order.Status), order.TotalPriceCents, order.PlacedAt,
		); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		const itemStmt = `
INSERT INTO order_items (id, order_id, item_id, variant_id, quantity)
VALUES ($1, $2, $3, $4, $5)`
		const addonStmt = `
INSERT INTO order_item_addons (id, order_item_id, addon_id)
VALUES ($1, $2, $3)`

		batch := &pgx.Batch{}
		for _, item := range order.Items {
			batch.Queue(itemStmt, item.ID, item.OrderID, item.ItemID, nullIfEmpty(item.VariantID), item.Quantity)
			for _, addon := range item.Addons {
				batch.Queue(addonStmt, addon.ID, addon.OrderItemID, addon.AddonID)
			}
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := r.sendBatch(txCtx, batch).Close(); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	const stmt = `UPDATE orders SET status = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, string(status))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	const query = `
SELECT id, user_id, status, total_price_cents, placed_at
FROM orders
WHERE id = $1`

	var o domain.Order
	var status string
	err := r.queryRow(ctx, query, orderID).
		Scan(&o.ID, &o.UserID, &status, &o.TotalPriceCents, &o.PlacedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	o.Status = domain.OrderStatus(status)

	items, err := r.loadItems(ctx, []string{o.ID})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	const query = `
SELECT id, user_id, status, total_price_cents, placed_at
FROM orders
WHERE user_id = $1
ORDER BY placed_at DESC`

	return r.listOrders(ctx, query, userID)
}

func (r *OrderRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	const query = `
SELECT id, user_id, status, total_price_cents, placed_at
FROM orders
ORDER BY placed_at DESC`

	return r.listOrders(ctx, query)
}

func (r *OrderRepository) listOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []string
	for rows.Next() {
		var o domain.Order
		var status string
		if err := rows.Scan(&o.ID, &o.UserID, &status, &o.TotalPriceCents, &o.PlacedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = domain.OrderStatus(status)
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// loadItems fetches line items and add-ons for the given orders, keyed by
// order ID.
func (r *OrderRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	const itemQuery = `
SELECT id, order_id, item_id, COALESCE(variant_id::text, ''), quantity
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY id`

	rows, err := r.query(ctx, itemQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string][]domain.OrderItem)
	byItem := make(map[string]int)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ItemID, &item.VariantID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
		byItem[item.ID] = len(byOrder[item.OrderID]) - 1
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}

	const addonQuery = `
SELECT a.id, a.order_item_id, a.addon_id, i.order_id
FROM order_item_addons a
JOIN order_items i ON i.id = a.order_item_id
WHERE i.order_id = ANY($1::uuid[])
ORDER BY a.id`

	addonRows, err := r.query(ctx, addonQuery, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load order item addons: %w", err)
	}
	defer addonRows.Close()

	for addonRows.Next() {
		var addon domain.OrderItemAddon
		var orderID string
		if err := addonRows.Scan(&addon.ID, &addon.OrderItemID, &addon.AddonID, &orderID); err != nil {
			return nil, fmt.Errorf("scan addon: %w", err)
		}
		idx, ok := byItem[addon.OrderItemID]
		if !ok {
			continue
		}
		items := byOrder[orderID]
		items[idx].Addons = append(items[idx].Addons, addon)
	}
	if err := addonRows.Err(); err != nil {
		return nil, fmt.Errorf("load order item addons: %w", err)
	}

	return byOrder, nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *OrderRepository) sendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults {
	if tx := txFromContext(ctx); tx != nil {
		return tx.SendBatch(ctx, batch)
	}
	return r.pool.SendBatch(ctx, batch)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
