package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"delivery-hub/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func New(db *sql.DB) *OrderRepository { return &OrderRepository{db: db} }

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders
		    (order_number, user_id, restaurant_id, status, subtotal, delivery_fee, total_amount,
		     delivery_address, customer_phone, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, NOW(), NOW())
		RETURNING id, version, created_at, updated_at
	`,
		order.OrderNumber,
		order.UserID,
		order.RestaurantID,
		order.Status,
		order.Subtotal,
		order.DeliveryFee,
		order.TotalAmount,
		order.DeliveryAddr,
		order.CustomerPhone,
	).Scan(&order.ID, &order.Version, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, order.ID, item.MenuItemID, item.Name, item.Quantity, item.UnitPrice).Scan(&item.ID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("insert order item %s: %w", item.Name, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, NOW())
	`, order.ID, order.Status, "order-service")
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert status log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit transaction: %w", err)
	}
	return order, nil
}

func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	var o domain.Order
	var driverID sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_number, user_id, restaurant_id, driver_id, status, subtotal,
		       delivery_fee, total_amount, delivery_address, customer_phone, version,
		       created_at, updated_at
		FROM orders WHERE order_number = $1
	`, orderNumber).Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.RestaurantID, &driverID, &o.Status,
		&o.Subtotal, &o.DeliveryFee, &o.TotalAmount, &o.DeliveryAddr, &o.CustomerPhone,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	o.DriverID = driverID.String

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, menu_item_id, name, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, o.ID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return domain.Order{}, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, orderNumber string, status domain.Status, expectedVersion int, changedBy string) (domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var orderID, version int
	err = tx.QueryRowContext(ctx, `
		UPDATE orders SET status = $1, version = version + 1, updated_at = NOW()
		WHERE order_number = $2 AND version = $3
		RETURNING id, version
	`, status, orderNumber, expectedVersion).Scan(&orderID, &version)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return domain.Order{}, r.missOrConflict(ctx, orderNumber)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, NOW())
	`, orderID, status, changedBy)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert status log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("commit transaction: %w", err)
	}
	return r.GetByNumber(ctx, orderNumber)
}

func (r *OrderRepository) AssignDriver(ctx context.Context, orderNumber, driverID string, expectedVersion int) (domain.Order, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET driver_id = $1, version = version + 1, updated_at = NOW()
		WHERE order_number = $2 AND version = $3
	`, driverID, orderNumber, expectedVersion)
	if err != nil {
		return domain.Order{}, fmt.Errorf("assign driver: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, err
	}
	if n == 0 {
		return domain.Order{}, r.missOrConflict(ctx, orderNumber)
	}
	return r.GetByNumber(ctx, orderNumber)
}

// missOrConflict distinguishes an unknown order from a lost version race
// after a guarded UPDATE matched no rows.
func (r *OrderRepository) missOrConflict(ctx context.Context, orderNumber string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE order_number = $1)`, orderNumber,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("order existence check: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}
