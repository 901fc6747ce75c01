package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"benangmas-be/internal/inventory"
	"benangmas-be/internal/logger"
	"benangmas-be/internal/order"
	"benangmas-be/internal/payment"

	"go.uber.org/zap"
)

type Repository interface {
	GetVariant(ctx context.Context, variantID int64) (*inventory.Variant, error)

	// GetOrderByNumber loads an order and its line items, used when a customer
	// retries payment for an order whose previous attempt expired.
	GetOrderByNumber(ctx context.Context, orderNumber string) (*order.Order, error)

	// CreateOrderTx inserts the order, its item snapshots and the PENDING
	// payment row in one transaction. IDs are written back into the models.
	CreateOrderTx(ctx context.Context, o *order.Order, p *payment.Payment) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetVariant(ctx context.Context, variantID int64) (*inventory.Variant, error) {
	var v inventory.Variant
	err := r.db.QueryRowContext(ctx, `
		SELECT id, sku, name, price, stock_qty
		FROM variants
		WHERE id = $1
	`, variantID).Scan(&v.ID, &v.SKU, &v.Name, &v.Price, &v.StockQty)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load variant: %w", err)
	}
	return &v, nil
}

func (r *repository) GetOrderByNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var o order.Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_number, customer_email, status, payment_status,
			subtotal, shipping_cost, coupon_discount, total
		FROM orders
		WHERE order_number = $1
	`, orderNumber).Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerEmail,
		&o.Status,
		&o.PaymentStatus,
		&o.Subtotal,
		&o.ShippingCost,
		&o.CouponDiscount,
		&o.Total,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, variant_id, name, sku, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item order.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.VariantID,
			&item.Name,
			&item.SKU,
			&item.Quantity,
			&item.UnitPrice,
			&item.TotalPrice,
		); err != nil {
			return nil, err
		}
		item.OrderID = o.ID
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *repository) CreateOrderTx(ctx context.Context, o *order.Order, p *payment.Payment) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrderTx"),
		zap.String("order_number", o.OrderNumber),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, customer_email, status, payment_status,
			subtotal, shipping_cost, coupon_discount, total
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at
	`,
		o.OrderNumber,
		o.CustomerEmail,
		o.Status,
		o.PaymentStatus,
		o.Subtotal,
		o.ShippingCost,
		o.CouponDiscount,
		o.Total,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID

		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, variant_id, name, sku, quantity, unit_price, total_price
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`,
			item.OrderID,
			item.VariantID,
			item.Name,
			item.SKU,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
		).Scan(&item.ID)
		if err != nil {
			log.Error("failed to insert order item",
				zap.Int("item_index", i),
				zap.Int64("variant_id", item.VariantID),
				zap.Error(err),
			)
			return err
		}
	}

	p.OrderID = o.ID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO payments (order_id, reference, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`,
		p.OrderID, p.Reference, p.Amount, p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		log.Error("failed to insert payment", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit checkout transaction", zap.Error(err))
		return err
	}

	committed = true
	log.Info("order created", zap.Int64("order_id", o.ID))
	return nil
}
