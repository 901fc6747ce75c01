package fulfillment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"benangmas-be/internal/logger"
	"benangmas-be/internal/order"

	"go.uber.org/zap"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Store {
	return &repository{db: db}
}

func (r *repository) PaymentByReference(
	ctx context.Context,
	reference string,
) (*PaymentDetail, error) {

	query := `
		SELECT
			p.id, p.order_id, p.reference, p.provider_ref, p.amount, p.status, p.paid_at,
			o.order_number, o.customer_email, o.status, o.payment_status,
			o.subtotal, o.shipping_cost, o.coupon_discount, o.total
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE p.reference = $1
	`

	var d PaymentDetail
	err := r.db.QueryRowContext(ctx, query, reference).Scan(
		&d.Payment.ID,
		&d.Payment.OrderID,
		&d.Payment.Reference,
		&d.Payment.ProviderRef,
		&d.Payment.Amount,
		&d.Payment.Status,
		&d.Payment.PaidAt,
		&d.Order.OrderNumber,
		&d.Order.CustomerEmail,
		&d.Order.Status,
		&d.Order.PaymentStatus,
		&d.Order.Subtotal,
		&d.Order.ShippingCost,
		&d.Order.CouponDiscount,
		&d.Order.Total,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment by reference: %w", err)
	}
	d.Order.ID = d.Payment.OrderID

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, variant_id, name, sku, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, d.Order.ID)
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
		item.OrderID = d.Order.ID
		d.Order.Items = append(d.Order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *repository) MarkPaymentSucceeded(
	ctx context.Context,
	p MarkPaidParams,
) (bool, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "MarkPaymentSucceeded"),
		zap.String("reference", p.Reference),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return false, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// The idempotency gate lives inside the transaction: a row already in
	// SUCCESS matches nothing here, so a duplicate or concurrent delivery
	// commits zero writes.
	res, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = 'SUCCESS',
			provider_ref = COALESCE($2, provider_ref),
			paid_at = NOW(),
			updated_at = NOW()
		WHERE reference = $1
		  AND status <> 'SUCCESS'
	`, p.Reference, p.ProviderRef)
	if err != nil {
		log.Error("failed to update payment status", zap.Error(err))
		return false, err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return true, nil
	}

	// Order advances to PROCESSING only from PENDING; a canceled order keeps
	// its workflow status while payment_status still records that money was
	// collected.
	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = 'PAID',
			status = CASE WHEN status = 'PENDING' THEN 'PROCESSING' ELSE status END,
			updated_at = NOW()
		WHERE id = $1
	`, p.OrderID)
	if err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return false, err
	}

	reason := fmt.Sprintf("order %s fulfillment", p.OrderNumber)

	for _, item := range p.Items {
		var newQty int
		err = tx.QueryRowContext(ctx, `
			UPDATE variants
			SET stock_qty = stock_qty - $1,
				updated_at = NOW()
			WHERE id = $2
			RETURNING stock_qty
		`, item.Quantity, item.VariantID).Scan(&newQty)
		if err != nil {
			log.Error("failed to deduct variant stock",
				zap.Int64("variant_id", item.VariantID),
				zap.Error(err),
			)
			return false, err
		}

		// Fulfillment of a paid order never fails on stock; oversold
		// quantities go negative and are reconciled from the ledger.
		if newQty < 0 {
			log.Warn("variant stock went negative",
				zap.Int64("variant_id", item.VariantID),
				zap.String("sku", item.SKU),
				zap.Int("stock_qty", newQty),
			)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO stock_movements (variant_id, type, quantity, reason, reference_id)
			VALUES ($1, 'DEDUCTION', $2, $3, $4)
		`, item.VariantID, item.Quantity, reason, p.OrderID)
		if err != nil {
			log.Error("failed to insert stock movement",
				zap.Int64("variant_id", item.VariantID),
				zap.Error(err),
			)
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit fulfillment transaction", zap.Error(err))
		return false, err
	}

	committed = true
	return false, nil
}

func (r *repository) MarkPaymentFailed(
	ctx context.Context,
	reference string,
) (bool, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "MarkPaymentFailed"),
		zap.String("reference", reference),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return false, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	// SUCCESS is sticky: a late or out-of-order failure notification must
	// never downgrade a paid payment.
	var orderID int64
	err = tx.QueryRowContext(ctx, `
		UPDATE payments
		SET status = 'FAILED',
			updated_at = NOW()
		WHERE reference = $1
		  AND status <> 'SUCCESS'
		RETURNING order_id
	`, reference).Scan(&orderID)

	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM payments WHERE reference = $1)`,
			reference,
		).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, ErrPaymentNotFound
		}
		// Payment already SUCCESS, leave it alone.
		return false, nil
	}
	if err != nil {
		log.Error("failed to update payment status", zap.Error(err))
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = 'FAILED',
			updated_at = NOW()
		WHERE id = $1
	`, orderID)
	if err != nil {
		log.Error("failed to update order payment status", zap.Error(err))
		return false, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit fail-payment transaction", zap.Error(err))
		return false, err
	}

	committed = true
	return true, nil
}
