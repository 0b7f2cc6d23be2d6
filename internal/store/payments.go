package store

import (
	"context"

	"pharmacy-api/internal/models"

	"github.com/jmoiron/sqlx"
)

const paymentColumns = `id, order_id, user_id, amount, method, status, transaction_ref, created_at, updated_at`

func (s *Postgres) GetPayment(ctx context.Context, id string) (models.Payment, error) {
	var p models.Payment
	err := s.db.GetContext(ctx, &p, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return p, mapErr(err)
}

func (s *Postgres) GetPaymentByOrder(ctx context.Context, orderID string) (models.Payment, error) {
	var p models.Payment
	err := s.db.GetContext(ctx, &p, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID)
	return p, mapErr(err)
}

func (s *Postgres) ListPayments(ctx context.Context, f PaymentFilter) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := s.db.SelectContext(ctx, &payments, `
		SELECT `+paymentColumns+` FROM payments
		WHERE ($1 = '' OR user_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3`, f.UserID, string(f.Status), defaultListLimit)
	return payments, mapErr(err)
}

// UpdatePaymentStatus sets the payment status and mirrors it onto the order.
// An empty ref keeps the stored transaction reference.
func (s *Postgres) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, ref string) (models.Payment, error) {
	var p models.Payment
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		now := s.now()
		err := tx.GetContext(ctx, &p, `
			UPDATE payments
			SET status = $2, transaction_ref = COALESCE(NULLIF($3, ''), transaction_ref), updated_at = $4
			WHERE id = $1
			RETURNING `+paymentColumns, id, status, ref, now)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE orders SET payment_status = $2, updated_at = $3 WHERE id = $1`,
			p.OrderID, status, now)
		return err
	})
	return p, mapErr(err)
}
