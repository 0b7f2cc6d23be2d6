package store

import (
	"context"

	"pharmacy-api/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const orderColumns = `id, user_id, status, total_amount, payment_method, payment_status, fulfillment_type, shipping_address, notes, prescription_id, created_at, updated_at`

// CreateOrder inserts the order, its items and its payment in one transaction.
// Ids and timestamps are assigned on the passed values.
func (s *Postgres) CreateOrder(ctx context.Context, o *models.Order, p *models.Payment) error {
	now := s.now()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt, o.UpdatedAt = now, now
	for i := range o.Items {
		if o.Items[i].ID == "" {
			o.Items[i].ID = uuid.NewString()
		}
		o.Items[i].OrderID = o.ID
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.OrderID, p.UserID = o.ID, o.UserID
	p.CreatedAt, p.UpdatedAt = now, now

	return mapErr(s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			o.ID, o.UserID, o.Status, o.TotalAmount, o.PaymentMethod, o.PaymentStatus, o.FulfillmentType,
			o.ShippingAddress, o.Notes, o.PrescriptionID, o.CreatedAt, o.UpdatedAt)
		if err != nil {
			return err
		}

		for _, item := range o.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice)
			if err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO payments (id, order_id, user_id, amount, method, status, transaction_ref, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			p.ID, p.OrderID, p.UserID, p.Amount, p.Method, p.Status, p.TransactionRef, p.CreatedAt, p.UpdatedAt)
		return err
	}))
}

func (s *Postgres) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var o models.Order
	if err := s.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id); err != nil {
		return models.Order{}, mapErr(err)
	}
	orders := []models.Order{o}
	if err := s.loadItems(ctx, orders); err != nil {
		return models.Order{}, err
	}
	return orders[0], nil
}

func (s *Postgres) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1 = '' OR user_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3`, f.UserID, string(f.Status), limitOrDefault(f.Limit))
	if err != nil {
		return nil, mapErr(err)
	}
	if err := s.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Postgres) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error) {
	var o models.Order
	err := s.db.GetContext(ctx, &o, `
		UPDATE orders SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+orderColumns, id, status, s.now())
	if err != nil {
		return models.Order{}, mapErr(err)
	}
	orders := []models.Order{o}
	if err := s.loadItems(ctx, orders); err != nil {
		return models.Order{}, err
	}
	return orders[0], nil
}

func (s *Postgres) loadItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, product_name`, pq.Array(ids))
	if err != nil {
		return mapErr(err)
	}
	for _, item := range items {
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	return nil
}
