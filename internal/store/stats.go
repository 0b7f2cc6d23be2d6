package store

import (
	"context"

	"pharmacy-api/internal/models"
)

func (s *Postgres) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	stats := models.DashboardStats{OrdersByStatus: map[models.OrderStatus]int{}}

	var byStatus []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &byStatus, `SELECT status, COUNT(*) AS count FROM orders GROUP BY status`); err != nil {
		return stats, mapErr(err)
	}
	for _, row := range byStatus {
		stats.OrdersByStatus[models.OrderStatus(row.Status)] = row.Count
		stats.TotalOrders += row.Count
	}

	err := s.db.GetContext(ctx, &stats.Revenue, `
		SELECT COALESCE(SUM(total_amount), 0) FROM orders
		WHERE status <> 'cancelled' AND payment_status = 'completed'`)
	if err != nil {
		return stats, mapErr(err)
	}

	err = s.db.GetContext(ctx, &stats.PendingPrescriptions, `SELECT COUNT(*) FROM prescriptions WHERE status = 'pending'`)
	if err != nil {
		return stats, mapErr(err)
	}

	err = s.db.GetContext(ctx, &stats.Customers, `SELECT COUNT(*) FROM profiles WHERE role = 'customer'`)
	return stats, mapErr(err)
}
