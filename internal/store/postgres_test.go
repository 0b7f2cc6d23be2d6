package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"pharmacy-api/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewPostgres(sqlx.NewDb(db, "postgres"))
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

var profileCols = []string{"id", "email", "full_name", "phone", "date_of_birth", "allergies", "medical_conditions", "role", "created_at", "updated_at"}

func TestGetProfile(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("^SELECT (.+) FROM profiles WHERE id = \\$1").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("user-1", "ann@example.com", "Ann Lee", "555-0101", "1990-04-01", "penicillin", "", "customer", fixedNow, fixedNow))

	p, err := s.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", p.FullName)
	assert.Equal(t, models.RoleCustomer, p.Role)
	assert.Equal(t, "penicillin", p.Allergies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("^SELECT (.+) FROM profiles").WillReturnError(sql.ErrNoRows)

	_, err := s.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProfileDefaultsRole(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("^INSERT INTO profiles (.+) ON CONFLICT \\(id\\)").
		WithArgs("user-1", "ann@example.com", "", "", "", "", "", "customer", fixedNow).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("user-1", "ann@example.com", "", "", "", "", "", "customer", fixedNow, fixedNow))

	p, err := s.CreateProfile(context.Background(), models.Profile{ID: "user-1", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, p.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProfilesByRole(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("^SELECT (.+) FROM profiles").
		WithArgs("pharmacist").
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("ph-1", "rx@example.com", "Rita", "", "", "", "", "pharmacist", fixedNow, fixedNow))

	profiles, err := s.ListProfiles(context.Background(), models.RolePharmacist)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, models.RolePharmacist, profiles[0].Role)
}

func TestCreateOrderCommits(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("^INSERT INTO orders").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("^INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("^INSERT INTO order_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("^INSERT INTO payments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	order := &models.Order{
		UserID:          "user-1",
		Status:          models.OrderPending,
		TotalAmount:     19.48,
		PaymentMethod:   models.PaymentCard,
		PaymentStatus:   models.PaymentPending,
		FulfillmentType: models.FulfillmentPickup,
		Items: []models.OrderItem{
			{ProductID: "paracetamol-500", ProductName: "Paracetamol", Quantity: 2, UnitPrice: 3.49},
			{ProductID: "amoxicillin-500", ProductName: "Amoxicillin", Quantity: 1, UnitPrice: 12.50},
		},
	}
	payment := &models.Payment{Amount: 19.48, Method: models.PaymentCard, Status: models.PaymentPending}

	require.NoError(t, s.CreateOrder(context.Background(), order, payment))
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, fixedNow, order.CreatedAt)
	for _, item := range order.Items {
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, order.ID, item.OrderID)
	}
	assert.Equal(t, order.ID, payment.OrderID)
	assert.Equal(t, "user-1", payment.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("^INSERT INTO orders").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("^INSERT INTO order_items").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	order := &models.Order{UserID: "user-1", Items: []models.OrderItem{{ProductID: "p", Quantity: 1}}}
	err := s.CreateOrder(context.Background(), order, &models.Payment{})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var orderCols = []string{"id", "user_id", "status", "total_amount", "payment_method", "payment_status", "fulfillment_type", "shipping_address", "notes", "prescription_id", "created_at", "updated_at"}
var itemCols = []string{"id", "order_id", "product_id", "product_name", "quantity", "unit_price"}

func TestListOrdersLoadsItems(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("^SELECT (.+) FROM orders").
		WithArgs("user-1", "", defaultListLimit).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow("o-2", "user-1", "processing", 4.99, "card", "completed", "pickup", "", "", nil, fixedNow, fixedNow).
			AddRow("o-1", "user-1", "delivered", 12.50, "cash_on_delivery", "completed", "delivery", "1 Main St", "", "rx-1", fixedNow, fixedNow))
	mock.ExpectQuery("^SELECT (.+) FROM order_items WHERE order_id = ANY").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow("i-1", "o-1", "amoxicillin-500", "Amoxicillin", 1, 12.50).
			AddRow("i-2", "o-2", "ibuprofen-200", "Ibuprofen", 1, 4.99))

	orders, err := s.ListOrders(context.Background(), OrderFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "o-2", orders[0].ID)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "ibuprofen-200", orders[0].Items[0].ProductID)
	assert.Nil(t, orders[0].PrescriptionID)

	require.NotNil(t, orders[1].PrescriptionID)
	assert.Equal(t, "rx-1", *orders[1].PrescriptionID)
	assert.Equal(t, models.OrderDelivered, orders[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOrdersEmptySkipsItems(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("^SELECT (.+) FROM orders").
		WithArgs("", "pending", 10).
		WillReturnRows(sqlmock.NewRows(orderCols))

	orders, err := s.ListOrders(context.Background(), OrderFilter{Status: models.OrderPending, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("^UPDATE orders SET status").
		WithArgs("missing", "ready", fixedNow).
		WillReturnRows(sqlmock.NewRows(orderCols))

	_, err := s.UpdateOrderStatus(context.Background(), "missing", models.OrderReady)
	assert.ErrorIs(t, err, ErrNotFound)
}

var paymentCols = []string{"id", "order_id", "user_id", "amount", "method", "status", "transaction_ref", "created_at", "updated_at"}

func TestUpdatePaymentStatusMirrorsOrder(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("^UPDATE payments").
		WithArgs("pay-1", "completed", "txn-42", fixedNow).
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow("pay-1", "o-1", "user-1", 12.50, "card", "completed", "txn-42", fixedNow, fixedNow))
	mock.ExpectExec("^UPDATE orders SET payment_status").
		WithArgs("o-1", "completed", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := s.UpdatePaymentStatus(context.Background(), "pay-1", models.PaymentCompleted, "txn-42")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, p.Status)
	assert.Equal(t, "txn-42", p.TransactionRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var prescriptionCols = []string{"id", "user_id", "doctor_name", "image_url", "notes", "product_ids", "status", "reviewed_by", "review_notes", "created_at", "updated_at"}

func TestGetPrescriptionScansArray(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("^SELECT (.+) FROM prescriptions WHERE id").
		WithArgs("rx-1").
		WillReturnRows(sqlmock.NewRows(prescriptionCols).
			AddRow("rx-1", "user-1", "Dr. Gray", "https://files.example.com/rx-1.jpg", "", "{amoxicillin-500,metformin-500}", "approved", "ph-1", "ok", fixedNow, fixedNow))

	p, err := s.GetPrescription(context.Background(), "rx-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"amoxicillin-500", "metformin-500"}, p.ProductIDs)
	assert.Equal(t, models.PrescriptionApproved, p.Status)
	require.NotNil(t, p.ReviewedBy)
	assert.Equal(t, "ph-1", *p.ReviewedBy)
	assert.True(t, p.Covers("metformin-500"))
}

func TestCreatePrescription(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("^INSERT INTO prescriptions").
		WithArgs(sqlmock.AnyArg(), "user-1", "Dr. Gray", "https://files.example.com/rx.jpg", "", sqlmock.AnyArg(), "pending", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	p, err := s.CreatePrescription(context.Background(), models.Prescription{
		UserID:     "user-1",
		DoctorName: "Dr. Gray",
		ImageURL:   "https://files.example.com/rx.jpg",
		ProductIDs: []string{"amoxicillin-500"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.PrescriptionPending, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var addressCols = []string{"id", "user_id", "label", "street", "city", "state", "postal_code", "phone", "is_default", "created_at"}

func TestCreateFirstAddressIsDefault(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("^SELECT COUNT\\(\\*\\) FROM saved_addresses").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("^INSERT INTO saved_addresses").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	a, err := s.CreateAddress(context.Background(), models.SavedAddress{UserID: "user-1", Street: "1 Main St", City: "Springfield"})
	require.NoError(t, err)
	assert.True(t, a.IsDefault)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDefaultAddressClearsOthers(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("^SELECT COUNT\\(\\*\\) FROM saved_addresses").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec("^UPDATE saved_addresses SET is_default = false").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("^INSERT INTO saved_addresses").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	a, err := s.CreateAddress(context.Background(), models.SavedAddress{UserID: "user-1", Street: "9 Elm", City: "Shelbyville", IsDefault: true})
	require.NoError(t, err)
	assert.True(t, a.IsDefault)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetDefaultAddressForeignRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("^UPDATE saved_addresses SET is_default = false").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("^UPDATE saved_addresses SET is_default = true").
		WithArgs("addr-9", "user-1").
		WillReturnRows(sqlmock.NewRows(addressCols))
	mock.ExpectRollback()

	_, err := s.SetDefaultAddress(context.Background(), "user-1", "addr-9")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAddressNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("^DELETE FROM saved_addresses").
		WithArgs("addr-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteAddress(context.Background(), "user-1", "addr-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddFavoriteUpserts(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("^INSERT INTO favorite_products (.+) ON CONFLICT").
		WithArgs(sqlmock.AnyArg(), "user-1", "vitamin-c-1000", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "product_id", "created_at"}).
			AddRow("fav-1", "user-1", "vitamin-c-1000", fixedNow))

	f, err := s.AddFavorite(context.Background(), "user-1", "vitamin-c-1000")
	require.NoError(t, err)
	assert.Equal(t, "fav-1", f.ID)
}

func TestListNotificationsUnreadOnly(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("^SELECT (.+) FROM notifications").
		WithArgs("user-1", true, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "title", "message", "read", "created_at"}).
			AddRow("n-1", "user-1", "order", "Order ready", "Your order is ready for pickup", false, fixedNow))

	list, err := s.ListNotifications(context.Background(), "user-1", NotificationFilter{UnreadOnly: true, Limit: 20})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationOrder, list[0].Type)
	assert.False(t, list[0].Read)
}

func TestMarkNotificationReadScopedToOwner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("^UPDATE notifications SET read = true WHERE id").
		WithArgs("n-1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.MarkNotificationRead(context.Background(), "intruder", "n-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDashboardStats(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("^SELECT status, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("delivered", 5))
	mock.ExpectQuery("^SELECT COALESCE\\(SUM\\(total_amount\\), 0\\) FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(120.5))
	mock.ExpectQuery("^SELECT COUNT\\(\\*\\) FROM prescriptions").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("^SELECT COUNT\\(\\*\\) FROM profiles").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(40))

	stats, err := s.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalOrders)
	assert.Equal(t, 3, stats.OrdersByStatus[models.OrderPending])
	assert.InDelta(t, 120.5, stats.Revenue, 0.001)
	assert.Equal(t, 2, stats.PendingPrescriptions)
	assert.Equal(t, 40, stats.Customers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil))
	assert.ErrorIs(t, mapErr(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapErr(&pq.Error{Code: "23505", Constraint: "favorite_products_user_id_product_id_key"}), ErrConflict)
	assert.ErrorIs(t, mapErr(&pq.Error{Code: "23503"}), ErrNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapErr(other))
}
