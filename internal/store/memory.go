package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"pharmacy-api/internal/models"

	"github.com/google/uuid"
)

// Memory is an in-process store with the same semantics as Postgres. It
// backs local development when no DATABASE_URL is configured.
type Memory struct {
	mu            sync.RWMutex
	profiles      map[string]models.Profile
	orders        map[string]models.Order
	payments      map[string]models.Payment
	prescriptions map[string]models.Prescription
	addresses     map[string]models.SavedAddress
	favorites     map[string]models.FavoriteProduct
	notifications map[string]models.Notification
	seq           int64
	now           func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		profiles:      make(map[string]models.Profile),
		orders:        make(map[string]models.Order),
		payments:      make(map[string]models.Payment),
		prescriptions: make(map[string]models.Prescription),
		addresses:     make(map[string]models.SavedAddress),
		favorites:     make(map[string]models.FavoriteProduct),
		notifications: make(map[string]models.Notification),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// tick returns a strictly increasing timestamp so newest-first ordering is
// stable even when records are created within the same clock tick.
func (m *Memory) tick() time.Time {
	m.seq++
	return m.now().Add(time.Duration(m.seq))
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) GetProfile(_ context.Context, id string) (models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) CreateProfile(_ context.Context, p models.Profile) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.profiles[p.ID]; ok {
		return existing, nil
	}
	if p.Role == "" {
		p.Role = models.RoleCustomer
	}
	now := m.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	m.profiles[p.ID] = p
	return p, nil
}

func (m *Memory) UpdateProfile(_ context.Context, p models.Profile) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.profiles[p.ID]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	existing.FullName = p.FullName
	existing.Phone = p.Phone
	existing.DateOfBirth = p.DateOfBirth
	existing.Allergies = p.Allergies
	existing.MedicalConditions = p.MedicalConditions
	existing.UpdatedAt = m.tick()
	m.profiles[p.ID] = existing
	return existing, nil
}

func (m *Memory) UpdateProfileRole(_ context.Context, id string, role models.Role) (models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return models.Profile{}, ErrNotFound
	}
	p.Role = role
	p.UpdatedAt = m.tick()
	m.profiles[id] = p
	return p, nil
}

func (m *Memory) ListProfiles(_ context.Context, role models.Role) ([]models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Profile{}
	for _, p := range m.profiles {
		if role == "" || p.Role == role {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateOrder(_ context.Context, o *models.Order, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[o.UserID]; !ok {
		return ErrNotFound
	}
	now := m.tick()
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

	m.orders[o.ID] = copyOrder(*o)
	m.payments[p.ID] = *p
	return nil
}

func copyOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem{}, o.Items...)
	return o
}

func (m *Memory) GetOrder(_ context.Context, id string) (models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return copyOrder(o), nil
}

func (m *Memory) ListOrders(_ context.Context, f OrderFilter) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit := limitOrDefault(f.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) UpdateOrderStatus(_ context.Context, id string, status models.OrderStatus) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = m.tick()
	m.orders[id] = o
	return copyOrder(o), nil
}

func (m *Memory) GetPayment(_ context.Context, id string) (models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return models.Payment{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) GetPaymentByOrder(_ context.Context, orderID string) (models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return models.Payment{}, ErrNotFound
}

func (m *Memory) ListPayments(_ context.Context, f PaymentFilter) ([]models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Payment{}
	for _, p := range m.payments {
		if f.UserID != "" && p.UserID != f.UserID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdatePaymentStatus(_ context.Context, id string, status models.PaymentStatus, ref string) (models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return models.Payment{}, ErrNotFound
	}
	now := m.tick()
	p.Status = status
	if ref != "" {
		p.TransactionRef = ref
	}
	p.UpdatedAt = now
	m.payments[id] = p
	if o, ok := m.orders[p.OrderID]; ok {
		o.PaymentStatus = status
		o.UpdatedAt = now
		m.orders[o.ID] = o
	}
	return p, nil
}

func copyPrescription(p models.Prescription) models.Prescription {
	p.ProductIDs = append([]string{}, p.ProductIDs...)
	return p
}

func (m *Memory) CreatePrescription(_ context.Context, p models.Prescription) (models.Prescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UserID]; !ok {
		return models.Prescription{}, ErrNotFound
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.PrescriptionPending
	}
	now := m.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	p = copyPrescription(p)
	m.prescriptions[p.ID] = p
	return copyPrescription(p), nil
}

func (m *Memory) GetPrescription(_ context.Context, id string) (models.Prescription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prescriptions[id]
	if !ok {
		return models.Prescription{}, ErrNotFound
	}
	return copyPrescription(p), nil
}

func (m *Memory) ListPrescriptions(_ context.Context, f PrescriptionFilter) ([]models.Prescription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Prescription{}
	for _, p := range m.prescriptions {
		if f.UserID != "" && p.UserID != f.UserID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, copyPrescription(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ReviewPrescription(_ context.Context, id string, status models.PrescriptionStatus, reviewerID, notes string) (models.Prescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prescriptions[id]
	if !ok {
		return models.Prescription{}, ErrNotFound
	}
	p.Status = status
	p.ReviewedBy = &reviewerID
	p.ReviewNotes = notes
	p.UpdatedAt = m.tick()
	m.prescriptions[id] = p
	return copyPrescription(p), nil
}

func (m *Memory) userAddresses(userID string) []models.SavedAddress {
	out := []models.SavedAddress{}
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *Memory) clearDefault(userID, except string) {
	for id, a := range m.addresses {
		if a.UserID == userID && id != except && a.IsDefault {
			a.IsDefault = false
			m.addresses[id] = a
		}
	}
}

func (m *Memory) ListAddresses(_ context.Context, userID string) ([]models.SavedAddress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userAddresses(userID), nil
}

func (m *Memory) GetAddress(_ context.Context, userID, id string) (models.SavedAddress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return models.SavedAddress{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) CreateAddress(_ context.Context, a models.SavedAddress) (models.SavedAddress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[a.UserID]; !ok {
		return models.SavedAddress{}, ErrNotFound
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = m.tick()
	if len(m.userAddresses(a.UserID)) == 0 {
		a.IsDefault = true
	}
	if a.IsDefault {
		m.clearDefault(a.UserID, a.ID)
	}
	m.addresses[a.ID] = a
	return a, nil
}

func (m *Memory) UpdateAddress(_ context.Context, a models.SavedAddress) (models.SavedAddress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.addresses[a.ID]
	if !ok || existing.UserID != a.UserID {
		return models.SavedAddress{}, ErrNotFound
	}
	a.CreatedAt = existing.CreatedAt
	if a.IsDefault {
		m.clearDefault(a.UserID, a.ID)
	}
	m.addresses[a.ID] = a
	return a, nil
}

func (m *Memory) DeleteAddress(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	delete(m.addresses, id)
	return nil
}

func (m *Memory) SetDefaultAddress(_ context.Context, userID, id string) (models.SavedAddress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.addresses[id]
	if !ok || a.UserID != userID {
		return models.SavedAddress{}, ErrNotFound
	}
	m.clearDefault(userID, id)
	a.IsDefault = true
	m.addresses[id] = a
	return a, nil
}

func (m *Memory) ListFavorites(_ context.Context, userID string) ([]models.FavoriteProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.FavoriteProduct{}
	for _, f := range m.favorites {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) AddFavorite(_ context.Context, userID, productID string) (models.FavoriteProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[userID]; !ok {
		return models.FavoriteProduct{}, ErrNotFound
	}
	for _, f := range m.favorites {
		if f.UserID == userID && f.ProductID == productID {
			return f, nil
		}
	}
	f := models.FavoriteProduct{ID: uuid.NewString(), UserID: userID, ProductID: productID, CreatedAt: m.tick()}
	m.favorites[f.ID] = f
	return f, nil
}

func (m *Memory) RemoveFavorite(_ context.Context, userID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, f := range m.favorites {
		if f.UserID == userID && f.ProductID == productID {
			delete(m.favorites, id)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) CreateNotification(_ context.Context, n models.Notification) (models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[n.UserID]; !ok {
		return models.Notification{}, ErrNotFound
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = m.tick()
	m.notifications[n.ID] = n
	return n, nil
}

func (m *Memory) ListNotifications(_ context.Context, userID string, f NotificationFilter) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Notification{}
	for _, n := range m.notifications {
		if n.UserID != userID || (f.UnreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit := limitOrDefault(f.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CountUnread(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *Memory) MarkNotificationRead(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.Read = true
	m.notifications[id] = n
	return nil
}

func (m *Memory) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for id, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			m.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (m *Memory) DeleteNotification(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	delete(m.notifications, id)
	return nil
}

func (m *Memory) DashboardStats(_ context.Context) (models.DashboardStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := models.DashboardStats{OrdersByStatus: map[models.OrderStatus]int{}}
	for _, o := range m.orders {
		stats.OrdersByStatus[o.Status]++
		stats.TotalOrders++
		if o.Status != models.OrderCancelled && o.PaymentStatus == models.PaymentCompleted {
			stats.Revenue += o.TotalAmount
		}
	}
	for _, p := range m.prescriptions {
		if p.Status == models.PrescriptionPending {
			stats.PendingPrescriptions++
		}
	}
	for _, p := range m.profiles {
		if p.Role == models.RoleCustomer {
			stats.Customers++
		}
	}
	return stats, nil
}
