package models

import "time"

type Role string

const (
	RoleCustomer   Role = "customer"
	RolePharmacist Role = "pharmacist"
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RolePharmacist, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// IsStaff reports whether the role may use the pharmacy dashboard.
func (r Role) IsStaff() bool {
	return r == RolePharmacist || r == RoleAdmin || r == RoleStaff
}

// CanReviewPrescriptions reports whether the role may approve or reject prescriptions.
func (r Role) CanReviewPrescriptions() bool {
	return r == RolePharmacist || r == RoleAdmin
}

type Profile struct {
	ID                string    `json:"id" db:"id"`
	Email             string    `json:"email" db:"email"`
	FullName          string    `json:"full_name" db:"full_name"`
	Phone             string    `json:"phone" db:"phone"`
	DateOfBirth       string    `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Allergies         string    `json:"allergies,omitempty" db:"allergies"`
	MedicalConditions string    `json:"medical_conditions,omitempty" db:"medical_conditions"`
	Role              Role      `json:"role" db:"role"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderReady      OrderStatus = "ready"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentCashOnDelivery
}

type FulfillmentType string

const (
	FulfillmentDelivery FulfillmentType = "delivery"
	FulfillmentPickup   FulfillmentType = "pickup"
)

func (f FulfillmentType) Valid() bool {
	return f == FulfillmentDelivery || f == FulfillmentPickup
}

type Order struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"user_id" db:"user_id"`
	Status          OrderStatus     `json:"status" db:"status"`
	TotalAmount     float64         `json:"total_amount" db:"total_amount"`
	PaymentMethod   PaymentMethod   `json:"payment_method" db:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	FulfillmentType FulfillmentType `json:"fulfillment_type" db:"fulfillment_type"`
	ShippingAddress string          `json:"shipping_address,omitempty" db:"shipping_address"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	PrescriptionID  *string         `json:"prescription_id,omitempty" db:"prescription_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	Items           []OrderItem     `json:"items" db:"-"`
}

type OrderItem struct {
	ID          string  `json:"id" db:"id"`
	OrderID     string  `json:"order_id" db:"order_id"`
	ProductID   string  `json:"product_id" db:"product_id"`
	ProductName string  `json:"product_name" db:"product_name"`
	Quantity    int     `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
}

type SavedAddress struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Label      string    `json:"label" db:"label"`
	Street     string    `json:"street" db:"street"`
	City       string    `json:"city" db:"city"`
	State      string    `json:"state,omitempty" db:"state"`
	PostalCode string    `json:"postal_code" db:"postal_code"`
	Phone      string    `json:"phone,omitempty" db:"phone"`
	IsDefault  bool      `json:"is_default" db:"is_default"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Format renders the address as a single shipping line.
func (a SavedAddress) Format() string {
	line := a.Street + ", " + a.City
	if a.State != "" {
		line += ", " + a.State
	}
	if a.PostalCode != "" {
		line += " " + a.PostalCode
	}
	return line
}

type FavoriteProduct struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	ProductID string    `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type PrescriptionStatus string

const (
	PrescriptionPending  PrescriptionStatus = "pending"
	PrescriptionApproved PrescriptionStatus = "approved"
	PrescriptionRejected PrescriptionStatus = "rejected"
)

func (s PrescriptionStatus) Valid() bool {
	return s == PrescriptionPending || s == PrescriptionApproved || s == PrescriptionRejected
}

type Prescription struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	DoctorName  string             `json:"doctor_name,omitempty"`
	ImageURL    string             `json:"image_url"`
	Notes       string             `json:"notes,omitempty"`
	ProductIDs  []string           `json:"product_ids"`
	Status      PrescriptionStatus `json:"status"`
	ReviewedBy  *string            `json:"reviewed_by,omitempty"`
	ReviewNotes string             `json:"review_notes,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Covers reports whether the prescription lists the product.
func (p Prescription) Covers(productID string) bool {
	for _, id := range p.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

type Payment struct {
	ID             string        `json:"id" db:"id"`
	OrderID        string        `json:"order_id" db:"order_id"`
	UserID         string        `json:"user_id" db:"user_id"`
	Amount         float64       `json:"amount" db:"amount"`
	Method         PaymentMethod `json:"method" db:"method"`
	Status         PaymentStatus `json:"status" db:"status"`
	TransactionRef string        `json:"transaction_ref,omitempty" db:"transaction_ref"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

type NotificationType string

const (
	NotificationOrder        NotificationType = "order"
	NotificationPrescription NotificationType = "prescription"
	NotificationPayment      NotificationType = "payment"
	NotificationSystem       NotificationType = "system"
)

type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type Product struct {
	ID                   string  `json:"id" yaml:"id"`
	Name                 string  `json:"name" yaml:"name"`
	Category             string  `json:"category" yaml:"category"`
	Description          string  `json:"description,omitempty" yaml:"description"`
	Price                float64 `json:"price" yaml:"price"`
	RequiresPrescription bool    `json:"requires_prescription" yaml:"requires_prescription"`
	InStock              bool    `json:"in_stock" yaml:"in_stock"`
	ImageURL             string  `json:"image_url,omitempty" yaml:"image_url"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CartLine struct {
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

type CartView struct {
	Items []CartLine `json:"items"`
	Total float64    `json:"total"`
}

type DashboardStats struct {
	OrdersByStatus       map[OrderStatus]int `json:"orders_by_status"`
	TotalOrders          int                 `json:"total_orders"`
	Revenue              float64             `json:"revenue"`
	PendingPrescriptions int                 `json:"pending_prescriptions"`
	Customers            int                 `json:"customers"`
}
