package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Raw Olist tables, loaded once at startup and treated as read-only
// for the lifetime of the process.

type Order struct {
	ID          string
	CustomerID  string
	Status      string
	PurchasedAt time.Time
	ApprovedAt  time.Time
	// DeliveredAt is zero when the order is still in flight or was
	// cancelled; such orders never enter delay metrics.
	DeliveredAt time.Time
	EstimatedAt time.Time
}

// Delivered reports whether the order completed its lifecycle.
func (o Order) Delivered() bool {
	return o.Status == "delivered" && !o.DeliveredAt.IsZero()
}

// MonthKey returns the purchase month as "2006-01".
func (o Order) MonthKey() string {
	return o.PurchasedAt.Format("2006-01")
}

type OrderItem struct {
	OrderID       string
	ItemID        int
	ProductID     string
	SellerID      string
	ShippingLimit time.Time
	Price         decimal.Decimal
	FreightValue  decimal.Decimal
}

type Payment struct {
	OrderID      string
	Sequential   int
	Type         string
	Installments int
	Value        decimal.Decimal
}

type Review struct {
	ID         string
	OrderID    string
	Score      int
	CreatedAt  time.Time
	AnsweredAt time.Time
}

type Seller struct {
	ID        string
	ZipPrefix string
	City      string
	State     string
}

type Product struct {
	ID       string
	Category string
}

type Customer struct {
	ID        string
	UniqueID  string
	ZipPrefix string
	City      string
	State     string
}

type GeolocationPoint struct {
	ZipPrefix string
	Lat       float64
	Lng       float64
	City      string
	State     string
}
