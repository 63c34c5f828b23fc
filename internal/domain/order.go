package domain

import "time"

type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "PLACED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// ValidOrderStatus reports whether s is one of the known statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPlaced, OrderStatusPreparing, OrderStatusOutForDelivery,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is a customer purchase. PlacedAt is set once at placement and is the
// sole time anchor for the cancellation window.
type Order struct {
	ID              string
	UserID          string
	Status          OrderStatus
	TotalPriceCents int64
	PlacedAt        time.Time
	Items           []OrderItem
}

// OrderItem is a line item referencing a catalog item by opaque ID.
// Catalog entities live in the CRUD layer and are not modeled here.
type OrderItem struct {
	ID        string
	OrderID   string
	ItemID    string
	VariantID string
	Quantity  int
	Addons    []OrderItemAddon
}

// OrderItemAddon is an add-on selection attached to a line item.
type OrderItemAddon struct {
	ID          string
	OrderItemID string
	AddonID     string
}
