package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fooddash/api/internal/clock"
	"github.com/fooddash/api/internal/domain"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	CreateOrder(ctx context.Context, order domain.Order) error
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

// Notifier receives successful status changes. Implementations must never
// block or fail the triggering operation.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, order domain.Order)
}

type OrderService struct {
	repo         OrderRepository
	notifier     Notifier
	clock        clock.Clock
	cancelWindow time.Duration
}

const defaultCancelWindow = 60 * time.Second

type OrderServiceOption func(*OrderService)

// WithCancelWindow overrides the customer cancellation grace period.
func WithCancelWindow(d time.Duration) OrderServiceOption {
	return func(s *OrderService) {
		if d > 0 {
			s.cancelWindow = d
		}
	}
}

func NewOrderService(repo OrderRepository, notifier Notifier, clk clock.Clock, opts ...OrderServiceOption) *OrderService {
	svc := &OrderService{
		repo:         repo,
		notifier:     notifier,
		clock:        clk,
		cancelWindow: defaultCancelWindow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Place stores a new order. The input status is ignored: every order starts
// as PLACED, timestamped from the service clock. Line items and their add-ons
// are linked to their parents before persistence.
func (s *OrderService) Place(ctx context.Context, in domain.Order) (domain.Order, error) {
	if in.UserID == "" {
		return domain.Order{}, domain.ErrInvalidID
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return domain.Order{}, domain.ErrInvalidQuantity
		}
	}

	order := in
	order.ID = uuid.NewString()
	order.Status = domain.OrderStatusPlaced
	order.PlacedAt = s.clock.Now()

	order.Items = make([]domain.OrderItem, len(in.Items))
	for i, item := range in.Items {
		item.ID = uuid.NewString()
		item.OrderID = order.ID
		item.Addons = make([]domain.OrderItemAddon, len(in.Items[i].Addons))
		for j, addon := range in.Items[i].Addons {
			addon.ID = uuid.NewString()
			addon.OrderItemID = item.ID
			item.Addons[j] = addon
		}
		order.Items[i] = item
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// UpdateStatus applies an admin-driven status change. It is deliberately
// permissive: any known status can be forced from any current state, only
// customer cancellation is constrained by the transition rules. Exactly one
// notification is attempted per successful change.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return domain.Order{}, domain.ErrInvalidStatus
	}

	var order domain.Order
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateOrderStatus(txCtx, orderID, status); err != nil {
			return err
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.notifier.OrderStatusChanged(ctx, order)
	return order, nil
}

// Cancel is the customer-facing transition to CANCELLED. It is only legal
// from PLACED and only within the cancellation window measured from PlacedAt.
func (s *OrderService) Cancel(ctx context.Context, orderID string) (domain.Order, error) {
	now := s.clock.Now()

	var order domain.Order
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusPlaced {
			return domain.ErrOrderNotCancellable
		}
		if now.Sub(order.PlacedAt) > s.cancelWindow {
			return domain.ErrCancelWindowExpired
		}
		if err := s.repo.UpdateOrderStatus(txCtx, orderID, domain.OrderStatusCancelled); err != nil {
			return err
		}
		order.Status = domain.OrderStatusCancelled
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.notifier.OrderStatusChanged(ctx, order)
	return order, nil
}

// ListUserOrders returns a user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListOrdersByUser(ctx, userID)
}

// ListOrders returns all orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListOrders(ctx)
}
