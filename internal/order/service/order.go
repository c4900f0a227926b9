package service

import (
	"context"
	"errors"
	"fmt"

	"delivery-hub/internal/domain"

	"github.com/oklog/ulid/v2"
)

// Delivery fee schedule: flat fee, waived above the free-delivery floor.
const (
	deliveryFee       = 3.0
	freeDeliveryFloor = 50.0
)

func (s *OrderService) Checkout(ctx context.Context, userID string, req domain.CreateOrderRequest) (domain.Order, error) {
	if userID == "" {
		return domain.Order{}, errors.New("user id is required")
	}
	if req.RestaurantID == "" {
		return domain.Order{}, errors.New("restaurant id is required")
	}
	if req.DeliveryAddr == "" {
		return domain.Order{}, errors.New("delivery address is required")
	}
	if req.CustomerPhone == "" {
		return domain.Order{}, errors.New("customer phone is required")
	}
	if len(req.Items) == 0 {
		return domain.Order{}, errors.New("at least one item is required")
	}

	subtotal := 0.0
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("invalid quantity for item %s", item.Name)
		}
		if item.UnitPrice <= 0 {
			return domain.Order{}, fmt.Errorf("invalid price for item %s", item.Name)
		}
		subtotal += float64(item.Quantity) * item.UnitPrice
		items = append(items, domain.OrderItem{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		})
	}

	fee := deliveryFee
	if subtotal >= freeDeliveryFloor {
		fee = 0
	}

	order := domain.Order{
		OrderNumber:   "ORD-" + ulid.Make().String(),
		UserID:        userID,
		RestaurantID:  req.RestaurantID,
		Status:        domain.StatusPending,
		Subtotal:      subtotal,
		DeliveryFee:   fee,
		TotalAmount:   subtotal + fee,
		DeliveryAddr:  req.DeliveryAddr,
		CustomerPhone: req.CustomerPhone,
		Items:         items,
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	s.announce(ctx, domain.EventOrderNew, &created)
	return created, nil
}

func (s *OrderService) Get(ctx context.Context, orderNumber string) (domain.Order, error) {
	return s.repo.GetByNumber(ctx, orderNumber)
}

func (s *OrderService) Transition(ctx context.Context, orderNumber string, requested domain.Status, changedBy string) (domain.Order, error) {
	if !requested.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, requested)
	}

	current, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return domain.Order{}, err
	}
	if !domain.CanTransition(current.Status, requested) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.Status, requested)
	}

	updated, err := s.repo.UpdateStatus(ctx, orderNumber, requested, current.Version, changedBy)
	if err != nil {
		return domain.Order{}, err
	}

	s.announce(ctx, domain.EventOrderUpdate, &updated)
	return updated, nil
}

func (s *OrderService) Claim(ctx context.Context, orderNumber, driverID string) (domain.Order, error) {
	if driverID == "" {
		return domain.Order{}, errors.New("driver id is required")
	}
	current, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return domain.Order{}, err
	}
	if current.Status.Terminal() {
		return domain.Order{}, fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, current.Status)
	}
	updated, err := s.repo.AssignDriver(ctx, orderNumber, driverID, current.Version)
	if err != nil {
		return domain.Order{}, err
	}
	s.announce(ctx, domain.EventOrderUpdate, &updated)
	return updated, nil
}

// announce publishes exactly one event per successful mutation. A publish
// failure is logged, not surfaced: the database is the system of record and
// watchers recover by re-fetching.
func (s *OrderService) announce(ctx context.Context, eventType string, order *domain.Order) {
	env := domain.NewOrderEnvelope(eventType, order)
	if err := s.pub.PublishOrderEvent(ctx, env); err != nil {
		s.lg.Error("event_publish_failed", err, map[string]any{
			"order_number": order.OrderNumber,
			"event":        eventType,
		})
		return
	}
	s.lg.Debug("event_published", map[string]any{
		"order_number": order.OrderNumber,
		"event":        eventType,
		"status":       order.Status,
		"version":      order.Version,
	})
}
