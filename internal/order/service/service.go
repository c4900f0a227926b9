package service

import (
	"context"

	"delivery-hub/internal/common/logger"
	"delivery-hub/internal/domain"
	"delivery-hub/internal/order/repository"
)

type OrderServiceInterface interface {
	// Checkout validates and persists a new order, then announces it.
	Checkout(ctx context.Context, userID string, req domain.CreateOrderRequest) (domain.Order, error)

	// Get returns the authoritative snapshot for an order number.
	Get(ctx context.Context, orderNumber string) (domain.Order, error)

	// Transition moves the order to the requested status through the
	// transition table, bumps its version and announces the change.
	Transition(ctx context.Context, orderNumber string, requested domain.Status, changedBy string) (domain.Order, error)

	// Claim assigns a courier to the order and announces the change.
	Claim(ctx context.Context, orderNumber, driverID string) (domain.Order, error)
}

// EventPublisher delivers an envelope to the order-events exchange. Satisfied
// by the rabbitmq-backed publisher in production and by fakes in tests.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, env domain.Envelope) error
}

type OrderService struct {
	repo repository.OrderRepositoryInterface
	pub  EventPublisher
	lg   *logger.Logger
}

func New(repo repository.OrderRepositoryInterface, pub EventPublisher) *OrderService {
	return &OrderService{repo: repo, pub: pub, lg: logger.New("order-service")}
}
