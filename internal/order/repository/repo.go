package repository

import (
	"context"

	"delivery-hub/internal/domain"
)

type OrderRepositoryInterface interface {
	// Create inserts the order, its items and the initial status-log row in
	// one transaction and returns the stored snapshot.
	Create(ctx context.Context, order domain.Order) (domain.Order, error)

	// GetByNumber returns the order with items, or domain.ErrNotFound.
	GetByNumber(ctx context.Context, orderNumber string) (domain.Order, error)

	// UpdateStatus applies a status change only if the stored version still
	// equals expectedVersion. Returns domain.ErrConflict when another writer
	// got there first and domain.ErrNotFound for unknown orders.
	UpdateStatus(ctx context.Context, orderNumber string, status domain.Status, expectedVersion int, changedBy string) (domain.Order, error)

	// AssignDriver records the courier that claimed the order, same version
	// discipline as UpdateStatus.
	AssignDriver(ctx context.Context, orderNumber, driverID string, expectedVersion int) (domain.Order, error)
}
