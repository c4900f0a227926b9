package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"delivery-hub/internal/domain"

	"github.com/go-playground/assert/v2"
)

type fakeRepo struct {
	mu           sync.Mutex
	orders       map[string]domain.Order
	nextID       int
	conflictOnce bool // next guarded update loses the version race
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[string]domain.Order)}
}

func (f *fakeRepo) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	order.ID = f.nextID
	order.Version = 1
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	f.orders[order.OrderNumber] = order
	return order, nil
}

func (f *fakeRepo) GetByNumber(_ context.Context, orderNumber string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderNumber]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, orderNumber string, status domain.Status, expectedVersion int, _ string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderNumber]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	if f.conflictOnce {
		f.conflictOnce = false
		return domain.Order{}, domain.ErrConflict
	}
	if o.Version != expectedVersion {
		return domain.Order{}, domain.ErrConflict
	}
	o.Status = status
	o.Version++
	o.UpdatedAt = time.Now().UTC()
	f.orders[orderNumber] = o
	return o, nil
}

func (f *fakeRepo) AssignDriver(_ context.Context, orderNumber, driverID string, expectedVersion int) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderNumber]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	if o.Version != expectedVersion {
		return domain.Order{}, domain.ErrConflict
	}
	o.DriverID = driverID
	o.Version++
	f.orders[orderNumber] = o
	return o, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.Envelope
}

func (f *fakePublisher) PublishOrderEvent(_ context.Context, env domain.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, env)
	return nil
}

func (f *fakePublisher) take() []domain.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.events
	f.events = nil
	return out
}

func validRequest() domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		RestaurantID:  "rest-1",
		DeliveryAddr:  "1 Main St",
		CustomerPhone: "+15550100",
		Items: []domain.CreateOrderItem{
			{MenuItemID: "m1", Name: "Margherita", Quantity: 2, UnitPrice: 9.5},
			{MenuItemID: "m2", Name: "Cola", Quantity: 1, UnitPrice: 2.0},
		},
	}
}

func newTestService() (*OrderService, *fakeRepo, *fakePublisher) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	return New(repo, pub), repo, pub
}

func TestCheckoutComputesTotals(t *testing.T) {
	svc, _, pub := newTestService()

	order, err := svc.Checkout(context.Background(), "u1", validRequest())
	assert.Equal(t, err, nil)
	assert.Equal(t, order.Subtotal, 21.0)
	assert.Equal(t, order.DeliveryFee, 3.0)
	assert.Equal(t, order.TotalAmount, order.Subtotal+order.DeliveryFee)
	assert.Equal(t, order.Status, domain.StatusPending)
	assert.Equal(t, order.Version, 1)
	assert.Equal(t, order.UserID, "u1")
	assert.Equal(t, len(order.Items), 2)

	events := pub.take()
	assert.Equal(t, len(events), 1)
	assert.Equal(t, events[0].Type, domain.EventOrderNew)
	assert.Equal(t, events[0].Data.Order.OrderNumber, order.OrderNumber)
}

func TestCheckoutWaivesFeeAboveFloor(t *testing.T) {
	svc, _, _ := newTestService()
	req := validRequest()
	req.Items = []domain.CreateOrderItem{{MenuItemID: "m1", Name: "Feast", Quantity: 1, UnitPrice: 60}}

	order, err := svc.Checkout(context.Background(), "u1", req)
	assert.Equal(t, err, nil)
	assert.Equal(t, order.DeliveryFee, 0.0)
	assert.Equal(t, order.TotalAmount, 60.0)
}

func TestCheckoutRejectsBadInput(t *testing.T) {
	svc, _, pub := newTestService()

	cases := []func(*domain.CreateOrderRequest){
		func(r *domain.CreateOrderRequest) { r.Items = nil },
		func(r *domain.CreateOrderRequest) { r.Items[0].Quantity = 0 },
		func(r *domain.CreateOrderRequest) { r.Items[0].UnitPrice = -1 },
		func(r *domain.CreateOrderRequest) { r.RestaurantID = "" },
		func(r *domain.CreateOrderRequest) { r.DeliveryAddr = "" },
		func(r *domain.CreateOrderRequest) { r.CustomerPhone = "" },
	}
	for _, mutate := range cases {
		req := validRequest()
		mutate(&req)
		_, err := svc.Checkout(context.Background(), "u1", req)
		assert.NotEqual(t, err, nil)
	}
	_, err := svc.Checkout(context.Background(), "", validRequest())
	assert.NotEqual(t, err, nil)

	assert.Equal(t, len(pub.take()), 0)
}

func TestTransitionHappyPath(t *testing.T) {
	svc, _, pub := newTestService()
	order, _ := svc.Checkout(context.Background(), "u1", validRequest())
	pub.take()

	updated, err := svc.Transition(context.Background(), order.OrderNumber, domain.StatusConfirmed, "admin:a1")
	assert.Equal(t, err, nil)
	assert.Equal(t, updated.Status, domain.StatusConfirmed)
	assert.Equal(t, updated.Version, order.Version+1)

	events := pub.take()
	assert.Equal(t, len(events), 1)
	assert.Equal(t, events[0].Type, domain.EventOrderUpdate)
	assert.Equal(t, events[0].Data.Order.Status, domain.StatusConfirmed)
	assert.Equal(t, events[0].Data.Order.Version, updated.Version)
}

func TestTransitionRejectsUnreachableStatus(t *testing.T) {
	svc, _, pub := newTestService()
	order, _ := svc.Checkout(context.Background(), "u1", validRequest())
	pub.take()

	_, err := svc.Transition(context.Background(), order.OrderNumber, domain.StatusDelivered, "admin:a1")
	assert.Equal(t, errors.Is(err, domain.ErrInvalidTransition), true)

	_, err = svc.Transition(context.Background(), order.OrderNumber, "teleported", "admin:a1")
	assert.Equal(t, errors.Is(err, domain.ErrInvalidTransition), true)

	// failed transitions must not announce anything
	assert.Equal(t, len(pub.take()), 0)

	current, _ := svc.Get(context.Background(), order.OrderNumber)
	assert.Equal(t, current.Status, domain.StatusPending)
	assert.Equal(t, current.Version, order.Version)
}

func TestTransitionUnknownOrder(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Transition(context.Background(), "ORD-NOPE", domain.StatusConfirmed, "admin:a1")
	assert.Equal(t, errors.Is(err, domain.ErrNotFound), true)
}

func TestTransitionSurfacesConflict(t *testing.T) {
	svc, repo, pub := newTestService()
	order, _ := svc.Checkout(context.Background(), "u1", validRequest())
	pub.take()

	repo.mu.Lock()
	repo.conflictOnce = true
	repo.mu.Unlock()

	_, err := svc.Transition(context.Background(), order.OrderNumber, domain.StatusConfirmed, "admin:a1")
	assert.Equal(t, errors.Is(err, domain.ErrConflict), true)
	assert.Equal(t, len(pub.take()), 0)

	// a retry against fresh state succeeds
	updated, err := svc.Transition(context.Background(), order.OrderNumber, domain.StatusConfirmed, "admin:a1")
	assert.Equal(t, err, nil)
	assert.Equal(t, updated.Status, domain.StatusConfirmed)
	assert.Equal(t, len(pub.take()), 1)
}

func TestTerminalOrdersAdmitNoTransition(t *testing.T) {
	svc, _, pub := newTestService()
	order, _ := svc.Checkout(context.Background(), "u1", validRequest())

	path := []domain.Status{
		domain.StatusConfirmed, domain.StatusPreparing, domain.StatusReadyForPickup,
		domain.StatusOutForDelivery, domain.StatusDelivered,
	}
	for _, next := range path {
		var err error
		_, err = svc.Transition(context.Background(), order.OrderNumber, next, "admin:a1")
		assert.Equal(t, err, nil)
	}
	pub.take()

	_, err := svc.Transition(context.Background(), order.OrderNumber, domain.StatusCancelled, "admin:a1")
	assert.Equal(t, errors.Is(err, domain.ErrInvalidTransition), true)
	assert.Equal(t, len(pub.take()), 0)
}

func TestClaimAssignsDriverAndAnnounces(t *testing.T) {
	svc, _, pub := newTestService()
	order, _ := svc.Checkout(context.Background(), "u1", validRequest())
	pub.take()

	updated, err := svc.Claim(context.Background(), order.OrderNumber, "d1")
	assert.Equal(t, err, nil)
	assert.Equal(t, updated.DriverID, "d1")
	assert.Equal(t, updated.Version, order.Version+1)

	events := pub.take()
	assert.Equal(t, len(events), 1)
	assert.Equal(t, events[0].Type, domain.EventOrderUpdate)
	assert.Equal(t, events[0].Data.Order.DriverID, "d1")
}

func TestClaimRejectsTerminalOrder(t *testing.T) {
	svc, _, pub := newTestService()
	order, _ := svc.Checkout(context.Background(), "u1", validRequest())
	_, err := svc.Transition(context.Background(), order.OrderNumber, domain.StatusCancelled, "admin:a1")
	assert.Equal(t, err, nil)
	pub.take()

	_, err = svc.Claim(context.Background(), order.OrderNumber, "d1")
	assert.Equal(t, errors.Is(err, domain.ErrInvalidTransition), true)
	assert.Equal(t, len(pub.take()), 0)
}
