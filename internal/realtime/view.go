package realtime

import (
	"sync"

	"delivery-hub/internal/domain"
)

// OrderView is a client-side projection of the orders a UI is watching.
// Live events merge in by version, so an update arriving out of order
// relative to an authoritative fetch is discarded instead of regressing the
// view. A tentative status set optimistically before server confirmation is
// overlaid until the next authoritative snapshot reconciles it.
type OrderView struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	tentative map[string]domain.Status
}

func NewOrderView() *OrderView {
	return &OrderView{
		orders:    make(map[string]domain.Order),
		tentative: make(map[string]domain.Status),
	}
}

// Follow registers the view as c's message handler so every event the client
// receives is merged into the view.
func (v *OrderView) Follow(c *Client) {
	c.OnMessage(func(env domain.Envelope) { v.Apply(env) })
}

// Apply merges one live event into the view. It reports false when the event
// carried no order or was stale (version not newer than what is held).
func (v *OrderView) Apply(env domain.Envelope) bool {
	order := env.Data.Order
	if order == nil || order.OrderNumber == "" {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if cur, ok := v.orders[order.OrderNumber]; ok && order.Version <= cur.Version {
		return false
	}
	v.orders[order.OrderNumber] = *order
	delete(v.tentative, order.OrderNumber)
	return true
}

// Replace installs an authoritative snapshot regardless of version, for the
// explicit re-fetch a client performs after reconnecting or on manual
// refresh. It also clears any tentative overlay.
func (v *OrderView) Replace(order domain.Order) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.orders[order.OrderNumber] = order
	delete(v.tentative, order.OrderNumber)
}

// SetTentative records a locally initiated status ahead of server
// confirmation. The overlay survives until the next Apply or Replace for
// that order; a confirmation that never arrives is tolerable staleness, not
// an error.
func (v *OrderView) SetTentative(orderNumber string, status domain.Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tentative[orderNumber] = status
}

// Get returns the order with any tentative overlay applied.
func (v *OrderView) Get(orderNumber string) (domain.Order, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	order, ok := v.orders[orderNumber]
	if !ok {
		return domain.Order{}, false
	}
	if status, ok := v.tentative[orderNumber]; ok {
		order.Status = status
	}
	return order, true
}
