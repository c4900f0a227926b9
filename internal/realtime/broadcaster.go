package realtime

import (
	"encoding/json"

	"delivery-hub/internal/common/logger"
	"delivery-hub/internal/domain"
)

// Target selects the recipient set for one publish.
type Target struct {
	All    bool
	Role   domain.Role
	UserID string
}

func TargetAll() Target                  { return Target{All: true} }
func TargetRole(role domain.Role) Target { return Target{Role: role} }
func TargetUser(role domain.Role, userID string) Target {
	return Target{Role: role, UserID: userID}
}

// Broadcaster fans one envelope out to every connection matching a target.
// Delivery is best-effort, at-most-once per connection: a recipient whose
// send fails is evicted and the publish continues with the rest.
type Broadcaster struct {
	registry *Registry
	lg       *logger.Logger
}

func NewBroadcaster(registry *Registry, lg *logger.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, lg: lg}
}

// Publish sends env to every live connection matching target and returns how
// many accepted it. The envelope is encoded once for the whole recipient set.
func (b *Broadcaster) Publish(target Target, env domain.Envelope) int {
	var subs []Subscriber
	switch {
	case target.All:
		subs = b.registry.All()
	case target.UserID != "":
		subs = b.registry.LookupUser(target.Role, target.UserID)
	default:
		subs = b.registry.Lookup(target.Role)
	}
	if len(subs) == 0 {
		return 0
	}

	msg, err := json.Marshal(env)
	if err != nil {
		b.lg.Error("event_encode_failed", err, map[string]any{"event": env.Type})
		return 0
	}

	delivered := 0
	for _, sub := range subs {
		if err := sub.Send(msg); err != nil {
			b.registry.Unregister(sub)
			sub.Close()
			b.lg.Debug("recipient_evicted", map[string]any{"event": env.Type, "error": err.Error()})
			continue
		}
		delivered++
	}
	return delivered
}

// Route delivers an order event to every party watching that order: all
// admins, the owning customer, and either every courier (new orders, open to
// claim) or only the assigned one (updates).
func (b *Broadcaster) Route(env domain.Envelope) {
	order := env.Data.Order
	if order == nil {
		b.lg.Debug("event_dropped", map[string]any{"event": env.Type, "reason": "no order payload"})
		return
	}

	b.Publish(TargetRole(domain.RoleAdmin), env)
	if order.UserID != "" {
		b.Publish(TargetUser(domain.RoleClient, order.UserID), env)
	}
	switch {
	case env.Type == domain.EventOrderNew:
		b.Publish(TargetRole(domain.RoleDelivery), env)
	case order.DriverID != "":
		b.Publish(TargetUser(domain.RoleDelivery, order.DriverID), env)
	}
}
