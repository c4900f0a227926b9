package realtime

import (
	"sync"

	"delivery-hub/internal/domain"
)

// Subscriber is the send side of one live connection. The registry and
// broadcaster only ever see this interface; the websocket-backed Conn
// implements it in production. Frames arrive already encoded so a fan-out
// pays for one marshal, not one per recipient.
type Subscriber interface {
	Send(msg []byte) error
	Close()
}

type subscription struct {
	role   domain.Role
	userID string
}

// Registry maps live connections to the role and optional user identity they
// subscribed under. All mutation and lookup goes through its methods; the
// maps are never exposed.
type Registry struct {
	mu     sync.Mutex
	byRole map[domain.Role]map[Subscriber]struct{}
	byUser map[subscription]map[Subscriber]struct{}
	subs   map[Subscriber]subscription
}

func NewRegistry() *Registry {
	return &Registry{
		byRole: make(map[domain.Role]map[Subscriber]struct{}),
		byUser: make(map[subscription]map[Subscriber]struct{}),
		subs:   make(map[Subscriber]subscription),
	}
}

// Register adds sub under its role key and, when userID is set, its
// (role,user) key. Re-registration replaces the prior entry.
func (r *Registry) Register(sub Subscriber, role domain.Role, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.subs[sub]; ok {
		r.removeLocked(sub, prev)
	}
	key := subscription{role: role, userID: userID}
	r.subs[sub] = key

	set, ok := r.byRole[role]
	if !ok {
		set = make(map[Subscriber]struct{})
		r.byRole[role] = set
	}
	set[sub] = struct{}{}

	if userID != "" {
		uset, ok := r.byUser[key]
		if !ok {
			uset = make(map[Subscriber]struct{})
			r.byUser[key] = uset
		}
		uset[sub] = struct{}{}
	}
}

// Unregister removes sub from every key it was registered under. Safe to call
// repeatedly and for connections that never completed the handshake.
func (r *Registry) Unregister(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.subs[sub]
	if !ok {
		return
	}
	r.removeLocked(sub, key)
	delete(r.subs, sub)
}

func (r *Registry) removeLocked(sub Subscriber, key subscription) {
	if set, ok := r.byRole[key.role]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(r.byRole, key.role)
		}
	}
	if key.userID != "" {
		if set, ok := r.byUser[key]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(r.byUser, key)
			}
		}
	}
}

// Lookup returns a snapshot of every connection subscribed under role.
func (r *Registry) Lookup(role domain.Role) []Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	return snapshot(r.byRole[role])
}

// LookupUser returns a snapshot of every connection for (role, userID).
func (r *Registry) LookupUser(role domain.Role, userID string) []Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	return snapshot(r.byUser[subscription{role: role, userID: userID}])
}

// All returns a snapshot of every registered connection.
func (r *Registry) All() []Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Subscriber, 0, len(r.subs))
	for sub := range r.subs {
		out = append(out, sub)
	}
	return out
}

// Len reports the number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func snapshot(set map[Subscriber]struct{}) []Subscriber {
	if len(set) == 0 {
		return nil
	}
	out := make([]Subscriber, 0, len(set))
	for sub := range set {
		out = append(out, sub)
	}
	return out
}
