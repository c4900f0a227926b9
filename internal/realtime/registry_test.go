package realtime

import (
	"sync"
	"testing"

	"delivery-hub/internal/domain"

	"github.com/go-playground/assert/v2"
)

type nopSub struct{ name string }

func (n *nopSub) Send([]byte) error { return nil }
func (n *nopSub) Close()            {}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	admin := &nopSub{name: "admin"}
	client := &nopSub{name: "client"}

	r.Register(admin, domain.RoleAdmin, "")
	r.Register(client, domain.RoleClient, "u1")

	assert.Equal(t, len(r.Lookup(domain.RoleAdmin)), 1)
	assert.Equal(t, len(r.Lookup(domain.RoleClient)), 1)
	assert.Equal(t, len(r.LookupUser(domain.RoleClient, "u1")), 1)
	assert.Equal(t, len(r.LookupUser(domain.RoleClient, "u2")), 0)
	assert.Equal(t, len(r.Lookup(domain.RoleDelivery)), 0)
	assert.Equal(t, r.Len(), 2)
}

func TestReRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	sub := &nopSub{}

	r.Register(sub, domain.RoleClient, "u1")
	r.Register(sub, domain.RoleDelivery, "d1")

	assert.Equal(t, len(r.Lookup(domain.RoleClient)), 0)
	assert.Equal(t, len(r.LookupUser(domain.RoleClient, "u1")), 0)
	assert.Equal(t, len(r.LookupUser(domain.RoleDelivery, "d1")), 1)
	assert.Equal(t, r.Len(), 1)
}

func TestUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	sub := &nopSub{}

	// never-registered connection must be safe
	r.Unregister(sub)

	r.Register(sub, domain.RoleAdmin, "")
	r.Unregister(sub)
	r.Unregister(sub)

	assert.Equal(t, len(r.Lookup(domain.RoleAdmin)), 0)
	assert.Equal(t, r.Len(), 0)
}

func TestSharedKeyKeepsAllMembers(t *testing.T) {
	r := NewRegistry()
	tab1 := &nopSub{name: "tab1"}
	tab2 := &nopSub{name: "tab2"}

	r.Register(tab1, domain.RoleClient, "u1")
	r.Register(tab2, domain.RoleClient, "u1")
	assert.Equal(t, len(r.LookupUser(domain.RoleClient, "u1")), 2)

	r.Unregister(tab1)
	set := r.LookupUser(domain.RoleClient, "u1")
	assert.Equal(t, len(set), 1)
	assert.Equal(t, set[0].(*nopSub).name, "tab2")
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := &nopSub{}
			r.Register(sub, domain.RoleClient, "u1")
			r.Lookup(domain.RoleClient)
			r.LookupUser(domain.RoleClient, "u1")
			r.Unregister(sub)
		}()
	}
	wg.Wait()
	assert.Equal(t, r.Len(), 0)
	assert.Equal(t, len(r.LookupUser(domain.RoleClient, "u1")), 0)
}
