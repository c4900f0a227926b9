package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event types carried over the realtime channel.
const (
	EventOrderNew    = "order:new"
	EventOrderUpdate = "order:update"
)

// Roles a connection may subscribe under.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleDelivery Role = "delivery"
	RoleClient   Role = "client"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDelivery, RoleClient:
		return true
	}
	return false
}

// ErrBadEnvelope marks frames without a recognizable type/event field.
// Receivers log and drop such frames, they are never fatal.
var ErrBadEnvelope = errors.New("unrecognized envelope")

// Envelope is the tagged message exchanged over the realtime channel.
// It encodes as {"type":..., "data":{"order":...}}.
type Envelope struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	Order *Order `json:"order,omitempty"`
}

// SubscribeRequest is the client->server handshake.
type SubscribeRequest struct {
	Action string `json:"action"`
	Role   Role   `json:"role"`
	UserID string `json:"userId,omitempty"`
}

const ActionSubscribe = "subscribe"

// DecodeEnvelope parses a wire frame. For compatibility it accepts "event"
// as an alias of "type" and "payload" as an alias of "data".
func DecodeEnvelope(b []byte) (Envelope, error) {
	var raw struct {
		Type    string          `json:"type"`
		Event   string          `json:"event"`
		Data    json.RawMessage `json:"data"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	typ := raw.Type
	if typ == "" {
		typ = raw.Event
	}
	if typ == "" {
		return Envelope{}, ErrBadEnvelope
	}
	env := Envelope{Type: typ}
	body := raw.Data
	if len(body) == 0 {
		body = raw.Payload
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env.Data); err != nil {
			return Envelope{}, fmt.Errorf("decode envelope data: %w", err)
		}
	}
	return env, nil
}

// NewOrderEnvelope wraps an order snapshot in an event of the given type.
func NewOrderEnvelope(eventType string, order *Order) Envelope {
	return Envelope{Type: eventType, Data: EventData{Order: order}}
}
