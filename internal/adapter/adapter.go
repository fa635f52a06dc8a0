// Package adapter defines the boundary between the engine and its
// transports.
package adapter

// Inbound is one request arriving from a transport.
type Inbound struct {
	Kind      string         `json:"kind"`
	RoomID    string         `json:"room_id,omitempty"`
	ActorID   string         `json:"actor_id"`
	ActorName string         `json:"actor_name,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Outbound is one notification leaving the engine. Recipient is routing
// information for the adapter: empty broadcasts to the room, otherwise the
// message goes to that player only.
type Outbound struct {
	RoomID    string `json:"room_id"`
	Type      string `json:"type"`
	Sender    string `json:"sender,omitempty"`
	Recipient string `json:"-"`
	Content   string `json:"content"`
	Payload   any    `json:"payload,omitempty"`
}

// Adapter delivers outbound notifications to connected clients.
type Adapter interface {
	Name() string
	Deliver(out Outbound)
}
