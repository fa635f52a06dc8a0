// Package ws serves the engine over WebSocket connections.
package ws

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fableroom/fableroom/internal/adapter"
	"github.com/fableroom/fableroom/internal/command"
	"github.com/fableroom/fableroom/internal/event"
)

// sendBuffer is the per-connection outbound queue depth. A client that
// cannot drain it loses messages rather than stalling the room.
const sendBuffer = 64

// Dispatcher executes one inbound request end to end.
type Dispatcher interface {
	Dispatch(ctx context.Context, in adapter.Inbound) command.Result
}

type client struct {
	playerID string
	conn     *websocket.Conn
	send     chan adapter.Outbound
}

// Server accepts WebSocket connections, feeds inbound frames to the
// dispatcher, and routes outbound notifications back to the right sockets.
// Room membership is tracked from bus events so broadcasts reach members
// even across reconnects.
type Server struct {
	dispatch Dispatcher
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	members map[string]map[string]bool
}

// NewServer wires a server and subscribes it to the membership events.
func NewServer(dispatch Dispatcher, bus *event.Bus) *Server {
	s := &Server{
		dispatch: dispatch,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
		members: make(map[string]map[string]bool),
	}
	bus.Subscribe(event.TypePlayerJoined, func(e event.Event) { s.addMember(e.RoomID, e.ActorID) })
	bus.Subscribe(event.TypePlayerLeft, func(e event.Event) { s.removeMember(e.RoomID, e.ActorID) })
	bus.Subscribe(event.TypePlayerKicked, func(e event.Event) { s.removeMember(e.RoomID, e.ActorID) })
	bus.Subscribe(event.TypeRoomDeleted, func(e event.Event) { s.dropRoom(e.RoomID) })
	return s
}

// Name implements adapter.Adapter.
func (s *Server) Name() string { return "websocket" }

// Deliver implements adapter.Adapter. A notification with a recipient goes
// to that player's socket only; otherwise it fans out to every member of
// the room.
func (s *Server) Deliver(out adapter.Outbound) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if out.Recipient != "" {
		if c, ok := s.clients[out.Recipient]; ok {
			s.enqueue(c, out)
		}
		return
	}
	for playerID := range s.members[out.RoomID] {
		if c, ok := s.clients[playerID]; ok {
			s.enqueue(c, out)
		}
	}
}

// ServeHTTP upgrades the connection and pumps frames until the client
// disconnects. The player identifies itself via query parameters.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	if playerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade for %s: %v", playerID, err)
		return
	}

	c := &client{playerID: playerID, conn: conn, send: make(chan adapter.Outbound, sendBuffer)}
	s.register(c)
	go s.writePump(c)
	s.readPump(r.Context(), c, name)
}

func (s *Server) readPump(ctx context.Context, c *client, name string) {
	defer s.unregister(c)
	for {
		var in adapter.Inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: read from %s: %v", c.playerID, err)
			}
			return
		}
		// Identity comes from the connection, never from the frame.
		in.ActorID = c.playerID
		in.ActorName = name
		s.dispatch.Dispatch(ctx, in)
	}
}

func (s *Server) writePump(c *client) {
	for out := range c.send {
		if err := c.conn.WriteJSON(out); err != nil {
			log.Printf("ws: write to %s: %v", c.playerID, err)
			c.conn.Close()
			return
		}
	}
	c.conn.Close()
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.clients[c.playerID]; ok {
		close(old.send)
	}
	s.clients[c.playerID] = c
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c.playerID] == c {
		delete(s.clients, c.playerID)
		close(c.send)
	}
}

// enqueue drops the message when the client's buffer is full. Callers hold
// s.mu.
func (s *Server) enqueue(c *client, out adapter.Outbound) {
	select {
	case c.send <- out:
	default:
		log.Printf("ws: dropping message for slow client %s", c.playerID)
	}
}

func (s *Server) addMember(roomID, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[roomID] == nil {
		s.members[roomID] = make(map[string]bool)
	}
	s.members[roomID][playerID] = true
}

func (s *Server) removeMember(roomID, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[roomID], playerID)
}

func (s *Server) dropRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, roomID)
}
