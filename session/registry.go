package session

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Registry tracks live sessions and room membership and fans out server
// messages. It is the transport-side counterpart of the room directory: the
// directory decides who should hear what, the registry knows how to reach
// them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rooms    map[string]map[string]struct{}

	handler MessageHandler
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]struct{}),
	}
}

// SetHandler wires the inbound side. Must be called before Serve; split from
// the constructor because the registry and the message handler reference each
// other.
func (r *Registry) SetHandler(handler MessageHandler) {
	r.handler = handler
}

// Serve runs the connection's pumps and blocks until the player disconnects.
// A second connection for the same player replaces the first; the replaced
// connection's exit is not reported as a gameplay disconnect.
func (r *Registry) Serve(playerID string, conn *websocket.Conn) {
	s := newSession(playerID, conn)

	r.mu.Lock()
	if old, ok := r.sessions[playerID]; ok {
		old.close()
	}
	r.sessions[playerID] = s
	r.mu.Unlock()

	slog.Info("session opened", "player", playerID)
	go s.writePump()
	s.readPump(r.handler)

	r.mu.Lock()
	wasCurrent := r.sessions[playerID] == s
	if wasCurrent {
		delete(r.sessions, playerID)
		for _, members := range r.rooms {
			delete(members, playerID)
		}
	}
	r.mu.Unlock()

	if wasCurrent {
		slog.Info("session closed", "player", playerID)
		r.handler.HandleDisconnect(playerID)
	}
}

// Subscribe adds the player to a room's delivery set.
func (r *Registry) Subscribe(roomID, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}
	members[playerID] = struct{}{}
}

// Unsubscribe removes the player from a room's delivery set without touching
// the connection.
func (r *Registry) Unsubscribe(roomID, playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.rooms[roomID]; ok {
		delete(members, playerID)
	}
}

// ReleasePlayer drops the player from every room's delivery set. The socket
// stays open so the player can create or join another room.
func (r *Registry) ReleasePlayer(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, members := range r.rooms {
		delete(members, playerID)
	}
}

// ReleaseRoom forgets a room's delivery set.
func (r *Registry) ReleaseRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}

// SendToRoom marshals once and delivers to every subscribed session.
func (r *Registry) SendToRoom(roomID string, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		slog.Error("failed to marshal outbound message", "room", roomID, "error", err)
		return
	}

	r.mu.RLock()
	targets := make([]*Session, 0, len(r.rooms[roomID]))
	for playerID := range r.rooms[roomID] {
		if s, ok := r.sessions[playerID]; ok {
			targets = append(targets, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range targets {
		r.deliver(s, data)
	}
}

// SendToPlayers delivers one message directly to the named players.
func (r *Registry) SendToPlayers(playerIDs []string, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		slog.Error("failed to marshal outbound message", "error", err)
		return
	}

	r.mu.RLock()
	targets := make([]*Session, 0, len(playerIDs))
	for _, playerID := range playerIDs {
		if s, ok := r.sessions[playerID]; ok {
			targets = append(targets, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range targets {
		r.deliver(s, data)
	}
}

// deliver enqueues the frame; a full buffer means the consumer stopped
// draining, so the connection is closed and the read pump reports the
// disconnect through the usual path.
func (r *Registry) deliver(s *Session, data []byte) {
	if !s.enqueue(data) {
		slog.Warn("send buffer full, dropping connection", "player", s.playerID)
		s.close()
	}
}
