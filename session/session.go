package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 15 * time.Second
	maxMessageSize = 4 * 1024

	sendBufferSize = 256

	// Inbound frame budget per connection. Gameplay needs at most a few
	// frames per second; anything past this is a misbehaving client.
	inboundRate  = rate.Limit(10)
	inboundBurst = 20
)

// MessageHandler consumes inbound frames and connection loss events.
type MessageHandler interface {
	HandleMessage(playerID string, data []byte)
	HandleDisconnect(playerID string)
}

// Session is one player's websocket connection. Outbound messages go through
// a buffered channel drained by the write pump; a full buffer marks the
// consumer as too slow and the connection is dropped.
type Session struct {
	playerID string
	conn     *websocket.Conn
	send     chan []byte
	limiter  *rate.Limiter

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(playerID string, conn *websocket.Conn) *Session {
	return &Session{
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		limiter:  rate.NewLimiter(inboundRate, inboundBurst),
		done:     make(chan struct{}),
	}
}

// enqueue hands a marshaled frame to the write pump without blocking.
func (s *Session) enqueue(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// readPump blocks until the connection dies, feeding frames to the handler.
func (s *Session) readPump(handler MessageHandler) {
	defer s.close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket read failed", "player", s.playerID, "error", err)
			}
			return
		}
		if !s.limiter.Allow() {
			slog.Warn("inbound rate limit exceeded, dropping frame", "player", s.playerID)
			continue
		}
		handler.HandleMessage(s.playerID, message)
	}
}

// writePump drains the send buffer and keeps the connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("websocket write failed", "player", s.playerID, "error", err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
