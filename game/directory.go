package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// SummaryCache mirrors active-room summaries into an external store for
// listing across instances. Optional; a nil cache disables mirroring.
type SummaryCache interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const (
	roomSummaryKeyPrefix = "quizzi:room:"
	roomSummaryTTL       = time.Hour
	cacheOpTimeout       = 2 * time.Second
)

// DisconnectedPlayer exists only during the reconnection grace window.
type DisconnectedPlayer struct {
	PlayerID       string
	RoomID         string
	Seat           int
	DisconnectedAt time.Time
}

// RoomDirectory owns the room map, the player-to-room index and the
// reconnection bookkeeping. It is shared across all connection goroutines and
// guards its maps with its own lock; each room serializes its own state
// behind its own lock. Lock order is always directory before room.
type RoomDirectory struct {
	mu           sync.RWMutex
	rooms        map[string]*GameRoom
	playerToRoom map[string]string
	disconnected map[string]*DisconnectedPlayer
	graceTimers  map[string]*time.Timer

	players   *PlayerDirectory
	questions QuestionSource
	broadcast Broadcaster
	cache     SummaryCache
	timings   Timings
}

func NewRoomDirectory(players *PlayerDirectory, questions QuestionSource, broadcast Broadcaster, cache SummaryCache, timings Timings) *RoomDirectory {
	return &RoomDirectory{
		rooms:        make(map[string]*GameRoom),
		playerToRoom: make(map[string]string),
		disconnected: make(map[string]*DisconnectedPlayer),
		graceTimers:  make(map[string]*time.Timer),
		players:      players,
		questions:    questions,
		broadcast:    broadcast,
		cache:        cache,
		timings:      timings,
	}
}

// CreateRoom creates a room owned by the given player and seats them at
// seat 0.
func (d *RoomDirectory) CreateRoom(playerID string, categoryID int, gameType string) (*GameRoom, error) {
	player, err := d.players.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}

	roomID := uuid.NewString()
	g := NewTugGame(uuid.NewString(), roomID, categoryID, RulesFor(gameType), d.questions, d.broadcast, d.timings)
	room := NewGameRoom(roomID, fmt.Sprintf("%s's Room", player.Name), g, d.broadcast, d.timings)
	room.OnGameOver(func() {
		time.AfterFunc(d.timings.GameOverDelay, func() {
			d.CloseRoom(roomID, "game over")
		})
	})

	d.mu.Lock()
	if _, inRoom := d.playerToRoom[playerID]; inRoom {
		d.mu.Unlock()
		return nil, domain.ErrWrongCommandWrongTime
	}
	d.rooms[roomID] = room
	d.playerToRoom[playerID] = roomID
	d.mu.Unlock()

	d.broadcast.Subscribe(roomID, playerID)
	// RoomCreated goes out before the join's RoomUpdate so the creator learns
	// the room id first.
	d.broadcast.SendToPlayers([]string{playerID}, NewRoomCreated(roomID))
	if err := room.HandleEvent(PlayerJoined{Player: player}); err != nil {
		// Cannot happen for a fresh waiting room; treat as a logic fault.
		slog.Error("creator join rejected", "room", roomID, "player", playerID, "error", err)
	}

	slog.Info("room created", "room", roomID, "player", playerID, "gameType", g.GameType())
	d.publishSummary(room)
	return room, nil
}

// JoinRoom seats a player in an existing waiting room.
func (d *RoomDirectory) JoinRoom(playerID, roomID string) error {
	player, err := d.players.GetPlayer(playerID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	room, ok := d.rooms[roomID]
	if !ok {
		d.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	if _, inRoom := d.playerToRoom[playerID]; inRoom {
		d.mu.Unlock()
		return domain.ErrWrongCommandWrongTime
	}
	d.mu.Unlock()

	// Subscribed before the join event so the joiner sees the RoomUpdate
	// broadcast that confirms their own seat.
	d.broadcast.Subscribe(roomID, playerID)
	if err := room.HandleEvent(PlayerJoined{Player: player}); err != nil {
		d.broadcast.Unsubscribe(roomID, playerID)
		return err
	}

	d.mu.Lock()
	d.playerToRoom[playerID] = roomID
	d.mu.Unlock()

	slog.Info("player joined room", "room", roomID, "player", playerID)
	d.publishSummary(room)
	return nil
}

// RejoinRoom restores a disconnected player to their original seat within the
// grace window and resumes the game.
func (d *RoomDirectory) RejoinRoom(playerID, roomID string) error {
	player, err := d.players.GetPlayer(playerID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	dp, ok := d.disconnected[playerID]
	if !ok || dp.RoomID != roomID {
		d.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	room, ok := d.rooms[roomID]
	if !ok {
		delete(d.disconnected, playerID)
		d.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	if timer, ok := d.graceTimers[playerID]; ok {
		timer.Stop()
		delete(d.graceTimers, playerID)
	}
	delete(d.disconnected, playerID)
	d.mu.Unlock()

	d.broadcast.Subscribe(roomID, playerID)
	if err := room.HandleEvent(PlayerRejoined{Player: player, Seat: dp.Seat}); err != nil {
		d.broadcast.Unsubscribe(roomID, playerID)
		return err
	}

	d.mu.Lock()
	d.playerToRoom[playerID] = roomID
	d.mu.Unlock()

	slog.Info("player rejoined room", "room", roomID, "player", playerID, "seat", dp.Seat)
	d.publishSummary(room)
	return nil
}

// PlayerReady marks the player's seat ready in their current room.
func (d *RoomDirectory) PlayerReady(playerID string) error {
	room, err := d.roomByPlayer(playerID)
	if err != nil {
		return err
	}
	return room.HandleEvent(PlayerReady{PlayerID: playerID})
}

// PlayerAnswer routes an answer to the player's current room.
func (d *RoomDirectory) PlayerAnswer(playerID string, answer int) error {
	player, err := d.players.GetPlayer(playerID)
	if err != nil {
		return err
	}
	room, err := d.roomByPlayer(playerID)
	if err != nil {
		return err
	}
	return room.HandleAnswer(player, answer)
}

// PlayerDisconnected pauses the player's room and opens the reconnection
// grace window. A room that empties out is closed immediately.
func (d *RoomDirectory) PlayerDisconnected(playerID string) {
	d.mu.Lock()
	roomID, ok := d.playerToRoom[playerID]
	if !ok {
		d.mu.Unlock()
		return
	}
	room := d.rooms[roomID]
	delete(d.playerToRoom, playerID)
	d.mu.Unlock()

	if room == nil {
		return
	}

	seat, _ := room.PlayerSeat(playerID)
	err := room.HandleEvent(PlayerDisconnected{PlayerID: playerID})
	if errors.Is(err, domain.ErrRoomIsEmpty) {
		d.CloseRoom(roomID, "room is empty")
		return
	}
	if err != nil {
		slog.Debug("disconnect ignored", "room", roomID, "player", playerID, "error", err)
		return
	}

	if room.State() == RoomPausing {
		d.mu.Lock()
		d.disconnected[playerID] = &DisconnectedPlayer{
			PlayerID:       playerID,
			RoomID:         roomID,
			Seat:           seat,
			DisconnectedAt: time.Now(),
		}
		d.graceTimers[playerID] = time.AfterFunc(d.timings.GracePeriod, func() {
			d.graceExpired(playerID, roomID)
		})
		d.mu.Unlock()
		slog.Info("player disconnected, grace window open", "room", roomID, "player", playerID, "grace", d.timings.GracePeriod)
	}
	d.publishSummary(room)
}

func (d *RoomDirectory) graceExpired(playerID, roomID string) {
	d.mu.Lock()
	if _, stillGone := d.disconnected[playerID]; !stillGone {
		d.mu.Unlock()
		return
	}
	delete(d.disconnected, playerID)
	delete(d.graceTimers, playerID)
	room := d.rooms[roomID]
	d.mu.Unlock()

	if room != nil && room.State() == RoomPausing {
		slog.Info("reconnect window expired", "room", roomID, "player", playerID)
		d.CloseRoom(roomID, "reconnect window expired")
	}
}

// CloseRoom tears a room down: transitions it to Closing, removes it from the
// directory and releases every seat's transport session. Idempotent.
func (d *RoomDirectory) CloseRoom(roomID, reason string) {
	d.mu.Lock()
	room, ok := d.rooms[roomID]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.rooms, roomID)
	d.mu.Unlock()

	players := room.Players()
	room.Close(reason)

	d.mu.Lock()
	for _, p := range players {
		if d.playerToRoom[p.ID] == roomID {
			delete(d.playerToRoom, p.ID)
		}
	}
	for playerID, dp := range d.disconnected {
		if dp.RoomID != roomID {
			continue
		}
		if timer, ok := d.graceTimers[playerID]; ok {
			timer.Stop()
			delete(d.graceTimers, playerID)
		}
		delete(d.disconnected, playerID)
	}
	d.mu.Unlock()

	for _, p := range players {
		d.broadcast.ReleasePlayer(p.ID)
	}
	d.broadcast.ReleaseRoom(roomID)
	d.dropSummary(roomID)
	slog.Info("room closed", "room", roomID, "reason", reason)
}

// ActiveRooms lists every room for the HTTP projection endpoints.
func (d *RoomDirectory) ActiveRooms() []RoomSummary {
	d.mu.RLock()
	rooms := make([]*GameRoom, 0, len(d.rooms))
	for _, room := range d.rooms {
		rooms = append(rooms, room)
	}
	d.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, room.Summary())
	}
	return summaries
}

// RoomByID returns a live room.
func (d *RoomDirectory) RoomByID(roomID string) (*GameRoom, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func (d *RoomDirectory) roomByPlayer(playerID string) (*GameRoom, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	roomID, ok := d.playerToRoom[playerID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	room, ok := d.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

func (d *RoomDirectory) publishSummary(room *GameRoom) {
	if d.cache == nil {
		return
	}
	summary := room.Summary()
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	if err := d.cache.Set(ctx, roomSummaryKeyPrefix+summary.ID, data, roomSummaryTTL); err != nil {
		slog.Debug("room summary cache write failed", "room", summary.ID, "error", err)
	}
}

func (d *RoomDirectory) dropSummary(roomID string) {
	if d.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	if err := d.cache.Delete(ctx, roomSummaryKeyPrefix+roomID); err != nil {
		slog.Debug("room summary cache delete failed", "room", roomID, "error", err)
	}
}
