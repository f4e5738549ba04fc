package game

import (
	"log/slog"
	"sync"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// GameRoom is a lobby+game session container. Every mutation of the room, its
// game and its rounds happens under the room's own lock, so an inbound answer
// and an expiring timer can never interleave destructively. Timer callbacks
// re-enter through runExclusive.
type GameRoom struct {
	mu sync.Mutex

	id      string
	name    string
	game    Game
	players []domain.PlayerInRoom
	state   RoomState

	broadcast Broadcaster
	timings   Timings

	countdown  *countdownTimer
	onGameOver func()
}

func NewGameRoom(id, name string, game Game, broadcast Broadcaster, timings Timings) *GameRoom {
	r := &GameRoom{
		id:        id,
		name:      name,
		game:      game,
		state:     RoomWaiting,
		broadcast: broadcast,
		timings:   timings,
	}
	game.bind(r.runExclusive, func() {
		if r.onGameOver != nil {
			r.onGameOver()
		}
	})
	return r
}

// OnGameOver registers the teardown hook fired when the game reaches Over.
// The hook runs with the room lock held and must not block.
func (r *GameRoom) OnGameOver(fn func()) {
	r.onGameOver = fn
}

func (r *GameRoom) runExclusive(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

func (r *GameRoom) ID() string   { return r.id }
func (r *GameRoom) Name() string { return r.name }

func (r *GameRoom) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *GameRoom) Players() []domain.PlayerInRoom {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playersSnapshot()
}

// PlayerSeat returns the seat index a player occupies.
func (r *GameRoom) PlayerSeat(playerID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.ID == playerID {
			return p.Index, true
		}
	}
	return 0, false
}

// HandleEvent validates an event against the current room state, mutates the
// roster and drives the room state machine.
func (r *GameRoom) HandleEvent(event RoomEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.validateEvent(event); err != nil {
		return err
	}
	return r.processEvent(event)
}

// HandleAnswer forwards a gameplay answer to the game while the room is
// playing.
func (r *GameRoom) HandleAnswer(player domain.Player, answer int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != RoomPlaying {
		return domain.ErrWrongCommandWrongTime
	}
	return r.game.HandleEvent(RoundAnswered{Player: player, Answer: answer})
}

// Close transitions the room to Closing and stops every live timer. Safe to
// call more than once.
func (r *GameRoom) Close(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == RoomClosing {
		return
	}
	if err := r.transitionTo(RoomClosing); err != nil {
		slog.Error("failed to close room", "room", r.id, "error", err)
		return
	}
	r.broadcast.SendToRoom(r.id, NewRoomClosed(reason))
}

func (r *GameRoom) validateEvent(event RoomEvent) error {
	switch r.state {
	case RoomWaiting:
		switch event.(type) {
		case PlayerJoined, PlayerReady, PlayerDisconnected:
			return nil
		}
	case RoomCountdown, RoomPlaying:
		if _, ok := event.(PlayerDisconnected); ok {
			return nil
		}
	case RoomPausing:
		switch event.(type) {
		case PlayerRejoined, PlayerDisconnected:
			return nil
		}
	case RoomClosing:
	}
	return domain.ErrWrongCommandWrongTime
}

func (r *GameRoom) processEvent(event RoomEvent) error {
	switch ev := event.(type) {
	case PlayerJoined:
		if err := r.addPlayer(ev.Player); err != nil {
			return err
		}
		r.broadcastRoomState()
		return r.maybeStartCountdown()

	case PlayerReady:
		r.markReady(ev.PlayerID)
		r.broadcastRoomState()
		return r.maybeStartCountdown()

	case PlayerRejoined:
		r.players = append(r.players, domain.PlayerInRoom{
			Player: ev.Player,
			Index:  ev.Seat,
			State:  domain.SeatReady,
		})
		r.broadcastRoomState()
		return r.transitionTo(RoomPlaying)

	case PlayerDisconnected:
		r.removePlayer(ev.PlayerID)
		r.broadcast.SendToRoom(r.id, NewPlayerDisconnected(ev.PlayerID))
		if len(r.players) == 0 {
			return domain.ErrRoomIsEmpty
		}
		if r.state == RoomCountdown || r.state == RoomPlaying {
			return r.transitionTo(RoomPausing)
		}
		r.broadcastRoomState()
		return nil

	default:
		return domain.ErrWrongCommandWrongTime
	}
}

func (r *GameRoom) addPlayer(player domain.Player) error {
	if len(r.players) >= r.game.MaxPlayerCount() {
		return domain.ErrTooManyPlayers
	}
	for _, p := range r.players {
		if p.ID == player.ID {
			return domain.ErrWrongCommandWrongTime
		}
	}
	r.players = append(r.players, domain.PlayerInRoom{
		Player: player,
		Index:  r.nextFreeSeat(),
		State:  domain.SeatWaiting,
	})
	return nil
}

func (r *GameRoom) nextFreeSeat() int {
	taken := make(map[int]bool, len(r.players))
	for _, p := range r.players {
		taken[p.Index] = true
	}
	seat := 0
	for taken[seat] {
		seat++
	}
	return seat
}

func (r *GameRoom) removePlayer(playerID string) {
	for i, p := range r.players {
		if p.ID == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return
		}
	}
}

func (r *GameRoom) markReady(playerID string) {
	for i := range r.players {
		if r.players[i].ID == playerID {
			r.players[i].State = domain.SeatReady
		}
	}
}

func (r *GameRoom) rosterComplete() bool {
	if len(r.players) != r.game.MaxPlayerCount() {
		return false
	}
	for _, p := range r.players {
		if p.State != domain.SeatReady {
			return false
		}
	}
	return true
}

func (r *GameRoom) maybeStartCountdown() error {
	if !r.rosterComplete() {
		return nil
	}
	return r.transitionTo(RoomCountdown)
}

func (r *GameRoom) transitionTo(state RoomState) error {
	if r.state == state {
		return nil
	}
	if !r.state.canTransitionTo(state) {
		return invalidTransition("room", r.state, state)
	}
	r.state = state
	r.onStateChanged(state)
	return nil
}

func (r *GameRoom) onStateChanged(state RoomState) {
	switch state {
	case RoomCountdown:
		r.broadcastRoomState()
		r.startCountdown()

	case RoomPlaying:
		r.broadcastRoomState()
		if r.game.State() == GameIdle {
			r.game.SetPlayers(r.playersSnapshot())
		}
		if err := r.game.TransitionTo(GamePlaying); err != nil {
			slog.Error("failed to start game", "room", r.id, "error", err)
		}

	case RoomPausing:
		if r.countdown != nil {
			r.countdown.Cancel()
		}
		if r.game.State() == GamePlaying {
			if err := r.game.TransitionTo(GamePause); err != nil {
				slog.Error("failed to pause game", "room", r.id, "error", err)
			}
		}
		r.broadcastRoomState()

	case RoomClosing:
		if r.countdown != nil {
			r.countdown.Cancel()
		}
		if r.game.State() != GameOver {
			r.game.Stop()
		}
		r.broadcastRoomState()
	}
}

func (r *GameRoom) startCountdown() {
	r.countdown = startCountdownTimer(r.timings.CountdownSeconds+1, r.timings.TickStep,
		func(remaining int64) {
			r.broadcast.SendToRoom(r.id, NewCountdownTimeUpdate(remaining))
		},
		func() {
			r.runExclusive(func() {
				if r.state != RoomCountdown {
					return
				}
				if err := r.transitionTo(RoomPlaying); err != nil {
					slog.Error("failed to enter playing state", "room", r.id, "error", err)
				}
			})
		},
	)
}

func (r *GameRoom) broadcastRoomState() {
	r.broadcast.SendToRoom(r.id, NewRoomUpdate(r.players, r.state))
}

func (r *GameRoom) playersSnapshot() []domain.PlayerInRoom {
	out := make([]domain.PlayerInRoom, len(r.players))
	copy(out, r.players)
	return out
}

// RoomSummary is the directory's listing projection of a room.
type RoomSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	GameType    string   `json:"gameType"`
	PlayerCount int      `json:"playerCount"`
	State       string   `json:"state"`
	Players     []string `json:"players"`
}

func (r *GameRoom) Summary() RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.players))
	for _, p := range r.players {
		names = append(names, p.Name)
	}
	return RoomSummary{
		ID:          r.id,
		Name:        r.name,
		GameType:    r.game.GameType(),
		PlayerCount: len(r.players),
		State:       r.state.String(),
		Players:     names,
	}
}
