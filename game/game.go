package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// Game owns the round progression and the shared cursor metric of one room.
// All methods except accessors must be called with the owning room's lock
// held; the room binds its executor so timer callbacks re-enter the same
// lock.
type Game interface {
	ID() string
	CategoryID() int
	GameType() string
	MaxPlayerCount() int
	RoundTimeSeconds() int64
	State() GameState
	CursorPosition() float64
	SetPlayers(players []domain.PlayerInRoom)
	TransitionTo(state GameState) error
	HandleEvent(event GameEvent) error
	LastRound() *Round
	Stop()

	bind(exec func(func()), onOver func())
}

// Rules carries the variant-specific constants and cursor arithmetic.
type Rules interface {
	GameType() string
	MaxPlayerCount() int
	RoundTimeSeconds() int64
	ApplyResult(cursor float64, winnerSeat int, hasWinner bool) float64
}

const initialCursorPosition = 0.5

// TugGame is the tug-of-war game engine, polymorphic over Rules.
type TugGame struct {
	id         string
	roomID     string
	categoryID int
	rules      Rules

	players []domain.PlayerInRoom
	rounds  []*Round
	cursor  float64
	state   GameState

	broadcast Broadcaster
	questions QuestionSource
	timings   Timings

	exec           func(fn func())
	onOver         func()
	nextRoundTimer *time.Timer
}

func NewTugGame(id, roomID string, categoryID int, rules Rules, questions QuestionSource, broadcast Broadcaster, timings Timings) *TugGame {
	return &TugGame{
		id:         id,
		roomID:     roomID,
		categoryID: categoryID,
		rules:      rules,
		cursor:     initialCursorPosition,
		state:      GameIdle,
		broadcast:  broadcast,
		questions:  questions,
		timings:    timings,
		exec:       func(fn func()) { fn() },
	}
}

func (g *TugGame) ID() string              { return g.id }
func (g *TugGame) CategoryID() int         { return g.categoryID }
func (g *TugGame) GameType() string        { return g.rules.GameType() }
func (g *TugGame) MaxPlayerCount() int     { return g.rules.MaxPlayerCount() }
func (g *TugGame) RoundTimeSeconds() int64 { return g.rules.RoundTimeSeconds() }
func (g *TugGame) State() GameState        { return g.state }
func (g *TugGame) CursorPosition() float64 { return g.cursor }

func (g *TugGame) bind(exec func(func()), onOver func()) {
	g.exec = exec
	g.onOver = onOver
}

// SetPlayers snapshots the roster at game start. Seat indices decide the
// tug-of-war direction for the rest of the game.
func (g *TugGame) SetPlayers(players []domain.PlayerInRoom) {
	g.players = make([]domain.PlayerInRoom, len(players))
	copy(g.players, players)
}

func (g *TugGame) LastRound() *Round {
	if len(g.rounds) == 0 {
		return nil
	}
	return g.rounds[len(g.rounds)-1]
}

func (g *TugGame) TransitionTo(state GameState) error {
	if g.state == state {
		return nil
	}
	if !g.state.canTransitionTo(state) {
		return invalidTransition("game", g.state, state)
	}
	g.state = state
	g.onStateChanged(state)
	return nil
}

func (g *TugGame) onStateChanged(state GameState) {
	switch state {
	case GamePlaying:
		g.startRound()
	case GamePause:
		g.stopNextRoundTimer()
		if round := g.LastRound(); round != nil && round.State() == RoundStart {
			if err := round.interrupt(); err != nil {
				slog.Error("failed to interrupt round on pause", "game", g.id, "error", err)
			}
		}
	case GameOver:
		g.stopNextRoundTimer()
		for _, round := range g.rounds {
			if round.timer != nil {
				round.timer.Cancel()
			}
		}
		var winnerID *string
		if winner, ok := g.winner(); ok {
			id := winner.ID
			winnerID = &id
		}
		g.broadcast.SendToRoom(g.roomID, NewGameOver(winnerID))
		if g.onOver != nil {
			g.onOver()
		}
	}
}

// HandleEvent processes an external gameplay event. Answers are only
// forwarded while the game is playing.
func (g *TugGame) HandleEvent(event GameEvent) error {
	if g.state != GamePlaying {
		return domain.ErrWrongCommandWrongTime
	}
	switch ev := event.(type) {
	case RoundAnswered:
		return g.handleAnswer(ev)
	default:
		return domain.ErrWrongCommandWrongTime
	}
}

func (g *TugGame) handleAnswer(ev RoundAnswered) error {
	round := g.LastRound()
	if round == nil {
		return domain.ErrWrongCommandWrongTime
	}
	answer, err := round.submitAnswer(ev.Player, ev.Answer)
	if err != nil {
		return err
	}
	g.broadcast.SendToRoom(g.roomID, NewAnswerResult(answer.Player.ID, answer.Answer, answer.Correct))

	if round.isOver() {
		if err := round.interrupt(); err != nil {
			return err
		}
		g.finishRound(round)
	}
	return nil
}

// startRound draws a fresh, not-yet-used question and arms the round timer.
// The timer broadcasts a tick every step and drives expiry back through the
// room's executor.
func (g *TugGame) startRound() {
	if g.state != GamePlaying {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	question, err := g.questions.RandomQuestion(ctx, g.categoryID, g.usedQuestionIDs())
	if err != nil {
		slog.Error("question draw failed, ending game", "game", g.id, "category", g.categoryID, "error", err)
		if err := g.TransitionTo(GameOver); err != nil {
			slog.Error("failed to end game after question draw failure", "game", g.id, "error", err)
		}
		return
	}

	round := newRound(len(g.rounds)+1, question, g.rules.MaxPlayerCount())
	g.rounds = append(g.rounds, round)

	seconds := g.rules.RoundTimeSeconds()
	g.broadcast.SendToRoom(g.roomID, NewRoundStarted(round.number, seconds, question))

	round.timer = startCountdownTimer(seconds, g.timings.TickStep,
		func(remaining int64) {
			g.broadcast.SendToRoom(g.roomID, NewTimeUpdate(remaining))
		},
		func() {
			g.exec(func() { g.handleRoundExpiry(round) })
		},
	)
}

// handleRoundExpiry runs when a round timer fires naturally. The state guards
// make a cancelled or superseded timer callback a no-op, so a decisive answer
// and an expiry can never both end the same round.
func (g *TugGame) handleRoundExpiry(round *Round) {
	if g.state != GamePlaying || round != g.LastRound() || round.State() != RoundStart {
		return
	}
	g.broadcast.SendToRoom(g.roomID, NewTimeUp(round.question.Answer))
	if err := round.end(); err != nil {
		slog.Error("failed to end round", "game", g.id, "round", round.number, "error", err)
		return
	}
	g.finishRound(round)
}

// finishRound applies the round result to the cursor, broadcasts it, and
// either ends the game or schedules the next round after a short delay.
func (g *TugGame) finishRound(round *Round) {
	g.calculateResult(round)

	var winnerID *string
	if winner, ok := round.winner(); ok {
		id := winner.ID
		winnerID = &id
	}
	g.broadcast.SendToRoom(g.roomID, NewRoundEnded(g.cursor, round.question.Answer, winnerID))

	if g.cursor <= 0 || g.cursor >= 1 {
		if err := g.TransitionTo(GameOver); err != nil {
			slog.Error("failed to finish game", "game", g.id, "error", err)
		}
		return
	}

	g.nextRoundTimer = time.AfterFunc(g.timings.NextRoundDelay, func() {
		g.exec(func() { g.startRound() })
	})
}

func (g *TugGame) calculateResult(round *Round) {
	winner, ok := round.winner()
	seat := 0
	if ok {
		for _, p := range g.players {
			if p.ID == winner.ID {
				seat = p.Index
				break
			}
		}
	}
	g.cursor = g.rules.ApplyResult(g.cursor, seat, ok)
}

// winner is the player on the side the cursor moved toward.
func (g *TugGame) winner() (domain.Player, bool) {
	switch {
	case g.cursor <= 0:
		for _, p := range g.players {
			if p.Index == 0 {
				return p.Player, true
			}
		}
	case g.cursor >= 1:
		for _, p := range g.players {
			if p.Index > 0 {
				return p.Player, true
			}
		}
	}
	return domain.Player{}, false
}

func (g *TugGame) usedQuestionIDs() []int {
	ids := make([]int, 0, len(g.rounds))
	for _, round := range g.rounds {
		ids = append(ids, round.question.ID)
	}
	return ids
}

func (g *TugGame) stopNextRoundTimer() {
	if g.nextRoundTimer != nil {
		g.nextRoundTimer.Stop()
		g.nextRoundTimer = nil
	}
}

// Stop cancels every live timer and folds the game into its terminal state
// without broadcasting or firing onOver. A timer callback already past its
// cancel check re-enters the executor after Stop returns; the GamePlaying
// guards then drop it instead of scheduling rounds into a closed room.
// Used when the room closes before the game reaches Over; idempotent.
func (g *TugGame) Stop() {
	g.stopNextRoundTimer()
	for _, round := range g.rounds {
		if round.timer != nil {
			round.timer.Cancel()
		}
	}
	g.state = GameOver
}
