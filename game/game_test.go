package game

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// gameHarness binds a TugGame to a plain mutex executor, standing in for the
// room lock.
type gameHarness struct {
	mu         sync.Mutex
	game       *TugGame
	broadcast  *recordingBroadcaster
	questions  *stubQuestions
	overCalled atomic.Bool
}

func (h *gameHarness) run(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn()
}

const harnessRoomID = "room-1"

func setupGame(t *testing.T, rules Rules) *gameHarness {
	t.Helper()
	h := &gameHarness{
		broadcast: newRecordingBroadcaster(),
		questions: newStubQuestions(),
	}
	h.game = NewTugGame("game-1", harnessRoomID, 1, rules, h.questions, h.broadcast, testTimings())
	h.game.bind(h.run, func() { h.overCalled.Store(true) })

	players := []domain.PlayerInRoom{
		{Player: testPlayer("p1", "alice"), Index: 0, State: domain.SeatReady},
	}
	if rules.MaxPlayerCount() > 1 {
		players = append(players, domain.PlayerInRoom{Player: testPlayer("p2", "bob"), Index: 1, State: domain.SeatReady})
	}
	h.game.SetPlayers(players)

	t.Cleanup(func() { h.run(h.game.Stop) })
	return h
}

func (h *gameHarness) waitForRound(t *testing.T, number int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return countRoomMessages[RoundStarted](h.broadcast, harnessRoomID) >= number
	}, 2*time.Second, 2*time.Millisecond, "round %d never started", number)
}

func (h *gameHarness) answer(t *testing.T, player domain.Player, answer int) error {
	t.Helper()
	var err error
	h.run(func() {
		err = h.game.HandleEvent(RoundAnswered{Player: player, Answer: answer})
	})
	return err
}

func TestTugGame_StartBroadcastsFirstRound(t *testing.T) {
	h := setupGame(t, resistanceRules{})

	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })
	h.waitForRound(t, 1)

	started, ok := lastRoomMessage[RoundStarted](h.broadcast, harnessRoomID)
	require.True(t, ok)
	assert.Equal(t, 1, started.RoundNumber)
	assert.Equal(t, int64(20), started.TimeRemaining)
	assert.Len(t, started.CurrentQuestion.Options, 4)
	assert.Equal(t, 0.5, h.cursor())
}

func TestTugGame_CorrectAnswerMovesCursorTowardWinner(t *testing.T) {
	h := setupGame(t, resistanceRules{})
	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })
	h.waitForRound(t, 1)

	require.NoError(t, h.answer(t, testPlayer("p1", "alice"), 2))

	result, ok := lastRoomMessage[AnswerResult](h.broadcast, harnessRoomID)
	require.True(t, ok)
	assert.Equal(t, "p1", result.PlayerID)
	assert.True(t, result.Correct)

	ended, ok := lastRoomMessage[RoundEndedMessage](h.broadcast, harnessRoomID)
	require.True(t, ok)
	assert.InDelta(t, 0.4, ended.CursorPosition, 1e-9)
	require.NotNil(t, ended.WinnerPlayerID)
	assert.Equal(t, "p1", *ended.WinnerPlayerID)

	// next round starts after the delay
	h.waitForRound(t, 2)
}

func TestTugGame_AllWrongEndsRoundWithoutMovement(t *testing.T) {
	h := setupGame(t, resistanceRules{})
	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })
	h.waitForRound(t, 1)

	require.NoError(t, h.answer(t, testPlayer("p1", "alice"), 0))
	require.NoError(t, h.answer(t, testPlayer("p2", "bob"), 1))

	ended, ok := lastRoomMessage[RoundEndedMessage](h.broadcast, harnessRoomID)
	require.True(t, ok)
	assert.Equal(t, 0.5, ended.CursorPosition)
	assert.Nil(t, ended.WinnerPlayerID)

	h.waitForRound(t, 2)
}

func TestTugGame_WinningStreakEndsGame(t *testing.T) {
	h := setupGame(t, resistanceRules{})
	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })

	// 0.5 -> 0.4 -> 0.3 -> 0.2 -> clamp to 0
	for round := 1; round <= 4; round++ {
		h.waitForRound(t, round)
		require.NoError(t, h.answer(t, testPlayer("p1", "alice"), 2))
	}

	require.Eventually(t, func() bool { return h.overCalled.Load() }, 2*time.Second, 2*time.Millisecond)

	over, ok := lastRoomMessage[GameOverMessage](h.broadcast, harnessRoomID)
	require.True(t, ok)
	require.NotNil(t, over.WinnerPlayerID)
	assert.Equal(t, "p1", *over.WinnerPlayerID)
	assert.Equal(t, 0.0, h.cursor())
	assert.Equal(t, GameOver, h.state())
}

func TestTugGame_ExpiryDriftsAgainstSoloPlayer(t *testing.T) {
	h := setupGame(t, resistToTimeRules{})
	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })
	h.waitForRound(t, 1)

	// no answer; the 3-step round timer expires on its own
	require.Eventually(t, func() bool {
		return countRoomMessages[TimeUp](h.broadcast, harnessRoomID) >= 1
	}, 2*time.Second, 2*time.Millisecond)

	require.Eventually(t, func() bool {
		ended, ok := lastRoomMessage[RoundEndedMessage](h.broadcast, harnessRoomID)
		return ok && ended.CursorPosition > 0.5
	}, 2*time.Second, 2*time.Millisecond)

	ended, _ := lastRoomMessage[RoundEndedMessage](h.broadcast, harnessRoomID)
	assert.InDelta(t, 0.6, ended.CursorPosition, 1e-9)
	assert.Nil(t, ended.WinnerPlayerID)
}

func TestTugGame_CorrectAnswerPullsSoloPlayerBack(t *testing.T) {
	h := setupGame(t, resistToTimeRules{})
	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })
	h.waitForRound(t, 1)

	require.NoError(t, h.answer(t, testPlayer("p1", "alice"), 2))

	ended, ok := lastRoomMessage[RoundEndedMessage](h.broadcast, harnessRoomID)
	require.True(t, ok)
	assert.InDelta(t, 0.4, ended.CursorPosition, 1e-9)
}

func TestTugGame_PauseInterruptsRoundAndResumeStartsFresh(t *testing.T) {
	h := setupGame(t, resistanceRules{})
	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })
	h.waitForRound(t, 1)

	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePause)) })

	err := h.answer(t, testPlayer("p1", "alice"), 2)
	assert.ErrorIs(t, err, domain.ErrWrongCommandWrongTime)
	h.run(func() {
		assert.Equal(t, RoundEnded, h.game.LastRound().State())
	})

	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })
	h.waitForRound(t, 2)
}

func TestTugGame_QuestionDrawFailureEndsGame(t *testing.T) {
	h := setupGame(t, resistanceRules{})
	h.questions.fail()

	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })

	assert.Equal(t, GameOver, h.state())
	assert.True(t, h.overCalled.Load())
}

func TestTugGame_RejectsAnswerWhileIdle(t *testing.T) {
	h := setupGame(t, resistanceRules{})

	err := h.answer(t, testPlayer("p1", "alice"), 2)
	assert.ErrorIs(t, err, domain.ErrWrongCommandWrongTime)
}

func TestTugGame_DecisiveAnswerKillsRoundTimer(t *testing.T) {
	h := setupGame(t, resistanceRules{})
	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })
	h.waitForRound(t, 1)

	require.NoError(t, h.answer(t, testPlayer("p1", "alice"), 2))

	// the decided round's timer is dead before the result broadcast, so its
	// expiry can never race a TimeUp for the same round
	h.run(func() {
		assert.False(t, h.game.rounds[0].timer.Live())
		assert.Equal(t, RoundEnded, h.game.rounds[0].State())
	})
	assert.Equal(t, 0, countRoomMessages[TimeUp](h.broadcast, harnessRoomID))
}

func TestTugGame_StopMidRoundSilencesGame(t *testing.T) {
	h := setupGame(t, resistToTimeRules{})
	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })
	h.waitForRound(t, 1)

	h.run(h.game.Stop)
	assert.Equal(t, GameOver, h.state())

	// well past the 3-step round window; a stopped game must not expire the
	// round or schedule another one
	time.Sleep(10 * testTimings().TickStep)
	assert.Equal(t, 1, countRoomMessages[RoundStarted](h.broadcast, harnessRoomID))
	assert.Equal(t, 0, countRoomMessages[TimeUp](h.broadcast, harnessRoomID))
	assert.Equal(t, 0, countRoomMessages[GameOverMessage](h.broadcast, harnessRoomID))
	assert.False(t, h.overCalled.Load())
}

func TestTugGame_ExcludesUsedQuestions(t *testing.T) {
	broadcast := newRecordingBroadcaster()
	questions := &MockQuestionSource{}
	q1 := domain.Question{ID: 11, CategoryID: 1, Content: "first", Options: []domain.Option{{ID: 0, Value: "a"}, {ID: 1, Value: "b"}}, Answer: 0}
	q2 := domain.Question{ID: 12, CategoryID: 1, Content: "second", Options: []domain.Option{{ID: 0, Value: "a"}, {ID: 1, Value: "b"}}, Answer: 0}
	questions.On("RandomQuestion", mock.Anything, 1, []int{}).Return(q1, nil).Once()
	questions.On("RandomQuestion", mock.Anything, 1, []int{11}).Return(q2, nil).Once()

	h := &gameHarness{broadcast: broadcast}
	h.game = NewTugGame("game-1", harnessRoomID, 1, resistanceRules{}, questions, broadcast, testTimings())
	h.game.bind(h.run, func() {})
	h.game.SetPlayers([]domain.PlayerInRoom{
		{Player: testPlayer("p1", "alice"), Index: 0, State: domain.SeatReady},
		{Player: testPlayer("p2", "bob"), Index: 1, State: domain.SeatReady},
	})
	t.Cleanup(func() { h.run(h.game.Stop) })

	h.run(func() { require.NoError(t, h.game.TransitionTo(GamePlaying)) })
	h.waitForRound(t, 1)
	require.NoError(t, h.answer(t, testPlayer("p1", "alice"), 0))
	h.waitForRound(t, 2)

	questions.AssertExpectations(t)
}

func (h *gameHarness) cursor() float64 {
	var c float64
	h.run(func() { c = h.game.CursorPosition() })
	return c
}

func (h *gameHarness) state() GameState {
	var s GameState
	h.run(func() { s = h.game.State() })
	return s
}
