package game

import (
	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// Round tracks one question's answer window. All methods must be called with
// the owning room's lock held; the round itself carries no lock.
type Round struct {
	number   int
	question domain.Question
	expected int
	answers  []domain.PlayerAnswer
	timer    *countdownTimer
	state    RoundState
}

func newRound(number int, question domain.Question, expected int) *Round {
	return &Round{
		number:   number,
		question: question,
		expected: expected,
		state:    RoundStart,
	}
}

func (r *Round) Number() int               { return r.number }
func (r *Round) Question() domain.Question { return r.question }
func (r *Round) State() RoundState         { return r.state }

func (r *Round) Answers() []domain.PlayerAnswer {
	out := make([]domain.PlayerAnswer, len(r.answers))
	copy(out, r.answers)
	return out
}

// submitAnswer records one (player, option) pair. A late answer after the
// timer died is stale; a second answer after a correct one, or a resubmission
// by the same player, is rejected and never double-counted.
func (r *Round) submitAnswer(player domain.Player, answer int) (domain.PlayerAnswer, error) {
	if r.state != RoundStart || r.timer == nil || !r.timer.Live() {
		return domain.PlayerAnswer{}, domain.ErrWrongCommandWrongTime
	}
	if r.hasCorrectAnswer() {
		return domain.PlayerAnswer{}, domain.ErrAlreadyAnswered
	}
	for _, a := range r.answers {
		if a.Player.ID == player.ID {
			return domain.PlayerAnswer{}, domain.ErrAlreadyAnswered
		}
	}
	pa := domain.PlayerAnswer{
		Player:  player,
		Answer:  answer,
		Correct: answer == r.question.Answer,
	}
	r.answers = append(r.answers, pa)
	return pa, nil
}

// isOver reports whether the round is decided: someone answered correctly, or
// every expected player has answered and nobody was right.
func (r *Round) isOver() bool {
	return r.hasCorrectAnswer() || len(r.answers) >= r.expected
}

func (r *Round) hasCorrectAnswer() bool {
	for _, a := range r.answers {
		if a.Correct {
			return true
		}
	}
	return false
}

// winner returns the player behind the first recorded correct answer.
func (r *Round) winner() (domain.Player, bool) {
	for _, a := range r.answers {
		if a.Correct {
			return a.Player, true
		}
	}
	return domain.Player{}, false
}

func (r *Round) transitionTo(state RoundState) error {
	if !r.state.canTransitionTo(state) {
		return invalidTransition("round", r.state, state)
	}
	r.state = state
	return nil
}

// interrupt ends the round early, on a decisive answer or a room-level
// disconnect. The timer is cancelled before the state folds into Ended so the
// expiry callback, if it is already racing for the lock, sees a dead round.
func (r *Round) interrupt() error {
	if err := r.transitionTo(RoundInterrupted); err != nil {
		return err
	}
	if r.timer != nil {
		r.timer.Cancel()
	}
	return r.transitionTo(RoundEnded)
}

// end marks a natural expiry terminal. The timer has already fired; it is
// cancelled anyway so the handle is dead either way.
func (r *Round) end() error {
	if err := r.transitionTo(RoundEnded); err != nil {
		return err
	}
	if r.timer != nil {
		r.timer.Cancel()
	}
	return nil
}
