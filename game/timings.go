package game

import "time"

// Timings are the fixed scheduling constants of a room. They are never
// negotiated at runtime; tests shrink them to keep scenarios fast.
type Timings struct {
	// TickStep is the wall-clock length of one countdown/round tick.
	TickStep time.Duration
	// CountdownSeconds is the pre-game countdown broadcast tick by tick.
	CountdownSeconds int64
	// GracePeriod is how long a disconnected player may rejoin before the
	// room is torn down.
	GracePeriod time.Duration
	// NextRoundDelay is the pause between a round ending and the next one
	// starting.
	NextRoundDelay time.Duration
	// GameOverDelay is the pause between game over and room teardown.
	GameOverDelay time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		TickStep:         time.Second,
		CountdownSeconds: 3,
		GracePeriod:      20 * time.Second,
		NextRoundDelay:   500 * time.Millisecond,
		GameOverDelay:    5 * time.Second,
	}
}
