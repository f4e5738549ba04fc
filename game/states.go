package game

import "github.com/alicankorkmaz-sudo/Quizzi/domain"

// The three state machines are kept independent. Room transitions drive game
// transitions, never the reverse.

type RoomState int

const (
	RoomWaiting RoomState = iota
	RoomCountdown
	RoomPlaying
	RoomPausing
	RoomClosing
)

func (s RoomState) String() string {
	switch s {
	case RoomWaiting:
		return "Waiting"
	case RoomCountdown:
		return "Countdown"
	case RoomPlaying:
		return "Playing"
	case RoomPausing:
		return "Pausing"
	case RoomClosing:
		return "Closing"
	default:
		return "Unknown"
	}
}

var roomTransitions = map[RoomState][]RoomState{
	RoomWaiting:   {RoomCountdown, RoomClosing},
	RoomCountdown: {RoomPlaying, RoomPausing, RoomClosing},
	RoomPlaying:   {RoomPausing, RoomClosing},
	RoomPausing:   {RoomPlaying, RoomClosing},
	RoomClosing:   {},
}

func (s RoomState) canTransitionTo(to RoomState) bool {
	for _, allowed := range roomTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type GameState int

const (
	GameIdle GameState = iota
	GamePlaying
	GamePause
	GameOver
)

func (s GameState) String() string {
	switch s {
	case GameIdle:
		return "Idle"
	case GamePlaying:
		return "Playing"
	case GamePause:
		return "Pause"
	case GameOver:
		return "Over"
	default:
		return "Unknown"
	}
}

var gameTransitions = map[GameState][]GameState{
	GameIdle:    {GamePlaying},
	GamePlaying: {GamePause, GameOver},
	GamePause:   {GamePlaying, GameOver},
	GameOver:    {},
}

func (s GameState) canTransitionTo(to GameState) bool {
	for _, allowed := range gameTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type RoundState int

const (
	RoundStart RoundState = iota
	RoundInterrupted
	RoundEnded
)

func (s RoundState) String() string {
	switch s {
	case RoundStart:
		return "Start"
	case RoundInterrupted:
		return "Interrupted"
	case RoundEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

var roundTransitions = map[RoundState][]RoundState{
	RoundStart:       {RoundInterrupted, RoundEnded},
	RoundInterrupted: {RoundEnded},
	RoundEnded:       {},
}

func (s RoundState) canTransitionTo(to RoundState) bool {
	for _, allowed := range roundTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func invalidTransition(machine string, from, to interface{ String() string }) error {
	return &domain.InvalidTransitionError{Machine: machine, From: from.String(), To: to.String()}
}
