package game

import "github.com/alicankorkmaz-sudo/Quizzi/domain"

// RoomEvent is the input alphabet of the room state machine.
type RoomEvent interface{ isRoomEvent() }

type PlayerJoined struct {
	Player domain.Player
}

type PlayerRejoined struct {
	Player domain.Player
	Seat   int
}

type PlayerReady struct {
	PlayerID string
}

type PlayerDisconnected struct {
	PlayerID string
}

func (PlayerJoined) isRoomEvent()       {}
func (PlayerRejoined) isRoomEvent()     {}
func (PlayerReady) isRoomEvent()        {}
func (PlayerDisconnected) isRoomEvent() {}

// GameEvent is the input alphabet of the game state machine. Round start and
// end are internal to the round loop; answers are the only external event.
type GameEvent interface{ isGameEvent() }

type RoundAnswered struct {
	Player domain.Player
	Answer int
}

func (RoundAnswered) isGameEvent() {}
