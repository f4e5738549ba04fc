package game

import (
	"encoding/json"
	"fmt"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// Wire format: JSON objects discriminated by a "type" field, matching the
// mobile clients.

type ClientMessage interface{ isClientMessage() }

type CreateRoomMessage struct {
	CategoryID int
	GameType   string
}

type JoinRoomMessage struct {
	RoomID string
}

type RejoinRoomMessage struct {
	RoomID string
}

type PlayerReadyMessage struct{}

type PlayerAnswerMessage struct {
	Answer int
}

func (CreateRoomMessage) isClientMessage()   {}
func (JoinRoomMessage) isClientMessage()     {}
func (RejoinRoomMessage) isClientMessage()   {}
func (PlayerReadyMessage) isClientMessage()  {}
func (PlayerAnswerMessage) isClientMessage() {}

// DecodeClientMessage parses one inbound frame into its concrete message.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var envelope struct {
		Type       string `json:"type"`
		CategoryID int    `json:"categoryId"`
		GameType   string `json:"gameType"`
		RoomID     string `json:"roomId"`
		Answer     int    `json:"answer"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed client message: %w", err)
	}

	switch envelope.Type {
	case "CreateRoom":
		return CreateRoomMessage{CategoryID: envelope.CategoryID, GameType: envelope.GameType}, nil
	case "JoinRoom":
		return JoinRoomMessage{RoomID: envelope.RoomID}, nil
	case "RejoinRoom":
		return RejoinRoomMessage{RoomID: envelope.RoomID}, nil
	case "PlayerReady":
		return PlayerReadyMessage{}, nil
	case "PlayerAnswer":
		return PlayerAnswerMessage{Answer: envelope.Answer}, nil
	default:
		return nil, fmt.Errorf("unknown client message type %q", envelope.Type)
	}
}

// Outbound messages. Every struct carries its own discriminator so the
// broadcaster can marshal them without extra wrapping.

type PlayerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	State     string `json:"state"`
}

type RoomCreated struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

func NewRoomCreated(roomID string) RoomCreated {
	return RoomCreated{Type: "RoomCreated", RoomID: roomID}
}

type JoinedRoom struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId"`
	Success bool   `json:"success"`
}

func NewJoinedRoom(roomID string, success bool) JoinedRoom {
	return JoinedRoom{Type: "JoinedRoom", RoomID: roomID, Success: success}
}

type RejoinedRoom struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Success  bool   `json:"success"`
}

func NewRejoinedRoom(roomID, playerID string, success bool) RejoinedRoom {
	return RejoinedRoom{Type: "RejoinedRoom", RoomID: roomID, PlayerID: playerID, Success: success}
}

type CountdownTimeUpdate struct {
	Type      string `json:"type"`
	Remaining int64  `json:"remaining"`
}

func NewCountdownTimeUpdate(remaining int64) CountdownTimeUpdate {
	return CountdownTimeUpdate{Type: "CountdownTimeUpdate", Remaining: remaining}
}

type RoomUpdate struct {
	Type    string      `json:"type"`
	Players []PlayerDTO `json:"players"`
	State   string      `json:"state"`
}

func NewRoomUpdate(players []domain.PlayerInRoom, state RoomState) RoomUpdate {
	dtos := make([]PlayerDTO, 0, len(players))
	for _, p := range players {
		dtos = append(dtos, PlayerDTO{
			ID:        p.ID,
			Name:      p.Name,
			AvatarURL: p.AvatarURL,
			State:     p.State.String(),
		})
	}
	return RoomUpdate{Type: "RoomUpdate", Players: dtos, State: state.String()}
}

type RoundStarted struct {
	Type            string             `json:"type"`
	RoundNumber     int                `json:"roundNumber"`
	TimeRemaining   int64              `json:"timeRemaining"`
	CurrentQuestion domain.QuestionDTO `json:"currentQuestion"`
}

func NewRoundStarted(number int, timeRemaining int64, question domain.Question) RoundStarted {
	return RoundStarted{
		Type:            "RoundStarted",
		RoundNumber:     number,
		TimeRemaining:   timeRemaining,
		CurrentQuestion: question.DTO(),
	}
}

type TimeUpdate struct {
	Type      string `json:"type"`
	Remaining int64  `json:"remaining"`
}

func NewTimeUpdate(remaining int64) TimeUpdate {
	return TimeUpdate{Type: "TimeUpdate", Remaining: remaining}
}

type TimeUp struct {
	Type          string `json:"type"`
	CorrectAnswer int    `json:"correctAnswer"`
}

func NewTimeUp(correctAnswer int) TimeUp {
	return TimeUp{Type: "TimeUp", CorrectAnswer: correctAnswer}
}

type AnswerResult struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Answer   int    `json:"answer"`
	Correct  bool   `json:"correct"`
}

func NewAnswerResult(playerID string, answer int, correct bool) AnswerResult {
	return AnswerResult{Type: "AnswerResult", PlayerID: playerID, Answer: answer, Correct: correct}
}

type RoundEndedMessage struct {
	Type           string  `json:"type"`
	CursorPosition float64 `json:"cursorPosition"`
	CorrectAnswer  int     `json:"correctAnswer"`
	WinnerPlayerID *string `json:"winnerPlayerId"`
}

func NewRoundEnded(cursor float64, correctAnswer int, winnerID *string) RoundEndedMessage {
	return RoundEndedMessage{
		Type:           "RoundEnded",
		CursorPosition: cursor,
		CorrectAnswer:  correctAnswer,
		WinnerPlayerID: winnerID,
	}
}

type GameOverMessage struct {
	Type           string  `json:"type"`
	WinnerPlayerID *string `json:"winnerPlayerId"`
}

func NewGameOver(winnerID *string) GameOverMessage {
	return GameOverMessage{Type: "GameOver", WinnerPlayerID: winnerID}
}

type PlayerDisconnectedMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

func NewPlayerDisconnected(playerID string) PlayerDisconnectedMessage {
	return PlayerDisconnectedMessage{Type: "PlayerDisconnected", PlayerID: playerID}
}

type RoomClosed struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func NewRoomClosed(reason string) RoomClosed {
	return RoomClosed{Type: "RoomClosed", Reason: reason}
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Type: "Error", Message: message}
}
