package game

import (
	"log/slog"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// Dispatcher decodes inbound frames and routes them to the room directory.
// Business errors are reported back to the sender; everything else only makes
// it into the log, the connection stays up either way.
type Dispatcher struct {
	directory *RoomDirectory
	broadcast Broadcaster
}

func NewDispatcher(directory *RoomDirectory, broadcast Broadcaster) *Dispatcher {
	return &Dispatcher{directory: directory, broadcast: broadcast}
}

// HandleMessage processes one inbound frame from the given player.
func (d *Dispatcher) HandleMessage(playerID string, data []byte) {
	msg, err := DecodeClientMessage(data)
	if err != nil {
		slog.Debug("dropping malformed frame", "player", playerID, "error", err)
		d.sendError(playerID, "malformed message")
		return
	}

	switch m := msg.(type) {
	case CreateRoomMessage:
		if _, err := d.directory.CreateRoom(playerID, m.CategoryID, m.GameType); err != nil {
			d.reportError(playerID, "CreateRoom", err)
		}

	case JoinRoomMessage:
		if err := d.directory.JoinRoom(playerID, m.RoomID); err != nil {
			d.broadcast.SendToPlayers([]string{playerID}, NewJoinedRoom(m.RoomID, false))
			d.reportError(playerID, "JoinRoom", err)
			return
		}
		d.broadcast.SendToPlayers([]string{playerID}, NewJoinedRoom(m.RoomID, true))

	case RejoinRoomMessage:
		if err := d.directory.RejoinRoom(playerID, m.RoomID); err != nil {
			d.broadcast.SendToPlayers([]string{playerID}, NewRejoinedRoom(m.RoomID, playerID, false))
			d.reportError(playerID, "RejoinRoom", err)
			return
		}
		d.broadcast.SendToPlayers([]string{playerID}, NewRejoinedRoom(m.RoomID, playerID, true))

	case PlayerReadyMessage:
		if err := d.directory.PlayerReady(playerID); err != nil {
			d.reportError(playerID, "PlayerReady", err)
		}

	case PlayerAnswerMessage:
		if err := d.directory.PlayerAnswer(playerID, m.Answer); err != nil {
			d.reportError(playerID, "PlayerAnswer", err)
		}
	}
}

// HandleDisconnect runs when a player's connection is gone for any reason.
func (d *Dispatcher) HandleDisconnect(playerID string) {
	d.directory.PlayerDisconnected(playerID)
}

func (d *Dispatcher) reportError(playerID, command string, err error) {
	if domain.IsBusiness(err) {
		d.sendError(playerID, err.Error())
		return
	}
	slog.Warn("command failed", "command", command, "player", playerID, "error", err)
	d.sendError(playerID, "command failed")
}

func (d *Dispatcher) sendError(playerID, message string) {
	d.broadcast.SendToPlayers([]string{playerID}, NewErrorMessage(message))
}
