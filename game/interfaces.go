package game

import (
	"context"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// Broadcaster fans out server messages to connected players. Delivery is
// fire-and-forget from the core's perspective; a failed delivery to one
// player surfaces later as an implicit disconnect and never aborts delivery
// to the others.
type Broadcaster interface {
	SendToRoom(roomID string, message any)
	SendToPlayers(playerIDs []string, message any)
	Subscribe(roomID, playerID string)
	Unsubscribe(roomID, playerID string)
	ReleasePlayer(playerID string)
	ReleaseRoom(roomID string)
}

// QuestionSource draws pseudo-random questions for a category, excluding the
// ids the current game has already used.
type QuestionSource interface {
	RandomQuestion(ctx context.Context, categoryID int, excludeIDs []int) (domain.Question, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}
