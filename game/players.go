package game

import (
	"sync"

	"github.com/google/uuid"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// PlayerDirectory is the process-wide player registry. Players are created
// over HTTP before the websocket is opened and referenced by id afterwards.
type PlayerDirectory struct {
	mu      sync.RWMutex
	players map[string]domain.Player
}

func NewPlayerDirectory() *PlayerDirectory {
	return &PlayerDirectory{players: make(map[string]domain.Player)}
}

func (d *PlayerDirectory) CreatePlayer(name, avatarURL string) domain.Player {
	player := domain.Player{
		ID:        uuid.NewString(),
		Name:      name,
		AvatarURL: avatarURL,
	}
	d.mu.Lock()
	d.players[player.ID] = player
	d.mu.Unlock()
	return player
}

func (d *PlayerDirectory) GetPlayer(id string) (domain.Player, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	player, ok := d.players[id]
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return player, nil
}

func (d *PlayerDirectory) DeletePlayer(id string) {
	d.mu.Lock()
	delete(d.players, id)
	d.mu.Unlock()
}
