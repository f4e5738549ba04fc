package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/alicankorkmaz-sudo/Quizzi/domain"
)

// --- Broadcaster ---

// recordingBroadcaster captures every outbound message so scenarios can
// assert on the exact broadcast sequence. Safe for use from timer goroutines.
type recordingBroadcaster struct {
	mu             sync.Mutex
	roomMessages   map[string][]any
	playerMessages map[string][]any
	subscriptions  map[string]map[string]bool
	released       []string
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{
		roomMessages:   make(map[string][]any),
		playerMessages: make(map[string][]any),
		subscriptions:  make(map[string]map[string]bool),
	}
}

func (b *recordingBroadcaster) SendToRoom(roomID string, message any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roomMessages[roomID] = append(b.roomMessages[roomID], message)
}

func (b *recordingBroadcaster) SendToPlayers(playerIDs []string, message any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range playerIDs {
		b.playerMessages[id] = append(b.playerMessages[id], message)
	}
}

func (b *recordingBroadcaster) Subscribe(roomID, playerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscriptions[roomID] == nil {
		b.subscriptions[roomID] = make(map[string]bool)
	}
	b.subscriptions[roomID][playerID] = true
}

func (b *recordingBroadcaster) Unsubscribe(roomID, playerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscriptions[roomID] != nil {
		delete(b.subscriptions[roomID], playerID)
	}
}

func (b *recordingBroadcaster) ReleasePlayer(playerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = append(b.released, playerID)
}

func (b *recordingBroadcaster) ReleaseRoom(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscriptions, roomID)
}

func (b *recordingBroadcaster) roomLog(roomID string) []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]any, len(b.roomMessages[roomID]))
	copy(out, b.roomMessages[roomID])
	return out
}

func (b *recordingBroadcaster) playerLog(playerID string) []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]any, len(b.playerMessages[playerID]))
	copy(out, b.playerMessages[playerID])
	return out
}

func (b *recordingBroadcaster) isSubscribed(roomID, playerID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subscriptions[roomID][playerID]
}

// countRoomMessages counts messages of the given concrete type in a room's
// broadcast log.
func countRoomMessages[T any](b *recordingBroadcaster, roomID string) int {
	count := 0
	for _, msg := range b.roomLog(roomID) {
		if _, ok := msg.(T); ok {
			count++
		}
	}
	return count
}

// lastRoomMessage returns the most recent message of the given type.
func lastRoomMessage[T any](b *recordingBroadcaster, roomID string) (T, bool) {
	log := b.roomLog(roomID)
	for i := len(log) - 1; i >= 0; i-- {
		if msg, ok := log[i].(T); ok {
			return msg, true
		}
	}
	var zero T
	return zero, false
}

// --- QuestionSource ---

// stubQuestions serves generated questions where option index 2 is always
// correct. Draws honor the exclusion list.
type stubQuestions struct {
	mu     sync.Mutex
	nextID int
	failed bool
}

func newStubQuestions() *stubQuestions {
	return &stubQuestions{nextID: 1}
}

func (s *stubQuestions) RandomQuestion(_ context.Context, categoryID int, excludeIDs []int) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	id := s.nextID
	s.nextID++
	return domain.Question{
		ID:         id,
		CategoryID: categoryID,
		Content:    fmt.Sprintf("question %d", id),
		Options: []domain.Option{
			{ID: 0, Value: "a"}, {ID: 1, Value: "b"}, {ID: 2, Value: "c"}, {ID: 3, Value: "d"},
		},
		Answer: 2,
	}, nil
}

func (s *stubQuestions) Categories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 1, Name: "General"}}, nil
}

func (s *stubQuestions) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = true
}

// --- mock QuestionSource for call-level expectations ---

type MockQuestionSource struct {
	mock.Mock
}

func (m *MockQuestionSource) RandomQuestion(ctx context.Context, categoryID int, excludeIDs []int) (domain.Question, error) {
	args := m.Called(ctx, categoryID, excludeIDs)
	return args.Get(0).(domain.Question), args.Error(1)
}

func (m *MockQuestionSource) Categories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

// --- timing helpers ---

func testTimings() Timings {
	return Timings{
		TickStep:         20 * time.Millisecond,
		CountdownSeconds: 2,
		GracePeriod:      60 * time.Millisecond,
		NextRoundDelay:   10 * time.Millisecond,
		GameOverDelay:    20 * time.Millisecond,
	}
}

func testPlayer(id, name string) domain.Player {
	return domain.Player{ID: id, Name: name, AvatarURL: "https://cdn.example.com/" + id + ".png"}
}
