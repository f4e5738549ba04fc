package domain

// Player is the process-wide identity of a connected user. Immutable once
// created; rooms reference players by value.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

type SeatState int

const (
	SeatWaiting SeatState = iota
	SeatReady
)

func (s SeatState) String() string {
	switch s {
	case SeatWaiting:
		return "Waiting"
	case SeatReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// PlayerInRoom is a player occupying a seat. The seat index is stable for the
// room's lifetime and determines the tug-of-war direction: seat 0 pulls the
// cursor toward 0, every other seat toward 1.
type PlayerInRoom struct {
	Player
	Index int
	State SeatState
}

type Option struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Question is an immutable value drawn from a question source. Answer is the
// index of the correct option.
type Question struct {
	ID         int      `json:"id"`
	CategoryID int      `json:"categoryId"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	Content    string   `json:"content"`
	Options    []Option `json:"options"`
	Answer     int      `json:"answer"`
}

// QuestionDTO is the client-facing projection of a question, without the
// correct answer.
type QuestionDTO struct {
	ImageURL string   `json:"imageUrl,omitempty"`
	Content  string   `json:"content"`
	Options  []Option `json:"options"`
}

func (q Question) DTO() QuestionDTO {
	return QuestionDTO{ImageURL: q.ImageURL, Content: q.Content, Options: q.Options}
}

type PlayerAnswer struct {
	Player  Player
	Answer  int
	Correct bool
}
