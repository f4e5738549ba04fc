package game

// Game variants. ResistanceGame is the two-player tug-of-war by correctness;
// ResistToTimeGame is the single-player survival variant where the cursor
// drifts against the player on every undecided round.

const (
	GameTypeResistance   = "ResistanceGame"
	GameTypeResistToTime = "ResistToTimeGame"
)

const (
	cursorStep = 0.1

	// Accumulated 0.1 steps do not land exactly on 0.1 in float64 (four
	// seat-0 wins from 0.5 leave 0.10000000000000003), so the bound checks
	// carry a tolerance.
	cursorEpsilon = 1e-9
)

// clampCursor snaps the cursor to a bound once it is within one step of it,
// so a game always terminates in a bounded number of decisive rounds.
func clampCursor(position float64) float64 {
	switch {
	case position <= cursorStep+cursorEpsilon:
		return 0
	case position >= 1-cursorStep-cursorEpsilon:
		return 1
	default:
		return position
	}
}

type resistanceRules struct{}

func (resistanceRules) GameType() string        { return GameTypeResistance }
func (resistanceRules) MaxPlayerCount() int     { return 2 }
func (resistanceRules) RoundTimeSeconds() int64 { return 20 }

func (resistanceRules) ApplyResult(cursor float64, winnerSeat int, hasWinner bool) float64 {
	if !hasWinner {
		return cursor
	}
	movement := cursorStep
	if winnerSeat == 0 {
		movement = -cursorStep
	}
	return clampCursor(cursor + movement)
}

type resistToTimeRules struct{}

func (resistToTimeRules) GameType() string        { return GameTypeResistToTime }
func (resistToTimeRules) MaxPlayerCount() int     { return 1 }
func (resistToTimeRules) RoundTimeSeconds() int64 { return 3 }

func (resistToTimeRules) ApplyResult(cursor float64, winnerSeat int, hasWinner bool) float64 {
	if hasWinner {
		return clampCursor(cursor - cursorStep)
	}
	return clampCursor(cursor + cursorStep)
}

// AllGameTypes lists the playable variants for the listing endpoint.
func AllGameTypes() []string {
	return []string{GameTypeResistance, GameTypeResistToTime}
}

// RulesFor resolves a client-supplied game type, defaulting to the
// resistance game.
func RulesFor(gameType string) Rules {
	switch gameType {
	case GameTypeResistToTime:
		return resistToTimeRules{}
	default:
		return resistanceRules{}
	}
}
