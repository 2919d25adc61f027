package entity

// Status is the terminal-state slot of a game record. It only ever moves
// forward: Active -> one of {XWon, OWon, Tie}.
type Status uint64

const (
	StatusActive Status = iota
	StatusXWon
	StatusOWon
	StatusTie
)

func (that Status) String() string {
	switch that {
	case StatusActive:
		return "active"
	case StatusXWon:
		return "x_won"
	case StatusOWon:
		return "o_won"
	case StatusTie:
		return "tie"
	default:
		return "unknown"
	}
}

// GameRecord is the persistent state of one game instance. The hosting
// schema is fixed at 5 integer slots (boards, status, wager, deadline) and
// 4 address slots (players, turn, escrow); ID is the instance key, not a slot.
type GameRecord struct {
	ID       string  `json:"id"`
	BoardX   uint64  `json:"board_x"`
	BoardO   uint64  `json:"board_o"`
	Status   Status  `json:"status"`
	Wager    uint64  `json:"wager"`
	Deadline int64   `json:"deadline"`
	PlayerX  Address `json:"player_x"`
	PlayerO  Address `json:"player_o"`
	Turn     Address `json:"turn"`
	Escrow   Address `json:"escrow"`
}

// IsInitialized reports whether the record has been populated with defaults.
// The wager is always positive once the creation call has run, so a zero
// wager marks an untouched record without spending an extra slot.
func (that *GameRecord) IsInitialized() bool {
	return that.Wager != 0
}

func (that *GameRecord) IsActive() bool {
	return that.Status == StatusActive
}

func (that *GameRecord) IsFinished() bool {
	return that.Status != StatusActive
}

// HasPlayers reports whether setup has already bound the two parties.
func (that *GameRecord) HasPlayers() bool {
	return that.PlayerX != ZeroAddress || that.PlayerO != ZeroAddress
}

// Opponent returns the other player's address, or ZeroAddress if addr is
// not one of the two players.
func (that *GameRecord) Opponent(addr Address) Address {
	switch addr {
	case that.PlayerX:
		return that.PlayerO
	case that.PlayerO:
		return that.PlayerX
	default:
		return ZeroAddress
	}
}
