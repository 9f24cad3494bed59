package game

// PlayerID identifies a player for the lifetime of the server. Assigned
// monotonically starting at 1; 0 is never a valid id.
type PlayerID uint64

// TableID identifies a table. 0 is reserved as "unassigned".
type TableID uint64

// Chips is the unit of all bets, purses and pots. No fractional chips exist.
type Chips uint64

// Table rule constants.
const (
	BuyIn      Chips = 1000
	SmallBlind Chips = 5
	BigBlind   Chips = 10

	MaxPlayers = 10
)

// Phase is a street of a hand. Holding is a display placeholder for "no
// hand in progress" and is never the phase of a live hand.
type Phase uint8

const (
	PhaseHolding Phase = iota
	PhasePreflop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
)

// String returns the street name.
func (p Phase) String() string {
	switch p {
	case PhaseHolding:
		return "holding"
	case PhasePreflop:
		return "preflop"
	case PhaseFlop:
		return "flop"
	case PhaseTurn:
		return "turn"
	case PhaseRiver:
		return "river"
	case PhaseShowdown:
		return "showdown"
	default:
		return "unknown"
	}
}

// PlayerState is a participant's standing within the current hand.
type PlayerState uint8

const (
	StateActive PlayerState = iota
	StateAllIn
	StateFolded
	StateLeft
)
