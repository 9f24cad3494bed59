package game

import "github.com/whwjiang/poker-epoll/internal/deck"

// Event is something that happened at a table. The concrete variants below
// are the only implementations; they are broadcast to the table except
// where noted.
type Event interface {
	isEvent()
}

// PlayerAdded is emitted when a player takes a seat (or a holding slot).
type PlayerAdded struct {
	Who PlayerID
}

// PlayerRemoved is emitted when a player gives up their seat.
type PlayerRemoved struct {
	Who PlayerID
}

// HandStarted opens a hand.
type HandStarted struct{}

// DealtHole carries a participant's hole cards. Visible only to Who.
type DealtHole struct {
	Who  PlayerID
	Hole [deck.HoleSize]deck.Card
}

// DealtFlop reveals the first three community cards.
type DealtFlop struct {
	Flop [deck.FlopSize]deck.Card
}

// DealtStreet reveals the turn or river card.
type DealtStreet struct {
	Card deck.Card
}

// PhaseAdvanced announces the next street.
type PhaseAdvanced struct {
	Next Phase
}

// BetPlaced records chips a player put in this street (blinds included).
type BetPlaced struct {
	Who    PlayerID
	Amount Chips
}

// TurnAdvanced names the player who owes the next action.
type TurnAdvanced struct {
	Next PlayerID
}

// WonPot credits part or all of the pot to a player.
type WonPot struct {
	Who    PlayerID
	Amount Chips
}

func (PlayerAdded) isEvent()   {}
func (PlayerRemoved) isEvent() {}
func (HandStarted) isEvent()   {}
func (DealtHole) isEvent()     {}
func (DealtFlop) isEvent()     {}
func (DealtStreet) isEvent()   {}
func (PhaseAdvanced) isEvent() {}
func (BetPlaced) isEvent()     {}
func (TurnAdvanced) isEvent()  {}
func (WonPot) isEvent()        {}
