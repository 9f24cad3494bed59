package deck

import (
	"errors"
	rand "math/rand/v2"
)

const (
	// DeckSize is the number of cards in a standard deck
	DeckSize = 52
	// HoleSize is the number of hole cards dealt to each player
	HoleSize = 2
	// FlopSize is the number of cards revealed on the flop
	FlopSize = 3
	// BoardSize is the total number of community cards
	BoardSize = 5
)

// ErrOutOfCards is returned when a deal would run past the end of the deck.
var ErrOutOfCards = errors.New("out of cards")

// Deck is an ordered 52-card deck with a deal cursor. Shuffle permutes the
// cards and rewinds the cursor; deals advance it. A card is never issued
// twice within one shuffle epoch.
type Deck struct {
	cards [DeckSize]Card
	next  int
}

// New creates a deck in suit-major order with the cursor at the top.
func New() *Deck {
	d := &Deck{}
	i := 0
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards[i] = NewCard(rank, suit)
			i++
		}
	}
	return d
}

// Shuffle permutes the deck using the provided RNG and resets the cursor.
// The resulting order is determined solely by the RNG state.
func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(DeckSize, func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	d.next = 0
}

// DealHole deals the next two cards.
func (d *Deck) DealHole() ([HoleSize]Card, error) {
	var hole [HoleSize]Card
	if d.next+HoleSize > DeckSize {
		return hole, ErrOutOfCards
	}
	copy(hole[:], d.cards[d.next:d.next+HoleSize])
	d.next += HoleSize
	return hole, nil
}

// DealBoard deals the next five cards.
func (d *Deck) DealBoard() ([BoardSize]Card, error) {
	var board [BoardSize]Card
	if d.next+BoardSize > DeckSize {
		return board, ErrOutOfCards
	}
	copy(board[:], d.cards[d.next:d.next+BoardSize])
	d.next += BoardSize
	return board, nil
}

// Reset rewinds the cursor without re-shuffling.
func (d *Deck) Reset() {
	d.next = 0
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return DeckSize - d.next
}
