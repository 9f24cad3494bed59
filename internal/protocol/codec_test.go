package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whwjiang/poker-epoll/internal/deck"
	"github.com/whwjiang/poker-epoll/internal/game"
)

func TestEventRoundTrip(t *testing.T) {
	t.Parallel()

	events := []game.Event{
		game.PlayerAdded{Who: 7},
		game.PlayerRemoved{Who: 9},
		game.HandStarted{},
		game.DealtHole{Who: 3, Hole: [deck.HoleSize]deck.Card{
			deck.NewCard(deck.Ace, deck.Spades),
			deck.NewCard(deck.Two, deck.Clubs),
		}},
		game.DealtFlop{Flop: [deck.FlopSize]deck.Card{
			deck.NewCard(deck.King, deck.Hearts),
			deck.NewCard(deck.Queen, deck.Diamonds),
			deck.NewCard(deck.Jack, deck.Clubs),
		}},
		game.DealtStreet{Card: deck.NewCard(deck.Ten, deck.Hearts)},
		game.PhaseAdvanced{Next: game.PhaseFlop},
		game.BetPlaced{Who: 2, Amount: 150},
		game.TurnAdvanced{Next: 4},
		game.WonPot{Who: 6, Amount: 2000},
	}

	for _, ev := range events {
		wire := ToWireEvent(ev)
		resp := &Response{Messages: []Message{{Event: &wire}}}

		payload, err := MarshalResponse(resp)
		require.NoError(t, err)

		decoded, err := UnmarshalResponse(payload)
		require.NoError(t, err)
		require.Len(t, decoded.Messages, 1)
		require.NotNil(t, decoded.Messages[0].Event)

		back, err := FromWireEvent(decoded.Messages[0].Event)
		require.NoError(t, err)
		assert.Equal(t, ev, back)
	}
}

func TestErrorRoundTrip(t *testing.T) {
	t.Parallel()

	errs := []error{
		game.ErrTooManyClients,
		game.ErrAllTablesFull,
		game.ErrIllegalAction,
		game.ErrInvalidAction,
		game.ErrHandInPlay,
		game.ErrNotEnoughPlayers,
		game.ErrInsufficientFunds,
		game.ErrBetTooLow,
		game.ErrOutOfTurn,
		game.ErrNoSuchPlayer,
		game.ErrNotEnoughSeats,
		game.ErrInvalidID,
		game.ErrPlayerNotFound,
		game.ErrNoPlayers,
	}

	for _, gameErr := range errs {
		wire := ToWireError(gameErr)
		resp := &Response{Messages: []Message{{Error: &wire}}}

		payload, err := MarshalResponse(resp)
		require.NoError(t, err)

		decoded, err := UnmarshalResponse(payload)
		require.NoError(t, err)
		require.Len(t, decoded.Messages, 1)
		require.NotNil(t, decoded.Messages[0].Error)

		back, err := FromWireError(decoded.Messages[0].Error)
		require.NoError(t, err)
		assert.Equal(t, gameErr, back)
	}
}

func TestActionRoundTrip(t *testing.T) {
	t.Parallel()

	fold := &Action{Fold: &FoldAction{}}
	payload, err := MarshalAction(fold)
	require.NoError(t, err)
	decoded, err := UnmarshalAction(payload)
	require.NoError(t, err)
	action, err := FromWireAction(decoded, 5)
	require.NoError(t, err)
	assert.Equal(t, game.Fold{ID: 5}, action)

	bet := &Action{Bet: &BetAction{Amount: 120}}
	payload, err = MarshalAction(bet)
	require.NoError(t, err)
	decoded, err = UnmarshalAction(payload)
	require.NoError(t, err)
	action, err = FromWireAction(decoded, 8)
	require.NoError(t, err)
	assert.Equal(t, game.Bet{ID: 8, Amount: 120}, action)
}

func TestEmptyActionRejected(t *testing.T) {
	t.Parallel()

	_, err := FromWireAction(&Action{}, 1)
	assert.ErrorIs(t, err, game.ErrInvalidAction)
}

func TestCardMappingCoversTheDeck(t *testing.T) {
	t.Parallel()

	seen := make(map[Card]bool)
	for suit := deck.Clubs; suit <= deck.Spades; suit++ {
		for rank := deck.Two; rank <= deck.Ace; rank++ {
			c := deck.NewCard(rank, suit)
			wire := ToWireCard(c)
			require.False(t, seen[wire], "wire card %v aliased", wire)
			seen[wire] = true

			back, err := FromWireCard(wire)
			require.NoError(t, err)
			assert.Equal(t, c, back)
		}
	}
	assert.Len(t, seen, deck.DeckSize)
}

func TestInvalidWireValuesRejected(t *testing.T) {
	t.Parallel()

	_, err := FromWireCard(Card{Rank: RankUnspecified, Suit: SuitClubs})
	assert.Error(t, err)
	_, err = FromWireCard(Card{Rank: RankAce, Suit: SuitUnspecified})
	assert.Error(t, err)
	_, err = FromWirePhase(PhaseUnspecified)
	assert.Error(t, err)
	_, err = FromWireEvent(&Event{})
	assert.ErrorIs(t, err, ErrUnknownVariant)
	_, err = FromWireError(&Error{})
	assert.ErrorIs(t, err, ErrUnknownVariant)
}
