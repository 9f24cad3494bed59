package protocol

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/whwjiang/poker-epoll/internal/deck"
	"github.com/whwjiang/poker-epoll/internal/game"
)

// The codec is a pure, stateless translation between engine values and the
// wire messages in messages.go. The mapping is fixed and bijective per variant.

// ErrUnknownVariant is returned when a wire message carries no recognised
// payload.
var ErrUnknownVariant = errors.New("unknown wire variant")

// MarshalResponse serializes a response payload.
func MarshalResponse(r *Response) ([]byte, error) {
	return msgpack.Marshal(r)
}

// UnmarshalResponse deserializes a response payload.
func UnmarshalResponse(data []byte) (*Response, error) {
	var r Response
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// MarshalAction serializes an action payload.
func MarshalAction(a *Action) ([]byte, error) {
	return msgpack.Marshal(a)
}

// UnmarshalAction deserializes an action payload.
func UnmarshalAction(data []byte) (*Action, error) {
	var a Action
	if err := msgpack.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// FromWireAction converts a decoded wire action into an engine action on
// behalf of the sending player.
func FromWireAction(a *Action, id game.PlayerID) (game.Action, error) {
	switch {
	case a.Fold != nil:
		return game.Fold{ID: id}, nil
	case a.Bet != nil:
		return game.Bet{ID: id, Amount: game.Chips(a.Bet.Amount)}, nil
	default:
		return nil, game.ErrInvalidAction
	}
}

// ToWireCard converts an engine card.
func ToWireCard(c deck.Card) Card {
	return Card{Rank: Rank(int(c.Rank) - 1), Suit: Suit(int(c.Suit) + 1)}
}

// FromWireCard converts a wire card.
func FromWireCard(c Card) (deck.Card, error) {
	if c.Rank < RankTwo || c.Rank > RankAce || c.Suit < SuitClubs || c.Suit > SuitSpades {
		return deck.Card{}, fmt.Errorf("invalid wire card rank=%d suit=%d", c.Rank, c.Suit)
	}
	return deck.NewCard(deck.Rank(int(c.Rank)+1), deck.Suit(int(c.Suit)-1)), nil
}

// ToWirePhase converts an engine phase.
func ToWirePhase(p game.Phase) Phase {
	switch p {
	case game.PhaseHolding:
		return PhaseHolding
	case game.PhasePreflop:
		return PhasePreflop
	case game.PhaseFlop:
		return PhaseFlop
	case game.PhaseTurn:
		return PhaseTurn
	case game.PhaseRiver:
		return PhaseRiver
	case game.PhaseShowdown:
		return PhaseShowdown
	default:
		return PhaseUnspecified
	}
}

// FromWirePhase converts a wire phase.
func FromWirePhase(p Phase) (game.Phase, error) {
	switch p {
	case PhaseHolding:
		return game.PhaseHolding, nil
	case PhasePreflop:
		return game.PhasePreflop, nil
	case PhaseFlop:
		return game.PhaseFlop, nil
	case PhaseTurn:
		return game.PhaseTurn, nil
	case PhaseRiver:
		return game.PhaseRiver, nil
	case PhaseShowdown:
		return game.PhaseShowdown, nil
	default:
		return 0, fmt.Errorf("invalid wire phase %d", p)
	}
}

// ToWireEvent converts an engine event.
func ToWireEvent(ev game.Event) Event {
	switch e := ev.(type) {
	case game.PlayerAdded:
		return Event{PlayerAdded: &PlayerAdded{Who: uint64(e.Who)}}
	case game.PlayerRemoved:
		return Event{PlayerRemoved: &PlayerRemoved{Who: uint64(e.Who)}}
	case game.HandStarted:
		return Event{HandStarted: &HandStarted{}}
	case game.DealtHole:
		hole := make([]Card, 0, len(e.Hole))
		for _, c := range e.Hole {
			hole = append(hole, ToWireCard(c))
		}
		return Event{DealtHole: &DealtHole{Who: uint64(e.Who), Hole: hole}}
	case game.DealtFlop:
		flop := make([]Card, 0, len(e.Flop))
		for _, c := range e.Flop {
			flop = append(flop, ToWireCard(c))
		}
		return Event{DealtFlop: &DealtFlop{Flop: flop}}
	case game.DealtStreet:
		return Event{DealtStreet: &DealtStreet{Street: ToWireCard(e.Card)}}
	case game.PhaseAdvanced:
		return Event{PhaseAdvanced: &PhaseAdvanced{Next: ToWirePhase(e.Next)}}
	case game.BetPlaced:
		return Event{BetPlaced: &BetPlaced{Who: uint64(e.Who), Amount: uint64(e.Amount)}}
	case game.TurnAdvanced:
		return Event{TurnAdvanced: &TurnAdvanced{Next: uint64(e.Next)}}
	case game.WonPot:
		return Event{WonPot: &WonPot{Who: uint64(e.Who), Amount: uint64(e.Amount)}}
	default:
		return Event{}
	}
}

// FromWireEvent converts a wire event back into an engine event.
func FromWireEvent(e *Event) (game.Event, error) {
	switch {
	case e.PlayerAdded != nil:
		return game.PlayerAdded{Who: game.PlayerID(e.PlayerAdded.Who)}, nil
	case e.PlayerRemoved != nil:
		return game.PlayerRemoved{Who: game.PlayerID(e.PlayerRemoved.Who)}, nil
	case e.HandStarted != nil:
		return game.HandStarted{}, nil
	case e.DealtHole != nil:
		if len(e.DealtHole.Hole) != deck.HoleSize {
			return nil, fmt.Errorf("dealt_hole carries %d cards", len(e.DealtHole.Hole))
		}
		var hole [deck.HoleSize]deck.Card
		for i, wc := range e.DealtHole.Hole {
			c, err := FromWireCard(wc)
			if err != nil {
				return nil, err
			}
			hole[i] = c
		}
		return game.DealtHole{Who: game.PlayerID(e.DealtHole.Who), Hole: hole}, nil
	case e.DealtFlop != nil:
		if len(e.DealtFlop.Flop) != deck.FlopSize {
			return nil, fmt.Errorf("dealt_flop carries %d cards", len(e.DealtFlop.Flop))
		}
		var flop [deck.FlopSize]deck.Card
		for i, wc := range e.DealtFlop.Flop {
			c, err := FromWireCard(wc)
			if err != nil {
				return nil, err
			}
			flop[i] = c
		}
		return game.DealtFlop{Flop: flop}, nil
	case e.DealtStreet != nil:
		c, err := FromWireCard(e.DealtStreet.Street)
		if err != nil {
			return nil, err
		}
		return game.DealtStreet{Card: c}, nil
	case e.PhaseAdvanced != nil:
		p, err := FromWirePhase(e.PhaseAdvanced.Next)
		if err != nil {
			return nil, err
		}
		return game.PhaseAdvanced{Next: p}, nil
	case e.BetPlaced != nil:
		return game.BetPlaced{Who: game.PlayerID(e.BetPlaced.Who), Amount: game.Chips(e.BetPlaced.Amount)}, nil
	case e.TurnAdvanced != nil:
		return game.TurnAdvanced{Next: game.PlayerID(e.TurnAdvanced.Next)}, nil
	case e.WonPot != nil:
		return game.WonPot{Who: game.PlayerID(e.WonPot.Who), Amount: game.Chips(e.WonPot.Amount)}, nil
	default:
		return nil, ErrUnknownVariant
	}
}

// ToWireError converts an engine error into a wire error.
func ToWireError(err error) Error {
	switch e := err.(type) {
	case game.ServerError:
		code := toWireServerError(e)
		return Error{ServerError: &code}
	case game.GameError:
		code := toWireGameError(e)
		return Error{GameError: &code}
	case game.PlayerMgmtError:
		code := toWirePlayerMgmtError(e)
		return Error{PlayerMgmtError: &code}
	default:
		code := ServerErrorUnspecified
		return Error{ServerError: &code}
	}
}

// FromWireError converts a wire error back into an engine error.
func FromWireError(e *Error) (error, error) {
	switch {
	case e.ServerError != nil:
		return fromWireServerError(*e.ServerError)
	case e.GameError != nil:
		return fromWireGameError(*e.GameError)
	case e.PlayerMgmtError != nil:
		return fromWirePlayerMgmtError(*e.PlayerMgmtError)
	default:
		return nil, ErrUnknownVariant
	}
}

func toWireServerError(e game.ServerError) ServerErrorCode {
	switch e {
	case game.ErrTooManyClients:
		return ServerErrorTooManyClients
	case game.ErrAllTablesFull:
		return ServerErrorAllTablesFull
	case game.ErrIllegalAction:
		return ServerErrorIllegalAction
	default:
		return ServerErrorUnspecified
	}
}

func fromWireServerError(c ServerErrorCode) (error, error) {
	switch c {
	case ServerErrorTooManyClients:
		return game.ErrTooManyClients, nil
	case ServerErrorAllTablesFull:
		return game.ErrAllTablesFull, nil
	case ServerErrorIllegalAction:
		return game.ErrIllegalAction, nil
	default:
		return nil, fmt.Errorf("invalid wire server error %d", c)
	}
}

func toWireGameError(e game.GameError) GameErrorCode {
	switch e {
	case game.ErrInvalidAction:
		return GameErrorInvalidAction
	case game.ErrHandInPlay:
		return GameErrorHandInPlay
	case game.ErrNotEnoughPlayers:
		return GameErrorNotEnoughPlayers
	case game.ErrInsufficientFunds:
		return GameErrorInsufficientFunds
	case game.ErrBetTooLow:
		return GameErrorBetTooLow
	case game.ErrOutOfTurn:
		return GameErrorOutOfTurn
	case game.ErrNoSuchPlayer:
		return GameErrorNoSuchPlayer
	default:
		return GameErrorUnspecified
	}
}

func fromWireGameError(c GameErrorCode) (error, error) {
	switch c {
	case GameErrorInvalidAction:
		return game.ErrInvalidAction, nil
	case GameErrorHandInPlay:
		return game.ErrHandInPlay, nil
	case GameErrorNotEnoughPlayers:
		return game.ErrNotEnoughPlayers, nil
	case GameErrorInsufficientFunds:
		return game.ErrInsufficientFunds, nil
	case GameErrorBetTooLow:
		return game.ErrBetTooLow, nil
	case GameErrorOutOfTurn:
		return game.ErrOutOfTurn, nil
	case GameErrorNoSuchPlayer:
		return game.ErrNoSuchPlayer, nil
	default:
		return nil, fmt.Errorf("invalid wire game error %d", c)
	}
}

func toWirePlayerMgmtError(e game.PlayerMgmtError) PlayerMgmtErrorCode {
	switch e {
	case game.ErrNotEnoughSeats:
		return PlayerMgmtErrorNotEnoughSeats
	case game.ErrInvalidID:
		return PlayerMgmtErrorInvalidID
	case game.ErrPlayerNotFound:
		return PlayerMgmtErrorPlayerNotFound
	case game.ErrNoPlayers:
		return PlayerMgmtErrorNoPlayers
	default:
		return PlayerMgmtErrorUnspecified
	}
}

func fromWirePlayerMgmtError(c PlayerMgmtErrorCode) (error, error) {
	switch c {
	case PlayerMgmtErrorNotEnoughSeats:
		return game.ErrNotEnoughSeats, nil
	case PlayerMgmtErrorInvalidID:
		return game.ErrInvalidID, nil
	case PlayerMgmtErrorPlayerNotFound:
		return game.ErrPlayerNotFound, nil
	case PlayerMgmtErrorNoPlayers:
		return game.ErrNoPlayers, nil
	default:
		return nil, fmt.Errorf("invalid wire player mgmt error %d", c)
	}
}
