package game

import (
	rand "math/rand/v2"

	"github.com/whwjiang/poker-epoll/internal/deck"
)

// Table runs hands of no-limit hold'em for up to MaxPlayers seats. All
// methods assume they are called serially; any driver must ensure this so
// as to avoid race conditions or inconsistent state.
type Table struct {
	rng     *rand.Rand
	deck    *deck.Deck
	players *PlayerManager
	button  PlayerID // 0 until the first hand has been played
	hand    *handState
}

// NewTable creates an empty table whose deals are driven by rng.
func NewTable(rng *rand.Rand) *Table {
	return &Table{
		rng:     rng,
		deck:    deck.New(),
		players: NewPlayerManager(),
	}
}

// HasOpenSeat reports whether another player can join.
func (t *Table) HasOpenSeat() bool {
	return t.players.NumPlayers() < MaxPlayers
}

// HandInProgress reports whether a hand is live.
func (t *Table) HandInProgress() bool {
	return t.hand != nil
}

// CanStartHand reports whether HandleNewHand would be legal to call.
func (t *Table) CanStartHand() bool {
	return !t.HandInProgress() && t.players.NumPlayers() >= 2
}

// AddPlayer stages a player to join at the next hand boundary.
func (t *Table) AddPlayer(id PlayerID) ([]Event, error) {
	if err := t.players.AddPlayer(id); err != nil {
		return nil, err
	}
	return []Event{PlayerAdded{Who: id}}, nil
}

// RemovePlayer removes a player immediately. There are four cases:
// 1. player is active and their turn already occurred: mark them as left
// 2. player is active and their turn hasn't occurred: mark as left and
//    splice them out of the queue so their turn is skipped
// 3. player's turn is right now: splice them out and advance the game
//    state, emitting an event so everyone knows
// 4. no hand in play: removal from the PlayerManager is sufficient
func (t *Table) RemovePlayer(id PlayerID) ([]Event, error) {
	if err := t.players.RemovePlayer(id); err != nil {
		return nil, err
	}
	events := []Event{PlayerRemoved{Who: id}}
	if h := t.hand; h != nil {
		if _, ok := h.playerState[id]; ok {
			h.playerState[id] = StateLeft
		}
		removedFront := false
		updated := make([]PlayerID, 0, len(h.turnQueue))
		for i, cur := range h.turnQueue {
			if cur == id {
				if i == 0 {
					removedFront = true
				}
				continue
			}
			updated = append(updated, cur)
		}
		h.turnQueue = updated
		if removedFront {
			t.pruneTurnQueue()
			if len(h.turnQueue) > 0 {
				events = append(events, TurnAdvanced{Next: h.turnQueue[0]})
			}
		}
	}
	return events, nil
}

// HandleNewHand seats held players, advances the button, deals, posts the
// blinds and opens the betting. Event order: HandStarted, PhaseAdvanced,
// one DealtHole per participant in dealing order, the blind BetPlaced
// events, then the first TurnAdvanced. If the blinds already put everyone
// all-in, the full board and showdown follow instead.
func (t *Table) HandleNewHand() ([]Event, error) {
	if t.players.NumPlayers() < 2 {
		return nil, ErrNotEnoughPlayers
	}
	if t.HandInProgress() {
		return nil, ErrHandInPlay
	}
	t.players.SeatHeldPlayers()

	if t.button == 0 {
		first, err := t.players.GetFirstPlayer()
		if err != nil {
			return nil, ErrNotEnoughPlayers
		}
		t.button = first
	} else {
		next, err := t.players.NextPlayer(t.button)
		if err != nil {
			// previous button holder left between hands
			first, ferr := t.players.GetFirstPlayer()
			if ferr != nil {
				return nil, ErrNotEnoughPlayers
			}
			next = first
		}
		t.button = next
	}

	h := &handState{
		button:       t.button,
		participants: t.players.ActiveCycleFrom(t.button),
		playerState:  make(map[PlayerID]PlayerState),
		playerHoles:  make(map[PlayerID][deck.HoleSize]deck.Card),
		activeBets:   make(map[PlayerID]Chips),
		committed:    make(map[PlayerID]Chips),
	}
	if len(h.participants) < 2 {
		return nil, ErrNotEnoughPlayers
	}
	for _, id := range h.participants {
		h.playerState[id] = StateActive
		h.activeBets[id] = 0
		h.committed[id] = 0
	}
	t.dealCards(h)
	h.phase = PhasePreflop
	h.previousBet = 0
	h.minRaise = BigBlind
	t.hand = h

	events := []Event{HandStarted{}, PhaseAdvanced{Next: PhasePreflop}}
	for _, id := range h.participants {
		events = append(events, DealtHole{Who: id, Hole: h.playerHoles[id]})
	}

	n := len(h.participants)
	if n == 2 {
		// heads-up: the button posts the small blind and acts first
		sb := h.participants[0]
		bb := h.participants[1]
		t.postBlind(sb, SmallBlind, &events)
		t.postBlind(bb, BigBlind, &events)
		h.turnQueue = t.buildTurnQueue(sb)
	} else {
		sb := h.participants[1%n]
		bb := h.participants[2%n]
		t.postBlind(sb, SmallBlind, &events)
		t.postBlind(bb, BigBlind, &events)
		first := h.participants[3%n] // under the gun, left of the big blind
		h.turnQueue = t.buildTurnQueue(first)
	}

	t.pruneTurnQueue()
	if len(h.turnQueue) == 0 {
		t.revealRemainingBoard(&events)
		t.distributeSidePots(&events)
		t.hand = nil
		return events, nil
	}
	events = append(events, TurnAdvanced{Next: h.turnQueue[0]})
	return events, nil
}

// OnAction validates and applies one player action, then resolves the
// consequences: last player standing, street completion, board run-out for
// all-in hands, or simply the next turn.
func (t *Table) OnAction(action Action) ([]Event, error) {
	h := t.hand
	if h == nil {
		return nil, ErrInvalidAction
	}
	id := action.Actor()
	if !t.players.IsSat(id) {
		return nil, ErrNoSuchPlayer
	}
	t.pruneTurnQueue()
	if len(h.turnQueue) == 0 {
		return nil, ErrInvalidAction
	}
	if id != h.turnQueue[0] {
		return nil, ErrOutOfTurn
	}

	var events []Event
	var err error
	switch a := action.(type) {
	case Bet:
		events, err = t.handleBet(a)
	case Fold:
		events, err = t.handleFold(a)
	case Timeout:
		events, err = t.handleTimeout(a)
	default:
		err = ErrInvalidAction
	}
	if err != nil {
		return nil, err
	}

	t.pruneTurnQueue()
	remaining := t.activePlayersInHand()
	if len(remaining) == 1 {
		t.awardChips(remaining[0], t.totalCommitted(), &events)
		t.hand = nil
		return events, nil
	}
	if len(h.turnQueue) == 0 {
		anyActive := false
		for _, pid := range remaining {
			if h.playerState[pid] == StateActive {
				anyActive = true
				break
			}
		}
		if !anyActive {
			t.revealRemainingBoard(&events)
			t.distributeSidePots(&events)
			t.hand = nil
			return events, nil
		}
		if h.phase == PhaseRiver {
			t.distributeSidePots(&events)
			t.hand = nil
			return events, nil
		}
		advance, err := t.handleNewStreet()
		if err != nil {
			return nil, err
		}
		events = append(events, advance...)
	} else {
		t.advanceTurn(&events)
	}
	return events, nil
}

// handleBet applies a bet. A "check" is a bet of 0, a "call" matches the
// previous bet, a "raise" must clear the minimum raise increment. Bets at
// or above the purse are clamped and go all-in; an all-in short of a full
// raise does not re-open the action.
func (t *Table) handleBet(b Bet) ([]Event, error) {
	h := t.hand
	id, bet := b.ID, b.Amount
	previous := h.previousBet
	current := h.activeBets[id]
	chips := t.players.GetChips(id)

	isRaise := false
	isAllIn := false
	if bet >= chips && bet > 0 {
		bet = chips
		h.playerState[id] = StateAllIn
		isAllIn = true
	}
	total := current + bet
	if bet == 0 && current < previous {
		return nil, ErrBetTooLow
	} else if bet > 0 {
		if total < previous && !isAllIn {
			return nil, ErrBetTooLow
		} else if total > previous {
			if total-previous < h.minRaise && !isAllIn {
				return nil, ErrBetTooLow
			}
			isRaise = total-previous >= h.minRaise
		}
	}

	h.turnQueue = h.turnQueue[1:]
	t.players.PlaceBet(id, bet)
	h.committed[id] += bet
	if total > previous {
		h.previousBet = total
	}
	h.activeBets[id] = total
	if isRaise {
		h.minRaise = total - previous
		// a full raise re-opens the action for everyone still active
		h.turnQueue = t.buildTurnQueueAfter(id)
	}

	return []Event{BetPlaced{Who: id, Amount: bet}}, nil
}

// handleFold folds the actor. The committed total is retained for side-pot
// accounting; only the per-street bet is erased.
func (t *Table) handleFold(f Fold) ([]Event, error) {
	h := t.hand
	h.turnQueue = h.turnQueue[1:]
	h.playerState[f.ID] = StateFolded
	delete(h.activeBets, f.ID)
	return nil, nil
}

// handleTimeout folds a player facing a bet and checks otherwise.
func (t *Table) handleTimeout(to Timeout) ([]Event, error) {
	h := t.hand
	if h.activeBets[to.ID] < h.previousBet {
		return t.handleFold(Fold{ID: to.ID})
	}
	return t.handleBet(Bet{ID: to.ID, Amount: 0})
}

// handleNewStreet advances the phase, reveals the street, resets per-street
// betting state and queues the remaining active players from the first
// active seat after the button.
func (t *Table) handleNewStreet() ([]Event, error) {
	h := t.hand
	next, ok := nextPhase(h.phase)
	if !ok {
		return nil, ErrInvalidAction
	}
	h.phase = next
	events := []Event{PhaseAdvanced{Next: next}}
	t.appendDealEvent(next, &events)

	for _, id := range h.participants {
		if _, ok := h.activeBets[id]; ok {
			h.activeBets[id] = 0
		}
	}
	h.previousBet = 0
	h.minRaise = BigBlind
	if start, ok := t.firstActiveAfter(h.button); ok {
		h.turnQueue = t.buildTurnQueue(start)
	} else {
		h.turnQueue = nil
	}
	t.pruneTurnQueue()
	if len(h.turnQueue) > 0 {
		events = append(events, TurnAdvanced{Next: h.turnQueue[0]})
	}
	return events, nil
}

// postBlind posts a forced bet, clamped to the purse. A player with an
// empty purse is marked all-in without posting; a post that exhausts the
// purse marks them all-in.
func (t *Table) postBlind(id PlayerID, amount Chips, events *[]Event) {
	h := t.hand
	chips := t.players.GetChips(id)
	if chips == 0 {
		h.playerState[id] = StateAllIn
		return
	}
	blind := amount
	if blind > chips {
		blind = chips
	}
	if blind >= chips {
		h.playerState[id] = StateAllIn
	}
	t.players.PlaceBet(id, blind)
	h.committed[id] += blind
	h.activeBets[id] += blind
	if h.activeBets[id] > h.previousBet {
		h.previousBet = h.activeBets[id]
	}
	*events = append(*events, BetPlaced{Who: id, Amount: blind})
}

// advanceTurn announces the front of the queue after pruning.
func (t *Table) advanceTurn(events *[]Event) {
	t.pruneTurnQueue()
	if len(t.hand.turnQueue) > 0 {
		*events = append(*events, TurnAdvanced{Next: t.hand.turnQueue[0]})
	}
}

// dealCards shuffles and deals two cards to each participant clockwise
// starting at the button, then the five-card board.
func (t *Table) dealCards(h *handState) {
	t.deck.Shuffle(t.rng)
	for _, id := range h.participants {
		hole, err := t.deck.DealHole()
		if err != nil {
			// 10 players consume 25 of 52 cards; unreachable
			panic(err)
		}
		h.playerHoles[id] = hole
	}
	board, err := t.deck.DealBoard()
	if err != nil {
		panic(err)
	}
	h.tableCards = board
}
