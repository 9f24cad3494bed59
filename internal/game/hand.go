package game

import "github.com/whwjiang/poker-epoll/internal/deck"

// handState is the in-progress hand. It exists only while a hand is live;
// a table with no hand has a nil handState, never a sentinel phase.
type handState struct {
	phase        Phase
	button       PlayerID
	participants []PlayerID // clockwise from the button, fixed at hand start
	playerState  map[PlayerID]PlayerState
	playerHoles  map[PlayerID][deck.HoleSize]deck.Card
	tableCards   [deck.BoardSize]deck.Card
	activeBets   map[PlayerID]Chips // chips committed in the current street
	committed    map[PlayerID]Chips // chips committed in the whole hand
	previousBet  Chips              // per-street high water to match
	minRaise     Chips              // minimum legal raise increment
	turnQueue    []PlayerID         // participants still owing an action
}

// pruneTurnQueue pops from the front while the front is not active.
// Idempotent.
func (t *Table) pruneTurnQueue() {
	h := t.hand
	if h == nil {
		return
	}
	for len(h.turnQueue) > 0 {
		if h.playerState[h.turnQueue[0]] == StateActive {
			break
		}
		h.turnQueue = h.turnQueue[1:]
	}
}

// buildTurnQueue walks participants clockwise from start, keeping only
// active players. Empty if start is not a participant.
func (t *Table) buildTurnQueue(start PlayerID) []PlayerID {
	h := t.hand
	if h == nil {
		return nil
	}
	offset := participantIndex(h.participants, start)
	if offset < 0 {
		return nil
	}
	n := len(h.participants)
	queue := make([]PlayerID, 0, n)
	for i := 0; i < n; i++ {
		id := h.participants[(offset+i)%n]
		if h.playerState[id] == StateActive {
			queue = append(queue, id)
		}
	}
	return queue
}

// buildTurnQueueAfter is buildTurnQueue starting one past id, excluding id
// itself. Used after a raise: the raiser owes no further action unless
// re-raised.
func (t *Table) buildTurnQueueAfter(id PlayerID) []PlayerID {
	h := t.hand
	offset := participantIndex(h.participants, id)
	if offset < 0 {
		return nil
	}
	n := len(h.participants)
	queue := make([]PlayerID, 0, n)
	for i := 1; i < n; i++ {
		next := h.participants[(offset+i)%n]
		if h.playerState[next] == StateActive {
			queue = append(queue, next)
		}
	}
	return queue
}

// firstActiveAfter returns the first active participant strictly after p,
// wrapping, or false if none.
func (t *Table) firstActiveAfter(p PlayerID) (PlayerID, bool) {
	h := t.hand
	if h == nil {
		return 0, false
	}
	offset := participantIndex(h.participants, p)
	if offset < 0 {
		return 0, false
	}
	n := len(h.participants)
	for i := 1; i <= n; i++ {
		id := h.participants[(offset+i)%n]
		if h.playerState[id] == StateActive {
			return id, true
		}
	}
	return 0, false
}

// activePlayersInHand returns participants still contesting the pot, in
// participant order.
func (t *Table) activePlayersInHand() []PlayerID {
	h := t.hand
	if h == nil {
		return nil
	}
	remaining := make([]PlayerID, 0, len(h.participants))
	for _, id := range h.participants {
		if state := h.playerState[id]; state == StateActive || state == StateAllIn {
			remaining = append(remaining, id)
		}
	}
	return remaining
}

// revealRemainingBoard advances the phase street by street to the river,
// emitting the reveal for each.
func (t *Table) revealRemainingBoard(events *[]Event) {
	h := t.hand
	for h != nil && h.phase != PhaseRiver {
		next, ok := nextPhase(h.phase)
		if !ok {
			return
		}
		h.phase = next
		*events = append(*events, PhaseAdvanced{Next: next})
		t.appendDealEvent(next, events)
	}
}

// appendDealEvent emits the community-card reveal for the given street.
func (t *Table) appendDealEvent(phase Phase, events *[]Event) {
	h := t.hand
	switch phase {
	case PhaseFlop:
		var flop [deck.FlopSize]deck.Card
		copy(flop[:], h.tableCards[:deck.FlopSize])
		*events = append(*events, DealtFlop{Flop: flop})
	case PhaseTurn:
		*events = append(*events, DealtStreet{Card: h.tableCards[deck.FlopSize]})
	case PhaseRiver:
		*events = append(*events, DealtStreet{Card: h.tableCards[deck.FlopSize+1]})
	}
}

func nextPhase(p Phase) (Phase, bool) {
	switch p {
	case PhasePreflop:
		return PhaseFlop, true
	case PhaseFlop:
		return PhaseTurn, true
	case PhaseTurn:
		return PhaseRiver, true
	default:
		return p, false
	}
}

func participantIndex(participants []PlayerID, id PlayerID) int {
	for i, p := range participants {
		if p == id {
			return i
		}
	}
	return -1
}
