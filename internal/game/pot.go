package game

import (
	"sort"

	"github.com/whwjiang/poker-epoll/internal/deck"
	"github.com/whwjiang/poker-epoll/internal/evaluator"
)

// SidePot is a disjoint pool of committed chips contested by the subset of
// participants who contributed to its layer and are still in the hand.
type SidePot struct {
	Amount   Chips
	Eligible []PlayerID
}

// buildSidePots layers the committed map by ascending contribution level.
// Each layer's amount is (level - previous) times the contributors at or
// above it; eligibility is contributors still active or all-in. Chips from
// folded or departed players sit in layers they cannot win.
func (t *Table) buildSidePots() []SidePot {
	h := t.hand
	if h == nil {
		return nil
	}
	type contribution struct {
		id     PlayerID
		amount Chips
	}
	contributions := make([]contribution, 0, len(h.participants))
	for _, id := range h.participants {
		if h.committed[id] > 0 {
			contributions = append(contributions, contribution{id, h.committed[id]})
		}
	}
	if len(contributions) == 0 {
		return nil
	}
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].amount < contributions[j].amount
	})

	remaining := make([]PlayerID, 0, len(contributions))
	for _, c := range contributions {
		remaining = append(remaining, c.id)
	}

	var pots []SidePot
	var previous Chips
	idx := 0
	for idx < len(contributions) {
		level := contributions[idx].amount
		if level > previous {
			layer := (level - previous) * Chips(len(remaining))
			eligible := make([]PlayerID, 0, len(remaining))
			for _, id := range remaining {
				if state := h.playerState[id]; state == StateActive || state == StateAllIn {
					eligible = append(eligible, id)
				}
			}
			if layer > 0 {
				pots = append(pots, SidePot{Amount: layer, Eligible: eligible})
			}
			previous = level
		}
		for idx < len(contributions) && contributions[idx].amount == level {
			remaining = removeID(remaining, contributions[idx].id)
			idx++
		}
	}
	return pots
}

// totalCommitted sums every participant's whole-hand commitment.
func (t *Table) totalCommitted() Chips {
	h := t.hand
	if h == nil {
		return 0
	}
	var total Chips
	for _, amount := range h.committed {
		total += amount
	}
	return total
}

// handRank ranks id's best five-card hand from hole plus board.
func (t *Table) handRank(id PlayerID) evaluator.HandRank {
	h := t.hand
	hole := h.playerHoles[id]
	var cards [7]deck.Card
	cards[0] = hole[0]
	cards[1] = hole[1]
	copy(cards[2:], h.tableCards[:])
	return evaluator.RankBestOfSeven(cards)
}

// awardChips credits the purse and emits WonPot. A zero award is silent.
func (t *Table) awardChips(id PlayerID, amount Chips, events *[]Event) {
	if amount == 0 {
		return
	}
	t.players.AwardChips(id, amount)
	*events = append(*events, WonPot{Who: id, Amount: amount})
}

// distributeSidePots settles each pot to its strongest eligible hand. A pot
// none of whose contributors is still in the hand is contested by every
// player still in the hand. Ties split into equal shares, with odd chips
// assigned one at a time clockwise from the seat closest after the button
// (participant order).
func (t *Table) distributeSidePots(events *[]Event) {
	h := t.hand
	for _, pot := range t.buildSidePots() {
		eligible := pot.Eligible
		if len(eligible) == 0 {
			eligible = t.activePlayersInHand()
		}
		best := evaluator.WorstRank
		var winners []PlayerID
		for _, id := range eligible {
			rank := t.handRank(id)
			if len(winners) == 0 || rank < best {
				winners = winners[:0]
				winners = append(winners, id)
				best = rank
			} else if rank == best {
				winners = append(winners, id)
			}
		}
		if len(winners) == 0 {
			continue
		}

		ordered := make([]PlayerID, 0, len(winners))
		for _, id := range h.participants {
			if containsID(winners, id) {
				ordered = append(ordered, id)
			}
		}
		share := pot.Amount / Chips(len(ordered))
		remainder := pot.Amount % Chips(len(ordered))
		for _, id := range ordered {
			payout := share
			if remainder > 0 {
				payout++
				remainder--
			}
			t.awardChips(id, payout, events)
		}
	}
}

func containsID(ids []PlayerID, id PlayerID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func removeID(ids []PlayerID, id PlayerID) []PlayerID {
	for i, x := range ids {
		if x == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
