package game

// Player is a seated participant with a chip purse. The purse is mutated
// only through PlaceBet and AddChips.
type Player struct {
	id    PlayerID
	purse Chips
}

// ID returns the player's id.
func (p *Player) ID() PlayerID { return p.id }

// Chips returns the current purse.
func (p *Player) Chips() Chips { return p.purse }

// AddChips credits the purse.
func (p *Player) AddChips(amount Chips) { p.purse += amount }

// PlaceBet debits the purse. The caller is responsible for clamping the
// amount to the purse; betting more than the purse is a bookkeeping bug.
func (p *Player) PlaceBet(amount Chips) { p.purse -= amount }

// SufficientChips reports whether the purse covers the bet.
func (p *Player) SufficientChips(bet Chips) bool { return p.purse >= bet }

// PlayerManager owns the seats of one table. A joining player reserves a
// seat immediately but sits in the holding queue (with no chips) until the
// next hand boundary, when SeatHeldPlayers materialises them with the
// buy-in. Removal frees the seat immediately, even mid-hand; the table is
// responsible for fixing up hand bookkeeping separately.
type PlayerManager struct {
	seats     [MaxPlayers]*Player
	openSeats []int
	index     map[PlayerID]int
	holding   []PlayerID
}

// NewPlayerManager creates a manager with every seat open.
func NewPlayerManager() *PlayerManager {
	pm := &PlayerManager{
		openSeats: make([]int, 0, MaxPlayers),
		index:     make(map[PlayerID]int),
	}
	for i := 0; i < MaxPlayers; i++ {
		pm.openSeats = append(pm.openSeats, i)
	}
	return pm
}

// AddPlayer reserves the front open seat for id and stages them in holding.
func (pm *PlayerManager) AddPlayer(id PlayerID) error {
	if len(pm.openSeats) == 0 {
		return ErrNotEnoughSeats
	}
	seat := pm.openSeats[0]
	pm.openSeats = pm.openSeats[1:]
	pm.holding = append(pm.holding, id)
	pm.index[id] = seat
	return nil
}

// RemovePlayer removes id immediately. A holding player is dropped from the
// queue; a seated player's seat is cleared right away.
func (pm *PlayerManager) RemovePlayer(id PlayerID) error {
	seat, ok := pm.index[id]
	if !ok {
		return ErrInvalidID
	}
	for i, held := range pm.holding {
		if held == id {
			pm.holding = append(pm.holding[:i], pm.holding[i+1:]...)
			pm.openSeats = append(pm.openSeats, seat)
			delete(pm.index, id)
			return nil
		}
	}
	pm.seats[seat] = nil
	pm.openSeats = append(pm.openSeats, seat)
	delete(pm.index, id)
	return nil
}

// SeatHeldPlayers moves players from holding into their reserved seats with
// the buy-in. Called only at hand start.
func (pm *PlayerManager) SeatHeldPlayers() {
	for _, id := range pm.holding {
		p := &Player{id: id}
		p.AddChips(BuyIn)
		pm.seats[pm.index[id]] = p
	}
	pm.holding = pm.holding[:0]
}

// GetFirstPlayer returns the lowest-indexed occupied seat.
func (pm *PlayerManager) GetFirstPlayer() (PlayerID, error) {
	for _, p := range pm.seats {
		if p != nil {
			return p.id, nil
		}
	}
	return 0, ErrNoPlayers
}

// NextPlayer returns the occupant of the first occupied seat strictly after
// p's seat, wrapping around. If p holds the only occupied seat, returns p.
func (pm *PlayerManager) NextPlayer(p PlayerID) (PlayerID, error) {
	seat, ok := pm.index[p]
	if !ok {
		return 0, ErrInvalidID
	}
	for i := 1; i <= MaxPlayers; i++ {
		if next := pm.seats[(seat+i)%MaxPlayers]; next != nil {
			return next.id, nil
		}
	}
	return p, nil
}

// ActiveCycleFrom returns the clockwise ring of seated players beginning at
// start, terminating just before wrapping back to start. Empty if start is
// unknown or unseated.
func (pm *PlayerManager) ActiveCycleFrom(start PlayerID) []PlayerID {
	if !pm.IsSat(start) {
		return nil
	}
	ordered := []PlayerID{start}
	for next, err := pm.NextPlayer(start); err == nil && next != start; next, err = pm.NextPlayer(next) {
		ordered = append(ordered, next)
	}
	return ordered
}

// NumPlayers counts reserved seats, holding players included.
func (pm *PlayerManager) NumPlayers() int {
	return MaxPlayers - len(pm.openSeats)
}

// IsSat reports whether id occupies a seat (holding players are not sat).
func (pm *PlayerManager) IsSat(id PlayerID) bool {
	seat, ok := pm.index[id]
	return ok && pm.seats[seat] != nil
}

// GetChips returns id's purse. Caller is responsible for validating id.
func (pm *PlayerManager) GetChips(id PlayerID) Chips {
	return pm.seats[pm.index[id]].Chips()
}

// HasEnoughChips reports whether id's purse covers bet.
func (pm *PlayerManager) HasEnoughChips(id PlayerID, bet Chips) bool {
	return pm.seats[pm.index[id]].SufficientChips(bet)
}

// PlaceBet debits id's purse without sufficiency validation; the table
// clamps amounts to produce all-in semantics.
func (pm *PlayerManager) PlaceBet(id PlayerID, bet Chips) {
	pm.seats[pm.index[id]].PlaceBet(bet)
}

// AwardChips credits id's purse.
func (pm *PlayerManager) AwardChips(id PlayerID, amount Chips) {
	pm.seats[pm.index[id]].AddChips(amount)
}
