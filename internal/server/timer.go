package server

import (
	"time"

	"github.com/whwjiang/poker-epoll/internal/game"
)

// The turn timer is the driver behind Timeout actions: when a table
// announces whose turn it is, the session arms a timer for that player,
// and a fire injects Timeout through the normal dispatch path. Disabled
// when action_timeout_ms is 0.

// afterDispatch inspects the events just delivered for a table and keeps
// that table's timer in step: armed for the latest announced actor while a
// hand runs, stopped when the hand ends. Dispatches that change neither
// (an action that leaves the same player to act) leave the timer alone.
func (s *Server) afterDispatch(tid game.TableID, events []game.Event) {
	if s.cfg.Settings.ActionTimeoutMs <= 0 {
		return
	}
	table, ok := s.tables[tid]
	if !ok {
		return
	}
	var next game.PlayerID
	sawTurn := false
	for _, ev := range events {
		if turn, ok := ev.(game.TurnAdvanced); ok {
			next = turn.Next
			sawTurn = true
		}
	}
	if sawTurn && table.HandInProgress() {
		s.armTimer(tid, next)
		return
	}
	if !table.HandInProgress() {
		s.stopTimer(tid)
	}
}

func (s *Server) armTimer(tid game.TableID, actor game.PlayerID) {
	tt := s.timers[tid]
	if tt == nil {
		tt = &turnTimer{}
		s.timers[tid] = tt
	}
	if tt.timer != nil {
		tt.timer.Stop()
	}
	tt.actor = actor
	tt.gen++
	gen := tt.gen
	timeout := time.Duration(s.cfg.Settings.ActionTimeoutMs) * time.Millisecond
	tt.timer = s.clock.AfterFunc(timeout, func() {
		s.do(func() { s.onTurnTimeout(tid, actor, gen) })
	})
}

func (s *Server) stopTimer(tid game.TableID) {
	tt := s.timers[tid]
	if tt == nil {
		return
	}
	if tt.timer != nil {
		tt.timer.Stop()
	}
	delete(s.timers, tid)
}

// onTurnTimeout fires a Timeout action for the player the table was
// waiting on. A stale generation means the turn already moved on.
func (s *Server) onTurnTimeout(tid game.TableID, actor game.PlayerID, gen uint64) {
	tt := s.timers[tid]
	if tt == nil || tt.gen != gen {
		return
	}
	table, ok := s.tables[tid]
	if !ok || !table.HandInProgress() {
		return
	}
	s.logger.Info("Decision timeout", "table", tid, "player", actor)
	events, err := table.OnAction(game.Timeout{ID: actor})
	if err != nil {
		s.logger.Warn("Timeout action rejected", "table", tid, "player", actor, "error", err)
		return
	}
	s.pushTable(tid, events)
	if started := s.maybeStartHand(tid); started != nil {
		s.pushTable(tid, started)
		events = append(events, started...)
	}
	s.afterDispatch(tid, events)
}
