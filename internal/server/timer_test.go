package server

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whwjiang/poker-epoll/internal/game"
)

func TestTurnTimerFoldsFacingABet(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	s := startTestServerCfg(t, func(cfg *Config) {
		cfg.Settings.ActionTimeoutMs = 30_000
	}, WithClock(mock))

	c1, c2 := joinHeadsUp(t, s)

	// the timer arms on the session loop after the turn announcement is
	// queued; wait until it is registered before firing it
	require.Eventually(t, func() bool {
		_, ok := mock.Peek()
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mock.Advance(30 * time.Second).MustWait(ctx)

	// the small blind timed out facing the big blind: that is a fold, and
	// the big blind collects both blinds
	events := c2.collectUntil(func(ev game.Event) bool {
		_, ok := ev.(game.WonPot)
		return ok
	})
	won := events[len(events)-1].(game.WonPot)
	assert.Equal(t, game.WonPot{Who: 2, Amount: 15}, won)
	_ = c1
}

func TestTurnTimerChecksWhenNothingOwed(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	s := startTestServerCfg(t, func(cfg *Config) {
		cfg.Settings.ActionTimeoutMs = 30_000
	}, WithClock(mock))

	c1, c2 := joinHeadsUp(t, s)

	c1.bet(5) // call, leaving the big blind owing nothing
	c1.collectUntil(isTurn(2))
	c2.collectUntil(isTurn(2))

	// round-trip a rejected action through the session loop so the timer
	// re-arm for player 2 is definitely in place before the clock moves
	c1.bet(999)
	require.Equal(t, game.ErrOutOfTurn, c1.nextError())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mock.Advance(30 * time.Second).MustWait(ctx)

	// the timeout becomes a check and the flop comes down
	events := c2.collectUntil(func(ev game.Event) bool {
		phase, ok := ev.(game.PhaseAdvanced)
		return ok && phase.Next == game.PhaseFlop
	})
	sawCheck := false
	for _, ev := range events {
		if bet, ok := ev.(game.BetPlaced); ok && bet == (game.BetPlaced{Who: 2, Amount: 0}) {
			sawCheck = true
		}
	}
	assert.True(t, sawCheck, "expected the timeout to check: %v", events)
}
