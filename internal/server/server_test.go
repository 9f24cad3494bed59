package server

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whwjiang/poker-epoll/internal/game"
	"github.com/whwjiang/poker-epoll/internal/protocol"
)

func startTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	return startTestServerCfg(t, nil, opts...)
}

func startTestServerCfg(t *testing.T, tweak func(*Config), opts ...Option) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Settings.Address = "127.0.0.1"
	cfg.Settings.Port = 0
	if tweak != nil {
		tweak(cfg)
	}

	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	s := New(logger, cfg, append([]Option{WithSeed(1)}, opts...)...)
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})
	return s
}

// testClient decodes inbound frames into a message stream.
type testClient struct {
	t    *testing.T
	nc   net.Conn
	msgs chan protocol.Message
}

func dialClient(t *testing.T, addr net.Addr) *testClient {
	t.Helper()
	nc, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	c := &testClient{t: t, nc: nc, msgs: make(chan protocol.Message, 256)}
	t.Cleanup(func() { _ = nc.Close() })

	go func() {
		defer close(c.msgs)
		var frames protocol.FrameReader
		buf := make([]byte, 4096)
		for {
			n, err := nc.Read(buf)
			if n > 0 {
				frames.Feed(buf[:n])
				for {
					payload, ok, ferr := frames.Next()
					if ferr != nil || !ok {
						break
					}
					resp, derr := protocol.UnmarshalResponse(payload)
					if derr != nil {
						continue
					}
					for _, msg := range resp.Messages {
						c.msgs <- msg
					}
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return c
}

func (c *testClient) next() protocol.Message {
	c.t.Helper()
	select {
	case msg, ok := <-c.msgs:
		require.True(c.t, ok, "connection closed while waiting for a message")
		return msg
	case <-time.After(5 * time.Second):
		c.t.Fatal("timed out waiting for a message")
		return protocol.Message{}
	}
}

// nextEvent returns the next decoded event, failing on errors.
func (c *testClient) nextEvent() game.Event {
	c.t.Helper()
	msg := c.next()
	require.NotNil(c.t, msg.Event, "expected an event, got %+v", msg)
	ev, err := protocol.FromWireEvent(msg.Event)
	require.NoError(c.t, err)
	return ev
}

// collectUntil drains events until pred matches, returning everything seen
// including the match.
func (c *testClient) collectUntil(pred func(game.Event) bool) []game.Event {
	c.t.Helper()
	var events []game.Event
	for {
		ev := c.nextEvent()
		events = append(events, ev)
		if pred(ev) {
			return events
		}
	}
}

func (c *testClient) nextError() error {
	c.t.Helper()
	msg := c.next()
	require.NotNil(c.t, msg.Error, "expected an error, got %+v", msg)
	err, derr := protocol.FromWireError(msg.Error)
	require.NoError(c.t, derr)
	return err
}

func (c *testClient) send(a *protocol.Action) {
	c.t.Helper()
	payload, err := protocol.MarshalAction(a)
	require.NoError(c.t, err)
	_, err = c.nc.Write(protocol.AppendFrame(nil, payload))
	require.NoError(c.t, err)
}

func (c *testClient) bet(amount uint64) {
	c.send(&protocol.Action{Bet: &protocol.BetAction{Amount: amount}})
}

func (c *testClient) fold() {
	c.send(&protocol.Action{Fold: &protocol.FoldAction{}})
}

func isTurn(next game.PlayerID) func(game.Event) bool {
	return func(ev game.Event) bool {
		turn, ok := ev.(game.TurnAdvanced)
		return ok && turn.Next == next
	}
}

// joinHeadsUp connects two clients and waits for the hand to start.
func joinHeadsUp(t *testing.T, s *Server) (*testClient, *testClient) {
	t.Helper()
	c1 := dialClient(t, s.Addr())
	require.Equal(t, game.PlayerAdded{Who: 1}, c1.nextEvent())

	c2 := dialClient(t, s.Addr())
	c1.collectUntil(isTurn(1))
	c2.collectUntil(isTurn(1))
	return c1, c2
}

func TestHeadsUpHandStartAndVisibility(t *testing.T) {
	t.Parallel()

	s := startTestServer(t)
	c1 := dialClient(t, s.Addr())
	require.Equal(t, game.PlayerAdded{Who: 1}, c1.nextEvent())

	c2 := dialClient(t, s.Addr())
	require.Equal(t, game.PlayerAdded{Who: 2}, c1.nextEvent())

	events := c1.collectUntil(isTurn(1))

	var holes []game.DealtHole
	var bets []game.BetPlaced
	for _, ev := range events {
		switch e := ev.(type) {
		case game.DealtHole:
			holes = append(holes, e)
		case game.BetPlaced:
			bets = append(bets, e)
		}
	}
	// hole cards reach only their owner
	require.Len(t, holes, 1)
	assert.Equal(t, game.PlayerID(1), holes[0].Who)
	// heads-up: the button posts small, the other big, button acts first
	require.Len(t, bets, 2)
	assert.Equal(t, game.BetPlaced{Who: 1, Amount: game.SmallBlind}, bets[0])
	assert.Equal(t, game.BetPlaced{Who: 2, Amount: game.BigBlind}, bets[1])

	events = c2.collectUntil(isTurn(1))
	for _, ev := range events {
		if hole, ok := ev.(game.DealtHole); ok {
			assert.Equal(t, game.PlayerID(2), hole.Who)
		}
	}
}

func TestPlayOutAHand(t *testing.T) {
	t.Parallel()

	s := startTestServer(t)
	c1, c2 := joinHeadsUp(t, s)

	c1.bet(5) // call the blind
	c1.collectUntil(isTurn(2))
	c2.collectUntil(isTurn(2))

	c2.bet(0) // check: street completes
	events := c1.collectUntil(isTurn(2))
	flopSeen := false
	for _, ev := range events {
		if phase, ok := ev.(game.PhaseAdvanced); ok && phase.Next == game.PhaseFlop {
			flopSeen = true
		}
	}
	assert.True(t, flopSeen, "expected the flop after the big blind checks: %v", events)

	c2.fold()
	events = c1.collectUntil(func(ev game.Event) bool {
		_, ok := ev.(game.WonPot)
		return ok
	})
	won := events[len(events)-1].(game.WonPot)
	assert.Equal(t, game.PlayerID(1), won.Who)
	assert.Equal(t, game.Chips(20), won.Amount)

	// both players still have chips, so the next hand starts automatically
	c1.collectUntil(func(ev game.Event) bool {
		_, ok := ev.(game.HandStarted)
		return ok
	})
}

func TestActionErrorsReachOnlyTheOffender(t *testing.T) {
	t.Parallel()

	s := startTestServer(t)
	c1, c2 := joinHeadsUp(t, s)

	c2.bet(0) // out of turn: the button acts first heads-up
	assert.Equal(t, game.ErrOutOfTurn, c2.nextError())

	// play on: c1 still works and never saw the error frame
	c1.bet(5)
	events := c1.collectUntil(isTurn(2))
	assert.Equal(t, game.BetPlaced{Who: 1, Amount: 5}, events[0])
}

func TestDisconnectForfeitsTheHand(t *testing.T) {
	t.Parallel()

	s := startTestServer(t)
	c1, c2 := joinHeadsUp(t, s)

	require.NoError(t, c2.nc.Close())

	// the departure is not broadcast to peers; wait until the session has
	// actually processed the close before acting
	require.Eventually(t, func() bool {
		count := make(chan int, 1)
		s.do(func() { count <- len(s.connections) })
		return <-count == 1
	}, 5*time.Second, 10*time.Millisecond)

	// the pot resolves on the next action
	c1.bet(5)
	events := c1.collectUntil(func(ev game.Event) bool {
		_, ok := ev.(game.WonPot)
		return ok
	})
	won := events[len(events)-1].(game.WonPot)
	assert.Equal(t, game.PlayerID(1), won.Who)
	assert.Equal(t, game.Chips(20), won.Amount)
}

func TestMalformedPayloadGetsInvalidAction(t *testing.T) {
	t.Parallel()

	s := startTestServer(t)
	c1, _ := joinHeadsUp(t, s)

	_, err := c1.nc.Write(protocol.AppendFrame(nil, []byte{0xc1})) // reserved msgpack byte
	require.NoError(t, err)
	assert.Equal(t, game.ErrInvalidAction, c1.nextError())
}

func TestConnectionCapRejectsWithError(t *testing.T) {
	t.Parallel()

	s := startTestServer(t)

	clients := make([]*testClient, 0, MaxConnections)
	for i := 0; i < MaxConnections; i++ {
		clients = append(clients, dialClient(t, s.Addr()))
	}
	// every allowed client is seated somewhere
	first := clients[0].nextEvent()
	_, ok := first.(game.PlayerAdded)
	require.True(t, ok)

	extra := dialClient(t, s.Addr())
	assert.Equal(t, game.ErrTooManyClients, extra.nextError())

	// the rejected connection is reaped after the error is delivered
	select {
	case _, open := <-extra.msgs:
		assert.False(t, open, "expected the connection to close")
	case <-time.After(5 * time.Second):
		t.Fatal("rejected connection was not closed")
	}
}
