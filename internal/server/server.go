package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/whwjiang/poker-epoll/internal/game"
	"github.com/whwjiang/poker-epoll/internal/protocol"
	"github.com/whwjiang/poker-epoll/internal/randutil"
)

// Server routes decoded client frames to tables and fans table events back
// out to the right audience. All session and table state is owned by a
// single event-loop goroutine; connection readers, the accept loop and
// timers post closures onto cmds, and each closure runs to completion
// before the next. This serialises every action on every table.
type Server struct {
	cfg    *Config
	logger *log.Logger
	clock  quartz.Clock
	seed   int64

	ln   net.Listener
	cmds chan func()
	done chan struct{} // closed when the event loop exits

	connections  map[game.PlayerID]*Conn
	tables       map[game.TableID]*game.Table
	timers       map[game.TableID]*turnTimer
	nextPlayerID game.PlayerID
	nextTableID  game.TableID
}

// turnTimer tracks the pending decision timeout for one table. gen guards
// against a stale fire racing a re-arm.
type turnTimer struct {
	timer *quartz.Timer
	actor game.PlayerID
	gen   uint64
}

// Option configures a Server.
type Option func(*Server)

// WithClock substitutes the clock used for turn timeouts (tests).
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithSeed fixes the root RNG seed; each table derives its own seed from
// it, so a fixed root makes the whole server deterministic.
func WithSeed(seed int64) Option {
	return func(s *Server) { s.seed = seed }
}

// New creates a server. Call Listen then Run.
func New(logger *log.Logger, cfg *Config, opts ...Option) *Server {
	s := &Server{
		cfg:          cfg,
		logger:       logger.WithPrefix("server"),
		clock:        quartz.NewReal(),
		seed:         cfg.Settings.Seed,
		cmds:         make(chan func(), 256),
		done:         make(chan struct{}),
		connections:  make(map[game.PlayerID]*Conn),
		tables:       make(map[game.TableID]*game.Table),
		timers:       make(map[game.TableID]*turnTimer),
		nextPlayerID: 1,
		nextTableID:  1,
	}
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen binds the TCP listener.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("Started server", "addr", ln.Addr())
	return nil
}

// Addr returns the bound listen address. Valid after Listen.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Run accepts connections and processes events until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return s.ln.Close()
	})
	g.Go(func() error {
		return s.acceptLoop()
	})
	g.Go(func() error {
		s.loop(ctx)
		return nil
	})
	err := g.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop() error {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.do(func() { s.handleConnect(nc) })
	}
}

// loop is the event thread; every mutation of session or table state runs
// here.
func (s *Server) loop(ctx context.Context) {
	for {
		select {
		case cmd := <-s.cmds:
			cmd()
		case <-ctx.Done():
			for _, conn := range s.connections {
				conn.isDead = true
				conn.closeSend()
			}
			close(s.done)
			return
		}
	}
}

// do posts a closure onto the event loop. Posts after shutdown are
// dropped so readers never block on a stopped loop.
func (s *Server) do(cmd func()) {
	select {
	case s.cmds <- cmd:
	case <-s.done:
	}
}

// handleConnect allocates a player id, registers the connection, and seats
// the player at a table with an open seat, creating one when none exists.
// Over the connection cap the client is kept alive just long enough to
// receive the error, then reaped.
func (s *Server) handleConnect(nc net.Conn) {
	pid := s.nextPlayerID
	s.nextPlayerID++
	conn := newConn(pid, nc, s.logger)
	s.connections[pid] = conn
	go conn.writePump()
	go s.readLoop(conn)
	s.logger.Info("Accepted connection", "player", pid, "remote", nc.RemoteAddr())

	if len(s.connections) > MaxConnections {
		s.logger.Warn("Too many clients connected, rejecting player",
			"total", len(s.connections), "player", pid)
		s.pushOneError(pid, game.ErrTooManyClients)
		conn.isDead = true
		conn.closeSend()
		return
	}

	var tid game.TableID
	for id, table := range s.tables {
		if table.HasOpenSeat() {
			tid = id
			break
		}
	}
	if tid == 0 {
		tid = s.nextTableID
		s.nextTableID++
		s.tables[tid] = game.NewTable(randutil.New(randutil.Derive(s.seed, uint64(tid))))
		s.logger.Info("Created new table", "table", tid)
	}

	events, err := s.tables[tid].AddPlayer(pid)
	conn.tableID = tid
	if err != nil {
		s.logger.Warn("Failed to seat player", "player", pid, "table", tid, "error", err)
		conn.isDead = true
		s.pushOneError(pid, err)
		conn.closeSend()
		return
	}
	s.logger.Info("Seated player", "player", pid, "table", tid)
	s.pushTable(tid, events)
	if started := s.maybeStartHand(tid); started != nil {
		s.pushTable(tid, started)
		events = append(events, started...)
	}
	s.afterDispatch(tid, events)
}

// readLoop feeds received bytes to the session loop and reports EOF or
// errors as a close.
func (s *Server) readLoop(c *Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := c.nc.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			s.do(func() { s.handleInbound(c, data) })
		}
		if err != nil {
			s.do(func() { s.handleClose(c.playerID) })
			return
		}
	}
}

// handleInbound parses complete frames from the connection's buffer and
// dispatches each decoded action in arrival order.
func (s *Server) handleInbound(c *Conn, data []byte) {
	if s.connections[c.playerID] != c {
		return // already closed
	}
	c.frames.Feed(data)
	for {
		payload, ok, err := c.frames.Next()
		if err != nil {
			s.logger.Warn("Bad frame from player", "player", c.playerID, "error", err)
			s.handleClose(c.playerID)
			return
		}
		if !ok {
			return
		}
		action, err := protocol.UnmarshalAction(payload)
		if err != nil {
			s.logger.Warn("Invalid action payload from player", "player", c.playerID, "error", err)
			s.pushOneError(c.playerID, game.ErrInvalidAction)
			continue
		}
		events, aerr := s.applyAction(action, c.playerID)
		if aerr != nil {
			s.logger.Info("Action rejected", "player", c.playerID, "error", aerr)
			s.pushOneError(c.playerID, aerr)
			continue
		}
		s.pushTable(c.tableID, events)
		if started := s.maybeStartHand(c.tableID); started != nil {
			s.pushTable(c.tableID, started)
			events = append(events, started...)
		}
		s.afterDispatch(c.tableID, events)
	}
}

// applyAction decodes the wire action and forwards it to the sender's
// table.
func (s *Server) applyAction(a *protocol.Action, pid game.PlayerID) ([]game.Event, error) {
	action, err := protocol.FromWireAction(a, pid)
	if err != nil {
		return nil, err
	}
	conn, ok := s.connections[pid]
	if !ok {
		return nil, game.ErrIllegalAction
	}
	table, ok := s.tables[conn.tableID]
	if conn.tableID == 0 || !ok {
		return nil, game.ErrIllegalAction
	}
	return table.OnAction(action)
}

// maybeStartHand starts a hand on the live table if it is idle and has at
// least two players, returning the start events.
func (s *Server) maybeStartHand(tid game.TableID) []game.Event {
	table, ok := s.tables[tid]
	if !ok || !table.CanStartHand() {
		return nil
	}
	events, err := table.HandleNewHand()
	if err != nil {
		s.logger.Warn("Failed to start hand", "table", tid, "error", err)
		return nil
	}
	s.logger.Info("Hand started", "table", tid, "hand", uuid.NewString())
	return events
}

// handleClose removes the connection and the player behind it. Removal
// events are intentionally not broadcast; peers learn of the departure via
// subsequent game-state changes.
func (s *Server) handleClose(pid game.PlayerID) {
	conn, ok := s.connections[pid]
	if !ok {
		return
	}
	delete(s.connections, pid)
	conn.isDead = true
	conn.closeSend()
	s.logger.Info("Closed connection", "player", pid)

	if conn.tableID == 0 {
		return
	}
	table, ok := s.tables[conn.tableID]
	if !ok {
		return
	}
	events, err := table.RemovePlayer(pid)
	if err != nil {
		s.logger.Warn("Failed to remove player from table",
			"player", pid, "table", conn.tableID, "error", err)
		return
	}
	s.afterDispatch(conn.tableID, events)
}

// pushOneError encodes an error into a single-message response frame for
// exactly one recipient. Errors are never broadcast to a table.
func (s *Server) pushOneError(pid game.PlayerID, err error) {
	conn, ok := s.connections[pid]
	if !ok || conn.sendClosed {
		return
	}
	wireErr := protocol.ToWireError(err)
	resp := &protocol.Response{Messages: []protocol.Message{{Error: &wireErr}}}
	payload, merr := protocol.MarshalResponse(resp)
	if merr != nil {
		s.logger.Error("Failed to encode error response", "error", merr)
		return
	}
	s.send(conn, protocol.AppendFrame(nil, payload))
}

// pushTable encodes the events into one response per table member,
// filtered to what each recipient may see: hole cards reach only their
// owner, everything else reaches the whole table.
func (s *Server) pushTable(tid game.TableID, events []game.Event) {
	if len(events) == 0 {
		return
	}
	for pid, conn := range s.connections {
		if conn.tableID != tid || conn.sendClosed {
			continue
		}
		var messages []protocol.Message
		for _, ev := range events {
			if !eventVisibleTo(ev, pid) {
				continue
			}
			wireEv := protocol.ToWireEvent(ev)
			messages = append(messages, protocol.Message{Event: &wireEv})
		}
		if len(messages) == 0 {
			continue
		}
		payload, err := protocol.MarshalResponse(&protocol.Response{Messages: messages})
		if err != nil {
			s.logger.Error("Failed to encode response", "error", err)
			continue
		}
		s.send(conn, protocol.AppendFrame(nil, payload))
	}
}

// send enqueues a frame; an unresponsive peer whose queue is full is
// closed instead of buffered without bound.
func (s *Server) send(conn *Conn, frame []byte) {
	if !conn.enqueue(frame) {
		s.logger.Warn("Outbound buffer full, closing connection", "player", conn.playerID)
		conn.isDead = true
		conn.closeSend()
	}
}

// eventVisibleTo applies the visibility rule: DealtHole is private to its
// owner; every other variant is public to the table.
func eventVisibleTo(ev game.Event, pid game.PlayerID) bool {
	if dealt, ok := ev.(game.DealtHole); ok {
		return dealt.Who == pid
	}
	return true
}
