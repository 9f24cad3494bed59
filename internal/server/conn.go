package server

import (
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/whwjiang/poker-epoll/internal/game"
	"github.com/whwjiang/poker-epoll/internal/protocol"
)

const (
	// writeWait bounds a single frame write to the peer
	writeWait = 10 * time.Second

	// outboundDepth bounds the per-connection outbound queue. A client that
	// cannot drain this many frames is closed rather than buffered forever.
	outboundDepth = 256
)

// Conn is the per-client state: identity, table assignment, the stateful
// inbound frame parser and the outbound frame queue. All fields except the
// queue are owned by the session loop; the queue is drained by a dedicated
// writer goroutine so slow peers never stall the loop.
type Conn struct {
	playerID game.PlayerID
	tableID  game.TableID
	nc       net.Conn
	frames   protocol.FrameReader
	out      chan []byte
	isDead   bool // loop-owned; a dead conn is flushed then reaped

	sendClosed bool // loop-owned; guards double close of out
	closeOnce  sync.Once
	logger     *log.Logger
}

func newConn(id game.PlayerID, nc net.Conn, logger *log.Logger) *Conn {
	return &Conn{
		playerID: id,
		nc:       nc,
		out:      make(chan []byte, outboundDepth),
		logger:   logger.WithPrefix("conn"),
	}
}

// enqueue queues one encoded frame for the writer. Returns false when the
// queue is full; the caller marks the connection dead.
func (c *Conn) enqueue(frame []byte) bool {
	select {
	case c.out <- frame:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound queue. The writer drains whatever is
// pending, then closes the socket; the read loop observes that and reports
// the close back to the session. Loop-only.
func (c *Conn) closeSend() {
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.out)
}

// closeNow tears the socket down without waiting for the writer.
func (c *Conn) closeNow() {
	c.closeOnce.Do(func() {
		_ = c.nc.Close()
	})
}

// writePump writes queued frames until the queue closes or a write fails.
// Pending frames are flushed best-effort before the socket closes.
func (c *Conn) writePump() {
	defer c.closeNow()
	for frame := range c.out {
		_ = c.nc.SetWriteDeadline(time.Now().Add(writeWait))
		if _, err := c.nc.Write(frame); err != nil {
			c.logger.Debug("Write failed", "player", c.playerID, "error", err)
			return
		}
	}
}
