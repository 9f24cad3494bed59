package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/whwjiang/poker-epoll/cmd/pokerepoll/shared"
	"github.com/whwjiang/poker-epoll/internal/game"
	"github.com/whwjiang/poker-epoll/internal/protocol"
)

// ClientCmd is a line-oriented debug client for poking at a running
// server: it prints every event it receives and turns stdin lines into
// wire actions ("fold", "check", "bet <amount>").
type ClientCmd struct {
	Addr     string `kong:"default='127.0.0.1:65432',help='Server address'"`
	LogLevel string `kong:"default='info',help='Log level'"`
}

func (c *ClientCmd) Run() error {
	logger := shared.SetupLogger(c.LogLevel)

	nc, err := net.Dial("tcp", c.Addr)
	if err != nil {
		return err
	}
	defer nc.Close()
	logger.Info("Connected", "addr", c.Addr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var frames protocol.FrameReader
		buf := make([]byte, 4096)
		for {
			n, err := nc.Read(buf)
			if n > 0 {
				frames.Feed(buf[:n])
				for {
					payload, ok, ferr := frames.Next()
					if ferr != nil {
						logger.Error("Bad frame from server", "error", ferr)
						return
					}
					if !ok {
						break
					}
					printResponse(payload, logger)
				}
			}
			if err != nil {
				logger.Info("Server closed connection")
				return
			}
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		action, err := parseAction(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		payload, err := protocol.MarshalAction(action)
		if err != nil {
			return err
		}
		if _, err := nc.Write(protocol.AppendFrame(nil, payload)); err != nil {
			return err
		}
	}
	<-done
	return scanner.Err()
}

func parseAction(line string) (*protocol.Action, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "fold":
		return &protocol.Action{Fold: &protocol.FoldAction{}}, nil
	case "check":
		return &protocol.Action{Bet: &protocol.BetAction{Amount: 0}}, nil
	case "bet", "call", "raise":
		if len(fields) < 2 {
			return nil, fmt.Errorf("usage: %s <amount>", fields[0])
		}
		amount, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad amount %q", fields[1])
		}
		return &protocol.Action{Bet: &protocol.BetAction{Amount: amount}}, nil
	default:
		return nil, fmt.Errorf("unknown action %q (fold, check, bet <amount>)", fields[0])
	}
}

func printResponse(payload []byte, logger *log.Logger) {
	resp, err := protocol.UnmarshalResponse(payload)
	if err != nil {
		logger.Error("Bad response payload", "error", err)
		return
	}
	for _, msg := range resp.Messages {
		switch {
		case msg.Event != nil:
			ev, err := protocol.FromWireEvent(msg.Event)
			if err != nil {
				logger.Error("Bad event", "error", err)
				continue
			}
			fmt.Println(describeEvent(ev))
		case msg.Error != nil:
			wireErr, err := protocol.FromWireError(msg.Error)
			if err != nil {
				logger.Error("Bad error", "error", err)
				continue
			}
			fmt.Printf("error: %v\n", wireErr)
		}
	}
}

func describeEvent(ev game.Event) string {
	switch e := ev.(type) {
	case game.PlayerAdded:
		return fmt.Sprintf("player %d joined", e.Who)
	case game.PlayerRemoved:
		return fmt.Sprintf("player %d left", e.Who)
	case game.HandStarted:
		return "--- new hand ---"
	case game.DealtHole:
		return fmt.Sprintf("your hole cards: %s %s", e.Hole[0], e.Hole[1])
	case game.DealtFlop:
		return fmt.Sprintf("flop: %s %s %s", e.Flop[0], e.Flop[1], e.Flop[2])
	case game.DealtStreet:
		return fmt.Sprintf("street: %s", e.Card)
	case game.PhaseAdvanced:
		return fmt.Sprintf("*** %s ***", strings.ToUpper(e.Next.String()))
	case game.BetPlaced:
		return fmt.Sprintf("player %d bets %d", e.Who, e.Amount)
	case game.TurnAdvanced:
		return fmt.Sprintf("player %d to act", e.Next)
	case game.WonPot:
		return fmt.Sprintf("player %d wins %d", e.Who, e.Amount)
	default:
		return fmt.Sprintf("%#v", ev)
	}
}
