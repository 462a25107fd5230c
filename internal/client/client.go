// Package client is the remote side of a table: it identifies itself, turns host messages
// into Listener callbacks, and sends play requests for its seat.
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/jason-s-yu/eights/internal/models"
	"github.com/jason-s-yu/eights/internal/protocol"
	"github.com/jason-s-yu/eights/internal/transport"
	"github.com/sirupsen/logrus"
)

var ErrNoSeat = errors.New("no seat assigned yet")

// Listener is the presentation layer's view of the session. Callbacks run on the receive loop.
type Listener interface {
	OnSeatAssigned(seat int)
	OnChatReceived(from, text string)
	OnConsoleMsgReceived(actor, msg, card string)
	OnViewRefresh(view protocol.Refresh)
	OnRoundOver(winner string)
	OnGameOver(winners []string)
	OnClientSuitRequest(card string)
	OnButtonStatusReceived(mode protocol.ButtonMode)
	// OnTerminateGameRequest fires when the host ends the session (CLEANUP).
	OnTerminateGameRequest()
	// OnDisconnect fires once when the connection ends; err is nil for an orderly close.
	OnDisconnect(err error)
}

type Client struct {
	conn     transport.LineConn
	name     string
	listener Listener
	log      logrus.FieldLogger

	mu   sync.Mutex
	seat int
}

func New(conn transport.LineConn, name string, l Listener, log logrus.FieldLogger) *Client {
	return &Client{
		conn:     conn,
		name:     name,
		listener: l,
		log:      log.WithField("remote", conn.RemoteAddr()),
		seat:     -1,
	}
}

// Seat returns the assigned seat, or -1 before the host's ID message.
func (c *Client) Seat() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seat
}

// Run identifies the client and processes host messages until the session ends.
func (c *Client) Run(ctx context.Context) error {
	defer c.conn.Close()
	if err := c.send(ctx, protocol.Name(c.name)); err != nil {
		c.listener.OnDisconnect(err)
		return err
	}
	for {
		line, err := c.conn.ReadLine(ctx)
		if err != nil {
			if transport.IsClosed(err) {
				c.listener.OnDisconnect(nil)
				return nil
			}
			c.listener.OnDisconnect(err)
			return err
		}
		m, err := protocol.Parse(line)
		if err != nil {
			c.log.Warnf("dropping message %q: %v", line, err)
			continue
		}
		if done := c.dispatch(m); done {
			c.listener.OnDisconnect(nil)
			return nil
		}
	}
}

// dispatch hands m to the listener and reports whether the session is over.
func (c *Client) dispatch(m protocol.Message) bool {
	switch m.Tag {
	case protocol.TagID:
		seat, err := m.Seat()
		if err != nil {
			c.log.Warnf("bad seat id: %v", err)
			return false
		}
		c.mu.Lock()
		c.seat = seat
		c.mu.Unlock()
		c.listener.OnSeatAssigned(seat)
	case protocol.TagChat:
		c.listener.OnChatReceived(m.Field(0), m.Rest(1))
	case protocol.TagConsole:
		c.listener.OnConsoleMsgReceived(m.Field(0), m.Field(1), m.Field(2))
	case protocol.TagRefresh:
		view, err := protocol.ParseRefresh(m)
		if err != nil {
			c.log.Warnf("dropping refresh: %v", err)
			return false
		}
		c.listener.OnViewRefresh(view)
	case protocol.TagRoundOver:
		c.listener.OnRoundOver(m.Field(0))
	case protocol.TagGameOver:
		c.listener.OnGameOver(m.Fields)
	case protocol.TagSuitRequest:
		c.listener.OnClientSuitRequest(m.Field(1))
	case protocol.TagBtn:
		c.listener.OnButtonStatusReceived(protocol.ButtonMode(m.Field(0)))
	case protocol.TagCleanup:
		c.listener.OnTerminateGameRequest()
		return true
	case protocol.TagShutdown:
		return true
	default:
		c.log.Warnf("dropping client-only message %s", m.Tag)
	}
	return false
}

// Play asks to play the card with the given descriptor, e.g. "8H".
func (c *Client) Play(ctx context.Context, card string) error {
	seat, err := c.requireSeat()
	if err != nil {
		return err
	}
	return c.send(ctx, protocol.Play(seat, card))
}

func (c *Client) Draw(ctx context.Context) error {
	seat, err := c.requireSeat()
	if err != nil {
		return err
	}
	return c.send(ctx, protocol.Draw(seat))
}

// ChooseSuit completes the EIGHT named by card.
func (c *Client) ChooseSuit(ctx context.Context, suit models.Suit, card string) error {
	seat, err := c.requireSeat()
	if err != nil {
		return err
	}
	return c.send(ctx, protocol.SuitChoice(seat, suit.String(), card))
}

func (c *Client) Chat(ctx context.Context, text string) error {
	return c.send(ctx, protocol.Chat(text))
}

// Disconnect tells the host this seat is leaving; the host hands it to the computer.
func (c *Client) Disconnect(ctx context.Context) error {
	seat, err := c.requireSeat()
	if err != nil {
		return c.conn.Close()
	}
	err = c.send(ctx, protocol.Disconnect(seat))
	c.conn.Close()
	return err
}

func (c *Client) requireSeat() (int, error) {
	seat := c.Seat()
	if seat < 0 {
		return 0, ErrNoSeat
	}
	return seat, nil
}

func (c *Client) send(ctx context.Context, m protocol.Message) error {
	return c.conn.WriteLine(ctx, m.Encode())
}
