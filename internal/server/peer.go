package server

import (
	"context"
	"sync"
	"time"

	"github.com/jason-s-yu/eights/internal/protocol"
	"github.com/jason-s-yu/eights/internal/transport"
	"github.com/sirupsen/logrus"
)

const (
	outboxSize   = 256
	writeTimeout = 3 * time.Second
)

// Peer is one seated connection. Outbound lines are queued and written by the peer's own
// write pump, so a slow client never stalls the table.
type Peer struct {
	Seat  int
	Local bool
	Conn  transport.LineConn

	log logrus.FieldLogger

	mu      sync.Mutex
	out     chan string
	closed  bool
	drained chan struct{}
}

func newPeer(seat int, local bool, conn transport.LineConn, log logrus.FieldLogger) *Peer {
	p := &Peer{
		Seat:    seat,
		Local:   local,
		Conn:    conn,
		log:     log.WithFields(logrus.Fields{"seat": seat, "remote": conn.RemoteAddr()}),
		out:     make(chan string, outboxSize),
		drained: make(chan struct{}),
	}
	go p.writePump()
	return p
}

// Send queues m. A full outbox means the client stopped reading; the peer is closed.
func (p *Peer) Send(m protocol.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.out <- m.Encode():
		return true
	default:
		p.log.Warn("outbox full; dropping connection")
		p.closed = true
		close(p.out)
		return false
	}
}

// Close stops accepting messages. Already queued lines are flushed before the connection closes.
func (p *Peer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.out)
	}
}

// Drained is closed once the write pump has stopped and the connection is closed.
func (p *Peer) Drained() <-chan struct{} {
	return p.drained
}

func (p *Peer) writePump() {
	defer close(p.drained)
	defer p.Conn.Close()
	for line := range p.out {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := p.Conn.WriteLine(ctx, line)
		cancel()
		if err != nil {
			if !transport.IsClosed(err) {
				p.log.Warnf("write failed: %v", err)
			}
			p.Close()
			return
		}
	}
}
