package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/eights/internal/database"
	"github.com/jason-s-yu/eights/internal/game"
	"github.com/jason-s-yu/eights/internal/middleware"
	"github.com/jason-s-yu/eights/internal/models"
	"github.com/jason-s-yu/eights/internal/protocol"
	"github.com/jason-s-yu/eights/internal/transport"
	"github.com/sirupsen/logrus"
)

var (
	ErrTableClosed = errors.New("table is closed")
	ErrBadConfig   = errors.New("invalid table configuration")
)

const (
	requestBuffer = 64
	// how long finish waits for queued lines and the result archive
	shutdownGrace = 5 * time.Second
)

// ResultRecorder archives finished games. database.Store satisfies it.
type ResultRecorder interface {
	RecordGameResult(ctx context.Context, res database.GameResult) error
}

// TableConfig sizes a table.
type TableConfig struct {
	Seats   int // total seats, humans first
	Humans  int // human seats (local and remote) that must join before the deal
	Rules   game.Rules
	AIDelay time.Duration // visible pause before each AI turn; zero resolves AI turns inline
}

type TableOption func(*Table)

func WithResults(r ResultRecorder) TableOption {
	return func(t *Table) { t.results = r }
}

// WithGameOptions passes options through to the underlying game.
func WithGameOptions(opts ...game.Option) TableOption {
	return func(t *Table) { t.gameOpts = append(t.gameOpts, opts...) }
}

type joinRequest struct {
	conn  transport.LineConn
	local bool
	reply chan joinResult
}

type joinResult struct {
	peer *Peer
	err  error
}

type lineRequest struct {
	seat int
	line string
}

type aiStepRequest struct {
	seat int
}

type leaveRequest struct {
	seat int
	err  error
}

// Table is the actor that owns one game. Receive loops, timers and the accept loop only
// enqueue requests; Run applies them one at a time.
type Table struct {
	ID uuid.UUID

	cfg      TableConfig
	game     *game.Game
	engine   *game.Engine
	peers    *Registry
	results  ResultRecorder
	gameOpts []game.Option
	log      logrus.FieldLogger

	requests  chan interface{}
	done      chan struct{}
	closeOnce sync.Once
	pending   sync.WaitGroup

	seated    int
	started   bool
	hadRemote bool
}

func NewTable(cfg TableConfig, log logrus.FieldLogger, opts ...TableOption) (*Table, error) {
	if err := cfg.Rules.Validate(cfg.Seats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	if cfg.Humans < 1 || cfg.Humans > cfg.Seats {
		return nil, fmt.Errorf("%w: %d human seats at a %d-seat table", ErrBadConfig, cfg.Humans, cfg.Seats)
	}
	t := &Table{
		cfg:      cfg,
		peers:    NewRegistry(),
		requests: make(chan interface{}, requestBuffer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.game = game.NewGame(cfg.Rules, append([]game.Option{game.WithLogger(log)}, t.gameOpts...)...)
	t.ID = t.game.ID
	t.log = log.WithField("table", t.ID)
	t.engine = game.NewEngine(t.game, t)
	if cfg.AIDelay > 0 {
		t.engine.SetPacer(t)
	}
	return t, nil
}

// Done is closed once the table has shut down.
func (t *Table) Done() <-chan struct{} {
	return t.done
}

// Run processes requests until the game ends, every player leaves, or ctx is cancelled.
func (t *Table) Run(ctx context.Context) error {
	t.log.Infof("table open for %d of %d seats", t.cfg.Humans, t.cfg.Seats)
	for {
		select {
		case <-ctx.Done():
			t.finish(protocol.Shutdown(), "host shutting down")
			return ctx.Err()
		case <-t.done:
			return nil
		case req := <-t.requests:
			t.handle(req)
		}
	}
}

// Join seats conn at the next free human seat and sends it its ID.
func (t *Table) Join(ctx context.Context, conn transport.LineConn, local bool) (*Peer, error) {
	reply := make(chan joinResult, 1)
	if !t.enqueue(joinRequest{conn: conn, local: local, reply: reply}) {
		return nil, ErrTableClosed
	}
	select {
	case res := <-reply:
		return res.peer, res.err
	case <-t.done:
		return nil, ErrTableClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ReadLoop is the peer's receive loop. It never touches the game; every line becomes a request.
func (t *Table) ReadLoop(ctx context.Context, p *Peer) {
	remote := p.Conn.RemoteAddr()
	middleware.LogConnect(t.log, remote, p.Seat)
	for {
		line, err := p.Conn.ReadLine(ctx)
		if err != nil {
			if transport.IsClosed(err) {
				err = nil
			}
			middleware.LogDisconnect(t.log, remote, p.Seat, err)
			t.enqueue(leaveRequest{seat: p.Seat, err: err})
			return
		}
		if !t.enqueue(lineRequest{seat: p.Seat, line: line}) {
			return
		}
	}
}

// ScheduleAI implements game.Pacer. Humans wait while the computer seat thinks.
func (t *Table) ScheduleAI(seat int) {
	t.broadcast(protocol.Btn(protocol.ButtonsWait))
	time.AfterFunc(t.cfg.AIDelay, func() {
		t.enqueue(aiStepRequest{seat: seat})
	})
}

func (t *Table) enqueue(req interface{}) bool {
	select {
	case t.requests <- req:
		return true
	case <-t.done:
		return false
	}
}

func (t *Table) handle(req interface{}) {
	switch r := req.(type) {
	case joinRequest:
		t.join(r)
	case lineRequest:
		t.handleLine(r)
	case aiStepRequest:
		t.engine.StepAI(r.seat)
	case leaveRequest:
		t.leave(r.seat, r.err)
	default:
		t.log.Errorf("unknown table request %T", req)
	}
	t.checkGameOver()
}

func (t *Table) join(r joinRequest) {
	if t.started || t.seated >= t.cfg.Humans {
		r.reply <- joinResult{err: game.ErrTableFull}
		return
	}
	pl, err := t.game.AddPlayer(fmt.Sprintf("Player %d", t.seated+1), true)
	if err != nil {
		r.reply <- joinResult{err: err}
		return
	}
	pl.IsHost = r.local
	t.seated++
	if !r.local {
		t.hadRemote = true
	}

	peer := newPeer(pl.ID, r.local, r.conn, t.log)
	t.peers.Add(peer)
	peer.Send(protocol.ID(pl.ID))
	t.broadcast(protocol.Console(pl.Name, "joined the table", ""))
	r.reply <- joinResult{peer: peer}

	if t.seated == t.cfg.Humans {
		t.start()
	}
}

func (t *Table) start() {
	for i := t.seated; i < t.cfg.Seats; i++ {
		if _, err := t.game.AddPlayer(fmt.Sprintf("CPU %d", i), false); err != nil {
			t.log.Errorf("cannot seat computer player %d: %v", i, err)
		}
	}
	t.started = true
	t.log.Infof("dealing with %d humans and %d computer players", t.seated, t.cfg.Seats-t.seated)
	if err := t.engine.Start(); err != nil {
		t.log.Errorf("cannot start game: %v", err)
		t.finish(protocol.Cleanup(), "start failed")
	}
}

func (t *Table) handleLine(r lineRequest) {
	log := t.log.WithField("seat", r.seat)
	m, err := protocol.Parse(r.line)
	if err != nil {
		log.Warnf("dropping message %q: %v", r.line, err)
		return
	}
	if _, ok := t.peers.Get(r.seat); !ok {
		return
	}

	switch m.Tag {
	case protocol.TagName:
		t.rename(r.seat, m.Rest(0))
		return
	case protocol.TagChat:
		pl, err := t.game.PlayerByID(r.seat)
		if err != nil {
			return
		}
		t.broadcast(protocol.ChatFrom(pl.Name, m.Rest(0)))
		return
	case protocol.TagPlay, protocol.TagDraw, protocol.TagSuitChoice, protocol.TagDisconnect:
	default:
		log.Warnf("dropping host-only message %s", m.Tag)
		return
	}

	seat, err := m.Seat()
	if err != nil || seat != r.seat {
		log.Warnf("dropping %s claiming seat %q", m.Tag, m.Field(0))
		return
	}

	switch m.Tag {
	case protocol.TagPlay:
		rank, suit, perr := models.ParseDescriptor(m.Field(1))
		if perr != nil {
			err = perr
			break
		}
		err = t.engine.Play(seat, rank, suit)
	case protocol.TagDraw:
		err = t.engine.Draw(seat)
	case protocol.TagSuitChoice:
		suit, perr := models.ParseSuit(m.Field(1))
		if perr != nil {
			err = perr
			break
		}
		err = t.engine.ChooseSuit(seat, suit, m.Field(2))
	case protocol.TagDisconnect:
		t.leave(seat, nil)
		return
	}
	if err != nil {
		log.Infof("rejected %s: %v", m.Encode(), err)
		t.reject(seat, err)
	}
}

func (t *Table) rename(seat int, name string) {
	name = protocol.Sanitize(name)
	if name == "" {
		return
	}
	pl, err := t.game.PlayerByID(seat)
	if err != nil || pl.Name == name {
		return
	}
	old := pl.Name
	pl.Name = name
	t.broadcast(protocol.Console(old, "is now "+name, ""))
	if t.started {
		t.Refresh()
	}
}

// leave unseats a connection; a started game hands the seat to the computer.
func (t *Table) leave(seat int, cause error) {
	p, ok := t.peers.Remove(seat)
	if !ok {
		return
	}
	p.Close()
	if cause != nil {
		t.log.WithField("seat", seat).Warnf("connection lost: %v", cause)
	}
	if t.peers.Len() == 0 || (t.hadRemote && t.peers.RemoteCount() == 0) {
		t.finish(protocol.Cleanup(), "no players remain")
		return
	}
	if err := t.engine.ReleaseSeat(seat); err != nil {
		t.log.Errorf("cannot release seat %d: %v", seat, err)
	}
}

func (t *Table) checkGameOver() {
	if t.engine.State() == game.GameOver {
		t.finish(protocol.Cleanup(), "game over")
	}
}

// finish sends the final message to every peer and closes them. Done fires only after the
// peers have flushed their outboxes and the result is archived, or shutdownGrace runs out.
func (t *Table) finish(final protocol.Message, reason string) {
	t.closeOnce.Do(func() {
		t.log.Infof("closing table: %s", reason)
		var drains []<-chan struct{}
		for _, p := range t.peers.Snapshot() {
			p.Send(final)
			p.Close()
			t.peers.Remove(p.Seat)
			drains = append(drains, p.Drained())
		}

		archived := make(chan struct{})
		go func() {
			t.pending.Wait()
			close(archived)
		}()

		deadline := time.NewTimer(shutdownGrace)
		defer deadline.Stop()
	wait:
		for _, ch := range append(drains, archived) {
			select {
			case <-ch:
			case <-deadline.C:
				t.log.Warn("gave up waiting for peers to flush")
				break wait
			}
		}
		close(t.done)
	})
}

func (t *Table) reject(seat int, err error) {
	if p, ok := t.peers.Get(seat); ok {
		p.Send(protocol.Console("", "rejected: "+err.Error(), ""))
	}
}

func (t *Table) broadcast(m protocol.Message) {
	for _, p := range t.peers.Snapshot() {
		p.Send(m)
	}
}
