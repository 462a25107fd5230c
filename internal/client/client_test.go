package client

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/eights/internal/models"
	"github.com/jason-s-yu/eights/internal/protocol"
	"github.com/jason-s-yu/eights/internal/transport"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu         sync.Mutex
	seat       int
	chats      []string
	consoles   []string
	views      []protocol.Refresh
	roundWins  []string
	gameWins   []string
	suitCards  []string
	buttons    []protocol.ButtonMode
	terminated bool
	disconnect int
}

func (r *recorder) OnSeatAssigned(seat int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seat = seat
}

func (r *recorder) OnChatReceived(from, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats = append(r.chats, from+": "+text)
}

func (r *recorder) OnConsoleMsgReceived(actor, msg, card string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consoles = append(r.consoles, actor+" "+msg+" "+card)
}

func (r *recorder) OnViewRefresh(view protocol.Refresh) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, view)
}

func (r *recorder) OnRoundOver(winner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roundWins = append(r.roundWins, winner)
}

func (r *recorder) OnGameOver(winners []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gameWins = append(r.gameWins, winners...)
}

func (r *recorder) OnClientSuitRequest(card string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suitCards = append(r.suitCards, card)
}

func (r *recorder) OnButtonStatusReceived(mode protocol.ButtonMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buttons = append(r.buttons, mode)
}

func (r *recorder) OnTerminateGameRequest() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminated = true
}

func (r *recorder) OnDisconnect(error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnect++
}

// fakeHost is the far end of the pipe, driven line by line by the test.
type fakeHost struct {
	conn net.Conn
	r    *bufio.Scanner
}

func newSession(t *testing.T) (*Client, *recorder, *fakeHost) {
	t.Helper()
	hostEnd, clientEnd := net.Pipe()
	t.Cleanup(func() { hostEnd.Close() })
	rec := &recorder{seat: -1}
	c := New(transport.NewStreamConn(clientEnd), "Ann", rec, logrus.New())
	return c, rec, &fakeHost{conn: hostEnd, r: bufio.NewScanner(hostEnd)}
}

func (h *fakeHost) expect(t *testing.T) string {
	t.Helper()
	require.NoError(t, h.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.True(t, h.r.Scan(), "host expected a line")
	return h.r.Text()
}

func (h *fakeHost) send(t *testing.T, line string) {
	t.Helper()
	require.NoError(t, h.conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	_, err := h.conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

func TestClientSession(t *testing.T) {
	c, rec, host := newSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	assert.Equal(t, "NAME|Ann", host.expect(t))
	assert.ErrorIs(t, c.Draw(ctx), ErrNoSeat)

	host.send(t, "ID|2")
	host.send(t, "CHAT|Bob|hi|there")
	host.send(t, "CONSOLE|Bob|plays|8H")
	host.send(t, "REFRESH|2|3C,KD|8H|4,6,2,5|Bob,CPU 1,Ann,CPU 3|0,0,0,0|false")
	host.send(t, "BOGUS|1")
	host.send(t, "SUITREQUEST|2|8S")
	host.send(t, "BTN|SUIT")
	host.send(t, "ROUNDOVER|Ann")
	host.send(t, "GAMEOVER|Ann")

	go func() {
		_ = c.Play(ctx, "3C")
		_ = c.ChooseSuit(ctx, models.Hearts, "8S")
	}()
	assert.Equal(t, "PLAY|2|3C", host.expect(t))
	assert.Equal(t, "SUITCHOICE|2|HEARTS|8S", host.expect(t))

	host.send(t, "CLEANUP")
	require.NoError(t, <-done)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 2, c.Seat())
	assert.Equal(t, 2, rec.seat)
	assert.Equal(t, []string{"Bob: hi|there"}, rec.chats)
	assert.Equal(t, []string{"Bob plays 8H"}, rec.consoles)
	require.Len(t, rec.views, 1)
	assert.Equal(t, []string{"3C", "KD"}, rec.views[0].Hand)
	assert.Equal(t, []int{4, 6, 2, 5}, rec.views[0].HandSizes)
	assert.Equal(t, []string{"8S"}, rec.suitCards)
	assert.Equal(t, []protocol.ButtonMode{protocol.ButtonsSuit}, rec.buttons)
	assert.Equal(t, []string{"Ann"}, rec.roundWins)
	assert.Equal(t, []string{"Ann"}, rec.gameWins)
	assert.True(t, rec.terminated)
	assert.Equal(t, 1, rec.disconnect)
}

func TestClientHostCloses(t *testing.T) {
	c, rec, host := newSession(t)
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	assert.Equal(t, "NAME|Ann", host.expect(t))
	host.send(t, "ID|0")
	require.NoError(t, host.conn.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not notice the closed connection")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.False(t, rec.terminated)
	assert.Equal(t, 1, rec.disconnect)
}

func TestClientDisconnect(t *testing.T) {
	c, _, host := newSession(t)
	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	assert.Equal(t, "NAME|Ann", host.expect(t))
	host.send(t, "ID|1")
	require.Eventually(t, func() bool { return c.Seat() == 1 }, 2*time.Second, 10*time.Millisecond)

	go func() { _ = c.Disconnect(ctx) }()
	assert.Equal(t, "DISCONNECT|1", host.expect(t))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("receive loop still running after Disconnect")
	}
}
