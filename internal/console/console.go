// Package console is a plain-text seat: it prints what the host sends and turns typed
// commands into requests.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jason-s-yu/eights/internal/models"
	"github.com/jason-s-yu/eights/internal/protocol"
)

var (
	ErrQuit       = errors.New("quit")
	ErrUnknownCmd = errors.New("unknown command")
	ErrNoSuitAsk  = errors.New("no suit has been requested")
)

// Requester is the subset of client.Client the console drives.
type Requester interface {
	Play(ctx context.Context, card string) error
	Draw(ctx context.Context) error
	ChooseSuit(ctx context.Context, suit models.Suit, card string) error
	Chat(ctx context.Context, text string) error
	Disconnect(ctx context.Context) error
}

// Console implements client.Listener by printing to out.
type Console struct {
	out io.Writer

	mu       sync.Mutex
	seat     int
	view     protocol.Refresh
	suitCard string

	doneOnce sync.Once
	done     chan struct{}
}

func New(out io.Writer) *Console {
	return &Console{out: out, seat: -1, done: make(chan struct{})}
}

// Done is closed once the session has ended.
func (c *Console) Done() <-chan struct{} {
	return c.done
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) OnSeatAssigned(seat int) {
	c.mu.Lock()
	c.seat = seat
	c.mu.Unlock()
	c.printf("seated at %d; type 'help' for commands", seat)
}

func (c *Console) OnChatReceived(from, text string) {
	c.printf("<%s> %s", from, text)
}

func (c *Console) OnConsoleMsgReceived(actor, msg, card string) {
	line := msg
	if actor != "" {
		line = actor + " " + line
	}
	if card != "" {
		line += " " + card
	}
	c.printf("* %s", line)
}

func (c *Console) OnViewRefresh(view protocol.Refresh) {
	c.mu.Lock()
	c.view = view
	c.mu.Unlock()
	c.printf("%s", Render(view))
}

func (c *Console) OnRoundOver(winner string) {
	c.printf("round over: %s emptied their hand", winner)
}

func (c *Console) OnGameOver(winners []string) {
	c.printf("game over: %s wins", strings.Join(winners, ", "))
}

func (c *Console) OnClientSuitRequest(card string) {
	c.mu.Lock()
	c.suitCard = card
	c.mu.Unlock()
	c.printf("choose a suit for %s: suit C|D|H|S", card)
}

func (c *Console) OnButtonStatusReceived(mode protocol.ButtonMode) {
	if mode == protocol.ButtonsPlay {
		c.printf("your turn: play <card|index> or draw")
	}
}

func (c *Console) OnTerminateGameRequest() {
	c.printf("the host ended the session")
}

func (c *Console) OnDisconnect(err error) {
	if err != nil {
		c.printf("connection lost: %v", err)
	}
	c.doneOnce.Do(func() { close(c.done) })
}

// Render draws a view as a few lines of text.
func Render(v protocol.Refresh) string {
	var b strings.Builder
	dir := "clockwise"
	if v.Reversed {
		dir = "counter-clockwise"
	}
	top := v.Top
	if top == "" {
		top = "--"
	}
	fmt.Fprintf(&b, "top %s, play runs %s\n", top, dir)
	for i, name := range v.Names {
		marker := " "
		if i == v.SeatID {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %d %-12s cards %2d  score %3d\n", marker, i, name, v.HandSizes[i], v.Scores[i])
	}
	hand := make([]string, len(v.Hand))
	for i, card := range v.Hand {
		hand[i] = fmt.Sprintf("%d:%s", i+1, card)
	}
	fmt.Fprintf(&b, "hand %s", strings.Join(hand, " "))
	return b.String()
}

// Run executes commands read from in until quit, end of input, or the session ends.
func (c *Console) Run(ctx context.Context, in io.Reader, r Requester) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-c.done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case line, ok := <-lines:
			if !ok {
				return r.Disconnect(ctx)
			}
			err := c.Execute(ctx, r, line)
			switch {
			case errors.Is(err, ErrQuit):
				return r.Disconnect(ctx)
			case err != nil:
				c.printf("! %v", err)
			}
		}
	}
}

// Execute runs one command line.
func (c *Console) Execute(ctx context.Context, r Requester, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "play", "p":
		if len(args) != 1 {
			return fmt.Errorf("usage: play <card|index>")
		}
		card, err := c.resolveCard(args[0])
		if err != nil {
			return err
		}
		return r.Play(ctx, card)
	case "draw", "d":
		return r.Draw(ctx)
	case "suit", "s":
		if len(args) != 1 {
			return fmt.Errorf("usage: suit C|D|H|S")
		}
		suit, err := models.ParseSuit(args[0])
		if err != nil {
			return err
		}
		c.mu.Lock()
		card := c.suitCard
		c.suitCard = ""
		c.mu.Unlock()
		if card == "" {
			return ErrNoSuitAsk
		}
		return r.ChooseSuit(ctx, suit, card)
	case "say", "chat":
		return r.Chat(ctx, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0])))
	case "hand", "h":
		c.mu.Lock()
		v := c.view
		c.mu.Unlock()
		c.printf("%s", Render(v))
		return nil
	case "help", "?":
		c.printf("commands: play <card|index>, draw, suit <C|D|H|S>, say <text>, hand, quit")
		return nil
	case "quit", "q", "exit":
		return ErrQuit
	}
	return fmt.Errorf("%w %q", ErrUnknownCmd, cmd)
}

// resolveCard accepts a descriptor ("8H", "10S") or a 1-based index into the current hand.
func (c *Console) resolveCard(arg string) (string, error) {
	if idx, err := strconv.Atoi(arg); err == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < 1 || idx > len(c.view.Hand) {
			return "", fmt.Errorf("no card at position %d", idx)
		}
		return c.view.Hand[idx-1], nil
	}
	rank, suit, err := models.ParseDescriptor(arg)
	if err != nil {
		return "", err
	}
	return rank.Code() + suit.Code(), nil
}
