package server

import (
	"context"
	"time"

	"github.com/jason-s-yu/eights/internal/database"
	"github.com/jason-s-yu/eights/internal/game"
	"github.com/jason-s-yu/eights/internal/models"
	"github.com/jason-s-yu/eights/internal/protocol"
)

// Refresh sends every seated connection its own view.
func (t *Table) Refresh() {
	for _, p := range t.peers.Snapshot() {
		p.Send(RefreshFor(t.game.ViewFor(p.Seat)).Message())
	}
}

func (t *Table) Console(actor *models.Player, msg string, card *models.Card) {
	t.broadcast(protocol.Console(playerName(actor), msg, descriptor(card)))
}

// TurnStarted enables the active seat's controls and disables everyone else's.
func (t *Table) TurnStarted(active *models.Player) {
	for _, p := range t.peers.Snapshot() {
		mode := protocol.ButtonsWait
		if p.Seat == active.ID {
			mode = protocol.ButtonsPlay
		}
		p.Send(protocol.Btn(mode))
	}
}

func (t *Table) SuitRequest(pl *models.Player, card *models.Card) {
	p, ok := t.peers.Get(pl.ID)
	if !ok {
		return
	}
	p.Send(protocol.SuitRequest(pl.ID, descriptor(card)))
	p.Send(protocol.Btn(protocol.ButtonsSuit))
}

func (t *Table) RoundOver(winner *models.Player) {
	t.broadcast(protocol.RoundOver(winner.Name))
}

func (t *Table) GameOver(winner *models.Player) {
	t.broadcast(protocol.GameOver(winner.Name))
	t.broadcast(protocol.Btn(protocol.ButtonsIdle))
	if t.results != nil {
		res := ResultFor(t.game)
		t.pending.Add(1)
		go func() {
			defer t.pending.Done()
			t.record(res)
		}()
	}
}

func (t *Table) record(res database.GameResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.results.RecordGameResult(ctx, res); err != nil {
		t.log.Errorf("archiving result: %v", err)
		return
	}
	t.log.Infof("archived result of game %s", res.GameID)
}

// RefreshFor renders a seat's view in wire form.
func RefreshFor(v game.View) protocol.Refresh {
	hand := make([]string, len(v.Hand))
	for i, c := range v.Hand {
		hand[i] = c.Descriptor()
	}
	return protocol.Refresh{
		SeatID:    v.SeatID,
		Hand:      hand,
		Top:       descriptor(v.Top),
		HandSizes: v.HandSizes,
		Names:     v.Names,
		Scores:    v.Scores,
		Reversed:  v.Reversed,
	}
}

// ResultFor captures the final standings of a finished game.
func ResultFor(g *game.Game) database.GameResult {
	res := database.GameResult{
		GameID:     g.ID,
		Rounds:     g.Round,
		WinnerSeat: -1,
		FinishedAt: time.Now(),
	}
	if g.GameWinner != nil {
		res.WinnerSeat = g.GameWinner.ID
	}
	for _, p := range g.Players {
		res.Seats = append(res.Seats, database.SeatScore{Seat: p.ID, Name: p.Name, Human: p.IsHuman, Score: p.Score})
	}
	return res
}

func playerName(p *models.Player) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func descriptor(c *models.Card) string {
	if c == nil {
		return ""
	}
	return c.Descriptor()
}
