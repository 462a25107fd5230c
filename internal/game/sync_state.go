// internal/game/sync_state.go
package game

import "github.com/jason-s-yu/eights/internal/models"

// View is one seat's picture of the table: its own cards in full, everyone else's by count only.
type View struct {
	SeatID    int
	Hand      []*models.Card
	Top       *models.Card
	HandSizes []int
	Names     []string
	Scores    []int
	Reversed  bool
}

// ViewFor builds the snapshot sent to the given seat.
func (g *Game) ViewFor(seat int) View {
	v := View{
		SeatID:    seat,
		Top:       g.TopCard(),
		HandSizes: make([]int, len(g.Players)),
		Names:     make([]string, len(g.Players)),
		Scores:    make([]int, len(g.Players)),
		Reversed:  g.TurnReversed,
	}
	for i, pl := range g.Players {
		v.HandSizes[i] = pl.HandSize()
		v.Names[i] = pl.Name
		v.Scores[i] = pl.Score
		// Only the requesting seat sees its own cards.
		if pl.ID == seat {
			v.Hand = make([]*models.Card, len(pl.Hand))
			copy(v.Hand, pl.Hand)
		}
	}
	return v
}
