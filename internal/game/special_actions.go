// internal/game/special_actions.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/eights/internal/models"
)

// HandleCardActions applies the effect of the card p just played. skip means the next seat loses its
// turn; pending means the engine now waits for a suit choice.
func (e *Engine) HandleCardActions(p *models.Player, c *models.Card) (skip bool, pending bool) {
	switch c.Rank {
	case models.Two, models.Four:
		n := 2
		if c.Rank == models.Four {
			n = 4
		}
		e.ForceDraw(e.game.NextPlayer(), p, n)
		return true, false
	case models.Eight:
		if p.IsHuman && p.HandSize() > 0 {
			e.state = AwaitingSuitChoice
			e.out.SuitRequest(p, c)
			return false, true
		}
		if !p.IsHuman {
			suit := e.ai.ChooseSuit()
			_ = c.Recolor(suit)
			e.out.Console(p, "calls "+suit.String(), c)
			e.game.logAction(p.ID, "suit_choice", map[string]interface{}{"suit": suit.String()})
		}
	case models.Ace:
		if e.game.Rules.ReverseOnAce {
			e.game.TurnReversed = !e.game.TurnReversed
			e.out.Console(p, "reverses the direction of play", c)
		}
	case models.Queen:
		if e.game.Rules.SkipOnQueen {
			e.out.Console(e.game.NextPlayer(), "is skipped", c)
			return true, false
		}
	}
	return false, false
}

// ForceDraw makes passive draw n cards one at a time. Draws that do not fit in passive's hand go
// to active; draws that fit in neither become penalty points for active.
func (e *Engine) ForceDraw(passive, active *models.Player, n int) {
	drawn := map[*models.Player]int{}
	for i := 0; i < n; i++ {
		target := passive
		if target.HandFull() {
			target = active
		}
		if target.HandFull() {
			e.penalize(active, n-i)
			break
		}
		if _, err := e.game.DrawCard(target); err != nil {
			e.log.Warnf("forced draw for seat %d stopped: %v", target.ID, err)
			e.penalize(active, n-i)
			break
		}
		drawn[target]++
	}
	for _, p := range []*models.Player{passive, active} {
		if k := drawn[p]; k > 0 {
			e.out.Console(p, fmt.Sprintf("draws %d", k), nil)
		}
		if passive == active {
			break
		}
	}
}

func (e *Engine) penalize(p *models.Player, points int) {
	p.Score += points
	e.out.Console(p, fmt.Sprintf("takes %d penalty point(s) for undrawable cards", points), nil)
	e.game.logAction(p.ID, "penalty", map[string]interface{}{"points": points})
}
