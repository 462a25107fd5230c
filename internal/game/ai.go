package game

import (
	"math/rand"

	"github.com/jason-s-yu/eights/internal/models"
)

// Decision is what a seat does with its turn.
type Decision int

const (
	DecisionPlay Decision = iota
	DecisionDraw
	DecisionPass
)

func (d Decision) String() string {
	switch d {
	case DecisionPlay:
		return "play"
	case DecisionDraw:
		return "draw"
	case DecisionPass:
		return "pass"
	}
	return "unknown"
}

// AI is the greedy computer policy. It keeps no per-seat state.
type AI struct {
	rng *rand.Rand
}

func NewAI(r *rand.Rand) *AI {
	return &AI{rng: r}
}

// DecidePlayDraw plays when possible, passes on a full hand, and draws otherwise.
func (a *AI) DecidePlayDraw(p *models.Player, top *models.Card) Decision {
	switch {
	case HasLegalMove(p.Hand, top):
		return DecisionPlay
	case p.HandFull():
		return DecisionPass
	default:
		return DecisionDraw
	}
}

// DecideCard returns the first EIGHT in hand order, else the first card matching top's rank or suit.
// A nil result means DecidePlayDraw was not consulted first.
func (a *AI) DecideCard(p *models.Player, top *models.Card) *models.Card {
	for _, c := range p.Hand {
		if c.Rank == models.Eight {
			return c
		}
	}
	for _, c := range p.Hand {
		if c.Matches(top) {
			return c
		}
	}
	return nil
}

// ChooseSuit picks uniformly among the four suits.
func (a *AI) ChooseSuit() models.Suit {
	return models.Suits[a.rng.Intn(len(models.Suits))]
}
