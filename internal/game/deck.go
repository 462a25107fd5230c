package game

import (
	"math/rand"

	"github.com/jason-s-yu/eights/internal/models"
)

// DeckSize is the number of cards in play at every stable point.
const DeckSize = 52

// Pile is an ordered stack of cards; the top is the last element.
// The deck and the discard pile are both Piles.
type Pile struct {
	cards []*models.Card
}

func NewPile() *Pile {
	return &Pile{cards: []*models.Card{}}
}

// NewStandardDeck builds an unshuffled 52-card deck.
func NewStandardDeck() *Pile {
	p := &Pile{cards: make([]*models.Card, 0, DeckSize)}
	for _, suit := range models.Suits {
		for rank := models.Ace; rank <= models.King; rank++ {
			p.cards = append(p.cards, models.NewCard(rank, suit))
		}
	}
	return p
}

func (p *Pile) Len() int {
	return len(p.cards)
}

// Push places c on top.
func (p *Pile) Push(c *models.Card) {
	p.cards = append(p.cards, c)
}

// Pop removes and returns the top card, or nil when empty.
func (p *Pile) Pop() *models.Card {
	n := len(p.cards)
	if n == 0 {
		return nil
	}
	c := p.cards[n-1]
	p.cards[n-1] = nil
	p.cards = p.cards[:n-1]
	return c
}

// Top returns the top card without removing it, or nil when empty.
func (p *Pile) Top() *models.Card {
	if len(p.cards) == 0 {
		return nil
	}
	return p.cards[len(p.cards)-1]
}

// Shuffle applies a uniform random permutation.
func (p *Pile) Shuffle(r *rand.Rand) {
	r.Shuffle(len(p.cards), func(i, j int) {
		p.cards[i], p.cards[j] = p.cards[j], p.cards[i]
	})
}

// Cards returns a copy of the pile, bottom first.
func (p *Pile) Cards() []*models.Card {
	out := make([]*models.Card, len(p.cards))
	copy(out, p.cards)
	return out
}

// TakeAll empties the pile and returns what it held, bottom first.
func (p *Pile) TakeAll() []*models.Card {
	out := p.cards
	p.cards = []*models.Card{}
	return out
}

func (p *Pile) Clear() {
	p.cards = []*models.Card{}
}
