package models

import (
	"errors"

	"github.com/google/uuid"
)

// MaxHandSize is the most cards a hand may hold.
const MaxHandSize = 12

var ErrHandFull = errors.New("hand is full")

// Orientation is the compass position of a seat at the table.
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
)

var orientationNames = []string{"N", "E", "S", "W"}

func (o Orientation) String() string {
	if o < North || o > West {
		return "?"
	}
	return orientationNames[o]
}

// Player is a seated participant. AI seats are Players with IsHuman unset; their behavior lives in the game package.
type Player struct {
	UUID        uuid.UUID   `json:"uuid"`
	ID          int         `json:"id"` // seat index
	Name        string      `json:"name"`
	Score       int         `json:"score"`
	Hand        []*Card     `json:"-"`
	Orientation Orientation `json:"orientation"`
	IsHuman     bool        `json:"isHuman"`
	IsHost      bool        `json:"isHost"`

	// HandLimit overrides MaxHandSize when positive.
	HandLimit int `json:"-"`
}

func NewPlayer(id int, name string, human bool) *Player {
	return &Player{
		UUID:        uuid.New(),
		ID:          id,
		Name:        name,
		Hand:        []*Card{},
		Orientation: Orientation(id % 4),
		IsHuman:     human,
	}
}

func (p *Player) limit() int {
	if p.HandLimit > 0 {
		return p.HandLimit
	}
	return MaxHandSize
}

func (p *Player) HandSize() int {
	return len(p.Hand)
}

// HandFull reports whether another card would exceed the hand limit.
func (p *Player) HandFull() bool {
	return len(p.Hand) >= p.limit()
}

// AddCard appends c to the hand. A full hand rejects the card rather than truncating.
func (p *Player) AddCard(c *Card) error {
	if p.HandFull() {
		return ErrHandFull
	}
	p.Hand = append(p.Hand, c)
	return nil
}

// RemoveCard removes exactly c (by identity) and reports whether it was held.
func (p *Player) RemoveCard(c *Card) bool {
	for i, h := range p.Hand {
		if h == c {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// FindCard returns the first held card showing rank and suit, or nil.
func (p *Player) FindCard(rank Rank, suit Suit) *Card {
	for _, c := range p.Hand {
		if c.Is(rank, suit) {
			return c
		}
	}
	return nil
}

func (p *Player) ClearHand() {
	p.Hand = []*Card{}
}
