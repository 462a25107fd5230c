// internal/models/card.go
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrBadDescriptor = errors.New("malformed card descriptor")
	ErrNotEight      = errors.New("only an EIGHT can be recolored")
)

// Suit is one of the four French suits.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists every suit in canonical order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

var suitCodes = []string{"C", "D", "H", "S"}
var suitNames = []string{"CLUBS", "DIAMONDS", "HEARTS", "SPADES"}

func (s Suit) String() string {
	if s < Clubs || s > Spades {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitNames[s]
}

// Code is the single-letter wire form of the suit.
func (s Suit) Code() string {
	if s < Clubs || s > Spades {
		return "?"
	}
	return suitCodes[s]
}

// ParseSuit accepts either the single-letter code ("H") or the full name ("HEARTS"), case-insensitively.
func ParseSuit(v string) (Suit, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	for i := range suitCodes {
		if v == suitCodes[i] || v == suitNames[i] {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("unknown suit %q", v)
}

// Rank runs from Ace (1) to King (13).
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankCodes = []string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K"}
var rankNames = []string{"", "ACE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE", "TEN", "JACK", "QUEEN", "KING"}

func (r Rank) String() string {
	if r < Ace || r > King {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankNames[r]
}

// Code is the single-character wire form of the rank ("T" for ten).
func (r Rank) Code() string {
	if r < Ace || r > King {
		return "?"
	}
	return rankCodes[r]
}

// ParseRank accepts the single-character code, "10", or the full name.
func ParseRank(v string) (Rank, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "10" {
		return Ten, nil
	}
	for i := 1; i < len(rankCodes); i++ {
		if v == rankCodes[i] || v == rankNames[i] {
			return Rank(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", v)
}

// Card is a physical card. Two cards with the same rank and suit are still different cards;
// hands and piles compare cards by pointer.
type Card struct {
	ID   uuid.UUID
	Rank Rank
	suit Suit

	printed Suit
}

func NewCard(rank Rank, suit Suit) *Card {
	return &Card{ID: uuid.New(), Rank: rank, suit: suit, printed: suit}
}

// Suit reports the card's current suit, which differs from the printed one only for a recolored EIGHT.
func (c *Card) Suit() Suit {
	return c.suit
}

// Recolor assigns the suit named by the player who completed an EIGHT.
func (c *Card) Recolor(s Suit) error {
	if c.Rank != Eight {
		return ErrNotEight
	}
	if s < Clubs || s > Spades {
		return fmt.Errorf("recolor: invalid suit %d", int(s))
	}
	c.suit = s
	return nil
}

// ResetSuit restores the printed suit once a recolored EIGHT leaves play.
func (c *Card) ResetSuit() {
	c.suit = c.printed
}

// Matches reports whether c may be played on top: an EIGHT always can, otherwise rank or suit must agree.
func (c *Card) Matches(top *Card) bool {
	if c.Rank == Eight || top == nil {
		return true
	}
	return c.Rank == top.Rank || c.suit == top.suit
}

// Descriptor is the two-character wire form, e.g. "8H" or "TS".
func (c *Card) Descriptor() string {
	return c.Rank.Code() + c.suit.Code()
}

func (c *Card) String() string {
	return c.Descriptor()
}

// Is reports whether the card currently shows the given rank and suit.
func (c *Card) Is(rank Rank, suit Suit) bool {
	return c.Rank == rank && c.suit == suit
}

// ParseDescriptor splits a descriptor such as "QH" or "10S" into rank and suit.
func ParseDescriptor(desc string) (Rank, Suit, error) {
	desc = strings.ToUpper(strings.TrimSpace(desc))
	if len(desc) < 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadDescriptor, desc)
	}
	rank, err := ParseRank(desc[:len(desc)-1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrBadDescriptor, err)
	}
	suit, err := ParseSuit(desc[len(desc)-1:])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrBadDescriptor, err)
	}
	return rank, suit, nil
}
