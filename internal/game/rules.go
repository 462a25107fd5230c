// internal/game/rules.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/eights/internal/models"
)

const (
	MinSeats = 2
	MaxSeats = 4
)

// Rules is the table configuration handed to NewGame.
type Rules struct {
	InitialHandSize int  `json:"initialHandSize"` // cards dealt to every seat at round start
	MaxHandSize     int  `json:"maxHandSize"`     // a full hand passes instead of drawing
	MaxScore        int  `json:"maxScore"`        // the game ends once any score reaches this
	ReverseOnAce    bool `json:"reverseOnAce"`    // house rule: an ACE flips the turn direction
	SkipOnQueen     bool `json:"skipOnQueen"`     // house rule: a QUEEN skips the next seat
}

// DefaultRules returns the standard table: six cards dealt, twelve-card hands, game to 50.
func DefaultRules() Rules {
	return Rules{
		InitialHandSize: 6,
		MaxHandSize:     models.MaxHandSize,
		MaxScore:        50,
	}
}

// Validate checks the rules against a table of the given size.
func (r Rules) Validate(seats int) error {
	if seats < MinSeats || seats > MaxSeats {
		return fmt.Errorf("seat count %d outside %d..%d", seats, MinSeats, MaxSeats)
	}
	if r.InitialHandSize < 1 {
		return fmt.Errorf("initialHandSize must be positive")
	}
	if r.MaxHandSize < r.InitialHandSize || r.MaxHandSize > models.MaxHandSize {
		return fmt.Errorf("maxHandSize must be between initialHandSize and %d", models.MaxHandSize)
	}
	if seats*r.InitialHandSize >= DeckSize {
		return fmt.Errorf("cannot deal %d cards to %d seats from %d", r.InitialHandSize, seats, DeckSize)
	}
	if r.MaxScore < 1 {
		return fmt.Errorf("maxScore must be positive")
	}
	return nil
}
