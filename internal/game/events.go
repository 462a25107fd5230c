package game

import "github.com/jason-s-yu/eights/internal/models"

// Broadcaster receives the engine's notifications. Every method is called on the goroutine
// that owns the Game, after the corresponding mutation has been applied.
type Broadcaster interface {
	// Refresh asks for every seat's view to be pushed again.
	Refresh()
	// Console carries a human-readable notice; actor and card may be nil.
	Console(actor *models.Player, msg string, card *models.Card)
	// TurnStarted fires when a human seat becomes active and the engine suspends for its request.
	TurnStarted(p *models.Player)
	// SuitRequest asks p to complete the EIGHT it just played.
	SuitRequest(p *models.Player, card *models.Card)
	RoundOver(winner *models.Player)
	GameOver(winner *models.Player)
}

// Pacer delays AI turns so intermediate state stays visible. When the engine has a Pacer it
// stops at every AI seat and waits for StepAI(seat).
type Pacer interface {
	ScheduleAI(seat int)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Refresh()                                     {}
func (nopBroadcaster) Console(*models.Player, string, *models.Card) {}
func (nopBroadcaster) TurnStarted(*models.Player)                   {}
func (nopBroadcaster) SuitRequest(*models.Player, *models.Card)     {}
func (nopBroadcaster) RoundOver(*models.Player)                     {}
func (nopBroadcaster) GameOver(*models.Player)                      {}
