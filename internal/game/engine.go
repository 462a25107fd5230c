package game

import (
	"errors"
	"fmt"

	"github.com/jason-s-yu/eights/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrWrongState   = errors.New("action not allowed right now")
	ErrGameOver     = errors.New("game is already over")
	ErrNotStarted   = errors.New("game has not started")
	ErrSuitMismatch = errors.New("suit choice does not name the card in play")
)

// State is the turn engine's position in the turn cycle.
type State int

const (
	Idle State = iota
	AwaitingHumanAction
	AwaitingSuitChoice
	ResolvingAITurn
	RoundOver
	GameOver
)

var stateNames = []string{"IDLE", "AWAITING_HUMAN_ACTION", "AWAITING_SUIT_CHOICE", "RESOLVING_AI_TURN", "ROUND_OVER", "GAME_OVER"}

func (s State) String() string {
	if s < Idle || s > GameOver {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Engine drives the turn loop over a Game. Like Game, it belongs to a single goroutine.
type Engine struct {
	game  *Game
	ai    *AI
	out   Broadcaster
	pacer Pacer
	state State
	log   logrus.FieldLogger

	// consecutive passes; a full table of passes blocks the round
	passStreak int
}

func NewEngine(g *Game, out Broadcaster) *Engine {
	if out == nil {
		out = nopBroadcaster{}
	}
	return &Engine{
		game: g,
		ai:   NewAI(g.rng),
		out:  out,
		log:  g.log,
	}
}

// SetPacer makes the engine stop at each AI seat until StepAI is called.
func (e *Engine) SetPacer(p Pacer) {
	e.pacer = p
}

func (e *Engine) State() State {
	return e.state
}

func (e *Engine) Game() *Game {
	return e.game
}

// Start deals the first round and runs the turn loop up to the first human decision.
func (e *Engine) Start() error {
	if e.state != Idle {
		return ErrWrongState
	}
	if err := e.game.InitGame(); err != nil {
		return err
	}
	e.passStreak = 0
	e.state = RoundOver
	e.out.Refresh()
	e.ProcessTurn()
	return nil
}

// ProcessTurn advances the table until a human must act, an AI turn is scheduled, or the game ends.
// Consecutive AI seats are resolved here in a loop.
func (e *Engine) ProcessTurn() {
	for {
		if e.state == GameOver || e.state == Idle {
			return
		}
		winner, over := e.game.IsRoundOver()
		if !over && e.passStreak >= len(e.game.Players) {
			winner, over = e.fewestCards(), true
			e.log.Warnf("round %d blocked after %d passes; seat %d holds the fewest cards", e.game.Round, e.passStreak, winner.ID)
		}
		if over {
			if !e.finishRound(winner) {
				return
			}
			continue
		}

		p := e.game.ActivePlayer()
		if p.IsHuman {
			if e.mustPass(p) {
				e.pass(p)
				continue
			}
			e.state = AwaitingHumanAction
			e.out.TurnStarted(p)
			return
		}

		e.state = ResolvingAITurn
		if e.pacer != nil {
			e.pacer.ScheduleAI(p.ID)
			return
		}
		e.resolveAITurn(p)
	}
}

// StepAI resolves the scheduled AI turn for seat and continues the loop. Stale steps are ignored.
func (e *Engine) StepAI(seat int) {
	if e.state != ResolvingAITurn || e.game.ActivePlayerIndex != seat {
		e.log.Debugf("ignoring stale AI step for seat %d (state %s, active %d)", seat, e.state, e.game.ActivePlayerIndex)
		return
	}
	if p := e.game.ActivePlayer(); !p.IsHuman {
		e.resolveAITurn(p)
	}
	e.ProcessTurn()
}

// Play handles a human play request for the card showing rank and suit.
func (e *Engine) Play(seat int, rank models.Rank, suit models.Suit) error {
	p, err := e.requireTurn(seat, AwaitingHumanAction)
	if err != nil {
		return err
	}
	c := p.FindCard(rank, suit)
	if c == nil {
		return ErrCardNotHeld
	}
	if err := e.commitPlay(p, c); err != nil {
		return err
	}
	if e.state != AwaitingSuitChoice {
		e.ProcessTurn()
	}
	return nil
}

// Draw handles a human draw request. The turn stays with the seat unless it is then forced to pass.
func (e *Engine) Draw(seat int) error {
	p, err := e.requireTurn(seat, AwaitingHumanAction)
	if err != nil {
		return err
	}
	if p.HandFull() {
		return models.ErrHandFull
	}
	if !e.draw(p) {
		e.pass(p)
	}
	e.ProcessTurn()
	return nil
}

// ChooseSuit completes the EIGHT the active seat just played. card, when set, must name that EIGHT.
func (e *Engine) ChooseSuit(seat int, suit models.Suit, card string) error {
	p, err := e.requireTurn(seat, AwaitingSuitChoice)
	if err != nil {
		return err
	}
	top := e.game.TopCard()
	if top == nil || top.Rank != models.Eight || (card != "" && card != top.Descriptor()) {
		return ErrSuitMismatch
	}
	if err := top.Recolor(suit); err != nil {
		return err
	}
	e.out.Console(p, "calls "+suit.String(), top)
	e.game.logAction(p.ID, "suit_choice", map[string]interface{}{"suit": suit.String()})
	e.endTurn(false)
	e.ProcessTurn()
	return nil
}

// ReleaseSeat hands a departed human's seat to the computer.
func (e *Engine) ReleaseSeat(seat int) error {
	p, err := e.game.PlayerByID(seat)
	if err != nil {
		return err
	}
	if !p.IsHuman {
		return nil
	}
	p.IsHuman = false
	e.out.Console(p, "left the table; the computer takes over", nil)
	e.game.logAction(p.ID, "seat_released", nil)

	if seat != e.game.ActivePlayerIndex {
		return nil
	}
	switch e.state {
	case AwaitingSuitChoice:
		top := e.game.TopCard()
		suit := e.ai.ChooseSuit()
		_ = top.Recolor(suit)
		e.out.Console(p, "calls "+suit.String(), top)
		e.endTurn(false)
		e.ProcessTurn()
	case AwaitingHumanAction:
		e.ProcessTurn()
	}
	return nil
}

func (e *Engine) resolveAITurn(p *models.Player) {
	for {
		top := e.game.TopCard()
		switch e.ai.DecidePlayDraw(p, top) {
		case DecisionPlay:
			c := e.ai.DecideCard(p, top)
			if c == nil {
				panic(fmt.Sprintf("ai: seat %d has a legal move on %s but chose no card", p.ID, top))
			}
			if err := e.commitPlay(p, c); err != nil {
				panic(fmt.Sprintf("ai: seat %d chose unplayable %s: %v", p.ID, c, err))
			}
			return
		case DecisionPass:
			e.pass(p)
			return
		case DecisionDraw:
			if !e.draw(p) {
				e.pass(p)
				return
			}
		}
	}
}

func (e *Engine) commitPlay(p *models.Player, c *models.Card) error {
	if err := e.game.PlayCard(p, c); err != nil {
		return err
	}
	e.passStreak = 0
	e.out.Console(p, "plays", c)
	skip, pending := e.HandleCardActions(p, c)
	if pending {
		e.out.Refresh()
		return nil
	}
	e.endTurn(skip)
	return nil
}

func (e *Engine) draw(p *models.Player) bool {
	if _, err := e.game.DrawCard(p); err != nil {
		e.log.Infof("seat %d cannot draw: %v", p.ID, err)
		return false
	}
	e.passStreak = 0
	e.out.Console(p, "draws a card", nil)
	e.out.Refresh()
	return true
}

func (e *Engine) pass(p *models.Player) {
	e.passStreak++
	e.out.Console(p, "passes", nil)
	e.game.logAction(p.ID, "pass", nil)
	e.endTurn(false)
}

func (e *Engine) endTurn(skip bool) {
	e.game.AdvanceTurn()
	if skip {
		e.game.AdvanceTurn()
	}
	e.out.Refresh()
}

// mustPass: a human with no legal move whose hand is full, or whose draw is blocked, passes.
func (e *Engine) mustPass(p *models.Player) bool {
	if e.game.HasLegalMove(p) {
		return false
	}
	blocked := e.game.Deck.Len() == 0 && e.game.DiscardPile.Len() <= 1
	return p.HandFull() || blocked
}

func (e *Engine) finishRound(winner *models.Player) bool {
	e.passStreak = 0
	e.game.RoundWinner = winner
	e.game.ScoreRound()
	e.state = RoundOver
	e.log.WithField("round", e.game.Round).Infof("round won by %s", winner.Name)
	e.out.RoundOver(winner)
	e.out.Refresh()

	if e.game.IsGameOver() {
		e.endGame()
		return false
	}
	if err := e.game.InitRound(); err != nil {
		e.log.Errorf("cannot deal round %d: %v", e.game.Round, err)
		e.endGame()
		return false
	}
	e.out.Refresh()
	return true
}

// endGame announces the winner and tears down the cards. Scores survive the cleanup.
func (e *Engine) endGame() {
	w := e.game.DecideGameWinner()
	e.state = GameOver
	e.log.Infof("game won by %s with %d", w.Name, w.Score)
	e.game.logAction(-1, "game_end", map[string]interface{}{"winner": w.ID, "scores": e.game.Scores()})
	e.out.GameOver(w)
	e.game.CleanUpGameState()
}

func (e *Engine) fewestCards() *models.Player {
	var best *models.Player
	for _, p := range e.game.Players {
		if best == nil || p.HandSize() < best.HandSize() {
			best = p
		}
	}
	return best
}

func (e *Engine) requireTurn(seat int, want State) (*models.Player, error) {
	switch e.state {
	case GameOver:
		return nil, ErrGameOver
	case Idle:
		return nil, ErrNotStarted
	}
	p, err := e.game.PlayerByID(seat)
	if err != nil {
		return nil, err
	}
	if seat != e.game.ActivePlayerIndex || !p.IsHuman {
		return nil, ErrNotYourTurn
	}
	if e.state != want {
		return nil, ErrWrongState
	}
	return p, nil
}
