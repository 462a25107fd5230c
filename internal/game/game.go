// internal/game/game.go
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/eights/internal/cache"
	"github.com/jason-s-yu/eights/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrTableFull        = errors.New("table is full")
	ErrTooFewPlayers    = errors.New("at least two players are required")
	ErrNotEnoughCards   = errors.New("not enough cards in the deck")
	ErrNothingToRecycle = errors.New("discard pile has nothing to recycle")
	ErrDrawBlocked      = errors.New("deck and discard pile are exhausted")
	ErrCardNotHeld      = errors.New("card is not in the player's hand")
	ErrIllegalPlay      = errors.New("card does not match the discard pile")
	ErrUnknownSeat      = errors.New("unknown seat")
)

// ActionPublisher receives a record of every mutation. cache.Publisher satisfies it.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, record cache.GameActionRecord) error
}

// Game is the authoritative table state. It is not safe for concurrent use: a single
// goroutine (the server's table actor, or a test) owns it.
type Game struct {
	ID    uuid.UUID
	Rules Rules

	Players           []*models.Player
	Deck              *Pile
	DiscardPile       *Pile
	ActivePlayerIndex int
	TurnReversed      bool
	RoundWinner       *models.Player
	GameWinner        *models.Player
	Round             int

	rng         *rand.Rand
	log         logrus.FieldLogger
	publisher   ActionPublisher
	actionIndex int
}

type Option func(*Game)

// WithRand fixes the random source, for reproducible deals.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Game) { g.log = l }
}

// WithPublisher sends every action to the historian queue.
func WithPublisher(p ActionPublisher) Option {
	return func(g *Game) { g.publisher = p }
}

// NewGame builds an empty table with the given rules.
func NewGame(rules Rules, opts ...Option) *Game {
	g := &Game{
		ID:          uuid.New(),
		Rules:       rules,
		Players:     []*models.Player{},
		Deck:        NewPile(),
		DiscardPile: NewPile(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.log == nil {
		g.log = logrus.StandardLogger()
	}
	g.log = g.log.WithField("game", g.ID.String())
	return g
}

// AddPlayer seats a new player after the existing ones. Seat order is turn order.
func (g *Game) AddPlayer(name string, human bool) (*models.Player, error) {
	if len(g.Players) >= MaxSeats {
		return nil, ErrTableFull
	}
	p := models.NewPlayer(len(g.Players), name, human)
	p.HandLimit = g.Rules.MaxHandSize
	g.Players = append(g.Players, p)
	g.logAction(p.ID, "player_add", map[string]interface{}{"name": name, "human": human})
	return p, nil
}

// InitGame starts a session: scores reset, round counter reset, first round dealt.
func (g *Game) InitGame() error {
	if len(g.Players) < MinSeats {
		return ErrTooFewPlayers
	}
	if err := g.Rules.Validate(len(g.Players)); err != nil {
		return err
	}
	for _, p := range g.Players {
		p.Score = 0
	}
	g.GameWinner = nil
	g.Round = 0
	g.logAction(-1, "game_start", map[string]interface{}{"seats": len(g.Players)})
	return g.InitRound()
}

// InitRound redeals without touching players or scores. The first active seat rotates each round.
func (g *Game) InitRound() error {
	g.Round++
	for _, p := range g.Players {
		p.ClearHand()
	}
	g.Deck = NewStandardDeck()
	g.Deck.Shuffle(g.rng)
	g.DiscardPile = NewPile()
	g.RoundWinner = nil
	g.TurnReversed = false

	if err := g.DealCards(g.Rules.InitialHandSize); err != nil {
		return err
	}
	g.DiscardPile.Push(g.Deck.Pop())
	g.ActivePlayerIndex = (g.Round - 1) % len(g.Players)

	g.log.WithFields(logrus.Fields{
		"round": g.Round,
		"top":   g.TopCard().String(),
		"first": g.ActivePlayerIndex,
	}).Info("round dealt")
	g.logAction(-1, "round_start", map[string]interface{}{"round": g.Round, "top": g.TopCard().String()})
	return nil
}

// DealCards gives n cards from the top of the deck to every player, or nothing at all.
func (g *Game) DealCards(n int) error {
	need := len(g.Players) * n
	if n < 0 || need > g.Deck.Len() {
		g.log.Warnf("cannot deal %d cards to %d players from %d", n, len(g.Players), g.Deck.Len())
		return fmt.Errorf("%w: need %d, have %d", ErrNotEnoughCards, need, g.Deck.Len())
	}
	for i := 0; i < n; i++ {
		for _, p := range g.Players {
			if err := p.AddCard(g.Deck.Pop()); err != nil {
				// Validate keeps InitialHandSize under the hand limit.
				panic(fmt.Sprintf("deal overflowed seat %d: %v", p.ID, err))
			}
		}
	}
	return nil
}

// HandleEmptyDeck keeps the card in play and shuffles the rest of the discard pile back into the deck.
func (g *Game) HandleEmptyDeck() error {
	if g.DiscardPile.Len() <= 1 {
		g.log.Warn("reshuffle requested but the discard pile holds no spare cards")
		return ErrNothingToRecycle
	}
	top := g.DiscardPile.Pop()
	for _, c := range g.DiscardPile.TakeAll() {
		c.ResetSuit()
		g.Deck.Push(c)
	}
	g.Deck.Shuffle(g.rng)
	g.DiscardPile.Push(top)
	g.log.Infof("reshuffled discard pile; deck now holds %d", g.Deck.Len())
	g.logAction(-1, "reshuffle", map[string]interface{}{"deckSize": g.Deck.Len()})
	return nil
}

// DrawCard moves the top of the deck into p's hand, reshuffling first when the deck is empty.
func (g *Game) DrawCard(p *models.Player) (*models.Card, error) {
	if p.HandFull() {
		return nil, models.ErrHandFull
	}
	if g.Deck.Len() == 0 {
		if err := g.HandleEmptyDeck(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDrawBlocked, err)
		}
	}
	c := g.Deck.Pop()
	if err := p.AddCard(c); err != nil {
		g.Deck.Push(c)
		return nil, err
	}
	g.logAction(p.ID, "draw", map[string]interface{}{"deckSize": g.Deck.Len()})
	return c, nil
}

// PlayCard moves c from p's hand onto the discard pile if it is held and legal.
func (g *Game) PlayCard(p *models.Player, c *models.Card) error {
	if c == nil {
		return ErrCardNotHeld
	}
	if !c.Matches(g.TopCard()) {
		return ErrIllegalPlay
	}
	if !p.RemoveCard(c) {
		return ErrCardNotHeld
	}
	g.DiscardPile.Push(c)
	g.logAction(p.ID, "play", map[string]interface{}{"card": c.String()})
	return nil
}

// TopCard is the card currently in play.
func (g *Game) TopCard() *models.Card {
	return g.DiscardPile.Top()
}

// HasLegalMove reports whether hand holds an EIGHT or a card sharing top's rank or suit.
func HasLegalMove(hand []*models.Card, top *models.Card) bool {
	for _, c := range hand {
		if c.Matches(top) {
			return true
		}
	}
	return false
}

func (g *Game) HasLegalMove(p *models.Player) bool {
	return HasLegalMove(p.Hand, g.TopCard())
}

// NextSeat steps one seat from k around an n-seat table.
func NextSeat(k, n int, reversed bool) int {
	if reversed {
		return (k - 1 + n) % n
	}
	return (k + 1) % n
}

func (g *Game) NextPlayerIndex() int {
	return NextSeat(g.ActivePlayerIndex, len(g.Players), g.TurnReversed)
}

func (g *Game) AdvanceTurn() {
	g.ActivePlayerIndex = g.NextPlayerIndex()
}

func (g *Game) ActivePlayer() *models.Player {
	return g.Players[g.ActivePlayerIndex]
}

func (g *Game) NextPlayer() *models.Player {
	return g.Players[g.NextPlayerIndex()]
}

// PlayerByID returns the player in seat id.
func (g *Game) PlayerByID(id int) (*models.Player, error) {
	if id < 0 || id >= len(g.Players) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSeat, id)
	}
	return g.Players[id], nil
}

// IsRoundOver reports the first seat (in seat order) holding no cards.
func (g *Game) IsRoundOver() (*models.Player, bool) {
	for _, p := range g.Players {
		if p.HandSize() == 0 {
			return p, true
		}
	}
	return nil, false
}

// ScoreRound adds every seat's remaining hand size to its score.
func (g *Game) ScoreRound() {
	scores := map[string]interface{}{}
	for _, p := range g.Players {
		p.Score += p.HandSize()
		scores[p.Name] = p.Score
	}
	g.logAction(-1, "round_scored", scores)
}

// IsGameOver reports whether any score has reached MaxScore.
func (g *Game) IsGameOver() bool {
	for _, p := range g.Players {
		if p.Score >= g.Rules.MaxScore {
			return true
		}
	}
	return false
}

// DecideGameWinner picks the lowest score; equal scores go to the lowest seat.
func (g *Game) DecideGameWinner() *models.Player {
	var best *models.Player
	for _, p := range g.Players {
		if best == nil || p.Score < best.Score {
			best = p
		}
	}
	g.GameWinner = best
	return best
}

// CleanUpGameState empties every card container. Players and their scores survive.
func (g *Game) CleanUpGameState() {
	for _, p := range g.Players {
		p.ClearHand()
	}
	g.Deck.Clear()
	g.DiscardPile.Clear()
	g.logAction(-1, "game_cleanup", nil)
}

// CardCount totals cards across deck, discard pile and hands.
func (g *Game) CardCount() int {
	n := g.Deck.Len() + g.DiscardPile.Len()
	for _, p := range g.Players {
		n += p.HandSize()
	}
	return n
}

// Scores returns each seat's score keyed by seat.
func (g *Game) Scores() map[int]int {
	out := make(map[int]int, len(g.Players))
	for _, p := range g.Players {
		out[p.ID] = p.Score
	}
	return out
}

// logAction sends the action details to the historian queue.
func (g *Game) logAction(actorSeat int, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if g.publisher == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorSeat:     actorSeat,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := g.publisher.PublishGameAction(ctx, rec); err != nil {
			g.log.Warnf("publishing action %d: %v", rec.ActionIndex, err)
		}
	}(record)
}
