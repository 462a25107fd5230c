// internal/game/game_test.go
package game

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/jason-s-yu/eights/internal/cache"
	"github.com/jason-s-yu/eights/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster records notifications instead of writing them to peers.
type mockBroadcaster struct {
	refreshes    int
	consoles     []string
	turns        []int
	suitRequests []string
	roundWinners []int
	gameWinners  []int
}

func (mb *mockBroadcaster) Refresh() { mb.refreshes++ }

func (mb *mockBroadcaster) Console(actor *models.Player, msg string, card *models.Card) {
	line := msg
	if actor != nil {
		line = actor.Name + " " + msg
	}
	if card != nil {
		line += " " + card.Descriptor()
	}
	mb.consoles = append(mb.consoles, line)
}

func (mb *mockBroadcaster) TurnStarted(p *models.Player) { mb.turns = append(mb.turns, p.ID) }

func (mb *mockBroadcaster) SuitRequest(p *models.Player, c *models.Card) {
	mb.suitRequests = append(mb.suitRequests, c.Descriptor())
}

func (mb *mockBroadcaster) RoundOver(w *models.Player) { mb.roundWinners = append(mb.roundWinners, w.ID) }

func (mb *mockBroadcaster) GameOver(w *models.Player) { mb.gameWinners = append(mb.gameWinners, w.ID) }

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// setupTestGame seats one player per entry of humans with a fixed random source.
func setupTestGame(t *testing.T, seed int64, humans ...bool) *Game {
	t.Helper()
	g := NewGame(DefaultRules(), WithRand(rand.New(rand.NewSource(seed))), WithLogger(quietLogger()))
	for i, h := range humans {
		_, err := g.AddPlayer(fmt.Sprintf("P%d", i), h)
		require.NoError(t, err)
	}
	return g
}

// take pulls the card named by desc out of pile.
func take(t *testing.T, pile *Pile, desc string) *models.Card {
	t.Helper()
	rank, suit, err := models.ParseDescriptor(desc)
	require.NoError(t, err)
	var found *models.Card
	for _, c := range pile.TakeAll() {
		if found == nil && c.Is(rank, suit) {
			found = c
			continue
		}
		pile.Push(c)
	}
	require.NotNil(t, found, "card %s not in pile", desc)
	return found
}

// rig lays out a hand-built round 1: top goes on the discard pile, hands[i] to seat i,
// and the rest of a fresh unshuffled deck stays in the deck. Seat 0 is active.
func rig(t *testing.T, g *Game, top string, hands ...[]string) {
	t.Helper()
	g.Deck = NewStandardDeck()
	g.DiscardPile = NewPile()
	for _, p := range g.Players {
		p.ClearHand()
	}
	g.DiscardPile.Push(take(t, g.Deck, top))
	for seat, descs := range hands {
		for _, d := range descs {
			require.NoError(t, g.Players[seat].AddCard(take(t, g.Deck, d)))
		}
	}
	g.Round = 1
	g.ActivePlayerIndex = 0
	g.TurnReversed = false
}

func descriptors(cards []*models.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Descriptor()
	}
	return out
}

func TestAddPlayerLimits(t *testing.T) {
	g := setupTestGame(t, 1, true)
	assert.ErrorIs(t, g.InitGame(), ErrTooFewPlayers)

	for i := 1; i < MaxSeats; i++ {
		p, err := g.AddPlayer("x", false)
		require.NoError(t, err)
		assert.Equal(t, i, p.ID)
		assert.Equal(t, g.Rules.MaxHandSize, p.HandLimit)
	}
	_, err := g.AddPlayer("late", true)
	assert.ErrorIs(t, err, ErrTableFull)
}

func TestInitGameDeals(t *testing.T) {
	g := setupTestGame(t, 7, true, false, false, false)
	g.Players[2].Score = 30
	require.NoError(t, g.InitGame())

	assert.Equal(t, 1, g.Round)
	assert.Equal(t, 27, g.Deck.Len())
	assert.Equal(t, 1, g.DiscardPile.Len())
	for _, p := range g.Players {
		assert.Equal(t, 6, p.HandSize())
		assert.Zero(t, p.Score)
	}
	assert.Equal(t, 0, g.ActivePlayerIndex)
	assert.Equal(t, DeckSize, g.CardCount())

	require.NoError(t, g.InitRound())
	assert.Equal(t, 2, g.Round)
	assert.Equal(t, 1, g.ActivePlayerIndex)
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestSeededDealsRepeat(t *testing.T) {
	a := setupTestGame(t, 99, true, false)
	b := setupTestGame(t, 99, true, false)
	require.NoError(t, a.InitGame())
	require.NoError(t, b.InitGame())
	assert.Equal(t, descriptors(a.Players[0].Hand), descriptors(b.Players[0].Hand))
	assert.Equal(t, a.TopCard().Descriptor(), b.TopCard().Descriptor())
}

func TestDealCardsAllOrNothing(t *testing.T) {
	g := setupTestGame(t, 1, true, false, false, false)
	g.Deck = NewPile()
	full := NewStandardDeck()
	for i := 0; i < 10; i++ {
		g.Deck.Push(full.Pop())
	}

	err := g.DealCards(3)
	assert.ErrorIs(t, err, ErrNotEnoughCards)
	assert.Equal(t, 10, g.Deck.Len())
	for _, p := range g.Players {
		assert.Zero(t, p.HandSize())
	}

	require.NoError(t, g.DealCards(2))
	assert.Equal(t, 2, g.Deck.Len())
}

func TestHandleEmptyDeck(t *testing.T) {
	g := setupTestGame(t, 3, true, false)
	g.Deck = NewPile()
	g.DiscardPile = NewPile()
	g.DiscardPile.Push(models.NewCard(models.Five, models.Clubs))

	assert.ErrorIs(t, g.HandleEmptyDeck(), ErrNothingToRecycle)
	assert.Equal(t, 1, g.DiscardPile.Len())
	assert.Zero(t, g.Deck.Len())

	for _, r := range []models.Rank{models.Six, models.Seven, models.Nine, models.Ten} {
		g.DiscardPile.Push(models.NewCard(r, models.Hearts))
	}
	top := g.TopCard()
	require.NoError(t, g.HandleEmptyDeck())
	assert.Equal(t, 4, g.Deck.Len())
	assert.Equal(t, 1, g.DiscardPile.Len())
	assert.Same(t, top, g.TopCard())
}

func TestHandleEmptyDeckRestoresRecoloredEight(t *testing.T) {
	g := setupTestGame(t, 3, true, false)
	g.Deck = NewPile()
	g.DiscardPile = NewPile()

	eight := models.NewCard(models.Eight, models.Spades)
	require.NoError(t, eight.Recolor(models.Hearts))
	g.DiscardPile.Push(eight)
	g.DiscardPile.Push(models.NewCard(models.Eight, models.Hearts))
	g.DiscardPile.Push(models.NewCard(models.Five, models.Hearts))

	require.NoError(t, g.HandleEmptyDeck())
	seen := map[string]int{}
	for _, c := range g.Deck.Cards() {
		seen[c.Descriptor()]++
	}
	assert.Equal(t, map[string]int{"8S": 1, "8H": 1}, seen)
	assert.Equal(t, models.Spades, eight.Suit())
}

func TestDrawCard(t *testing.T) {
	g := setupTestGame(t, 3, true, false)
	rig(t, g, "5C", []string{"KH"}, []string{"QD"})
	p := g.Players[0]

	g.Deck.Clear()
	g.DiscardPile.Push(take(t, NewStandardDeck(), "6C"))
	g.DiscardPile.Push(take(t, NewStandardDeck(), "7C"))

	c, err := g.DrawCard(p)
	require.NoError(t, err)
	assert.Equal(t, 2, p.HandSize())
	assert.Contains(t, []string{"5C", "6C"}, c.Descriptor())
	assert.Equal(t, 1, g.Deck.Len())
	assert.Equal(t, "7C", g.TopCard().Descriptor())

	_, err = g.DrawCard(p)
	require.NoError(t, err)
	_, err = g.DrawCard(p)
	assert.ErrorIs(t, err, ErrDrawBlocked)
	assert.Equal(t, 3, p.HandSize())

	p.HandLimit = 3
	_, err = g.DrawCard(p)
	assert.ErrorIs(t, err, models.ErrHandFull)
}

func TestPlayCard(t *testing.T) {
	g := setupTestGame(t, 3, true, false)
	rig(t, g, "5C", []string{"9H", "5D", "8S"}, []string{"5H"})
	p := g.Players[0]

	assert.ErrorIs(t, g.PlayCard(p, p.Hand[0]), ErrIllegalPlay)
	assert.ErrorIs(t, g.PlayCard(p, g.Players[1].Hand[0]), ErrCardNotHeld)
	assert.ErrorIs(t, g.PlayCard(p, nil), ErrCardNotHeld)

	require.NoError(t, g.PlayCard(p, p.Hand[1]))
	assert.Equal(t, "5D", g.TopCard().Descriptor())
	require.NoError(t, g.PlayCard(p, p.FindCard(models.Eight, models.Spades)))
	assert.Equal(t, []string{"9H"}, descriptors(p.Hand))
	assert.Equal(t, DeckSize, g.CardCount())
}

func TestHasLegalMoveExhaustive(t *testing.T) {
	deck := NewStandardDeck().Cards()
	for _, top := range deck {
		for _, c := range deck {
			want := c.Rank == models.Eight || c.Rank == top.Rank || c.Suit() == top.Suit()
			assert.Equal(t, want, HasLegalMove([]*models.Card{c}, top), "%s on %s", c, top)
		}
	}
	assert.False(t, HasLegalMove(nil, deck[0]))
}

func TestNextSeat(t *testing.T) {
	cases := []struct {
		k, n     int
		reversed bool
		want     int
	}{
		{0, 4, false, 1},
		{3, 4, false, 0},
		{0, 4, true, 3},
		{2, 3, true, 1},
		{1, 2, false, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NextSeat(tc.k, tc.n, tc.reversed), "%+v", tc)
	}
}

func TestRoundAndGameScoring(t *testing.T) {
	g := setupTestGame(t, 3, true, false, false)
	rig(t, g, "5C", []string{"KH", "QH"}, []string{}, []string{"2S"})

	w, over := g.IsRoundOver()
	require.True(t, over)
	assert.Equal(t, 1, w.ID)

	g.ScoreRound()
	assert.Equal(t, map[int]int{0: 2, 1: 0, 2: 1}, g.Scores())
	assert.False(t, g.IsGameOver())

	g.Players[0].Score = 50
	g.Players[1].Score = 20
	g.Players[2].Score = 20
	assert.True(t, g.IsGameOver())
	assert.Equal(t, 1, g.DecideGameWinner().ID)
	assert.Equal(t, 1, g.GameWinner.ID)

	g.CleanUpGameState()
	assert.Zero(t, g.CardCount())
	assert.Equal(t, 50, g.Players[0].Score)
}

func TestViewForHidesOtherHands(t *testing.T) {
	g := setupTestGame(t, 3, true, false, true)
	rig(t, g, "5C", []string{"KH", "QH"}, []string{"2S"}, []string{"3S", "4S", "6S"})
	g.Players[1].Score = 9
	g.TurnReversed = true

	v := g.ViewFor(2)
	assert.Equal(t, 2, v.SeatID)
	assert.Equal(t, []string{"3S", "4S", "6S"}, descriptors(v.Hand))
	assert.Equal(t, []int{2, 1, 3}, v.HandSizes)
	assert.Equal(t, []string{"P0", "P1", "P2"}, v.Names)
	assert.Equal(t, []int{0, 9, 0}, v.Scores)
	assert.Equal(t, "5C", v.Top.Descriptor())
	assert.True(t, v.Reversed)

	v.Hand[0] = nil
	assert.NotNil(t, g.Players[2].Hand[0])
}

func TestRulesValidate(t *testing.T) {
	r := DefaultRules()
	assert.NoError(t, r.Validate(2))
	assert.NoError(t, r.Validate(4))
	assert.Error(t, r.Validate(1))
	assert.Error(t, r.Validate(5))

	bad := r
	bad.MaxHandSize = 13
	assert.Error(t, bad.Validate(2))

	bad = r
	bad.InitialHandSize = 13
	bad.MaxHandSize = 12
	assert.Error(t, bad.Validate(4))

	bad = r
	bad.MaxScore = 0
	assert.Error(t, bad.Validate(2))
}

type chanPublisher chan cache.GameActionRecord

func (c chanPublisher) PublishGameAction(ctx context.Context, rec cache.GameActionRecord) error {
	c <- rec
	return nil
}

func TestActionsArePublished(t *testing.T) {
	pub := make(chanPublisher, 8)
	g := NewGame(DefaultRules(), WithPublisher(pub), WithLogger(quietLogger()))
	_, err := g.AddPlayer("Ann", true)
	require.NoError(t, err)

	select {
	case rec := <-pub:
		assert.Equal(t, g.ID, rec.GameID)
		assert.Equal(t, 1, rec.ActionIndex)
		assert.Equal(t, 0, rec.ActorSeat)
		assert.Equal(t, "player_add", rec.ActionType)
		assert.Equal(t, "Ann", rec.ActionPayload["name"])
	case <-time.After(2 * time.Second):
		t.Fatal("no action published")
	}
}
