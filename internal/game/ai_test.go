package game

import (
	"math/rand"
	"testing"

	"github.com/jason-s-yu/eights/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerHolding(t *testing.T, descs ...string) *models.Player {
	t.Helper()
	p := models.NewPlayer(1, "CPU 1", false)
	deck := NewStandardDeck()
	for _, d := range descs {
		require.NoError(t, p.AddCard(take(t, deck, d)))
	}
	return p
}

func TestDecidePlayDraw(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))
	top := models.NewCard(models.Five, models.Clubs)

	assert.Equal(t, DecisionPlay, ai.DecidePlayDraw(playerHolding(t, "KH", "5H"), top))
	assert.Equal(t, DecisionPlay, ai.DecidePlayDraw(playerHolding(t, "8D"), top))
	assert.Equal(t, DecisionDraw, ai.DecidePlayDraw(playerHolding(t, "KH"), top))

	full := playerHolding(t, "KH", "QH")
	full.HandLimit = 2
	assert.Equal(t, DecisionPass, ai.DecidePlayDraw(full, top))
	assert.Equal(t, "pass", DecisionPass.String())
}

func TestDecideCardPrefersEight(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))
	top := models.NewCard(models.Five, models.Hearts)

	c := ai.DecideCard(playerHolding(t, "5C", "KH", "8D"), top)
	require.NotNil(t, c)
	assert.Equal(t, "8D", c.Descriptor())

	c = ai.DecideCard(playerHolding(t, "KD", "3H", "5S"), top)
	require.NotNil(t, c)
	assert.Equal(t, "3H", c.Descriptor())

	assert.Nil(t, ai.DecideCard(playerHolding(t, "KD"), top))
}

func TestAIChooseSuit(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(4)))
	seen := map[models.Suit]bool{}
	for i := 0; i < 200; i++ {
		s := ai.ChooseSuit()
		require.Contains(t, models.Suits, s)
		seen[s] = true
	}
	assert.Len(t, seen, 4)
}
