package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerHandLimit(t *testing.T) {
	p := NewPlayer(2, "Ann", true)
	assert.Equal(t, South, p.Orientation)
	p.HandLimit = 3

	for i := 0; i < 3; i++ {
		require.NoError(t, p.AddCard(NewCard(Rank(i+1), Clubs)))
	}
	assert.True(t, p.HandFull())
	assert.ErrorIs(t, p.AddCard(NewCard(King, Clubs)), ErrHandFull)
	assert.Equal(t, 3, p.HandSize())
}

func TestPlayerDefaultLimit(t *testing.T) {
	p := NewPlayer(0, "CPU", false)
	for i := 0; i < MaxHandSize; i++ {
		require.NoError(t, p.AddCard(NewCard(Two, Hearts)))
	}
	assert.ErrorIs(t, p.AddCard(NewCard(Two, Hearts)), ErrHandFull)
}

func TestRemoveCardByIdentity(t *testing.T) {
	p := NewPlayer(1, "Bob", true)
	a := NewCard(Seven, Hearts)
	b := NewCard(Seven, Hearts)
	require.NoError(t, p.AddCard(a))
	require.NoError(t, p.AddCard(b))

	assert.Same(t, a, p.FindCard(Seven, Hearts))
	assert.True(t, p.RemoveCard(b))
	assert.False(t, p.RemoveCard(b))
	assert.Equal(t, []*Card{a}, p.Hand)

	p.ClearHand()
	assert.Zero(t, p.HandSize())
	assert.Nil(t, p.FindCard(Seven, Hearts))
	assert.Equal(t, "E", East.String())
}
