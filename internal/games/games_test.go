package games

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberGuess_BinarySearchAlwaysWins(t *testing.T) {
	g := NewNumberGuess(rand.New(rand.NewSource(42)))
	assert.Contains(t, g.Start(), "1 to 100")

	lo, hi := 1, 100
	for i := 0; i < 8; i++ {
		mid := (lo + hi) / 2
		reply, done := g.Handle(fmt.Sprintf("%d", mid))
		if done {
			assert.Contains(t, reply, "Correct!")
			return
		}
		switch reply {
		case "Higher.":
			lo = mid + 1
		case "Lower.":
			hi = mid - 1
		default:
			t.Fatalf("unexpected reply: %q", reply)
		}
	}
	t.Fatal("binary search over 1..100 must finish within 7 guesses")
}

func TestNumberGuess_RejectsGarbage(t *testing.T) {
	g := NewNumberGuess(rand.New(rand.NewSource(1)))

	for _, in := range []string{"abc", "0", "101", ""} {
		reply, done := g.Handle(in)
		assert.False(t, done)
		assert.Contains(t, reply, "1 to 100")
	}
	assert.Zero(t, g.tries, "rejected input must not count as a try")
}

func TestNumberGuess_Quit(t *testing.T) {
	g := NewNumberGuess(rand.New(rand.NewSource(1)))
	reply, done := g.Handle("Q")
	assert.True(t, done)
	assert.Contains(t, reply, "Gave up")
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name string
		hand []card
		want int
	}{
		{"faces", []card{{"K", "S"}, {"Q", "H"}}, 20},
		{"soft ace", []card{{"A", "S"}, {"6", "H"}}, 17},
		{"blackjack", []card{{"A", "S"}, {"K", "H"}}, 21},
		{"hard ace", []card{{"A", "S"}, {"9", "H"}, {"5", "D"}}, 15},
		{"two aces", []card{{"A", "S"}, {"A", "H"}}, 12},
		{"pips", []card{{"2", "S"}, {"7", "H"}, {"10", "D"}}, 19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, handValue(tt.hand))
		})
	}
}

func TestBlackjack_FreshDeal(t *testing.T) {
	g := NewBlackjack(rand.New(rand.NewSource(7)))

	assert.Len(t, g.player, 2)
	assert.Len(t, g.dealer, 2)
	assert.Len(t, g.deck, 48)
	assert.Contains(t, g.Start(), "You:")
}

func TestBlackjack_StandResolvesHand(t *testing.T) {
	g := NewBlackjack(rand.New(rand.NewSource(7)))
	if !g.Started() {
		t.Skip("dealt a natural, nothing to play")
	}

	reply, done := g.Handle("stand")
	require.True(t, done)
	assert.GreaterOrEqual(t, handValue(g.dealer), 17, "dealer must draw to 17")

	outcome := strings.Contains(reply, "win") || strings.Contains(reply, "Push")
	assert.True(t, outcome, "reply must name a result: %q", reply)
}

func TestBlackjack_HitUntilResolution(t *testing.T) {
	g := NewBlackjack(rand.New(rand.NewSource(3)))
	if !g.Started() {
		t.Skip("dealt a natural, nothing to play")
	}

	for i := 0; i < 12; i++ {
		reply, done := g.Handle("hit")
		if done {
			assert.NotEmpty(t, reply)
			return
		}
		assert.LessOrEqual(t, handValue(g.player), 21)
	}
	t.Fatal("hitting every turn must bust or reach 21")
}

func TestBlackjack_QuitAndGarbage(t *testing.T) {
	g := NewBlackjack(rand.New(rand.NewSource(7)))

	reply, done := g.Handle("what")
	assert.False(t, done)
	assert.Contains(t, reply, "HIT")

	reply, done = g.Handle("q")
	assert.True(t, done)
	assert.Contains(t, reply, "Folded")
}
