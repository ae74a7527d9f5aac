package games

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// NumberGuess is the classic higher-or-lower game over 1..100.
type NumberGuess struct {
	target int
	tries  int
}

// NewNumberGuess picks a target from the given source. Tests pass a seeded
// source to make the target predictable.
func NewNumberGuess(rng *rand.Rand) *NumberGuess {
	return &NumberGuess{target: 1 + rng.Intn(100)}
}

func (g *NumberGuess) Name() string { return "Number Guess" }

func (g *NumberGuess) Start() string {
	return "Number Guess: I picked a number from 1 to 100. Send a guess, or Q to quit."
}

func (g *NumberGuess) Handle(input string) (string, bool) {
	in := strings.TrimSpace(input)
	if strings.EqualFold(in, "q") {
		return fmt.Sprintf("Gave up after %d tries. The number was %d.", g.tries, g.target), true
	}

	n, err := strconv.Atoi(in)
	if err != nil || n < 1 || n > 100 {
		return "Send a number from 1 to 100, or Q to quit.", false
	}

	g.tries++
	switch {
	case n < g.target:
		return "Higher.", false
	case n > g.target:
		return "Lower.", false
	default:
		return fmt.Sprintf("Correct! %d in %d tries.", g.target, g.tries), true
	}
}
