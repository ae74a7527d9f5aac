package games

import (
	"fmt"
	"math/rand"
	"strings"
)

var suits = []string{"S", "H", "D", "C"}
var ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

type card struct {
	rank string
	suit string
}

func (c card) String() string { return c.rank + c.suit }

// value returns the card's blackjack value with aces counted as 1; hand
// scoring promotes one ace to 11 when that does not bust.
func (c card) value() int {
	switch c.rank {
	case "A":
		return 1
	case "J", "Q", "K":
		return 10
	default:
		for i, r := range ranks {
			if r == c.rank {
				return i + 1
			}
		}
		return 0
	}
}

func handValue(hand []card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		total += c.value()
		if c.rank == "A" {
			aces++
		}
	}
	if aces > 0 && total+10 <= 21 {
		total += 10
	}
	return total
}

func handString(hand []card) string {
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Blackjack plays a single hand against the house. Dealer stands on 17.
type Blackjack struct {
	deck   []card
	player []card
	dealer []card
}

// NewBlackjack shuffles a fresh deck from the given source and deals the
// opening hands.
func NewBlackjack(rng *rand.Rand) *Blackjack {
	deck := make([]card, 0, 52)
	for _, s := range suits {
		for _, r := range ranks {
			deck = append(deck, card{rank: r, suit: s})
		}
	}
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	g := &Blackjack{deck: deck}
	g.player = append(g.player, g.draw(), g.draw())
	g.dealer = append(g.dealer, g.draw(), g.draw())
	return g
}

func (g *Blackjack) Name() string { return "Blackjack" }

func (g *Blackjack) draw() card {
	c := g.deck[0]
	g.deck = g.deck[1:]
	return c
}

func (g *Blackjack) table(showDealer bool) string {
	dealer := g.dealer[0].String() + " ??"
	if showDealer {
		dealer = fmt.Sprintf("%s (%d)", handString(g.dealer), handValue(g.dealer))
	}
	return fmt.Sprintf("You: %s (%d) | Dealer: %s", handString(g.player), handValue(g.player), dealer)
}

func (g *Blackjack) Start() string {
	greeting := "Blackjack. " + g.table(false) + ". Send HIT, STAND, or Q to quit."
	if handValue(g.player) == 21 {
		return "Blackjack! " + g.table(true) + ". You win!"
	}
	return greeting
}

// Started reports whether the opening deal already ended the hand.
func (g *Blackjack) Started() bool { return handValue(g.player) != 21 }

func (g *Blackjack) Handle(input string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "q", "quit":
		return "Folded. " + g.table(true), true
	case "hit", "h":
		g.player = append(g.player, g.draw())
		if handValue(g.player) > 21 {
			return "Bust! " + g.table(true) + ". Dealer wins.", true
		}
		if handValue(g.player) == 21 {
			return g.stand()
		}
		return g.table(false) + ". HIT or STAND?", false
	case "stand", "s":
		return g.stand()
	default:
		return "Send HIT, STAND, or Q to quit.", false
	}
}

func (g *Blackjack) stand() (string, bool) {
	for handValue(g.dealer) < 17 {
		g.dealer = append(g.dealer, g.draw())
	}

	p, d := handValue(g.player), handValue(g.dealer)
	switch {
	case d > 21:
		return "Dealer busts! " + g.table(true) + ". You win!", true
	case p > d:
		return g.table(true) + ". You win!", true
	case p < d:
		return g.table(true) + ". Dealer wins.", true
	default:
		return g.table(true) + ". Push.", true
	}
}
