package uno

import "math/rand"

// NewDeck builds the canonical 108-card deck: per color one 0 and two copies
// each of 1-9, Skip, Reverse and Draw Two, plus four Wild and four
// Wild Draw Four. Order is unspecified; callers shuffle.
func NewDeck() []Card {
	deck := make([]Card, 0, 108)
	for _, c := range Colors {
		deck = append(deck, Card{Color: c, Value: Zero})
		for _, v := range []Value{One, Two, Three, Four, Five, Six, Seven, Eight, Nine, Skip, Reverse, DrawTwo} {
			deck = append(deck, Card{Color: c, Value: v}, Card{Color: c, Value: v})
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, Card{Color: ColorWild, Value: Wild}, Card{Color: ColorWild, Value: WildDrawFour})
	}
	return deck
}

func shuffleCards(cards []Card) {
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// draw removes and returns the top (last) card of the draw deck.
func (g *Game) draw() (Card, error) {
	if len(g.Deck) == 0 {
		return Card{}, ErrEmptyDeck
	}
	c := g.Deck[len(g.Deck)-1]
	g.Deck = g.Deck[:len(g.Deck)-1]
	return c, nil
}

// refillDeck moves everything except the top discard back into the draw deck
// and reshuffles. The discard pile keeps only its top card.
func (g *Game) refillDeck() error {
	if len(g.DiscardPile) <= 1 {
		return ErrNoCardsToRefill
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	g.Deck = append(g.Deck, g.DiscardPile[:len(g.DiscardPile)-1]...)
	g.DiscardPile = []Card{top}
	shuffleCards(g.Deck)
	return nil
}
