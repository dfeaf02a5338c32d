package poker

import (
	"math/rand"
)

// Deck is an ordered stack of cards consumed from the front.
type Deck struct {
	cards []Card
}

// NewDeckNoShuffle returns the 52 cards in identifier order.
func NewDeckNoShuffle() *Deck {
	deck := &Deck{cards: make([]Card, 0, MaxCard)}
	for c := MinCard; c <= MaxCard; c++ {
		deck.cards = append(deck.cards, c)
	}
	return deck
}

// NewDeck returns a freshly shuffled deck.
func NewDeck(randGen *rand.Rand) *Deck {
	return NewDeckNoShuffle().Shuffle(randGen)
}

// Shuffle permutes the deck uniformly (Fisher-Yates).
func (deck *Deck) Shuffle(randGen *rand.Rand) *Deck {
	randGen.Shuffle(len(deck.cards), func(i, j int) {
		deck.cards[i], deck.cards[j] = deck.cards[j], deck.cards[i]
	})
	return deck
}

// Draw removes n cards from the front of the deck.
func (deck *Deck) Draw(n int) []Card {
	if n > len(deck.cards) {
		n = len(deck.cards)
	}
	cards := make([]Card, n)
	copy(cards, deck.cards[:n])
	deck.cards = deck.cards[n:]
	return cards
}

func (deck *Deck) Len() int {
	return len(deck.cards)
}

func (deck *Deck) Empty() bool {
	return len(deck.cards) == 0
}

// IDs returns the remaining cards as raw identifiers.
func (deck *Deck) IDs() []int {
	return IDs(deck.cards)
}

func (deck *Deck) PrettyPrint() string {
	return CardsToString(deck.cards)
}
