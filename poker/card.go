package poker

import (
	"fmt"
	"strings"
)

// Card is a card identifier in the range 1..52.
// Rank is (id-1) mod 13 with 0 = deuce and 12 = ace; suit is (id-1) div 13.
type Card int

const (
	NumRanks = 13
	NumSuits = 4
	MinCard  = Card(1)
	MaxCard  = Card(NumRanks * NumSuits)
)

var (
	strRanks = "23456789TJQKA"
	strSuits = "shdc"
)

var prettySuits = [NumSuits]string{
	"♠", // spades
	"❤", // hearts
	"♦", // diamonds
	"♣", // clubs
}

// NewCard parses the two character form, e.g. "Ah" or "Tc".
func NewCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("Invalid card [%s]", s)
	}
	rank := strings.IndexByte(strRanks, s[0])
	suit := strings.IndexByte(strSuits, s[1])
	if rank < 0 || suit < 0 {
		return 0, fmt.Errorf("Invalid card [%s]", s)
	}
	return Card(suit*NumRanks + rank + 1), nil
}

// MustCards parses a space separated list of cards and panics on error.
func MustCards(s string) []Card {
	fields := strings.Fields(s)
	cards := make([]Card, len(fields))
	for i, f := range fields {
		c, err := NewCard(f)
		if err != nil {
			panic(err)
		}
		cards[i] = c
	}
	return cards
}

// FromIDs converts raw card identifiers.
func FromIDs(ids []int) []Card {
	cards := make([]Card, len(ids))
	for i, id := range ids {
		cards[i] = Card(id)
	}
	return cards
}

// IDs converts cards to raw identifiers.
func IDs(cards []Card) []int {
	ids := make([]int, len(cards))
	for i, c := range cards {
		ids[i] = int(c)
	}
	return ids
}

func (c Card) Valid() bool {
	return c >= MinCard && c <= MaxCard
}

func (c Card) Rank() int {
	return (int(c) - 1) % NumRanks
}

func (c Card) Suit() int {
	return (int(c) - 1) / NumRanks
}

func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string(strRanks[c.Rank()]) + string(strSuits[c.Suit()])
}

// Pretty renders the card with a suit symbol.
func (c Card) Pretty() string {
	if !c.Valid() {
		return "??"
	}
	return string(strRanks[c.Rank()]) + prettySuits[c.Suit()]
}

func CardsToString(cards []Card) string {
	var b strings.Builder
	b.Grow(32)
	fmt.Fprintf(&b, "[")
	for _, c := range cards {
		fmt.Fprintf(&b, " %s ", c.Pretty())
	}
	fmt.Fprintf(&b, "]")
	return b.String()
}
