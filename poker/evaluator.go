package poker

import (
	"fmt"
	"sort"
)

// RankClass is the category of a poker hand. Larger is stronger.
type RankClass int32

const (
	HighCard RankClass = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var rankClassToString = map[RankClass]string{
	HighCard:      "High Card",
	Pair:          "Pair",
	TwoPair:       "Two Pair",
	ThreeOfAKind:  "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfAKind:   "Four of a Kind",
	StraightFlush: "Straight Flush",
}

func (r RankClass) String() string {
	return rankClassToString[r]
}

// HandValue orders hands of three or five cards on one scale.
// The class sits in bits 20+, followed by up to five ranks (rank+1) in
// descending significance, four bits each. A three card hand leaves the low
// slots zero so it never beats a five card hand with the same prefix.
type HandValue int32

const rankAce = NumRanks - 1

func (v HandValue) Class() RankClass {
	return RankClass(v >> 20)
}

// TopRank returns the most significant rank of the hand (the pair rank for a
// pair, the high card of a straight, ...).
func (v HandValue) TopRank() int {
	return int((v>>16)&0xF) - 1
}

func (v HandValue) IsRoyal() bool {
	return v.Class() == StraightFlush && v.TopRank() == rankAce
}

func (v HandValue) String() string {
	return fmt.Sprintf("%s (%s high)", v.Class(), string(strRanks[v.TopRank()]))
}

type rankGroup struct {
	rank  int
	count int
}

// Evaluate ranks a three card (front) or five card (back, middle) hand.
// Three card hands only make high card, pair and three of a kind.
func Evaluate(cards []Card) (HandValue, error) {
	if len(cards) != 3 && len(cards) != 5 {
		return 0, fmt.Errorf("Only 3 and 5 card hands are supported, got %d", len(cards))
	}
	var counts [NumRanks]int
	flush := true
	for i, c := range cards {
		if !c.Valid() {
			return 0, fmt.Errorf("Invalid card %d", int(c))
		}
		counts[c.Rank()]++
		if i > 0 && c.Suit() != cards[0].Suit() {
			flush = false
		}
	}

	groups := make([]rankGroup, 0, len(cards))
	for r := rankAce; r >= 0; r-- {
		if counts[r] > 0 {
			groups = append(groups, rankGroup{rank: r, count: counts[r]})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})

	ranks := make([]int, len(groups))
	for i, g := range groups {
		ranks[i] = g.rank
	}

	if len(cards) == 3 {
		flush = false
	}
	straightHigh := -1
	if len(cards) == 5 && len(groups) == 5 {
		if groups[0].rank-groups[4].rank == 4 {
			straightHigh = groups[0].rank
		} else if groups[0].rank == rankAce && groups[1].rank == 3 {
			// wheel: A-2-3-4-5 plays as a five high straight
			straightHigh = 3
		}
	}

	var class RankClass
	switch {
	case straightHigh >= 0 && flush:
		class = StraightFlush
		ranks = []int{straightHigh}
	case groups[0].count == 4:
		class = FourOfAKind
	case groups[0].count == 3 && len(groups) > 1 && groups[1].count == 2:
		class = FullHouse
	case flush:
		class = Flush
	case straightHigh >= 0:
		class = Straight
		ranks = []int{straightHigh}
	case groups[0].count == 3:
		class = ThreeOfAKind
	case groups[0].count == 2 && len(groups) > 1 && groups[1].count == 2:
		class = TwoPair
	case groups[0].count == 2:
		class = Pair
	default:
		class = HighCard
	}

	return makeValue(class, ranks), nil
}

// MustEvaluate is Evaluate for hands already known to be well formed.
func MustEvaluate(cards []Card) HandValue {
	v, err := Evaluate(cards)
	if err != nil {
		panic(err)
	}
	return v
}

func makeValue(class RankClass, ranks []int) HandValue {
	v := int32(class) << 20
	for i, r := range ranks {
		if i == 5 {
			break
		}
		v |= int32(r+1) << uint(16-4*i)
	}
	return HandValue(v)
}

// RankString returns the readable class name of a hand value.
func RankString(v HandValue) string {
	return v.Class().String()
}
