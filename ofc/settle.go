// Package ofc scores two completed Open-Face Chinese layouts against each
// other.
package ofc

import (
	"voyager.com/ofc/poker"
)

// Layout is one player's three hands.
type Layout struct {
	Back  []poker.Card
	Mid   []poker.Card
	Front []poker.Card
}

// PayoutTable fixes the point values used by Settle.
//
// Back and Mid list royalties for straight, flush, full house, four of a kind,
// straight flush and royal flush, in that order. Front enables the front
// royalties (66 through AA pay 1..9, trips 222 through AAA pay 10..22). Scoop
// is the bonus for winning all three hands.
type PayoutTable struct {
	Back  []int
	Mid   []int
	Front bool
	Scoop int
}

// DefaultPayout is the payout table every table settles with.
var DefaultPayout = PayoutTable{
	Back:  []int{2, 4, 6, 10, 15, 30},
	Mid:   []int{2 * 2, 4 * 2, 6 * 2, 10 * 2, 15 * 2, 30 * 2},
	Front: true,
	Scoop: 3,
}

// SettleFunc compares layout a against layout b and returns the points a
// wins from b (negative when a loses).
type SettleFunc func(a, b Layout, payout PayoutTable) int

const (
	tierBack = iota
	tierMid
	tierFront
	numTiers
)

const minFrontRoyaltyPair = 4 // sixes

type evaluated struct {
	values [numTiers]poker.HandValue
	fouled bool
}

func evaluate(l Layout) evaluated {
	var e evaluated
	e.values[tierBack] = poker.MustEvaluate(l.Back)
	e.values[tierMid] = poker.MustEvaluate(l.Mid)
	e.values[tierFront] = poker.MustEvaluate(l.Front)
	e.fouled = e.values[tierBack] < e.values[tierMid] || e.values[tierMid] < e.values[tierFront]
	return e
}

// Fouled reports whether the layout is set out of order (back weaker than
// middle or middle weaker than front).
func Fouled(l Layout) bool {
	return evaluate(l).fouled
}

// Royalties returns the bonus points a layout earns on its own. Fouled
// layouts earn nothing.
func Royalties(l Layout, payout PayoutTable) int {
	e := evaluate(l)
	if e.fouled {
		return 0
	}
	return royalties(e, payout)
}

func royalties(e evaluated, payout PayoutTable) int {
	total := fiveCardRoyalty(e.values[tierBack], payout.Back) +
		fiveCardRoyalty(e.values[tierMid], payout.Mid)
	if payout.Front {
		total += frontRoyalty(e.values[tierFront])
	}
	return total
}

func fiveCardRoyalty(v poker.HandValue, table []int) int {
	idx := -1
	switch v.Class() {
	case poker.Straight:
		idx = 0
	case poker.Flush:
		idx = 1
	case poker.FullHouse:
		idx = 2
	case poker.FourOfAKind:
		idx = 3
	case poker.StraightFlush:
		idx = 4
		if v.IsRoyal() {
			idx = 5
		}
	}
	if idx < 0 || idx >= len(table) {
		return 0
	}
	return table[idx]
}

func frontRoyalty(v poker.HandValue) int {
	switch v.Class() {
	case poker.ThreeOfAKind:
		return 10 + v.TopRank()
	case poker.Pair:
		if v.TopRank() >= minFrontRoyaltyPair {
			return v.TopRank() - minFrontRoyaltyPair + 1
		}
	}
	return 0
}

// Settle scores layout a against layout b. The result is antisymmetric:
// Settle(a, b) == -Settle(b, a).
func Settle(a, b Layout, payout PayoutTable) int {
	ea := evaluate(a)
	eb := evaluate(b)

	switch {
	case ea.fouled && eb.fouled:
		return 0
	case ea.fouled:
		return -(numTiers + payout.Scoop + royalties(eb, payout))
	case eb.fouled:
		return numTiers + payout.Scoop + royalties(ea, payout)
	}

	wins := 0
	for tier := 0; tier < numTiers; tier++ {
		switch {
		case ea.values[tier] > eb.values[tier]:
			wins++
		case ea.values[tier] < eb.values[tier]:
			wins--
		}
	}

	score := wins
	if wins == numTiers {
		score += payout.Scoop
	} else if wins == -numTiers {
		score -= payout.Scoop
	}
	return score + royalties(ea, payout) - royalties(eb, payout)
}
