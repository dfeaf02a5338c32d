package game

import (
	"sort"

	"voyager.com/ofc/logging"
	"voyager.com/ofc/model"
)

var validateLogger = logging.GetZeroLogger("game::validate", nil)

// ValidateSetting reports whether committed places exactly the dealt cards
// and leaves every hand within its capacity once merged into hands.
func ValidateSetting(dealt []int, committed []model.Placement, hands [][]int) bool {
	if len(dealt) != len(committed) {
		validateLogger.Debug().
			Int("dealt", len(dealt)).
			Int("committed", len(committed)).
			Msg("Rejecting setting: card count does not match")
		return false
	}

	want := append([]int(nil), dealt...)
	got := make([]int, len(committed))
	for i, p := range committed {
		got[i] = p.Card
	}
	sort.Ints(want)
	sort.Ints(got)
	for i := range want {
		if want[i] != got[i] {
			validateLogger.Debug().
				Ints("dealt", dealt).
				Ints("committed", got).
				Msg("Rejecting setting: committed cards are not the dealt cards")
			return false
		}
	}

	var counts [model.NumHands]int
	for h := 0; h < model.NumHands && h < len(hands); h++ {
		counts[h] = len(hands[h])
	}
	for _, p := range committed {
		if p.Hand < 0 || p.Hand >= model.NumHands {
			validateLogger.Debug().Int("hand", p.Hand).Msg("Rejecting setting: unknown hand")
			return false
		}
		counts[p.Hand]++
	}

	names := [model.NumHands]string{"back", "middle", "front"}
	for _, h := range []int{model.HandBack, model.HandMiddle, model.HandFront} {
		if counts[h] > model.HandCapacity[h] {
			validateLogger.Debug().
				Int("cards", counts[h]).
				Int("capacity", model.HandCapacity[h]).
				Msgf("Rejecting setting: %s hand overflows", names[h])
			return false
		}
	}
	return true
}
