package game

import (
	"voyager.com/ofc/model"
	"voyager.com/ofc/ofc"
	"voyager.com/ofc/poker"
)

// spotLayout converts a complete spot into the settlement layout.
func spotLayout(s *model.Spot) ofc.Layout {
	return ofc.Layout{
		Back:  poker.FromIDs(s.Hands[model.HandBack]),
		Mid:   poker.FromIDs(s.Hands[model.HandMiddle]),
		Front: poker.FromIDs(s.Hands[model.HandFront]),
	}
}

// settleTable scores every unordered pair of seats once, with the lower seat
// as the first layout. The hand's game_score starts from zero and the same
// points accumulate into round_score.
func settleTable(t *model.Table, settle ofc.SettleFunc, payout ofc.PayoutTable) {
	layouts := make([]ofc.Layout, len(t.Spots))
	for i, s := range t.Spots {
		s.GameScore = 0
		layouts[i] = spotLayout(s)
	}

	for i := 0; i < len(t.Spots); i++ {
		for j := i + 1; j < len(t.Spots); j++ {
			points := settle(layouts[i], layouts[j], payout)
			t.Spots[i].GameScore += points
			t.Spots[i].RoundScore += points
			t.Spots[j].GameScore -= points
			t.Spots[j].RoundScore -= points
		}
	}
}
