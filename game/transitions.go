package game

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"voyager.com/ofc/logging"
	"voyager.com/ofc/model"
	"voyager.com/ofc/ofc"
	"voyager.com/ofc/poker"
	"voyager.com/ofc/util"
)

var transitionLogger = logging.GetZeroLogger("game::transitions", nil)

// Transitions holds the pure document transformations of a table. Every
// method takes a private copy of the current document and returns the
// document to commit, or nil to leave the table untouched. They can run any
// number of times against different versions of the same table.
type Transitions struct {
	settle ofc.SettleFunc
	payout ofc.PayoutTable

	randLock sync.Mutex
	randGen  *rand.Rand
}

// NewTransitions returns the transformations with the given settlement
// function and shuffle source. A nil source is seeded from crypto/rand.
func NewTransitions(settle ofc.SettleFunc, payout ofc.PayoutTable, randGen *rand.Rand) *Transitions {
	if settle == nil {
		settle = ofc.Settle
	}
	if randGen == nil {
		randGen = util.NewRand()
	}
	return &Transitions{
		settle:  settle,
		payout:  payout,
		randGen: randGen,
	}
}

func trace(handler string, spot int) *zerolog.Event {
	ev := transitionLogger.Debug().Str(logging.HandlerKey, handler)
	if spot >= 0 {
		ev = ev.Int(logging.SpotKey, spot)
	}
	return ev
}

func abort(handler string, spot int, reason string) *model.Table {
	trace(handler, spot).Msgf("Aborting: %s", reason)
	return nil
}

func commit(handler string, spot int, t *model.Table) *model.Table {
	trace(handler, spot).Str("state", string(t.State)).Int(logging.HandNumKey, t.Game).Msg("Committing")
	return t
}

// A document that has never been written a state is treated as dead.
func isDead(t *model.Table) bool {
	return t.State == model.StateDead || t.State == ""
}

// SpotUser starts the game once every seat is taken.
func (tr *Transitions) SpotUser(spot int, current *model.Table) *model.Table {
	const handler = "spot_user"
	if current == nil || current.Rules == nil {
		return abort(handler, spot, "table has no rules")
	}
	if !isDead(current) {
		return abort(handler, spot, "table is not dead")
	}
	if occupied := current.OccupiedSpots(); occupied < current.Rules.Spots {
		return abort(handler, spot, "waiting for more players")
	}
	current.State = model.StatePlaying
	return commit(handler, spot, current)
}

// PlayingState shuffles a fresh deck and deals the initial cards to every
// seat. A table that already holds a deck has been dealt.
func (tr *Transitions) PlayingState(current *model.Table) *model.Table {
	const handler = "playing_state"
	if current == nil {
		return abort(handler, -1, "table is gone")
	}
	if current.State != model.StatePlaying {
		return abort(handler, -1, "table is not playing")
	}
	if current.Deck != nil {
		return abort(handler, -1, "hand already dealt")
	}
	if len(current.Spots) == 0 {
		return abort(handler, -1, "table has no spots")
	}

	tr.randLock.Lock()
	deck := poker.NewDeck(tr.randGen)
	var button int
	if current.Button == nil {
		button = tr.randGen.Intn(len(current.Spots))
	} else {
		button = *current.Button + 1
	}
	tr.randLock.Unlock()

	for i, s := range current.Spots {
		if s == nil {
			s = &model.Spot{}
			current.Spots[i] = s
		}
		s.Dealt = poker.IDs(deck.Draw(model.InitialDealCards))
	}
	current.Deck = deck.IDs()
	current.Game++
	current.Button = model.IntPtr(button)
	current.Turn = nil
	return commit(handler, -1, current)
}

// FinishedState puts the deck away. When the table has played one hand per
// seat the session counters are cleared, which tells the caller to schedule
// the reset instead of the next hand.
func (tr *Transitions) FinishedState(current *model.Table) *model.Table {
	const handler = "finished_state"
	if current == nil {
		return abort(handler, -1, "table is gone")
	}
	if current.State != model.StateFinished {
		return abort(handler, -1, "table is not finished")
	}
	if current.Deck == nil {
		return abort(handler, -1, "deck already cleared")
	}
	current.Deck = nil
	if current.Game == len(current.Spots) {
		current.Game = 0
		current.Button = nil
	}
	return commit(handler, -1, current)
}

// SessionOver reports whether a committed finished document ended the
// session of hands.
func SessionOver(t *model.Table) bool {
	return t != nil && t.State == model.StateFinished && t.Game == 0
}

// Turn deals the next single card to the seat on turn.
func (tr *Transitions) Turn(current *model.Table) *model.Table {
	const handler = "turn"
	if current == nil {
		return abort(handler, -1, "table is gone")
	}
	if current.State != model.StatePlaying {
		return abort(handler, -1, "table is not playing")
	}
	if current.Turn == nil {
		return abort(handler, -1, "no seat on turn")
	}
	spot := current.Spot(*current.Turn)
	if spot == nil {
		return abort(handler, *current.Turn, "turn points past the table")
	}
	if spot.Outstanding() {
		return abort(handler, *current.Turn, "spot already holds dealt cards")
	}
	if spot.Complete() {
		return abort(handler, *current.Turn, "spot layout is complete")
	}
	if *current.Turn != expectedTurn(current) {
		return abort(handler, *current.Turn, "turn has not been passed on yet")
	}
	if len(current.Deck) < model.TurnDealCards {
		return abort(handler, *current.Turn, "deck is empty")
	}
	spot.Dealt = append([]int(nil), current.Deck[:model.TurnDealCards]...)
	current.Deck = current.Deck[model.TurnDealCards:]
	return commit(handler, *current.Turn, current)
}

// SpotPendingCommitted checks a proposed placement. A rejected proposal is
// cleared so the player can propose again. An accepted one becomes the
// committed placement and the dealt cards are consumed.
func (tr *Transitions) SpotPendingCommitted(spot int, current *model.Table) *model.Table {
	const handler = "spot_pending_committed"
	s := current.Spot(spot)
	if s == nil {
		return abort(handler, spot, "spot is gone")
	}
	if s.PendingCommitted == nil {
		return abort(handler, spot, "nothing pending")
	}
	if !ValidateSetting(s.Dealt, s.PendingCommitted, s.Hands) {
		s.PendingCommitted = nil
		return commit(handler, spot, current)
	}
	s.Committed = s.PendingCommitted
	s.PendingCommitted = nil
	s.Dealt = nil
	return commit(handler, spot, current)
}

// MoveRejected reports whether a committed SpotPendingCommitted result
// discarded the proposal for spot.
func MoveRejected(spot int, t *model.Table) bool {
	s := t.Spot(spot)
	return s != nil && s.Committed == nil && s.PendingCommitted == nil
}

// SpotCommitted merges every committed placement into the hands, but only
// once no seat is still holding dealt cards it has not committed.
func (tr *Transitions) SpotCommitted(spot int, current *model.Table) *model.Table {
	const handler = "spot_committed"
	if current == nil {
		return abort(handler, spot, "table is gone")
	}
	merging := false
	for i, s := range current.Spots {
		if s == nil {
			continue
		}
		if s.Dealt != nil && s.Committed == nil {
			return abort(handler, spot, fmt.Sprintf("waiting for spot %d to commit", i))
		}
		for _, p := range s.Committed {
			if p.Hand < 0 || p.Hand >= model.NumHands {
				return abort(handler, spot, fmt.Sprintf("spot %d committed to unknown hand %d", i, p.Hand))
			}
		}
		if s.Committed != nil {
			merging = true
		}
	}
	if !merging {
		return abort(handler, spot, "nothing committed")
	}

	for _, s := range current.Spots {
		if s == nil || s.Committed == nil {
			continue
		}
		for len(s.Hands) < model.NumHands {
			s.Hands = append(s.Hands, []int{})
		}
		for _, p := range s.Committed {
			s.Hands[p.Hand] = append(s.Hands[p.Hand], p.Card)
		}
		s.Committed = nil
	}
	return commit(handler, spot, current)
}

// SpotHands settles the hand when every layout is complete, and passes the
// turn otherwise.
func (tr *Transitions) SpotHands(spot int, current *model.Table) *model.Table {
	const handler = "spot_hands"
	if current == nil {
		return abort(handler, spot, "table is gone")
	}
	if current.State != model.StatePlaying {
		return abort(handler, spot, "table is not playing")
	}
	s := current.Spot(spot)
	if s == nil || s.Hands == nil {
		return abort(handler, spot, "spot has no hands")
	}
	// A stray pending_committed is rejected on its own and must not hold
	// the turn back.
	for _, other := range current.Spots {
		if other != nil && (other.Dealt != nil || other.Committed != nil) {
			return abort(handler, spot, "cards are still being placed")
		}
	}

	if current.AllComplete() {
		settleTable(current, tr.settle, tr.payout)
		current.Turn = nil
		current.State = model.StateFinished
		return commit(handler, spot, current)
	}

	next := expectedTurn(current)
	if current.Turn != nil && *current.Turn == next {
		return abort(handler, spot, "turn already passed")
	}
	current.Turn = model.IntPtr(next)
	return commit(handler, spot, current)
}

// expectedTurn derives the seat on turn from the cards placed so far. The
// first single card goes to the seat after the button and every placed
// single card moves the turn one seat on.
func expectedTurn(t *model.Table) int {
	n := len(t.Spots)
	button := 0
	if t.Button != nil {
		button = *t.Button
	}
	placed := 0
	for _, s := range t.Spots {
		placed += s.PlacedCards()
	}
	singles := placed - model.InitialDealCards*n
	if singles < 0 {
		singles = 0
	}
	next := (button + 1 + singles) % n
	if next < 0 {
		next += n
	}
	return next
}

// NextGame clears the finished hand and starts the next one. Round scores
// carry over.
func (tr *Transitions) NextGame(current *model.Table) *model.Table {
	const handler = "next_game"
	if current == nil {
		return abort(handler, -1, "table is gone")
	}
	if current.State != model.StateFinished {
		return abort(handler, -1, "table is not finished")
	}
	for _, s := range current.Spots {
		if s == nil {
			continue
		}
		s.Hands = nil
		s.GameScore = 0
	}
	current.State = model.StatePlaying
	return commit(handler, -1, current)
}

// Reset ends the session and frees every seat.
func (tr *Transitions) Reset(current *model.Table) *model.Table {
	const handler = "reset"
	if current == nil {
		return abort(handler, -1, "table is gone")
	}
	if current.State != model.StateFinished {
		return abort(handler, -1, "table is not finished")
	}
	for _, s := range current.Spots {
		if s == nil {
			continue
		}
		s.Hands = nil
		s.GameScore = 0
		s.RoundScore = 0
		s.User = ""
	}
	current.State = model.StateDead
	return commit(handler, -1, current)
}
