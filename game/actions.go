package game

import (
	"context"

	"github.com/pkg/errors"

	"voyager.com/ofc/model"
	"voyager.com/ofc/store"
)

// Player-side writes. A player only ever touches its own spot: it takes a
// seat by setting user and proposes placements by setting pending_committed.
// Everything else is done by the table's machine in answer to these writes.

var (
	ErrSpotTaken    = errors.New("spot is taken")
	ErrNoSuchSpot   = errors.New("no such spot")
	ErrNotSeated    = errors.New("user is not seated at the spot")
	ErrMovePending  = errors.New("a placement is already pending")
	ErrNothingDealt = errors.New("no cards to place")
)

// SitDown puts user at spot.
func SitDown(ctx context.Context, st store.Store, tableID string, spot int, user string) error {
	var reason error
	res, err := st.Transact(ctx, tableID, func(current *model.Table) *model.Table {
		reason = nil
		if current == nil {
			reason = store.ErrTableNotFound
			return nil
		}
		s := current.Spot(spot)
		if s == nil {
			reason = ErrNoSuchSpot
			return nil
		}
		if s.Occupied() {
			reason = ErrSpotTaken
			return nil
		}
		s.User = user
		return current
	})
	if err != nil {
		return errors.Wrapf(err, "Unable to seat %s at table %s", user, tableID)
	}
	if !res.Committed {
		return reason
	}
	return nil
}

// SubmitPlacements proposes where the spot's dealt cards go.
func SubmitPlacements(ctx context.Context, st store.Store, tableID string, spot int, user string, placements []model.Placement) error {
	var reason error
	res, err := st.Transact(ctx, tableID, func(current *model.Table) *model.Table {
		reason = nil
		if current == nil {
			reason = store.ErrTableNotFound
			return nil
		}
		s := current.Spot(spot)
		if s == nil {
			reason = ErrNoSuchSpot
			return nil
		}
		if s.User != user {
			reason = ErrNotSeated
			return nil
		}
		if s.Dealt == nil {
			reason = ErrNothingDealt
			return nil
		}
		if s.PendingCommitted != nil || s.Committed != nil {
			reason = ErrMovePending
			return nil
		}
		s.PendingCommitted = append([]model.Placement{}, placements...)
		return current
	})
	if err != nil {
		return errors.Wrapf(err, "Unable to submit placements for spot %d at table %s", spot, tableID)
	}
	if !res.Committed {
		return reason
	}
	return nil
}
