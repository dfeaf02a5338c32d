package game

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyager.com/ofc/model"
	"voyager.com/ofc/store"
)

func TestManagerCreateTable(t *testing.T) {
	f := newFixture(t)
	tableID, err := f.manager.CreateTable(f.ctx, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, tableID)

	table, err := f.manager.Get(f.ctx, tableID)
	require.NoError(t, err)
	assert.Equal(t, model.StateDead, table.State)
	assert.Equal(t, 3, table.Rules.Spots)
	assert.Len(t, table.Spots, 3)

	_, ok := f.manager.Machine(tableID)
	assert.True(t, ok)
}

func TestManagerRejectsSmallTables(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.CreateTable(f.ctx, 1)
	assert.Equal(t, ErrInvalidRules, err)
}

func TestManagerAttach(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Create(f.ctx, "existing", model.NewTable(2)))

	m1, err := f.manager.Attach(f.ctx, "existing")
	require.NoError(t, err)
	m2, err := f.manager.Attach(f.ctx, "existing")
	require.NoError(t, err)
	assert.Same(t, m1, m2)

	_, err = f.manager.Attach(f.ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrTableNotFound))
}

func TestManagerDeleteTable(t *testing.T) {
	f := newFixture(t)
	tableID, err := f.manager.CreateTable(f.ctx, 2)
	require.NoError(t, err)

	require.NoError(t, f.manager.DeleteTable(f.ctx, tableID))
	_, ok := f.manager.Machine(tableID)
	assert.False(t, ok)
	_, err = f.manager.Get(f.ctx, tableID)
	assert.True(t, errors.Is(err, store.ErrTableNotFound))

	err = f.manager.DeleteTable(f.ctx, tableID)
	assert.True(t, errors.Is(err, store.ErrTableNotFound))
}

func TestSitDown(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Create(f.ctx, "t", model.NewTable(2)))

	require.NoError(t, SitDown(f.ctx, f.store, "t", 0, "alice"))
	assert.Equal(t, ErrSpotTaken, SitDown(f.ctx, f.store, "t", 0, "bob"))
	assert.Equal(t, ErrNoSuchSpot, SitDown(f.ctx, f.store, "t", 2, "bob"))
	assert.Equal(t, store.ErrTableNotFound, SitDown(f.ctx, f.store, "missing", 0, "bob"))

	table := f.table(t, "t")
	assert.Equal(t, "alice", table.Spots[0].User)
}

func TestSubmitPlacements(t *testing.T) {
	f := newFixture(t)
	table := seatedTable("alice", "bob")
	table.State = model.StatePlaying
	table.Spots[0].Dealt = []int{12, 28}
	require.NoError(t, f.store.Create(f.ctx, "t", table))

	placements := []model.Placement{{Card: 12, Hand: 0}, {Card: 28, Hand: 1}}
	assert.Equal(t, ErrNotSeated, SubmitPlacements(f.ctx, f.store, "t", 0, "bob", placements))
	assert.Equal(t, ErrNothingDealt, SubmitPlacements(f.ctx, f.store, "t", 1, "bob", placements))
	require.NoError(t, SubmitPlacements(f.ctx, f.store, "t", 0, "alice", placements))
	assert.Equal(t, ErrMovePending, SubmitPlacements(f.ctx, f.store, "t", 0, "alice", placements))

	assert.Equal(t, placements, f.table(t, "t").Spots[0].PendingCommitted)
}
