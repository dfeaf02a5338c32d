package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyager.com/ofc/model"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

// recorder collects snapshots delivered to a subscription.
type recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (r *recorder) on(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snapshots...)
}

func (r *recorder) count() int {
	return len(r.all())
}

func newTestStore(t *testing.T) *MemoryStore {
	s := NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryCreateGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, "t1")
	assert.ErrorIs(t, err, ErrTableNotFound)

	require.NoError(t, s.Create(ctx, "t1", model.NewTable(2)))
	assert.ErrorIs(t, s.Create(ctx, "t1", model.NewTable(2)), ErrTableExists)

	table, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, table.Rules.Spots)
	assert.Equal(t, model.StateDead, table.State)
}

func TestMemoryTransactCommitAndAbort(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "t1", model.NewTable(2)))

	res, err := s.Transact(ctx, "t1", func(current *model.Table) *model.Table {
		current.Spots[0].User = "alice"
		return current
	})
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "alice", res.Table.Spots[0].User)

	res, err = s.Transact(ctx, "t1", func(current *model.Table) *model.Table {
		current.Spots[1].User = "mallory"
		return nil
	})
	require.NoError(t, err)
	assert.False(t, res.Committed)

	table, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "alice", table.Spots[0].User)
	assert.Equal(t, "", table.Spots[1].User)
}

func TestMemoryTransactMissingTable(t *testing.T) {
	s := newTestStore(t)
	var seen *model.Table
	called := false
	res, err := s.Transact(context.Background(), "nope", func(current *model.Table) *model.Table {
		called = true
		seen = current
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Nil(t, seen)
	assert.False(t, res.Committed)
}

func TestMemoryTransactRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "t1", model.NewTable(2)))

	interfered := false
	s.beforeCommit = func(tableID string) {
		if interfered {
			return
		}
		interfered = true
		// a concurrent writer sneaks in between read and commit
		s.mu.Lock()
		defer s.mu.Unlock()
		table, err := model.Decode(s.tables[tableID].doc)
		require.NoError(t, err)
		table.Spots[1].User = "bob"
		encoded, err := model.Encode(table)
		require.NoError(t, err)
		s.commitLocked(tableID, encoded)
	}

	var inputs []string
	res, err := s.Transact(ctx, "t1", func(current *model.Table) *model.Table {
		inputs = append(inputs, current.Spots[1].User)
		current.Spots[0].User = "alice"
		return current
	})
	require.NoError(t, err)
	assert.True(t, res.Committed)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 1, res.Conflicts())
	assert.Equal(t, []string{"", "bob"}, inputs)

	table, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "alice", table.Spots[0].User)
	assert.Equal(t, "bob", table.Spots[1].User)
}

func TestMemoryTransactGivesUp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.SetMaxTxAttempts(3)
	require.NoError(t, s.Create(ctx, "t1", model.NewTable(2)))
	s.beforeCommit = func(tableID string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.commitLocked(tableID, s.tables[tableID].doc)
	}

	res, err := s.Transact(ctx, "t1", func(current *model.Table) *model.Table {
		return current
	})
	assert.ErrorIs(t, err, ErrTooManyConflicts)
	assert.False(t, res.Committed)
	assert.Equal(t, 3, res.Attempts)
}

func TestMemoryConcurrentTransactionsAreAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.SetMaxTxAttempts(1000)
	require.NoError(t, s.Create(ctx, "t1", model.NewTable(2)))

	const writers = 8
	const increments = 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				_, err := s.Transact(ctx, "t1", func(current *model.Table) *model.Table {
					current.Game++
					return current
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	table, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, writers*increments, table.Game)
}

func TestMemorySubscribe(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "t1", model.NewTable(2)))

	user := &recorder{}
	state := &recorder{}
	_, err := s.Subscribe("t1", "spots/0/user", user.on)
	require.NoError(t, err)
	_, err = s.Subscribe("t1", "state", state.on)
	require.NoError(t, err)

	// initial values
	require.Eventually(t, func() bool { return user.count() == 1 && state.count() == 1 }, waitFor, tick)
	assert.False(t, user.all()[0].Exists())
	assert.Equal(t, "dead", state.all()[0].String())

	_, err = s.Transact(ctx, "t1", func(current *model.Table) *model.Table {
		current.Spots[0].User = "alice"
		return current
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return user.count() == 2 }, waitFor, tick)
	assert.Equal(t, "alice", user.all()[1].String())

	// a commit that does not touch the path does not notify it
	_, err = s.Transact(ctx, "t1", func(current *model.Table) *model.Table {
		current.Spots[1].User = "bob"
		return current
	})
	require.NoError(t, err)
	_, err = s.Transact(ctx, "t1", func(current *model.Table) *model.Table {
		current.State = model.StatePlaying
		return current
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return state.count() == 2 }, waitFor, tick)
	assert.Equal(t, "playing", state.all()[1].String())
	assert.Equal(t, 2, user.count())
}

func TestMemorySubscribeNumbersAndLists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "t1", model.NewTable(2)))

	turn := &recorder{}
	pending := &recorder{}
	_, err := s.Subscribe("t1", "turn", turn.on)
	require.NoError(t, err)
	_, err = s.Subscribe("t1", "spots/1/pending_committed", pending.on)
	require.NoError(t, err)

	_, err = s.Transact(ctx, "t1", func(current *model.Table) *model.Table {
		current.Turn = model.IntPtr(1)
		current.Spots[1].PendingCommitted = []model.Placement{{Card: 12, Hand: 0}}
		return current
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return turn.count() == 2 && pending.count() == 2 }, waitFor, tick)
	v, ok := turn.all()[1].Int()
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	var placements []model.Placement
	require.NoError(t, pending.all()[1].Decode(&placements))
	assert.Equal(t, []model.Placement{{Card: 12, Hand: 0}}, placements)

	_, ok = turn.all()[0].Int()
	assert.False(t, ok)
}

func TestMemoryUnsubscribeAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "t1", model.NewTable(2)))

	state := &recorder{}
	rules := &recorder{}
	stateSub, err := s.Subscribe("t1", "state", state.on)
	require.NoError(t, err)
	_, err = s.Subscribe("t1", "rules", rules.on)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return state.count() == 1 && rules.count() == 1 }, waitFor, tick)

	stateSub.Unsubscribe()
	stateSub.Unsubscribe()

	require.NoError(t, s.Delete(ctx, "t1"))
	assert.ErrorIs(t, s.Delete(ctx, "t1"), ErrTableNotFound)

	require.Eventually(t, func() bool { return rules.count() == 2 }, waitFor, tick)
	assert.False(t, rules.all()[1].Exists())
	assert.Equal(t, 1, state.count())
}

func TestParsePath(t *testing.T) {
	assert.Nil(t, parsePath(""))
	assert.Nil(t, parsePath("/"))
	assert.Equal(t, []interface{}{"spots", 3, "hands"}, parsePath("/spots/3/hands"))
	assert.Equal(t, []interface{}{"state"}, parsePath("state"))
}
