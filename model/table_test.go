package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	table := NewTable(3)
	assert.Equal(t, StateDead, table.State)
	assert.Equal(t, 3, table.Rules.Spots)
	require.Len(t, table.Spots, 3)
	assert.Equal(t, 0, table.OccupiedSpots())
	assert.False(t, table.AllComplete())
}

func TestCloneIsDeep(t *testing.T) {
	table := NewTable(2)
	table.Deck = []int{1, 2, 3}
	table.Turn = IntPtr(1)
	table.Spots[0].User = "a"
	table.Spots[0].Dealt = []int{4}
	table.Spots[0].Hands = [][]int{{5}, {}, {}}
	table.Spots[1].PendingCommitted = []Placement{{Card: 6, Hand: HandFront}}

	c := table.Clone()
	if diff := cmp.Diff(table, c); diff != "" {
		t.Fatalf("clone differs: %s", diff)
	}

	c.Deck[0] = 52
	*c.Turn = 0
	c.Rules.Spots = 9
	c.Spots[0].Dealt[0] = 7
	c.Spots[0].Hands[0][0] = 8
	c.Spots[1].PendingCommitted[0].Card = 9

	assert.Equal(t, 1, table.Deck[0])
	assert.Equal(t, 1, *table.Turn)
	assert.Equal(t, 2, table.Rules.Spots)
	assert.Equal(t, 4, table.Spots[0].Dealt[0])
	assert.Equal(t, 5, table.Spots[0].Hands[0][0])
	assert.Equal(t, 6, table.Spots[1].PendingCommitted[0].Card)
}

func TestSpotCompletion(t *testing.T) {
	s := &Spot{Hands: [][]int{{1, 2, 3, 4, 5}, {6, 7, 8, 9, 10}, {11, 12}}}
	assert.False(t, s.Complete())
	assert.Equal(t, 12, s.PlacedCards())

	s.Hands[HandFront] = append(s.Hands[HandFront], 13)
	assert.True(t, s.Complete())
	assert.Equal(t, 0, (&Spot{}).HandSize(HandBack))
}

func TestEncodeDecode(t *testing.T) {
	table := NewTable(2)
	table.Spots[1].User = "bob"
	table.Spots[1].Committed = []Placement{}

	data, err := Encode(table)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"dead"`)
	assert.Contains(t, string(data), `"deck":null`)
	assert.Contains(t, string(data), `"committed":[]`)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "bob", decoded.Spots[1].User)
	assert.NotNil(t, decoded.Spots[1].Committed)
	assert.Nil(t, decoded.Spots[0].Committed)

	empty, err := Decode([]byte("null"))
	require.NoError(t, err)
	assert.Nil(t, empty)
}
