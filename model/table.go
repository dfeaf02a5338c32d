package model

// State is the lifecycle of a single hand at a table.
type State string

const (
	StateDead     State = "dead"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// Hand indexes into Spot.Hands.
const (
	HandBack   = 0
	HandMiddle = 1
	HandFront  = 2
	NumHands   = 3
)

// HandCapacity is the number of cards each hand holds when complete.
var HandCapacity = [NumHands]int{5, 5, 3}

const (
	DeckSize         = 52
	InitialDealCards = 5
	TurnDealCards    = 1
)

// Rules are fixed when the table is created.
type Rules struct {
	Spots int `json:"spots"`
}

// Table is the root document shared by every writer of a table.
type Table struct {
	Rules  *Rules  `json:"rules"`
	State  State   `json:"state"`
	Deck   []int   `json:"deck"`
	Turn   *int    `json:"turn"`
	Button *int    `json:"button"`
	Game   int     `json:"game"`
	Spots  []*Spot `json:"spots"`
}

// Placement puts one card into one hand.
type Placement struct {
	Card int `json:"card"`
	Hand int `json:"hand"`
}

// Spot is one seat at the table.
type Spot struct {
	User             string      `json:"user,omitempty"`
	Dealt            []int       `json:"dealt"`
	PendingCommitted []Placement `json:"pending_committed"`
	Committed        []Placement `json:"committed"`
	Hands            [][]int     `json:"hands"`
	GameScore        int         `json:"game_score"`
	RoundScore       int         `json:"round_score"`
}

// NewTable returns a dead table with empty seats.
func NewTable(spots int) *Table {
	t := &Table{
		Rules: &Rules{Spots: spots},
		State: StateDead,
		Spots: make([]*Spot, spots),
	}
	for i := range t.Spots {
		t.Spots[i] = &Spot{}
	}
	return t
}

// IntPtr is a convenience for the optional integer fields.
func IntPtr(v int) *int {
	return &v
}

// Occupied reports whether a user sits at the spot.
func (s *Spot) Occupied() bool {
	return s != nil && s.User != ""
}

// HandSize returns the number of cards placed in hand h.
func (s *Spot) HandSize(h int) int {
	if s == nil || h < 0 || h >= len(s.Hands) {
		return 0
	}
	return len(s.Hands[h])
}

// PlacedCards returns the number of cards placed across all hands.
func (s *Spot) PlacedCards() int {
	n := 0
	for h := 0; h < NumHands; h++ {
		n += s.HandSize(h)
	}
	return n
}

// Complete reports whether back, middle and front are all full.
func (s *Spot) Complete() bool {
	for h := 0; h < NumHands; h++ {
		if s.HandSize(h) != HandCapacity[h] {
			return false
		}
	}
	return true
}

// Outstanding reports whether the spot holds cards that are not placed yet.
func (s *Spot) Outstanding() bool {
	return s.Dealt != nil || s.PendingCommitted != nil || s.Committed != nil
}

// OccupiedSpots counts seated users.
func (t *Table) OccupiedSpots() int {
	n := 0
	for _, s := range t.Spots {
		if s.Occupied() {
			n++
		}
	}
	return n
}

// Spot returns the spot at index i or nil when out of range.
func (t *Table) Spot(i int) *Spot {
	if t == nil || i < 0 || i >= len(t.Spots) {
		return nil
	}
	return t.Spots[i]
}

// AllComplete reports whether every seat's layout is full.
func (t *Table) AllComplete() bool {
	if len(t.Spots) == 0 {
		return false
	}
	for _, s := range t.Spots {
		if s == nil || !s.Complete() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := *t
	if t.Rules != nil {
		r := *t.Rules
		c.Rules = &r
	}
	c.Deck = cloneInts(t.Deck)
	if t.Turn != nil {
		c.Turn = IntPtr(*t.Turn)
	}
	if t.Button != nil {
		c.Button = IntPtr(*t.Button)
	}
	if t.Spots != nil {
		c.Spots = make([]*Spot, len(t.Spots))
		for i, s := range t.Spots {
			c.Spots[i] = s.Clone()
		}
	}
	return &c
}

// Clone returns a deep copy of the spot.
func (s *Spot) Clone() *Spot {
	if s == nil {
		return nil
	}
	c := *s
	c.Dealt = cloneInts(s.Dealt)
	c.PendingCommitted = clonePlacements(s.PendingCommitted)
	c.Committed = clonePlacements(s.Committed)
	if s.Hands != nil {
		c.Hands = make([][]int, len(s.Hands))
		for i, h := range s.Hands {
			c.Hands[i] = cloneInts(h)
		}
	}
	return &c
}

func cloneInts(v []int) []int {
	if v == nil {
		return nil
	}
	c := make([]int, len(v))
	copy(c, v)
	return c
}

func clonePlacements(v []Placement) []Placement {
	if v == nil {
		return nil
	}
	c := make([]Placement, len(v))
	copy(c, v)
	return c
}
