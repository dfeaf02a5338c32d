// Package history keeps the results of settled hands.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"voyager.com/ofc/model"
)

// SeatResult is one seat's final layout and scores for a hand.
type SeatResult struct {
	Spot       int    `json:"spot"`
	User       string `json:"user"`
	Back       []int  `json:"back"`
	Middle     []int  `json:"middle"`
	Front      []int  `json:"front"`
	GameScore  int    `json:"gameScore"`
	RoundScore int    `json:"roundScore"`
}

// HandRecord is a settled hand.
type HandRecord struct {
	HandID    string       `json:"handId"`
	TableID   string       `json:"tableId"`
	Game      int          `json:"game"`
	SettledAt time.Time    `json:"settledAt"`
	Seats     []SeatResult `json:"seats"`
}

// NewHandRecord captures the settled document of a table.
func NewHandRecord(tableID string, t *model.Table, settledAt time.Time) HandRecord {
	record := HandRecord{
		HandID:    uuid.New().String(),
		TableID:   tableID,
		Game:      t.Game,
		SettledAt: settledAt.UTC(),
		Seats:     make([]SeatResult, 0, len(t.Spots)),
	}
	for i, s := range t.Spots {
		if s == nil {
			continue
		}
		seat := SeatResult{
			Spot:       i,
			User:       s.User,
			GameScore:  s.GameScore,
			RoundScore: s.RoundScore,
		}
		if len(s.Hands) == model.NumHands {
			seat.Back = append([]int(nil), s.Hands[model.HandBack]...)
			seat.Middle = append([]int(nil), s.Hands[model.HandMiddle]...)
			seat.Front = append([]int(nil), s.Hands[model.HandFront]...)
		}
		record.Seats = append(record.Seats, seat)
	}
	return record
}

// Recorder stores settled hands.
type Recorder interface {
	RecordHand(ctx context.Context, record HandRecord) error
}

// Reader returns the hands settled at a table, oldest first.
type Reader interface {
	TableHands(ctx context.Context, tableID string) ([]HandRecord, error)
}

// Store records and reads back hands.
type Store interface {
	Recorder
	Reader
}

// NopRecorder discards every hand.
type NopRecorder struct{}

func (NopRecorder) RecordHand(ctx context.Context, record HandRecord) error {
	return nil
}

func (NopRecorder) TableHands(ctx context.Context, tableID string) ([]HandRecord, error) {
	return nil, nil
}

// MemoryRecorder keeps hands in process memory.
type MemoryRecorder struct {
	lock    sync.RWMutex
	records []HandRecord
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (m *MemoryRecorder) RecordHand(ctx context.Context, record HandRecord) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *MemoryRecorder) TableHands(ctx context.Context, tableID string) ([]HandRecord, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	var hands []HandRecord
	for _, r := range m.records {
		if r.TableID == tableID {
			hands = append(hands, r)
		}
	}
	return hands, nil
}

// Records returns every recorded hand.
func (m *MemoryRecorder) Records() []HandRecord {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return append([]HandRecord(nil), m.records...)
}

// Count returns the number of recorded hands.
func (m *MemoryRecorder) Count() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.records)
}
