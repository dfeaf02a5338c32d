package store

import (
	"context"
	"sync"

	"voyager.com/ofc/model"
)

type memoryEntry struct {
	version uint64
	doc     []byte
}

// MemoryStore keeps encoded table documents in process. Commits are
// compare-and-swap against the version the transaction function read.
type MemoryStore struct {
	mu          sync.RWMutex
	tables      map[string]*memoryEntry
	seq         uint64
	maxAttempts int
	hub         *hub

	// beforeCommit runs between the transaction function and the commit
	// check. Tests use it to inject concurrent writers.
	beforeCommit func(tableID string)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:      make(map[string]*memoryEntry),
		maxAttempts: DefaultMaxTxAttempts,
		hub:         newHub(),
	}
}

// SetMaxTxAttempts overrides DefaultMaxTxAttempts.
func (m *MemoryStore) SetMaxTxAttempts(n int) {
	m.maxAttempts = n
}

func (m *MemoryStore) Create(ctx context.Context, tableID string, doc *model.Table) error {
	encoded, err := model.Encode(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tables[tableID]; exists {
		return ErrTableExists
	}
	m.commitLocked(tableID, encoded)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, tableID string) (*model.Table, error) {
	m.mu.RLock()
	entry, ok := m.tables[tableID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrTableNotFound
	}
	return model.Decode(entry.doc)
}

func (m *MemoryStore) Subscribe(tableID string, path string, fn ChangeFunc) (Subscription, error) {
	return m.hub.subscribe(tableID, path, fn, nil), nil
}

func (m *MemoryStore) Transact(ctx context.Context, tableID string, fn TxFunc) (TxResult, error) {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return TxResult{Attempts: attempt - 1}, err
		}

		m.mu.RLock()
		entry, exists := m.tables[tableID]
		m.mu.RUnlock()

		var current *model.Table
		var readVersion uint64
		if exists {
			readVersion = entry.version
			var err error
			current, err = model.Decode(entry.doc)
			if err != nil {
				return TxResult{Attempts: attempt}, err
			}
		}

		next := fn(current)
		if next == nil {
			return TxResult{Attempts: attempt}, nil
		}
		encoded, err := model.Encode(next)
		if err != nil {
			return TxResult{Attempts: attempt}, err
		}

		if m.beforeCommit != nil {
			m.beforeCommit(tableID)
		}

		m.mu.Lock()
		latest, stillExists := m.tables[tableID]
		if stillExists != exists || (exists && latest.version != readVersion) {
			m.mu.Unlock()
			continue
		}
		version := m.commitLocked(tableID, encoded)
		m.mu.Unlock()

		return TxResult{
			Committed: true,
			Attempts:  attempt,
			Version:   version,
			Table:     next.Clone(),
		}, nil
	}
	return TxResult{Attempts: m.maxAttempts}, ErrTooManyConflicts
}

// commitLocked stores the document and publishes it while m.mu is held so
// subscribers observe versions in commit order.
func (m *MemoryStore) commitLocked(tableID string, encoded []byte) uint64 {
	m.seq++
	m.tables[tableID] = &memoryEntry{version: m.seq, doc: encoded}
	m.hub.publish(tableID, m.seq, encoded)
	return m.seq
}

func (m *MemoryStore) Delete(ctx context.Context, tableID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[tableID]; !ok {
		return ErrTableNotFound
	}
	delete(m.tables, tableID)
	m.seq++
	m.hub.publish(tableID, m.seq, nil)
	return nil
}

func (m *MemoryStore) Close() error {
	m.hub.close()
	return nil
}
