// Package store holds table documents and gives writers optimistic,
// retrying transactions and per-path change notification.
package store

import (
	"context"
	"errors"

	"voyager.com/ofc/model"
)

var (
	ErrTableNotFound    = errors.New("table not found")
	ErrTableExists      = errors.New("table already exists")
	ErrTooManyConflicts = errors.New("transaction gave up after repeated conflicts")
)

// DefaultMaxTxAttempts bounds how often a transaction function is re-run
// against a newer version before Transact gives up.
const DefaultMaxTxAttempts = 25

// TxFunc receives a private copy of the current document (nil when the table
// does not exist) and returns the document to commit, or nil to abort.
// It may be invoked several times for one Transact call and must not depend
// on anything but its argument.
type TxFunc func(current *model.Table) *model.Table

// TxResult describes the outcome of Transact.
type TxResult struct {
	Committed bool
	// Attempts is the number of times the transaction function ran.
	Attempts int
	Version  uint64
	// Table is the committed document when Committed is set.
	Table *model.Table
}

// Conflicts is the number of attempts lost to concurrent writers.
func (r TxResult) Conflicts() int {
	if r.Attempts == 0 {
		return 0
	}
	return r.Attempts - 1
}

// ChangeFunc is called with the new value at a subscribed path.
type ChangeFunc func(snapshot Snapshot)

// Subscription is a handle returned by Subscribe.
type Subscription interface {
	Unsubscribe()
}

// Store is the shared state store consumed by the table state machines.
type Store interface {
	Create(ctx context.Context, tableID string, doc *model.Table) error
	Get(ctx context.Context, tableID string) (*model.Table, error)
	// Subscribe calls fn once with the current value at path and again after
	// every commit that changes it. Callbacks run on the store's delivery
	// goroutine; they must return quickly and must not block on Transact.
	Subscribe(tableID string, path string, fn ChangeFunc) (Subscription, error)
	Transact(ctx context.Context, tableID string, fn TxFunc) (TxResult, error)
	Delete(ctx context.Context, tableID string) error
	Close() error
}
