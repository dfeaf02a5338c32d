package store

import (
	"sync"
)

// Notifier fans committed documents out to every process watching a table.
type Notifier interface {
	Publish(tableID string, version uint64, doc []byte) error
	Listen(tableID string, fn func(version uint64, doc []byte)) (cancel func(), err error)
}

// LocalNotifier delivers publications inside the current process.
type LocalNotifier struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]func(uint64, []byte)
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{
		listeners: make(map[string]map[uint64]func(uint64, []byte)),
	}
}

func (n *LocalNotifier) Publish(tableID string, version uint64, doc []byte) error {
	n.mu.RLock()
	fns := make([]func(uint64, []byte), 0, len(n.listeners[tableID]))
	for _, fn := range n.listeners[tableID] {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(version, doc)
	}
	return nil
}

func (n *LocalNotifier) Listen(tableID string, fn func(uint64, []byte)) (func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	if n.listeners[tableID] == nil {
		n.listeners[tableID] = make(map[uint64]func(uint64, []byte))
	}
	n.listeners[tableID][id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners[tableID], id)
		if len(n.listeners[tableID]) == 0 {
			delete(n.listeners, tableID)
		}
	}, nil
}
