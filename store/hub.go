package store

import (
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
)

// hub remembers the last document seen per table and turns new versions into
// per-path change deliveries. Deliveries are queued and run on one goroutine,
// in publish order, so a callback can safely start new transactions.
type hub struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []delivery
	closed bool
	done   chan struct{}

	nextID uint64
	tables map[string]*tableState
}

type tableState struct {
	version uint64
	doc     []byte
	subs    map[uint64]*subscription
}

type delivery struct {
	sub      *subscription
	snapshot Snapshot
}

type subscription struct {
	id      uint64
	tableID string
	path    string
	keys    []interface{}
	fn      ChangeFunc
	active  int32
	onClose func()
	hub     *hub
}

func newHub() *hub {
	h := &hub{
		tables: make(map[string]*tableState),
		done:   make(chan struct{}),
	}
	h.cond = sync.NewCond(&h.mu)
	go h.dispatch()
	return h
}

func (h *hub) table(tableID string) *tableState {
	ts, ok := h.tables[tableID]
	if !ok {
		ts = &tableState{subs: make(map[uint64]*subscription)}
		h.tables[tableID] = ts
	}
	return ts
}

// publish records a new version of a table document. A nil doc means the
// table was deleted. Versions older than the last one seen are dropped.
func (h *hub) publish(tableID string, version uint64, doc []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	ts := h.table(tableID)
	if version <= ts.version {
		return
	}
	prev := ts.doc
	ts.doc = doc
	ts.version = version

	for _, sub := range ts.subs {
		before := valueAt(prev, sub.keys)
		after := valueAt(doc, sub.keys)
		if sameValue(before, after) {
			continue
		}
		h.enqueue(sub, version, after)
	}
}

// known reports the last version published for a table.
func (h *hub) known(tableID string) (uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ts, ok := h.tables[tableID]
	if !ok || ts.version == 0 {
		return 0, false
	}
	return ts.version, true
}

func (h *hub) subscribe(tableID string, path string, fn ChangeFunc, onClose func()) *subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &subscription{
		id:      h.nextID,
		tableID: tableID,
		path:    path,
		keys:    parsePath(path),
		fn:      fn,
		active:  1,
		onClose: onClose,
		hub:     h,
	}
	ts := h.table(tableID)
	ts.subs[sub.id] = sub
	h.enqueue(sub, ts.version, valueAt(ts.doc, sub.keys))
	return sub
}

func (h *hub) enqueue(sub *subscription, version uint64, value jsoniter.Any) {
	h.queue = append(h.queue, delivery{
		sub: sub,
		snapshot: Snapshot{
			TableID: sub.tableID,
			Path:    sub.path,
			Version: version,
			value:   value,
		},
	})
	h.cond.Signal()
}

func (h *hub) dispatch() {
	defer close(h.done)
	for {
		h.mu.Lock()
		for len(h.queue) == 0 && !h.closed {
			h.cond.Wait()
		}
		if h.closed {
			h.mu.Unlock()
			return
		}
		batch := h.queue
		h.queue = nil
		h.mu.Unlock()

		for _, d := range batch {
			if atomic.LoadInt32(&d.sub.active) == 1 {
				d.sub.fn(d.snapshot)
			}
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.cond.Broadcast()
	h.mu.Unlock()
	<-h.done
}

// Unsubscribe stops deliveries. Deliveries already running are not
// interrupted.
func (s *subscription) Unsubscribe() {
	if !atomic.CompareAndSwapInt32(&s.active, 1, 0) {
		return
	}
	h := s.hub
	h.mu.Lock()
	if ts, ok := h.tables[s.tableID]; ok {
		delete(ts.subs, s.id)
	}
	h.mu.Unlock()
	if s.onClose != nil {
		s.onClose()
	}
}
