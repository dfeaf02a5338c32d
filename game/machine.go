package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"voyager.com/ofc/history"
	"voyager.com/ofc/logging"
	"voyager.com/ofc/model"
	"voyager.com/ofc/ofc"
	"voyager.com/ofc/store"
	"voyager.com/ofc/util"
)

var machineLogger = logging.GetZeroLogger("game::machine", nil)

const (
	txTimeout      = 10 * time.Second
	recordTimeout  = 5 * time.Second
	taskQueueDepth = 256
)

// MachineConfig carries the collaborators of a table state machine. Zero
// values select the production defaults.
type MachineConfig struct {
	Settle   ofc.SettleFunc
	Payout   *ofc.PayoutTable
	Rand     *rand.Rand
	Clock    quartz.Clock
	Delays   *Delays
	Recorder history.Recorder
}

func (c MachineConfig) withDefaults() MachineConfig {
	if c.Settle == nil {
		c.Settle = ofc.Settle
	}
	if c.Payout == nil {
		payout := ofc.DefaultPayout
		c.Payout = &payout
	}
	if c.Clock == nil {
		c.Clock = quartz.NewReal()
	}
	if c.Delays == nil {
		delays := DefaultDelays()
		c.Delays = &delays
	}
	if c.Recorder == nil {
		c.Recorder = history.NopRecorder{}
	}
	return c
}

type task struct {
	handler string
	spot    int
	fn      store.TxFunc
	after   func(res store.TxResult)
	aborted func()
}

// Machine drives one table. It watches the table document and answers every
// relevant change with one transaction. Transactions run one at a time on
// the machine's worker, never inside the store's notification callback.
type Machine struct {
	tableID  string
	store    store.Store
	tr       *Transitions
	timers   *TimerScheduler
	recorder history.Recorder
	logger   zerolog.Logger

	tasks chan task
	quit  chan struct{}
	done  chan struct{}

	lock    sync.Mutex
	rules   *model.Rules
	subs    []store.Subscription
	started bool
	stopped bool
}

func NewMachine(tableID string, st store.Store, config MachineConfig) *Machine {
	config = config.withDefaults()
	return &Machine{
		tableID:  tableID,
		store:    st,
		tr:       NewTransitions(config.Settle, *config.Payout, config.Rand),
		timers:   NewTimerScheduler(tableID, config.Clock, *config.Delays),
		recorder: config.Recorder,
		logger:   logging.TableLogger(machineLogger, tableID),
		tasks:    make(chan task, taskQueueDepth),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (m *Machine) TableID() string {
	return m.tableID
}

// Rules returns the rules recorded from the document, or nil before the
// machine has seen them.
func (m *Machine) Rules() *model.Rules {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.rules
}

// TimerPending reports whether a next-game or reset timer is waiting.
func (m *Machine) TimerPending(purpose string) bool {
	return m.timers.Pending(purpose)
}

// Start begins watching the table. The subscriptions for seats and table
// state are set up once the document carries its rules.
func (m *Machine) Start() error {
	m.lock.Lock()
	if m.stopped {
		m.lock.Unlock()
		return fmt.Errorf("machine for table %s is stopped", m.tableID)
	}
	if m.started {
		m.lock.Unlock()
		return nil
	}
	m.started = true
	m.lock.Unlock()

	go m.run()

	sub, err := m.store.Subscribe(m.tableID, "rules", m.onRules)
	if err != nil {
		m.Stop()
		return err
	}
	m.addSubscription(sub)
	m.logger.Info().Msg("Table state machine started")
	return nil
}

// Stop drops every subscription, cancels pending timers and waits for the
// worker to finish the transaction in flight.
func (m *Machine) Stop() {
	m.lock.Lock()
	if m.stopped {
		m.lock.Unlock()
		return
	}
	m.stopped = true
	subs := m.subs
	m.subs = nil
	started := m.started
	m.lock.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	m.timers.Stop()
	close(m.quit)
	if started {
		<-m.done
	}
	m.logger.Info().Msg("Table state machine stopped")
}

func (m *Machine) addSubscription(sub store.Subscription) {
	m.lock.Lock()
	if m.stopped {
		m.lock.Unlock()
		sub.Unsubscribe()
		return
	}
	m.subs = append(m.subs, sub)
	m.lock.Unlock()
}

func (m *Machine) onRules(snapshot store.Snapshot) {
	if !snapshot.Exists() {
		m.logger.Debug().Msg("Table has no rules yet")
		return
	}
	var rules model.Rules
	if err := snapshot.Decode(&rules); err != nil {
		m.logger.Error().Err(err).Msg("Unable to decode table rules")
		return
	}

	m.lock.Lock()
	if m.stopped || m.rules != nil {
		m.lock.Unlock()
		return
	}
	m.rules = &rules
	m.lock.Unlock()

	m.logger.Debug().Int("spots", rules.Spots).Msg("Subscribing to table")
	for i := 0; i < rules.Spots; i++ {
		m.watchSpot(i)
	}
	m.watch("state", m.onState)
	m.watch("turn", m.onTurn)
}

func (m *Machine) watch(path string, fn store.ChangeFunc) {
	sub, err := m.store.Subscribe(m.tableID, path, fn)
	if err != nil {
		m.logger.Error().Err(err).Str("path", path).Msg("Unable to subscribe")
		return
	}
	m.addSubscription(sub)
}

func (m *Machine) watchSpot(spot int) {
	path := func(field string) string {
		return fmt.Sprintf("spots/%d/%s", spot, field)
	}

	m.watch(path("user"), func(snapshot store.Snapshot) {
		if !snapshot.Exists() {
			return
		}
		m.schedule(task{
			handler: "spot_user",
			spot:    spot,
			fn:      func(current *model.Table) *model.Table { return m.tr.SpotUser(spot, current) },
		})
	})
	m.watch(path("pending_committed"), func(snapshot store.Snapshot) {
		if !snapshot.Exists() {
			return
		}
		m.schedule(task{
			handler: "spot_pending_committed",
			spot:    spot,
			fn:      func(current *model.Table) *model.Table { return m.tr.SpotPendingCommitted(spot, current) },
			after:   func(res store.TxResult) { m.afterPending(spot, res) },
		})
	})
	m.watch(path("committed"), func(snapshot store.Snapshot) {
		if !snapshot.Exists() {
			return
		}
		m.schedule(task{
			handler: "spot_committed",
			spot:    spot,
			fn:      func(current *model.Table) *model.Table { return m.tr.SpotCommitted(spot, current) },
		})
	})
	m.watch(path("hands"), func(snapshot store.Snapshot) {
		if !snapshot.Exists() {
			return
		}
		m.schedule(task{
			handler: "spot_hands",
			spot:    spot,
			fn:      func(current *model.Table) *model.Table { return m.tr.SpotHands(spot, current) },
			after:   m.afterHands,
		})
	})
}

func (m *Machine) onState(snapshot store.Snapshot) {
	switch model.State(snapshot.String()) {
	case model.StatePlaying:
		m.schedule(task{
			handler: "playing_state",
			spot:    -1,
			fn:      m.tr.PlayingState,
		})
	case model.StateFinished:
		m.schedule(task{
			handler: "finished_state",
			spot:    -1,
			fn:      m.tr.FinishedState,
			after:   func(res store.TxResult) { m.startTimers(res.Table) },
			aborted: m.resumeFinished,
		})
	}
}

func (m *Machine) onTurn(snapshot store.Snapshot) {
	if _, ok := snapshot.Int(); !ok {
		return
	}
	m.schedule(task{
		handler: "turn",
		spot:    -1,
		fn:      m.tr.Turn,
	})
}

// schedule queues a transaction for the worker. It only blocks while the
// queue is full.
func (m *Machine) schedule(t task) {
	select {
	case m.tasks <- t:
	case <-m.quit:
	}
}

func (m *Machine) run() {
	defer close(m.done)
	for {
		select {
		case <-m.quit:
			return
		case t := <-m.tasks:
			m.execute(t)
		}
	}
}

func (m *Machine) execute(t task) {
	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	res, err := m.store.Transact(ctx, m.tableID, t.fn)
	for i := 0; i < res.Conflicts(); i++ {
		util.Metrics.TxConflict(t.handler)
	}
	if err != nil {
		m.logger.Error().
			Err(err).
			Str(logging.HandlerKey, t.handler).
			Int("attempts", res.Attempts).
			Msg("Transaction failed")
		return
	}
	if !res.Committed {
		util.Metrics.TxAborted(t.handler)
		if t.aborted != nil {
			t.aborted()
		}
		return
	}
	util.Metrics.TxCommitted(t.handler)
	m.logger.Debug().
		Str(logging.HandlerKey, t.handler).
		Uint64("version", res.Version).
		Int("attempts", res.Attempts).
		Msg("Transaction committed")
	if t.after != nil {
		t.after(res)
	}
}

func (m *Machine) afterPending(spot int, res store.TxResult) {
	if MoveRejected(spot, res.Table) {
		util.Metrics.MoveRejected()
		m.logger.Info().Int(logging.SpotKey, spot).Msg("Rejected placement")
	}
}

func (m *Machine) afterHands(res store.TxResult) {
	if res.Table.State != model.StateFinished {
		return
	}
	util.Metrics.HandSettled()
	record := history.NewHandRecord(m.tableID, res.Table, time.Now())
	ev := m.logger.Info().Int(logging.HandNumKey, record.Game)
	for _, seat := range record.Seats {
		ev = ev.Int(fmt.Sprintf("spot%d", seat.Spot), seat.GameScore)
	}
	ev.Msg("Hand settled")

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := m.recorder.RecordHand(ctx, record); err != nil {
		m.logger.Error().Err(err).Int(logging.HandNumKey, record.Game).Msg("Unable to record hand")
	}
}

func (m *Machine) startTimers(t *model.Table) {
	if SessionOver(t) {
		m.timers.StartReset(func() {
			m.schedule(task{handler: "reset", spot: -1, fn: m.tr.Reset})
		})
		return
	}
	m.timers.StartNextGame(func() {
		m.schedule(task{handler: "next_game", spot: -1, fn: m.tr.NextGame})
	})
}

// resumeFinished restarts the timer of a finished table whose deck was
// already cleared, as happens when a machine attaches to an existing table.
func (m *Machine) resumeFinished() {
	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()
	current, err := m.store.Get(ctx, m.tableID)
	if err != nil {
		m.logger.Debug().Err(err).Msg("Unable to load finished table")
		return
	}
	if current == nil || current.State != model.StateFinished || current.Deck != nil {
		return
	}
	m.startTimers(current)
}
