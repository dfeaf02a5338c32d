package game

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"voyager.com/ofc/logging"
	"voyager.com/ofc/model"
	"voyager.com/ofc/store"
	"voyager.com/ofc/util"
)

var managerLogger = logging.GetZeroLogger("game::manager", nil)

const MinSpots = 2

var ErrInvalidRules = errors.New("a table needs at least two spots")

// Manager owns the state machines of the tables served by this process.
type Manager struct {
	store  store.Store
	config MachineConfig

	lock         sync.Mutex
	activeTables map[string]*Machine
}

func NewManager(st store.Store, config MachineConfig) *Manager {
	return &Manager{
		store:        st,
		config:       config,
		activeTables: make(map[string]*Machine),
	}
}

// CreateTable writes a new dead table and starts its machine.
func (gm *Manager) CreateTable(ctx context.Context, spots int) (string, error) {
	if spots < MinSpots {
		return "", ErrInvalidRules
	}
	tableID := uuid.New().String()
	if err := gm.store.Create(ctx, tableID, model.NewTable(spots)); err != nil {
		return "", errors.Wrapf(err, "Unable to create table %s", tableID)
	}
	if _, err := gm.Attach(ctx, tableID); err != nil {
		return "", err
	}
	managerLogger.Info().Str(logging.TableIDKey, tableID).Int("spots", spots).Msg("Created table")
	return tableID, nil
}

// Attach starts a machine for an existing table. Attaching a table that
// already has a machine returns that machine.
func (gm *Manager) Attach(ctx context.Context, tableID string) (*Machine, error) {
	gm.lock.Lock()
	defer gm.lock.Unlock()
	if m, ok := gm.activeTables[tableID]; ok {
		return m, nil
	}
	if _, err := gm.store.Get(ctx, tableID); err != nil {
		return nil, errors.Wrapf(err, "Unable to load table %s", tableID)
	}

	m := NewMachine(tableID, gm.store, gm.config)
	if err := m.Start(); err != nil {
		return nil, errors.Wrapf(err, "Unable to start machine for table %s", tableID)
	}
	gm.activeTables[tableID] = m
	util.Metrics.SetActiveTables(len(gm.activeTables))
	return m, nil
}

// Machine returns the running machine of a table.
func (gm *Manager) Machine(tableID string) (*Machine, bool) {
	gm.lock.Lock()
	defer gm.lock.Unlock()
	m, ok := gm.activeTables[tableID]
	return m, ok
}

func (gm *Manager) Get(ctx context.Context, tableID string) (*model.Table, error) {
	return gm.store.Get(ctx, tableID)
}

// DeleteTable stops the table's machine and removes its document.
func (gm *Manager) DeleteTable(ctx context.Context, tableID string) error {
	gm.detach(tableID)
	if err := gm.store.Delete(ctx, tableID); err != nil {
		return errors.Wrapf(err, "Unable to delete table %s", tableID)
	}
	managerLogger.Info().Str(logging.TableIDKey, tableID).Msg("Deleted table")
	return nil
}

func (gm *Manager) detach(tableID string) {
	gm.lock.Lock()
	m, ok := gm.activeTables[tableID]
	delete(gm.activeTables, tableID)
	util.Metrics.SetActiveTables(len(gm.activeTables))
	gm.lock.Unlock()
	if ok {
		m.Stop()
	}
}

// Shutdown stops every machine. Table documents are left in the store.
func (gm *Manager) Shutdown() {
	gm.lock.Lock()
	machines := make([]*Machine, 0, len(gm.activeTables))
	for id, m := range gm.activeTables {
		machines = append(machines, m)
		delete(gm.activeTables, id)
	}
	util.Metrics.SetActiveTables(0)
	gm.lock.Unlock()

	for _, m := range machines {
		m.Stop()
	}
}
