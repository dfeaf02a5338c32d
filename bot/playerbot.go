package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"voyager.com/ofc/game"
	"voyager.com/ofc/logging"
	"voyager.com/ofc/store"
)

var botPlayerLogger = log.With().Str("logger_name", "bot::player").Logger()

const actionTimeout = 5 * time.Second

// PlayerBot takes a spot at a table and places its dealt cards with a
// strategy. It watches only its own spot.
type PlayerBot struct {
	botID    string
	name     string
	store    store.Store
	strategy Strategy
	logger   zerolog.Logger

	lock    sync.Mutex
	tableID string
	spot    int
	subs    []store.Subscription

	wake    chan struct{}
	stopped chan struct{}
	done    chan struct{}
	once    sync.Once

	moves int64
}

func NewPlayerBot(name string, st store.Store, strategy Strategy) *PlayerBot {
	botID := uuid.New().String()
	p := &PlayerBot{
		botID:    botID,
		name:     name,
		store:    st,
		strategy: strategy,
		logger:   botPlayerLogger.With().Str(logging.UserKey, name).Str("bot", botID).Logger(),
		spot:     -1,
		wake:     make(chan struct{}, 1),
		stopped:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *PlayerBot) Name() string {
	return p.name
}

// Moves returns the number of placements the bot has submitted.
func (p *PlayerBot) Moves() int64 {
	return atomic.LoadInt64(&p.moves)
}

// SitDown takes the spot and starts watching it. A bot keeps watching its
// spot across sessions and only needs to sit down again after a reset.
func (p *PlayerBot) SitDown(ctx context.Context, tableID string, spot int) error {
	if err := game.SitDown(ctx, p.store, tableID, spot, p.name); err != nil {
		return err
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	if p.tableID == tableID && p.spot == spot {
		return nil
	}
	p.unsubscribeLocked()
	p.tableID = tableID
	p.spot = spot
	for _, field := range []string{"dealt", "pending_committed"} {
		sub, err := p.store.Subscribe(tableID, fmt.Sprintf("spots/%d/%s", spot, field), p.onChange)
		if err != nil {
			p.unsubscribeLocked()
			return err
		}
		p.subs = append(p.subs, sub)
	}
	logger := logging.SpotLogger(&p.logger, tableID, spot)
	logger.Debug().Msg("Sat down")
	return nil
}

func (p *PlayerBot) unsubscribeLocked() {
	for _, sub := range p.subs {
		sub.Unsubscribe()
	}
	p.subs = nil
}

func (p *PlayerBot) onChange(snapshot store.Snapshot) {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *PlayerBot) run() {
	defer close(p.done)
	for {
		select {
		case <-p.stopped:
			return
		case <-p.wake:
			p.act()
		}
	}
}

func (p *PlayerBot) act() {
	p.lock.Lock()
	tableID, spot := p.tableID, p.spot
	p.lock.Unlock()
	if tableID == "" {
		return
	}

	logger := logging.SpotLogger(&p.logger, tableID, spot)
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	table, err := p.store.Get(ctx, tableID)
	if err != nil {
		logger.Debug().Err(err).Msg("Unable to load table")
		return
	}
	s := table.Spot(spot)
	if s == nil || s.User != p.name || s.Dealt == nil || s.PendingCommitted != nil || s.Committed != nil {
		return
	}

	placements := p.strategy.Place(s)
	err = game.SubmitPlacements(ctx, p.store, tableID, spot, p.name, placements)
	if err != nil {
		logger.Debug().Err(err).Msg("Placement not submitted")
		return
	}
	atomic.AddInt64(&p.moves, 1)
	logger.Debug().
		Interface("placements", placements).
		Msg("Submitted placements")
}

// Stop drops the subscriptions and ends the bot's goroutine.
func (p *PlayerBot) Stop() {
	p.once.Do(func() {
		p.lock.Lock()
		p.unsubscribeLocked()
		p.lock.Unlock()
		close(p.stopped)
		<-p.done
	})
}
