// Package simulation seats bots at a table and plays whole sessions.
package simulation

import (
	"context"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"voyager.com/ofc/bot"
	"voyager.com/ofc/game"
	"voyager.com/ofc/history"
	"voyager.com/ofc/logging"
	"voyager.com/ofc/model"
	"voyager.com/ofc/store"
	"voyager.com/ofc/util"
)

var runnerLogger = log.With().Str("logger_name", "simulation::runner").Logger()

// Result summarizes a run.
type Result struct {
	TableID  string
	Sessions int
	Hands    int
	// Scores holds each player's round scores summed over all sessions.
	Scores  map[string]int
	Records []history.HandRecord
}

// Runner plays a script against a store.
type Runner struct {
	script *Script
	store  store.Store
}

func NewRunner(script *Script, st store.Store) *Runner {
	return &Runner{
		script: script,
		store:  st,
	}
}

func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.script.Validate(); err != nil {
		return nil, err
	}
	seed := r.script.Seed
	if seed == 0 {
		seed = util.NewSeed()
	}
	randGen := rand.New(rand.NewSource(seed))
	runnerLogger.Info().Int64("seed", seed).Int("spots", r.script.Table.Spots).Int("sessions", r.script.Sessions).Msg("Starting simulation")

	recorder := history.NewMemoryRecorder()
	delays := r.script.Delays
	manager := game.NewManager(r.store, game.MachineConfig{
		Rand:     rand.New(rand.NewSource(randGen.Int63())),
		Delays:   &delays,
		Recorder: recorder,
	})
	defer manager.Shutdown()

	tableID, err := manager.CreateTable(ctx, r.script.Table.Spots)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := r.store.Delete(context.Background(), tableID); err != nil {
			runnerLogger.Warn().Err(err).Str(logging.TableIDKey, tableID).Msg("Unable to delete simulated table")
		}
	}()

	bots := make([]*bot.PlayerBot, len(r.script.Players))
	for i, p := range r.script.Players {
		strategy, err := bot.NewStrategy(p.Strategy, rand.New(rand.NewSource(randGen.Int63())))
		if err != nil {
			return nil, err
		}
		bots[i] = bot.NewPlayerBot(p.Name, r.store, strategy)
		defer bots[i].Stop()
	}

	stateChanged := make(chan struct{}, 1)
	sub, err := r.store.Subscribe(tableID, "state", func(store.Snapshot) {
		select {
		case stateChanged <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "Unable to watch table state")
	}
	defer sub.Unsubscribe()

	result := &Result{
		TableID: tableID,
		Scores:  make(map[string]int),
	}
	handsPerSession := r.script.Table.Spots
	for session := 1; session <= r.script.Sessions; session++ {
		for i, p := range r.script.Players {
			if err := bots[i].SitDown(ctx, tableID, p.Spot); err != nil {
				return nil, errors.Wrapf(err, "Player %s could not sit down", p.Name)
			}
		}

		want := session * handsPerSession
		err := r.waitFor(ctx, tableID, stateChanged, func(t *model.Table) bool {
			return t.State == model.StateDead && recorder.Count() >= want
		})
		if err != nil {
			return nil, errors.Wrapf(err, "Session %d did not finish", session)
		}

		records := recorder.Records()
		last := records[len(records)-1]
		ev := runnerLogger.Info().Int("session", session)
		for _, seat := range last.Seats {
			result.Scores[seat.User] += seat.RoundScore
			ev = ev.Int(seat.User, seat.RoundScore)
		}
		ev.Msg("Session finished")
		result.Sessions = session
	}

	result.Records = recorder.Records()
	result.Hands = len(result.Records)
	r.logSummary(result)
	return result, nil
}

func (r *Runner) waitFor(ctx context.Context, tableID string, wake <-chan struct{}, done func(*model.Table) bool) error {
	for {
		table, err := r.store.Get(ctx, tableID)
		if err != nil {
			return err
		}
		if done(table) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
	}
}

func (r *Runner) logSummary(result *Result) {
	names := make([]string, 0, len(result.Scores))
	for name := range result.Scores {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		runnerLogger.Info().
			Str(logging.UserKey, name).
			Int("score", result.Scores[name]).
			Msgf("Total after %d sessions (%d hands)", result.Sessions, result.Hands)
	}
}
