package game

import (
	"sync"
	"time"

	"github.com/coder/quartz"

	"voyager.com/ofc/logging"
)

const (
	TimerPurposeNextGame = "next_game"
	TimerPurposeReset    = "reset"
)

var timerLogger = logging.GetZeroLogger("game::timer", nil)

// TimerScheduler runs the delayed transitions of one table. Timers are keyed
// by purpose and at most one timer per purpose is pending at a time.
type TimerScheduler struct {
	tableID string
	clock   quartz.Clock
	delays  Delays

	lock    sync.Mutex
	timers  map[string]*quartz.Timer
	stopped bool
}

func NewTimerScheduler(tableID string, clock quartz.Clock, delays Delays) *TimerScheduler {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &TimerScheduler{
		tableID: tableID,
		clock:   clock,
		delays:  delays,
		timers:  make(map[string]*quartz.Timer),
	}
}

// StartNextGame schedules fn after the next-game delay. It returns false when
// a next-game timer is already pending or the scheduler is stopped.
func (ts *TimerScheduler) StartNextGame(fn func()) bool {
	return ts.start(TimerPurposeNextGame, ts.delays.NextGameDelay(), fn)
}

// StartReset schedules fn after the reset delay. It returns false when a
// reset timer is already pending or the scheduler is stopped.
func (ts *TimerScheduler) StartReset(fn func()) bool {
	return ts.start(TimerPurposeReset, ts.delays.ResetDelay(), fn)
}

func (ts *TimerScheduler) start(purpose string, delay time.Duration, fn func()) bool {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	if ts.stopped {
		return false
	}
	if _, pending := ts.timers[purpose]; pending {
		timerLogger.Debug().
			Str(logging.TableIDKey, ts.tableID).
			Str(logging.TimerPurposeKey, purpose).
			Msg("Timer already pending")
		return false
	}

	timerLogger.Debug().
		Str(logging.TableIDKey, ts.tableID).
		Str(logging.TimerPurposeKey, purpose).
		Msgf("Starting timer. Fires in %s", delay)

	var t *quartz.Timer
	t = ts.clock.AfterFunc(delay, func() {
		ts.lock.Lock()
		current, ok := ts.timers[purpose]
		if !ok || current != t {
			ts.lock.Unlock()
			return
		}
		delete(ts.timers, purpose)
		ts.lock.Unlock()

		timerLogger.Debug().
			Str(logging.TableIDKey, ts.tableID).
			Str(logging.TimerPurposeKey, purpose).
			Msg("Timer fired")
		fn()
	}, "TimerScheduler", purpose)
	ts.timers[purpose] = t
	return true
}

// Pending reports whether a timer for the purpose is waiting to fire.
func (ts *TimerScheduler) Pending(purpose string) bool {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	_, ok := ts.timers[purpose]
	return ok
}

// Stop cancels every pending timer. Nothing can be scheduled afterwards.
func (ts *TimerScheduler) Stop() {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	ts.stopped = true
	for purpose, t := range ts.timers {
		t.Stop()
		delete(ts.timers, purpose)
	}
}
