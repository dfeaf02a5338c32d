package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"voyager.com/ofc/game"
	"voyager.com/ofc/history"
	"voyager.com/ofc/logging"
	"voyager.com/ofc/nats"
	"voyager.com/ofc/rest"
	"voyager.com/ofc/simulation"
	"voyager.com/ofc/store"
	"voyager.com/ofc/util"
)

var restPort *uint
var delayConfigFile *string
var simulate *bool
var simulationScript *string
var simulationSpots *int
var simulationSessions *int
var handCacheSize *int
var mainLogger = logging.GetZeroLogger("main::main", nil)

func init() {
	restPort = flag.Uint("port", 8080, "REST server port")
	delayConfigFile = flag.String("delays", "delays.yaml", "YAML file containing pause times")
	simulate = flag.Bool("simulate", false, "plays bot sessions instead of running the server")
	simulationScript = flag.String("script", "", "simulation script file used with -simulate")
	simulationSpots = flag.Int("spots", 3, "number of spots when -simulate runs without a script")
	simulationSessions = flag.Int("sessions", 1, "number of sessions when -simulate runs without a script")
	handCacheSize = flag.Int("hand-cache", 256, "number of tables whose hand history is cached")
}

func main() {
	err := run()
	if err != nil {
		mainLogger.Error().Msg(err.Error())
		os.Exit(1)
	}
}

func run() error {
	logLevel := util.Env.GetZeroLogLogLevel()
	fmt.Printf("Setting log level to %s\n", logLevel)
	zerolog.SetGlobalLevel(logLevel)
	flag.Parse()

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if *simulate {
		return runSimulation(st)
	}

	delays, err := game.ParseDelayConfig(*delayConfigFile)
	if err != nil {
		return errors.Wrap(err, "Error while parsing delay config")
	}

	hands, closeHistory, err := openHistory()
	if err != nil {
		return err
	}
	defer closeHistory()

	manager := game.NewManager(st, game.MachineConfig{
		Delays:   &delays,
		Recorder: hands,
	})
	defer manager.Shutdown()

	errCh := make(chan error, 1)
	go func() {
		errCh <- rest.RunRestServer(*restPort, manager, hands)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return errors.Wrap(err, "REST server stopped")
	case sig := <-sigCh:
		mainLogger.Info().Msgf("Received %s. Shutting down.", sig)
	}
	return nil
}

// openStore picks the table store from PERSIST_METHOD. The redis store
// shares commits across processes through NATS when NATS_URL is set.
func openStore() (store.Store, func(), error) {
	method := util.Env.GetPersistMethod()
	mainLogger.Info().Msgf("Persist method: %s", method)
	if method == util.PersistMemory {
		st := store.NewMemoryStore()
		return st, func() { st.Close() }, nil
	}

	var notifier store.Notifier = store.NewLocalNotifier()
	closeNotifier := func() {}
	natsURL := util.Env.GetNatsURL()
	if natsURL != "" {
		mainLogger.Info().Msgf("NATS URL: %s", natsURL)
		n, err := nats.Connect(natsURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "Error connecting to NATS server")
		}
		notifier = n
		closeNotifier = n.Close
	}

	st := store.NewRedisStore(util.Env.GetRedisAddr(), util.Env.GetRedisPW(), util.Env.GetRedisDB(), notifier)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		st.Close()
		closeNotifier()
		return nil, nil, err
	}
	return st, func() {
		st.Close()
		closeNotifier()
	}, nil
}

// openHistory records hands in postgres when POSTGRES_HOST is set and in
// memory otherwise.
func openHistory() (*history.Cache, func(), error) {
	var backing history.Store
	closeFn := func() {}
	if util.Env.GetPostgresHost() != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := history.NewPostgresRecorder(ctx, util.Env.GetPostgresConnStr())
		if err != nil {
			return nil, nil, errors.Wrap(err, "Error connecting to hand history database")
		}
		backing = pg
		closeFn = func() { pg.Close() }
	} else {
		mainLogger.Warn().Msg("POSTGRES_HOST is not set. Hand history is kept in memory.")
		backing = history.NewMemoryRecorder()
	}

	cache, err := history.NewCache(*handCacheSize, backing)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return cache, closeFn, nil
}

func runSimulation(st store.Store) error {
	var script *simulation.Script
	if *simulationScript != "" {
		var err error
		script, err = simulation.ReadScript(*simulationScript)
		if err != nil {
			return err
		}
	} else {
		script = simulation.NewScript(*simulationSpots, *simulationSessions)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	result, err := simulation.NewRunner(script, st).Run(ctx)
	if err != nil {
		return errors.Wrap(err, "Simulation failed")
	}
	mainLogger.Info().Msgf("Simulated %d hands over %d sessions at table %s", result.Hands, result.Sessions, result.TableID)
	return nil
}
