// Command txm-shell is an interactive shell for driving the microscope
// controller.
//
// It resolves PV names through the standard instrument table (or a YAML
// configuration file), and runs against a simulated instrument unless the
// deployment wires a real transport. Operation events can be appended to a
// CBOR log file and archived to a SQLite history database.
//
// Usage:
//
//	txm-shell [flags]
//
// Flags:
//
//	-config string   Instrument configuration file (YAML)
//	-log string      Append operation events to this CBOR log file
//	-db string       Archive writes and waits to this SQLite database
//	-permit          Grant the instrument permit (allows gated writes)
//	-latency         Simulated put confirmation latency (default 50ms)
//
// Examples:
//
//	# Offline shell against the simulated instrument, with the permit
//	txm-shell -permit
//
//	# Custom endpoint table, operation log, and history archive
//	txm-shell -config beamline.yaml -log scan.cborlog -db history.db
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/txm-control/txm-go/pkg/config"
	"github.com/txm-control/txm-go/pkg/controller"
	"github.com/txm-control/txm-go/pkg/history"
	"github.com/txm-control/txm-go/pkg/log"
	"github.com/txm-control/txm-go/pkg/pv"
	"github.com/txm-control/txm-go/pkg/session"
	"github.com/txm-control/txm-go/pkg/transport/fake"
	"github.com/txm-control/txm-go/pkg/txm"
	"github.com/txm-control/txm-go/pkg/waiter"
)

func main() {
	var (
		configPath = flag.String("config", "", "instrument configuration file (YAML)")
		logPath    = flag.String("log", "", "append operation events to this CBOR log file")
		dbPath     = flag.String("db", "", "archive writes and waits to this SQLite database")
		permit     = flag.Bool("permit", false, "grant the instrument permit")
		latency    = flag.Duration("latency", 50*time.Millisecond, "simulated put confirmation latency")
	)
	flag.Parse()

	if err := run(*configPath, *logPath, *dbPath, *permit, *latency); err != nil {
		fmt.Fprintf(os.Stderr, "txm-shell: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logPath, dbPath string, permit bool, latency time.Duration) error {
	registry, waitCfg, sessionCfg, err := loadSetup(configPath)
	if err != nil {
		return err
	}

	instrument := fake.NewInstrument()
	instrument.SetPutLatency(latency)
	seed(instrument, registry)

	var logger log.Logger = log.NoopLogger{}
	if logPath != "" {
		fl, err := log.NewFileLogger(logPath)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer fl.Close()
		logger = fl
	}

	var recorder controller.Recorder
	if dbPath != "" {
		store, err := history.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer store.Close()
		recorder = store
	}

	ctrl, err := controller.New(controller.Config{
		Registry:      registry,
		Transport:     instrument,
		PermitGranted: permit,
		Logger:        logger,
		Recorder:      recorder,
		Waiter:        waitCfg,
	})
	if err != nil {
		return err
	}

	sh, err := newShell(ctrl, sessionCfg)
	if err != nil {
		return err
	}
	return sh.Run()
}

// loadSetup resolves the endpoint table and defaults, either from a
// configuration file or from the standard instrument table.
func loadSetup(configPath string) (*pv.Registry, waiter.Config, session.Config, error) {
	if configPath == "" {
		registry, err := txm.DefaultRegistry()
		if err != nil {
			return nil, waiter.Config{}, session.Config{}, err
		}
		return registry, waiter.Config{}, txm.ScanSessionConfig(), nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, waiter.Config{}, session.Config{}, err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return nil, waiter.Config{}, session.Config{}, err
	}
	return registry, cfg.WaiterConfig(), cfg.SessionConfig(), nil
}

// seed gives every endpoint a type-appropriate initial value so reads work
// before the first write.
func seed(instrument *fake.Instrument, registry *pv.Registry) {
	for _, name := range registry.Names() {
		ep, err := registry.Lookup(name)
		if err != nil {
			continue
		}
		switch ep.Type {
		case pv.ValueTypeFloat:
			instrument.Store(ep.Address, 0.0)
		case pv.ValueTypeInt:
			instrument.Store(ep.Address, int64(0))
		case pv.ValueTypeBool:
			instrument.Store(ep.Address, false)
		case pv.ValueTypeString:
			instrument.Store(ep.Address, "")
		}
	}
}
