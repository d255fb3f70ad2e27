package cmd

import (
	"fmt"
	"log/slog"

	"github.com/marcus/roster/internal/config"
	"github.com/marcus/roster/internal/db"
	"github.com/marcus/roster/internal/logging"
	"github.com/marcus/roster/internal/netcheck"
	rostersync "github.com/marcus/roster/internal/sync"
	"github.com/marcus/roster/internal/syncclient"
)

// app is the wired set of components one command works with. The store
// handle is opened once and closed by the caller.
type app struct {
	cfg       *config.Config
	store     *db.DB
	logger    *slog.Logger
	engine    *rostersync.Engine
	retention *rostersync.Retention
	reporter  *rostersync.Reporter

	closeLog func() error
}

// openApp loads config, sets up logging and opens the store under baseDir.
// Interactive commands log warnings only unless --verbose or a log file is
// configured; daemon reuses the configured level as-is.
func openApp(dir string, daemon bool) (*app, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	switch {
	case verboseFlag:
		logCfg.Level = "debug"
	case !daemon && logCfg.File == "":
		logCfg.Level = "warn"
	}
	logger, closeLog, err := logging.Setup(logCfg, dir)
	if err != nil {
		return nil, err
	}

	store, err := db.Open(dir, cfg.Store.Driver)
	if err != nil {
		closeLog()
		return nil, err
	}

	sink := syncclient.New(cfg.Sync.URL, cfg.Sync.HealthURL, cfg.Sync.Timeout)
	probe, err := netcheck.New(cfg.Sync.Probe, cfg.Sync.URL, sink, cfg.Sync.ProbeTimeout)
	if err != nil {
		store.Close()
		closeLog()
		return nil, fmt.Errorf("connectivity probe: %w", err)
	}

	gate := rostersync.NewGate(store, probe)
	engine := rostersync.NewEngine(gate, store, sink)
	engine.Logger = logger
	retention := rostersync.NewRetention(store)
	retention.Logger = logger

	return &app{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		engine:    engine,
		retention: retention,
		reporter:  rostersync.NewReporter(store),
		closeLog:  closeLog,
	}, nil
}

func (a *app) Close() error {
	err := a.store.Close()
	if cerr := a.closeLog(); err == nil {
		err = cerr
	}
	return err
}
