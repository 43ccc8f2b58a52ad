package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog"

	"leadscout-engine/internal/config"
	"leadscout-engine/internal/logger"
	"leadscout-engine/internal/store"
)

// app is what every subcommand shares: resolved paths, the live config and,
// when asked for, the store.
type app struct {
	dataDir string
	cfgPath string
	cfgVal  atomic.Value // config.Config
	db      *store.DB
	log     *zerolog.Logger
}

func openApp(withStore bool) (*app, error) {
	a := &app{dataDir: flagDataDir, log: logger.Named("engine")}
	if a.dataDir == "" {
		a.dataDir = config.DataDir()
	}
	if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
		return nil, err
	}

	a.cfgPath = flagConfig
	if a.cfgPath == "" {
		p, err := config.EnsureUserConfig(a.dataDir)
		if err != nil {
			return nil, fmt.Errorf("config bootstrap: %w", err)
		}
		a.cfgPath = p
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	a.cfgVal.Store(cfg)

	if withStore {
		dbPath := filepath.Join(a.dataDir, "leads.db")
		db, err := store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", dbPath, err)
		}
		a.db = db
		a.log.Debug().Str("db", dbPath).Str("config", a.cfgPath).Msg("opened")
	}
	return a, nil
}

// loadConfig reads the file, applies environment overrides and validates.
// Warnings are logged; errors fail the load.
func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", a.cfgPath, err)
	}
	if err := config.Overlay(&cfg, os.Getenv); err != nil {
		return cfg, err
	}
	cfg, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		a.log.Warn().Msg(w)
	}
	return cfg, vr.Err()
}

func (a *app) config() config.Config {
	return a.cfgVal.Load().(config.Config)
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
