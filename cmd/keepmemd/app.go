package main

import (
	"fmt"

	"github.com/kittclouds/keepmem/internal/applog"
	"github.com/kittclouds/keepmem/internal/audit"
	"github.com/kittclouds/keepmem/internal/config"
	"github.com/kittclouds/keepmem/internal/duplicate"
	"github.com/kittclouds/keepmem/internal/export"
	"github.com/kittclouds/keepmem/internal/lifecycle"
	"github.com/kittclouds/keepmem/internal/ranking"
	"github.com/kittclouds/keepmem/internal/store"
	"github.com/kittclouds/keepmem/internal/worker"
	"github.com/rs/zerolog"
)

// app bundles every wired component a subcommand might need. Each
// subcommand opens its own app and closes it when done, rather than
// sharing process-wide globals.
type app struct {
	cfg       config.Config
	log       zerolog.Logger
	db        *store.DB
	auditSvc  *audit.Service
	exportSvc *export.Service
	lifecycle *lifecycle.Engine
	pool      *worker.Pool
}

func openApp(dbPath string, console bool) (*app, error) {
	cfg := config.Load(dbPath, "info")
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	log := applog.New(cfg.LogLevel, console)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", cfg.DBPath, err)
	}

	auditSvc := audit.New(db)
	pool := worker.New(0)
	lifecycleEngine := lifecycle.New(db, duplicate.New(), ranking.New(), auditSvc, pool, log)
	exportSvc := export.New(db, auditSvc)

	return &app{
		cfg: cfg, log: log, db: db, auditSvc: auditSvc,
		exportSvc: exportSvc, lifecycle: lifecycleEngine, pool: pool,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
