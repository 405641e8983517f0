package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gvault/internal/backup"
	"gvault/internal/config"
	"gvault/internal/gateway"
	"gvault/internal/gv"
	"gvault/internal/store"
)

// GVApp is the application layer between the CLI and VaultService.
// It constructs all dependencies from config and manages the store
// lifecycle on Close.
type GVApp struct {
	cfg     *config.Config
	store   *store.SQLiteStore
	gateway gv.Gateway
	backups gv.BackupTarget
	service *gv.VaultService
	logFile *os.File
}

// NewGVApp creates a fully wired GVApp from the given config.
// operation identifies the CLI command being run (e.g. "Ingest", "Backup").
// The caller must call Close when done.
func NewGVApp(ctx context.Context, cfg *config.Config, operation string) (*GVApp, error) {
	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger.With("op", operation)}

	clock := gv.RealClock{}
	st, err := store.Open(cfg.VaultRoot, clock, gv.UUIDGenerator{})
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening vault store: %w", err)
	}

	gw, err := gateway.NewGatewayFromConfig(cfg.Gateway, cfg.VaultRoot)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating encryption gateway: %w", err)
	}

	target, err := backup.NewTargetFromConfig(ctx, cfg.Backup, cfg.VaultRoot)
	if err != nil {
		st.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating backup target: %w", err)
	}

	svc := gv.NewVaultService(st, gw, target, logger, clock)

	return &GVApp{
		cfg:     cfg,
		store:   st,
		gateway: gw,
		backups: target,
		service: svc,
		logFile: logFile,
	}, nil
}

// Service returns the vault service backing this app.
func (a *GVApp) Service() *gv.VaultService {
	return a.service
}

// Config returns the config this app was built from.
func (a *GVApp) Config() *config.Config {
	return a.cfg
}

// Close releases the store and the log file.
func (a *GVApp) Close() error {
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = err
		}
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
