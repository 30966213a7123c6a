// Package internal provides the App struct that wires all components of the
// remedy system together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/remedy/internal/cli"
	"github.com/valter-silva-au/remedy/internal/core"
	"github.com/valter-silva-au/remedy/internal/integration"
	"github.com/valter-silva-au/remedy/internal/observability"
	"github.com/valter-silva-au/remedy/internal/storage"
	"github.com/valter-silva-au/remedy/pkg/models"
)

// busBufferSize is the per-subscriber event buffer. Slow subscribers drop
// their oldest events rather than blocking publishers.
const busBufferSize = 256

// App holds all service dependencies for the remedy system.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	GlobalCfg *models.GlobalConfig

	// Storage layer
	Store     storage.Store
	TaskStore storage.TaskStore

	// Core services
	Registry core.TaskRegistry
	Runner   core.TaskRunner
	Selector core.IssueSelector

	// Integration services
	Git      integration.GitClient
	Fixer    integration.Fixer
	Platform integration.Platform // nil when no token is configured

	// Observability
	Bus      observability.Bus
	EventLog observability.EventLog

	stopLogPump func()
}

// NewApp creates and wires all components of the remedy system. basePath is
// the root directory where all data is stored (typically the directory
// containing .remedyconfig).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	globalCfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.GlobalCfg = globalCfg

	// --- Storage layer ---
	app.Store, err = storage.NewStore(filepath.Join(basePath, "data"))
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	app.TaskStore = storage.NewTaskStore(app.Store)

	// --- Observability ---
	app.Bus = observability.NewBus(busBufferSize)
	if globalCfg.EventLog {
		logPath := filepath.Join(basePath, ".remedy_events.jsonl")
		app.EventLog, err = observability.NewJSONLEventLog(logPath)
		if err != nil {
			// Non-fatal: run without a persistent event log.
			app.EventLog = nil
		}
	}
	if app.EventLog != nil {
		app.stopLogPump = pumpBusToLog(app.Bus, app.EventLog)
	}

	// --- Integration services ---
	app.Git = integration.NewGitClient()
	app.Fixer = integration.NewFixer(globalCfg.FixerCommand, globalCfg.FixerModel)
	if token := os.Getenv(globalCfg.GitHubTokenEnv); token != "" {
		platform, platformErr := integration.NewGitHubPlatform(context.Background(), token)
		if platformErr == nil {
			app.Platform = platform
		}
		// A bad token degrades to offline mode; commands that need GitHub
		// report it when called.
	}

	// --- Core services ---
	app.Registry = core.NewTaskRegistry(app.TaskStore)
	app.Runner = core.NewTaskRunner(globalCfg.WorkDir, app.Registry, app.Git, app.Fixer, app.Bus)
	app.Selector = core.NewIssueSelector(globalCfg.Triage)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.GlobalCfg = globalCfg
	cli.Registry = app.Registry
	cli.Runner = app.Runner
	cli.Selector = app.Selector
	cli.Git = app.Git
	cli.Fixer = app.Fixer
	cli.Platform = app.Platform
	cli.Bus = app.Bus
	cli.EventLog = app.EventLog

	return app, nil
}

// pumpBusToLog copies every bus event into the persistent event log on its
// own goroutine. The returned function stops the pump.
func pumpBusToLog(bus observability.Bus, log observability.EventLog) func() {
	events, cancel := bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			_ = log.Write(ev) // a failing log never blocks the pipeline
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Close releases resources held by the App: the event log pump and the log
// file handle. Safe to call on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.stopLogPump != nil {
		a.stopLogPump()
	}
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for the remedy data directory. It
// checks the REMEDY_HOME env var, then walks up from the current directory
// looking for a .remedyconfig file, and finally falls back to the current
// directory.
func ResolveBasePath() string {
	if home := os.Getenv("REMEDY_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".remedyconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}
