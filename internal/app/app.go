package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dori/tasktrackr/internal/auth"
	"github.com/dori/tasktrackr/internal/backend"
	"github.com/dori/tasktrackr/internal/backend/remote"
	"github.com/dori/tasktrackr/internal/config"
	"github.com/dori/tasktrackr/internal/db"
	"github.com/dori/tasktrackr/internal/logging"
	"github.com/dori/tasktrackr/internal/notify"
	"github.com/dori/tasktrackr/internal/session"
	"github.com/dori/tasktrackr/internal/state"
	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// App holds the application state and dependencies
type App struct {
	Config   *config.Config
	Log      *logrus.Logger
	Backend  backend.Backend
	Session  *session.Store
	Auth     *state.Auth
	Tasks    *state.Tasks
	Notifier *notify.Notifier
	DataDir  string

	db        *db.DB
	logCloser io.Closer
	lockFile  *flock.Flock
}

// Options controls how much of the application New sets up
type Options struct {
	// Lock takes the single-instance lock for the data directory
	Lock bool
	// LogOutput replaces the log file, e.g. with os.Stderr for the server
	LogOutput io.Writer
}

// New creates a new application instance
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := &App{
		Config:   cfg,
		DataDir:  cfg.DataDir,
		Notifier: notify.NewNotifier(cfg.Notifications.Desktop),
	}

	if err := app.openLog(opts.LogOutput); err != nil {
		return nil, err
	}

	// Acquire lock to ensure single instance
	if opts.Lock {
		if err := app.acquireLock(); err != nil {
			app.Close()
			return nil, err
		}
	}

	store, err := session.Open(cfg.DataDir)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Session = store

	if err := app.openBackend(); err != nil {
		app.Close()
		return nil, err
	}

	app.Auth = state.NewAuth(app.Backend, store, logging.Component(app.Log, "auth"))
	app.Tasks = state.NewTasks(app.Backend, store, logging.Component(app.Log, "tasks"))
	app.Auth.OnSignOut(app.Tasks.Reset)

	app.Log.WithFields(logrus.Fields{
		"mode":     cfg.Backend.Mode,
		"data_dir": cfg.DataDir,
	}).Info("started")

	return app, nil
}

func (a *App) openLog(out io.Writer) error {
	if out != nil {
		logger, err := logging.New(a.Config.Log, out)
		if err != nil {
			return err
		}
		a.Log = logger
		return nil
	}

	logger, closer, err := logging.OpenFile(a.Config.Log, a.Config.LogPath())
	if err != nil {
		return err
	}
	a.Log, a.logCloser = logger, closer
	return nil
}

// openBackend builds the backend selected by backend.mode
func (a *App) openBackend() error {
	cfg := a.Config

	switch cfg.Backend.Mode {
	case config.ModeSQLite, config.ModePostgres:
		var database *db.DB
		var err error
		if cfg.Backend.Mode == config.ModePostgres {
			database, err = db.OpenPostgres(cfg.Backend.DSN)
		} else {
			database, err = db.Open(cfg.DBPath())
		}
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		a.db = database

		secret, err := a.signingSecret()
		if err != nil {
			return err
		}
		a.Backend = backend.NewLocal(database, auth.NewIssuer(secret, cfg.Auth.TokenTTL))

	case config.ModeRemote:
		client, err := remote.New(cfg.Backend.URL, cfg.Backend.Timeout)
		if err != nil {
			return err
		}
		a.Backend = client

	case config.ModeLegacy:
		a.Backend = backend.NewMemory(backend.WithBundleStore(a.Session))

	case config.ModeDemo:
		a.Backend = backend.NewMemory()

	default:
		return fmt.Errorf("unknown backend mode %q", cfg.Backend.Mode)
	}

	return nil
}

func (a *App) signingSecret() ([]byte, error) {
	if a.Config.Auth.JWTSecret != "" {
		return []byte(a.Config.Auth.JWTSecret), nil
	}
	return auth.LoadOrCreateSecret(a.Config.SecretPath())
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, "tasktrackr.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another instance of tasktrackr is already running")
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	if a.logCloser != nil {
		a.logCloser.Close()
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
