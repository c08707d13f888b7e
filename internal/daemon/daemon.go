package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"labnote/internal/api"
	"labnote/internal/config"
	"labnote/internal/logging"
	"labnote/internal/metrics"
)

// Daemon serves the notebook API and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	base    *slog.Logger
	logger  *slog.Logger
	service *api.Service
	metrics *metrics.Metrics

	lockPath string
	lock     *flock.Flock
	server   *apiServer

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool   `json:"running"`
	Address      string `json:"address,omitempty"`
	LockFilePath string `json:"lock_file_path"`
}

// New constructs a daemon. A nil metrics value disables the /metrics route.
func New(cfg *config.Config, svc *api.Service, m *metrics.Metrics, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || svc == nil {
		return nil, errors.New("daemon requires config and notebook service")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		base:     logger,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		service:  svc,
		metrics:  m,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the lock and begins serving on the configured bind address.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another labnote server is already using %s", d.cfg.Paths.DataDir)
	}

	runCtx, cancel := context.WithCancel(ctx)
	server := newAPIServer(d.cfg.API.Bind, d.service, d.metrics, d.base)
	if err := server.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.server = server
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("labnote server started",
		logging.String("address", server.address()),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop shuts the server down and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	d.server = nil
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("labnote server stopped")
}

// Status reports whether the server is running and where it listens.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
	}
	if d.server != nil {
		status.Address = d.server.address()
	}
	return status
}
