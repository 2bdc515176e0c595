package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"albumtracker/internal/api"
	"albumtracker/internal/catalog"
	"albumtracker/internal/config"
	"albumtracker/internal/custody"
	"albumtracker/internal/events"
	"albumtracker/internal/logging"
	"albumtracker/internal/metrics"
	"albumtracker/internal/notifications"
	"albumtracker/internal/store"
)

const (
	hubCapacity      = 1024
	defaultEventPage = 200
)

// Daemon owns the catalog registry and the surfaces that expose it. It
// enforces single-instance execution through a lock file.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	registry   *catalog.Registry
	catalog    *api.CatalogService
	hub        *events.Hub
	metrics    *metrics.Metrics
	notifier   notifications.Service
	dispatcher *notifications.Dispatcher
	api        *apiServer

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a daemon over an open store. The hub is seeded from the
// recorded history and the gauges from the current catalog.
func New(ctx context.Context, cfg *config.Config, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	hub := events.NewHub(hubCapacity)
	m := metrics.New()
	notifier := notifications.NewService(cfg)
	dispatcher := notifications.NewDispatcher(notifier, cfg, logger)

	registry, err := catalog.NewRegistry(st, catalog.Options{
		Admin:           custody.Address(cfg.Catalog.AdminAccount),
		RegistryAddress: cfg.Catalog.RegistryAddress,
		Policy:          catalog.PaymentPolicy(cfg.Catalog.PaymentPolicy),
		Publisher:       hub,
		Observer:        m,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}

	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      st,
		registry:   registry,
		catalog:    api.NewCatalogService(registry),
		hub:        hub,
		metrics:    m,
		notifier:   notifier,
		dispatcher: dispatcher,
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
	}
	if err := d.restore(ctx); err != nil {
		return nil, err
	}
	hub.AddSink(m)
	hub.AddSink(dispatcher)
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

func (d *Daemon) restore(ctx context.Context) error {
	history, err := d.registry.Changes(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("load state changes: %w", err)
	}
	d.hub.Seed(history)

	stats, err := d.registry.Stats(ctx)
	if err != nil {
		return fmt.Errorf("load catalog stats: %w", err)
	}
	paid, err := d.registry.List(ctx, catalog.StatePaid)
	if err != nil {
		return fmt.Errorf("load paid albums: %w", err)
	}
	var held int64
	for _, item := range paid {
		held += item.PaidAmount
	}
	d.metrics.Load(stats, held)
	return nil
}

// Start acquires the daemon lock, then serves the HTTP API and delivers
// notifications until Stop or ctx ends.
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
		return errors.New("another albumtracker daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.dispatcher.Run(runCtx)
	}()

	d.cancel = cancel
	d.done = done
	d.running.Store(true)
	d.logger.Info("albumtracker daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("admin", string(d.registry.Admin())),
		logging.String("payment_policy", string(d.registry.Policy())),
	)
	return nil
}

// Stop stops the HTTP API and notification delivery and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.done != nil {
		<-d.done
		d.done = nil
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("albumtracker daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Catalog returns the DTO-level catalog service.
func (d *Daemon) Catalog() *api.CatalogService {
	return d.catalog
}

// Admin returns the configured administrator account.
func (d *Daemon) Admin() string {
	return string(d.registry.Admin())
}

// Events returns state changes after since. History older than the
// in-memory buffer is read from the store. When follow is set and nothing
// is available yet, Events waits for the next change or for ctx to end.
func (d *Daemon) Events(ctx context.Context, since uint64, limit int, follow bool) (api.EventsResponse, error) {
	if limit <= 0 || limit > hubCapacity {
		limit = defaultEventPage
	}

	if first := d.hub.FirstSequence(); first == 0 || since+1 < first {
		resp, err := d.catalog.Events(ctx, since, limit)
		if err != nil {
			return api.EventsResponse{}, err
		}
		if len(resp.Events) > 0 || !follow {
			return resp, nil
		}
	}

	changes, next, err := d.hub.Fetch(ctx, since, limit, follow)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return api.EventsResponse{}, err
	}
	return api.EventsResponse{Events: api.FromChanges(changes), Next: next}, nil
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	ctx, cancel := context.WithTimeout(ctx, d.cfg.NotificationTimeout()+time.Second)
	defer cancel()
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) api.DaemonStatus {
	status := api.DaemonStatus{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		DatabasePath:  d.store.Path(),
		LockFilePath:  d.lockPath,
		APIBind:       d.api.address(),
		Admin:         string(d.registry.Admin()),
		PaymentPolicy: string(d.registry.Policy()),
	}
	counts, err := d.catalog.Stats(ctx)
	if err != nil {
		d.logger.Warn("catalog stats unavailable", logging.Error(err))
		return status
	}
	status.Counts = counts
	return status
}
