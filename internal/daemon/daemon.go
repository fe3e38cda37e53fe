package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"

	"codeberg.org/snonux/wordreel/internal/artifacts"
	"codeberg.org/snonux/wordreel/internal/history"
	"codeberg.org/snonux/wordreel/internal/pipeline"
)

// Config holds daemon configuration.
type Config struct {
	Bind          string // listen address, e.g. ":3004"
	Schedule      string // cron expression for scheduled runs
	LockPath      string // single-instance lock file
	RunOnStart    bool   // attempt one run right after startup
	SweepInterval time.Duration
	SweepMaxAge   time.Duration
}

// DefaultConfig returns the default daemon configuration.
func DefaultConfig() Config {
	return Config{
		Bind:          ":3004",
		Schedule:      "0 6,12,18 * * *",
		RunOnStart:    true,
		SweepInterval: 6 * time.Hour,
		SweepMaxAge:   24 * time.Hour,
	}
}

// Service wires the orchestrator to its triggers.
type Service struct {
	cfg    Config
	orch   *pipeline.Orchestrator
	ledger *history.Store // optional
	store  *artifacts.Store
	logger *slog.Logger

	cron     *cron.Cron
	server   *http.Server
	listener net.Listener
	lock     *flock.Flock

	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
}

// New constructs a service.
func New(cfg Config, orch *pipeline.Orchestrator, ledger *history.Store,
	store *artifacts.Store, logger *slog.Logger) (*Service, error) {
	if orch == nil {
		return nil, errors.New("daemon requires an orchestrator")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		cfg:    cfg,
		orch:   orch,
		ledger: ledger,
		store:  store,
		logger: logger,
	}
	if cfg.LockPath != "" {
		s.lock = flock.New(cfg.LockPath)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/trigger-video", s.handleTrigger)
	mux.HandleFunc("/current-word", s.handleCurrentWord)
	mux.HandleFunc("/health-check", s.handleHealth)
	mux.HandleFunc("/run-history", s.handleHistory)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      10 * time.Minute, // a trigger response waits for the full run
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Start acquires the instance lock, starts the scheduler and the HTTP
// server, and optionally fires a first run. It does not block.
func (s *Service) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("daemon already running")
	}

	if s.lock != nil {
		ok, err := s.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return errors.New("another wordreel instance is already running")
		}
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", s.cfg.Bind)
	if err != nil {
		s.releaseLock()
		s.cancel()
		return fmt.Errorf("listen on %s: %w", s.cfg.Bind, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", slog.String("error", err.Error()))
		}
	}()

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.scheduledRun() }); err != nil {
		s.Stop()
		return fmt.Errorf("invalid schedule %q: %w", s.cfg.Schedule, err)
	}
	if s.store != nil && s.cfg.SweepInterval > 0 {
		sweepSpec := fmt.Sprintf("@every %s", s.cfg.SweepInterval)
		if _, err := s.cron.AddFunc(sweepSpec, func() { s.sweep() }); err != nil {
			s.Stop()
			return fmt.Errorf("invalid sweep interval: %w", err)
		}
	}
	s.cron.Start()

	s.running.Store(true)
	s.logger.Info("wordreel daemon started",
		slog.String("address", listener.Addr().String()),
		slog.String("schedule", s.cfg.Schedule))

	if s.ledger != nil {
		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if count, err := s.ledger.CompletedSince(s.ctx, midnight); err == nil {
			s.logger.Info("videos already completed today", slog.Int("count", count))
		} else {
			s.logger.Warn("failed to count today's runs", slog.String("error", err.Error()))
		}
	}

	s.sweep()
	if s.cfg.RunOnStart {
		go s.scheduledRun()
	}
	return nil
}

// Stop shuts the service down and releases the instance lock.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	s.releaseLock()
	if s.running.Swap(false) {
		s.logger.Info("wordreel daemon stopped")
	}
}

// Addr returns the bound listen address, or "" before Start.
func (s *Service) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Service) releaseLock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release instance lock", slog.String("error", err.Error()))
	}
}

// scheduledRun executes one pipeline run off the dispatch path. A run
// already in flight is skipped, not queued.
func (s *Service) scheduledRun() {
	result, err := s.orch.Run(s.ctx)
	switch {
	case errors.Is(err, pipeline.ErrRunInFlight):
		s.logger.Info("scheduled run skipped, another run is in flight")
	case err != nil:
		// Already logged by the orchestrator with stage detail.
	default:
		s.logger.Info("scheduled run finished", slog.String("outcome", string(result.Outcome)))
	}
}

func (s *Service) sweep() {
	if s.store == nil || s.cfg.SweepMaxAge <= 0 {
		return
	}
	if _, err := s.store.Sweep(s.cfg.SweepMaxAge); err != nil {
		s.logger.Warn("artifact sweep failed", slog.String("error", err.Error()))
	}
}
