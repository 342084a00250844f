package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/PontusDahlberg/Semesterappen/internal/budget"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Planner is the part of the planning session the runtime drives
type Planner interface {
	Summary() budget.Summary
	Save(ctx context.Context) error
	Dirty() bool
	Degraded() bool
}

// Options configures the serve runtime
type Options struct {
	Address          string
	SystemTray       bool          // Show system tray icon (Windows only)
	AutosaveInterval time.Duration // Zero disables periodic saves
	ShutdownTimeout  time.Duration
}

// Daemon runs the HTTP edit surface until it is stopped
type Daemon struct {
	planner Planner
	handler http.Handler
	opts    Options
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	trayApp *TrayApp

	mu       sync.Mutex // Serializes saves from autosave, tray and shutdown
	addr     string
	ready    chan struct{}
	lastSave time.Time
}

// NewDaemon creates a new daemon instance
func NewDaemon(p Planner, handler http.Handler, opts Options, logger *zap.Logger) *Daemon {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		planner: p,
		handler: handler,
		opts:    opts,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		ready:   make(chan struct{}),
	}
}

// Start runs the daemon, with a tray icon when enabled and supported.
// It blocks until Stop, a signal or a server failure.
func (d *Daemon) Start() error {
	if d.opts.SystemTray {
		d.logger.Info("Initializing system tray")
		trayApp, err := NewTrayApp(d, d.logger)
		if err != nil {
			d.logger.Warn("Failed to initialize system tray", zap.Error(err))
			return d.Run(d.ctx)
		}
		d.trayApp = trayApp
		// Run tray (blocks until Quit)
		return d.trayApp.Run()
	}

	d.logger.Info("Running without system tray")
	return d.Run(d.ctx)
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

// Ready is closed once the HTTP listener is bound
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Addr returns the bound listen address; valid after Ready
func (d *Daemon) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// Run serves HTTP until ctx is done or SIGINT/SIGTERM arrives. Unsaved
// changes are flushed on the way out unless storage is unavailable.
func (d *Daemon) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.opts.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.opts.Address, err)
	}
	d.mu.Lock()
	d.addr = ln.Addr().String()
	d.mu.Unlock()
	close(d.ready)

	httpServer := &http.Server{
		Handler:           d.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.logger.Info("Starting HTTP server", zap.String("address", d.Addr()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if d.opts.AutosaveInterval > 0 {
		g.Go(func() error {
			d.autosaveLoop(gCtx)
			return nil
		})
	}

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			d.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		case <-gCtx.Done():
			d.logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), d.opts.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			d.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
		return nil
	})

	err = g.Wait()
	d.flush()
	if err != nil {
		d.logger.Error("Daemon error", zap.Error(err))
		return err
	}

	d.logger.Info("Daemon stopped")
	return nil
}

// runInBackground runs the daemon on its own goroutine. The result is sent
// on done, which must have room for one value, and stop is called afterwards
// whether Run failed early or shut down normally.
func (d *Daemon) runInBackground(done chan<- error, stop func()) {
	go func() {
		err := d.Run(d.ctx)
		done <- err
		stop()
	}()
}

func (d *Daemon) autosaveLoop(ctx context.Context) {
	d.logger.Info("Autosave enabled", zap.Duration("interval", d.opts.AutosaveInterval))
	ticker := time.NewTicker(d.opts.AutosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !d.planner.Dirty() {
				d.logger.Debug("No unsaved changes, skipping autosave")
				continue
			}
			if d.planner.Degraded() {
				d.logger.Debug("Storage unavailable, skipping autosave")
				continue
			}
			if err := d.save(ctx); err != nil {
				d.logger.Warn("Autosave failed", zap.Error(err))
			}
		}
	}
}

// flush saves pending changes at shutdown
func (d *Daemon) flush() {
	if !d.planner.Dirty() {
		return
	}
	if d.planner.Degraded() {
		d.logger.Warn("Unsaved changes discarded, storage unavailable")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.ShutdownTimeout)
	defer cancel()
	if err := d.save(ctx); err != nil {
		d.logger.Error("Final save failed", zap.Error(err))
	}
}

func (d *Daemon) save(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.planner.Save(ctx); err != nil {
		return err
	}
	d.lastSave = time.Now()
	return nil
}

// SaveNow saves immediately (called from tray menu)
func (d *Daemon) SaveNow() {
	d.logger.Info("Manual save triggered from tray")
	if err := d.save(d.ctx); err != nil {
		d.logger.Error("Manual save failed", zap.Error(err))
		if d.trayApp != nil {
			d.trayApp.ShowNotification("Save Failed", fmt.Sprintf("Error: %v", err))
		}
		return
	}
	if d.trayApp != nil {
		d.trayApp.ShowNotification("Saved", "Plan saved")
	}
}

// Status is a snapshot of the running daemon
type Status struct {
	Address  string
	Summary  budget.Summary
	Dirty    bool
	Degraded bool
	LastSave time.Time
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() Status {
	d.mu.Lock()
	addr, lastSave := d.addr, d.lastSave
	d.mu.Unlock()

	return Status{
		Address:  addr,
		Summary:  d.planner.Summary(),
		Dirty:    d.planner.Dirty(),
		Degraded: d.planner.Degraded(),
		LastSave: lastSave,
	}
}

// Text renders the status for a tooltip or message box
func (s Status) Text() string {
	text := fmt.Sprintf("Listening: %s\nBudget: %s\nConsumed: %s\nRemaining: %s",
		s.Address,
		budget.FormatDays(s.Summary.BudgetDays),
		budget.FormatDays(s.Summary.Consumed),
		budget.FormatDays(s.Summary.Remaining))
	switch {
	case s.Degraded:
		text += "\nStorage: unavailable (local only)"
	case s.Dirty:
		text += "\nStorage: unsaved changes"
	default:
		text += "\nStorage: saved"
	}
	if !s.LastSave.IsZero() {
		text += "\nLast save: " + s.LastSave.Format("15:04:05")
	}
	return text
}
