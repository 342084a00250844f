package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
	"github.com/PontusDahlberg/Semesterappen/internal/config"
	"github.com/PontusDahlberg/Semesterappen/internal/persistence"
	"github.com/PontusDahlberg/Semesterappen/internal/planner"
	"go.uber.org/zap"
)

// session is an opened planner plus the resources behind it
type session struct {
	cfg     *config.Config
	planner *planner.Planner
	closers []func() error
}

func (s *session) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
}

// openSession loads config, wires holidays and storage, and opens the plan.
// A storage outage is reported on stderr and the session continues local-only.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	start, end, err := cfg.Calendar.Range()
	if err != nil {
		return nil, err
	}

	holidays, err := initializeHolidays(cfg)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	gateway, err := initializeGateway(cfg)
	if err != nil {
		// Unreachable storage is not fatal: the planner runs local-only
		logger.Warn("Storage backend unavailable", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
		gateway = persistence.UnavailableGateway{Cause: err}
	}
	if c, ok := gateway.(interface{ Close() error }); ok {
		s.closers = append(s.closers, c.Close)
	}

	repo := persistence.NewRepository(gateway, cfg.Storage.Filename, logger)
	s.planner = planner.New(repo, planner.Options{
		Start:      start,
		End:        end,
		Holidays:   holidays,
		Overlay:    calendar.Overlay{LockoutFridays: cfg.Calendar.LockoutFridays},
		BudgetDays: cfg.Budget.Days,
	}, logger)

	result, err := s.planner.Open(ctx)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrPersistenceUnavailable):
		warnf("Storage unavailable, working locally. Changes will not be saved until storage is back.\n")
	default:
		s.Close()
		return nil, err
	}
	logger.Debug("Plan opened", zap.String("result", string(result)))

	if scenarioName != "" {
		if _, err := s.planner.Select(scenarioName); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// save persists the plan unless dryRun is set. A session opened while storage
// was unavailable holds a placeholder plan and is never saved.
func (s *session) save(ctx context.Context, dryRun bool) error {
	if dryRun {
		printf("Dry run: changes not saved\n")
		return nil
	}
	if s.planner.Degraded() {
		warnf("Working locally, not saved: storage was unavailable when the plan was opened\n")
		return fmt.Errorf("changes not saved: %w", apperr.ErrPersistenceUnavailable)
	}
	if err := s.planner.Save(ctx); err != nil {
		return fmt.Errorf("changes kept locally but not saved: %w", err)
	}
	printf("Saved\n")
	return nil
}

func initializeHolidays(cfg *config.Config) (calendar.HolidaySource, error) {
	builtin := calendar.NewSwedishSource()
	if cfg.Calendar.Country != "SE" && cfg.Calendar.Source == config.SourceBuiltin {
		logger.Warn("Builtin holidays cover Sweden only", zap.String("country", cfg.Calendar.Country))
	}

	var fallback calendar.HolidaySource = builtin
	if cfg.Calendar.HolidaysFile != "" {
		fileSource := calendar.NewFileSource(cfg.Calendar.HolidaysFile, logger)
		if err := fileSource.Load(); err != nil {
			if cfg.Calendar.Source == config.SourceFile {
				return nil, fmt.Errorf("failed to load holidays file: %w", err)
			}
			logger.Warn("Failed to load holidays file, using builtin fallback", zap.Error(err))
		} else {
			fallback = fileSource
		}
	}

	switch cfg.Calendar.Source {
	case config.SourceBuiltin:
		logger.Debug("Using builtin Swedish holidays")
		return builtin, nil

	case config.SourceFile:
		logger.Debug("Using holidays file", zap.String("file", cfg.Calendar.HolidaysFile))
		return fallback, nil

	case config.SourceNager:
		logger.Debug("Using holiday API", zap.String("url", cfg.Calendar.APIURL))
		primary := calendar.NewHTTPSource(
			cfg.Calendar.APIURL,
			cfg.Calendar.Country,
			cfg.Calendar.GetCacheTTL(),
			logger,
		)
		return calendar.NewCompositeSource(primary, fallback, logger), nil

	default:
		return nil, fmt.Errorf("unknown holiday source: %s", cfg.Calendar.Source)
	}
}

func initializeGateway(cfg *config.Config) (persistence.Gateway, error) {
	switch cfg.Storage.Backend {
	case config.BackendFS:
		return persistence.NewFSGateway(cfg.Storage.FolderID())

	case config.BackendSQLite:
		if err := ensureDir(filepath.Dir(cfg.Storage.SQLitePath)); err != nil {
			return nil, err
		}
		return persistence.OpenSQLiteGateway(cfg.Storage.SQLitePath)

	case config.BackendNone:
		return persistence.DisabledGateway{}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
