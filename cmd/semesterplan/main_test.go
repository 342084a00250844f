package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
	"github.com/PontusDahlberg/Semesterappen/internal/config"
	"github.com/PontusDahlberg/Semesterappen/internal/persistence"
	"github.com/PontusDahlberg/Semesterappen/internal/planner"
	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
	"go.uber.org/zap"
)

type flakyGateway struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	loadErr error
}

func (g *flakyGateway) Load(_ context.Context, key string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	blob, ok := g.blobs[key]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return blob, nil
}

func (g *flakyGateway) Save(_ context.Context, key string, blob []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blobs[key] = blob
	return nil
}

func (g *flakyGateway) setLoadErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loadErr = err
}

func newPlanner(gw persistence.Gateway) *planner.Planner {
	repo := persistence.NewRepository(gw, "semester_databas.json", zap.NewNop())
	return planner.New(repo, planner.Options{
		Start:      dateutil.Date(2026, 1, 1),
		End:        dateutil.Date(2026, 12, 31),
		Holidays:   calendar.NewSwedishSource(),
		Overlay:    calendar.DefaultOverlay(),
		BudgetDays: 108,
	}, zap.NewNop())
}

func TestInitializeGateway(t *testing.T) {
	logger = zap.NewNop()
	dir := t.TempDir()

	tests := []struct {
		name    string
		storage config.StorageConfig
		check   func(t *testing.T, gw persistence.Gateway)
	}{
		{
			name:    "fs",
			storage: config.StorageConfig{Backend: config.BackendFS, Folder: filepath.Join(dir, "plans")},
			check: func(t *testing.T, gw persistence.Gateway) {
				if _, ok := gw.(*persistence.FSGateway); !ok {
					t.Errorf("gateway = %T, want *FSGateway", gw)
				}
			},
		},
		{
			name:    "sqlite",
			storage: config.StorageConfig{Backend: config.BackendSQLite, SQLitePath: filepath.Join(dir, "db", "plan.db")},
			check: func(t *testing.T, gw persistence.Gateway) {
				sq, ok := gw.(*persistence.SQLiteGateway)
				if !ok {
					t.Fatalf("gateway = %T, want *SQLiteGateway", gw)
				}
				_ = sq.Close()
			},
		},
		{
			name:    "none",
			storage: config.StorageConfig{Backend: config.BackendNone},
			check: func(t *testing.T, gw persistence.Gateway) {
				if _, ok := gw.(persistence.DisabledGateway); !ok {
					t.Errorf("gateway = %T, want DisabledGateway", gw)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage = tt.storage
			gw, err := initializeGateway(cfg)
			if err != nil {
				t.Fatalf("initializeGateway() error = %v", err)
			}
			tt.check(t, gw)
		})
	}
}

func TestInitializeHolidays(t *testing.T) {
	logger = zap.NewNop()

	cfg := config.Default()
	src, err := initializeHolidays(cfg)
	if err != nil {
		t.Fatalf("initializeHolidays() error = %v", err)
	}
	if _, ok := src.(*calendar.SwedishSource); !ok {
		t.Errorf("builtin source = %T, want *SwedishSource", src)
	}

	cfg.Calendar.Source = config.SourceNager
	src, err = initializeHolidays(cfg)
	if err != nil {
		t.Fatalf("initializeHolidays() error = %v", err)
	}
	if _, ok := src.(*calendar.CompositeSource); !ok {
		t.Errorf("nager source = %T, want *CompositeSource", src)
	}

	cfg.Calendar.Source = config.SourceFile
	cfg.Calendar.HolidaysFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := initializeHolidays(cfg); err == nil {
		t.Error("initializeHolidays() with missing file: want error")
	}
}

func TestValidateSecretsExitCodes(t *testing.T) {
	logger = zap.NewNop()
	configPath = filepath.Join(t.TempDir(), "absent.yaml")
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.toml")
	if err := os.WriteFile(broken, []byte("key = \"unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		code int
	}{
		{"missing", filepath.Join(dir, "nope.toml"), 2},
		{"parse error", broken, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validateSecretsCmd()
			cmd.SetArgs([]string{tt.path})
			err := cmd.Execute()
			var exit *exitError
			if !errors.As(err, &exit) {
				t.Fatalf("Execute() error = %v, want exitError", err)
			}
			if exit.code != tt.code {
				t.Errorf("exit code = %d, want %d", exit.code, tt.code)
			}
		})
	}
}

func TestSessionSave_LocalOnlyKeepsSavedPlan(t *testing.T) {
	logger = zap.NewNop()
	out, errOut = io.Discard, io.Discard
	t.Cleanup(func() { out, errOut = os.Stdout, os.Stderr })
	ctx := context.Background()

	gw := &flakyGateway{blobs: map[string][]byte{}}
	first := newPlanner(gw)
	if _, err := first.Open(ctx); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := first.Clone("Plan B"); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if err := first.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	saved := bytes.Clone(gw.blobs["semester_databas.json"])

	// Load fails once, then storage recovers before the command saves
	gw.setLoadErr(errors.New("timeout"))
	p := newPlanner(gw)
	if _, err := p.Open(ctx); !errors.Is(err, apperr.ErrPersistenceUnavailable) {
		t.Fatalf("Open() error = %v, want ErrPersistenceUnavailable", err)
	}
	gw.setLoadErr(nil)

	s := &session{cfg: config.Default(), planner: p}
	if _, err := s.planner.Mark(dateutil.Date(2026, 3, 2), calendar.StatusVacation, nil); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	if err := s.save(ctx, false); !errors.Is(err, apperr.ErrPersistenceUnavailable) {
		t.Fatalf("save() error = %v, want ErrPersistenceUnavailable", err)
	}
	if !bytes.Equal(gw.blobs["semester_databas.json"], saved) {
		t.Error("local-only session overwrote the saved plan")
	}

	reloaded := newPlanner(gw)
	if _, err := reloaded.Open(ctx); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := len(reloaded.Overview().Scenarios); got != 2 {
		t.Errorf("scenarios after save = %d, want 2", got)
	}
}
