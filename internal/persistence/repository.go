package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
	"github.com/PontusDahlberg/Semesterappen/internal/scenario"
	"go.uber.org/zap"
)

// EmptyPlanError reports a saved blob without scenarios. It matches
// apperr.ErrNotFound; BudgetDays is the budget the blob stores, or zero.
type EmptyPlanError struct {
	Key        string
	BudgetDays float64
}

func (e *EmptyPlanError) Error() string {
	return fmt.Sprintf("%s holds no scenarios", e.Key)
}

func (e *EmptyPlanError) Unwrap() error {
	return apperr.ErrNotFound
}

// Repository loads and saves one logical store through a gateway. Loads and
// saves are serialized; a save is a full overwrite.
type Repository struct {
	gateway Gateway
	key     string
	mu      sync.Mutex
	logger  *zap.Logger
}

// NewRepository creates a repository for the blob named key
func NewRepository(gateway Gateway, key string, logger *zap.Logger) *Repository {
	return &Repository{
		gateway: gateway,
		key:     key,
		logger:  logger,
	}
}

// Key returns the blob name
func (r *Repository) Key() string {
	return r.key
}

// Load fetches and decodes the store. It returns an error wrapping
// apperr.ErrNotFound when nothing has been saved yet (or the blob holds no
// scenarios), apperr.ErrSchema for a malformed blob and
// apperr.ErrPersistenceUnavailable for gateway failures.
func (r *Repository) Load(ctx context.Context) (*scenario.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	blob, err := r.gateway.Load(ctx, r.key)
	if errors.Is(err, apperr.ErrNotFound) {
		r.logger.Info("No saved plan found", zap.String("key", r.key))
		return nil, err
	}
	if err != nil {
		return nil, unavailable("load", r.key, err)
	}

	store, err := Deserialize(blob)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key, err)
	}
	if store.Len() == 0 {
		budgetDays, _ := storedBudget(blob)
		return nil, &EmptyPlanError{Key: r.key, BudgetDays: budgetDays}
	}

	r.logger.Info("Plan loaded",
		zap.String("key", r.key),
		zap.Int("scenarios", store.Len()),
		zap.Float64("budget_days", store.BudgetDays()))
	return store, nil
}

// Save encodes the store and overwrites the blob. The store is not modified.
func (r *Repository) Save(ctx context.Context, store *scenario.Store) error {
	blob, err := Serialize(store)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.gateway.Save(ctx, r.key, blob); err != nil {
		return unavailable("save", r.key, err)
	}

	r.logger.Info("Plan saved",
		zap.String("key", r.key),
		zap.Int("scenarios", store.Len()),
		zap.Int("bytes", len(blob)))
	return nil
}

func unavailable(op, key string, err error) error {
	if errors.Is(err, apperr.ErrPersistenceUnavailable) {
		return fmt.Errorf("%s %s: %w", op, key, err)
	}
	return fmt.Errorf("%s %s: %w: %w", op, key, apperr.ErrPersistenceUnavailable, err)
}
