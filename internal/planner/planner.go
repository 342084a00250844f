// Package planner sequences the operations of one planning session: it owns
// the in-memory scenario store, answers queries from it and moves it through
// the persistence repository.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
	"github.com/PontusDahlberg/Semesterappen/internal/budget"
	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
	"github.com/PontusDahlberg/Semesterappen/internal/persistence"
	"github.com/PontusDahlberg/Semesterappen/internal/scenario"
	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options describes how fresh plans are built and how days are classified
type Options struct {
	Start      time.Time
	End        time.Time
	Holidays   calendar.HolidaySource
	Overlay    calendar.Overlay
	BudgetDays float64
	// Now returns the current time; defaults to time.Now
	Now func() time.Time
}

// OpenResult tells how the session store was obtained
type OpenResult string

const (
	OpenLoaded    OpenResult = "loaded"
	OpenFresh     OpenResult = "fresh"
	OpenLocalOnly OpenResult = "local-only"
)

// Planner manages one planning session. All methods are safe for
// concurrent use; commands are applied one at a time.
type Planner struct {
	mu        sync.Mutex
	repo      *persistence.Repository
	opts      Options
	store     *scenario.Store
	degraded  bool
	dirty     bool
	sessionID string
	logger    *zap.Logger
}

// New creates a planner. Open must be called before any other method.
func New(repo *persistence.Repository, opts Options, logger *zap.Logger) *Planner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BudgetDays <= 0 {
		opts.BudgetDays = scenario.DefaultBudgetDays
	}
	sessionID := uuid.NewString()
	return &Planner{
		repo:      repo,
		opts:      opts,
		sessionID: sessionID,
		logger:    logger.With(zap.String("session_id", sessionID)),
	}
}

// SessionID returns the id attached to this session's log entries
func (p *Planner) SessionID() string {
	return p.sessionID
}

// Open loads the saved plan. On first run a fresh default scenario is
// generated. When storage is unavailable the session continues local-only
// with a fresh plan and the cause is returned alongside OpenLocalOnly.
// A malformed saved plan is a hard error; it is never replaced silently.
func (p *Planner) Open(ctx context.Context) (OpenResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	store, err := p.repo.Load(ctx)
	switch {
	case err == nil:
		p.store = store
		p.logger.Info("Session opened",
			zap.String("result", string(OpenLoaded)),
			zap.String("scenario", store.CurrentName()))
		return OpenLoaded, nil

	case errors.Is(err, apperr.ErrNotFound):
		budgetDays := p.opts.BudgetDays
		var empty *persistence.EmptyPlanError
		if errors.As(err, &empty) && empty.BudgetDays > 0 {
			budgetDays = empty.BudgetDays
		}
		if p.store, err = p.freshStore(ctx, budgetDays); err != nil {
			return "", err
		}
		p.dirty = true
		p.logger.Info("Session opened with a new plan",
			zap.String("result", string(OpenFresh)),
			zap.Int("days", len(p.store.Current().Days)))
		return OpenFresh, nil

	case errors.Is(err, apperr.ErrPersistenceUnavailable):
		fresh, freshErr := p.freshStore(ctx, p.opts.BudgetDays)
		if freshErr != nil {
			return "", freshErr
		}
		p.store = fresh
		p.degraded = true
		p.dirty = true
		p.logger.Warn("Storage unavailable, running local-only",
			zap.String("result", string(OpenLocalOnly)),
			zap.Error(err))
		return OpenLocalOnly, err
	}

	return "", fmt.Errorf("failed to open plan: %w", err)
}

func (p *Planner) freshStore(ctx context.Context, budgetDays float64) (*scenario.Store, error) {
	holidays, err := calendar.CollectHolidays(ctx, p.opts.Holidays, p.opts.Start, p.opts.End)
	if err != nil {
		return nil, fmt.Errorf("failed to collect holidays: %w", err)
	}
	days, err := calendar.Generate(p.opts.Start, p.opts.End, holidays)
	if err != nil {
		return nil, fmt.Errorf("failed to generate calendar: %w", err)
	}
	return scenario.NewStore(scenario.DefaultName, days, budgetDays)
}

// Overview lists the scenarios and the current budget state
func (p *Planner) Overview() Overview {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overview()
}

// Select makes name the current scenario
func (p *Planner) Select(name string) (Overview, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Select(name); err != nil {
		return Overview{}, err
	}
	p.logger.Info("Scenario selected", zap.String("scenario", name))
	return p.overview(), nil
}

// Clone copies the current scenario under name and selects the copy
func (p *Planner) Clone(name string) (Overview, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	from := p.store.CurrentName()
	created, err := p.store.Clone(name)
	if err != nil {
		return Overview{}, err
	}
	p.dirty = true
	p.logger.Info("Scenario cloned",
		zap.String("from", from),
		zap.String("scenario", created.Name))
	return p.overview(), nil
}

// Month returns the current scenario's records of one month
func (p *Planner) Month(year int, month time.Month) (MonthView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	days, err := p.store.MonthSlice(year, month)
	if err != nil {
		return MonthView{}, err
	}
	return p.monthView(year, month, days), nil
}

// ApplyMonthEdits merges an edit batch for one month into the current
// scenario and returns the updated month with the new budget state
func (p *Planner) ApplyMonthEdits(year int, month time.Month, edits []scenario.Edit) (MonthView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.applyMonthEdits(year, month, edits)
}

func (p *Planner) applyMonthEdits(year int, month time.Month, edits []scenario.Edit) (MonthView, error) {
	if _, err := p.store.ApplyMonthEdits(year, month, edits); err != nil {
		return MonthView{}, err
	}
	p.dirty = true

	days, err := p.store.MonthSlice(year, month)
	if err != nil {
		return MonthView{}, err
	}
	view := p.monthView(year, month, days)
	p.logger.Info("Month updated",
		zap.String("scenario", view.Scenario),
		zap.String("month", fmt.Sprintf("%d-%02d", year, int(month))),
		zap.Float64("consumed", view.Summary.Consumed),
		zap.Float64("remaining", view.Summary.Remaining))
	return view, nil
}

// Mark sets the status of one day, and its note when note is non-nil,
// through the regular month merge
func (p *Planner) Mark(date time.Time, status calendar.Status, note *string) (MonthView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	year, month := date.Year(), date.Month()
	days, err := p.store.MonthSlice(year, month)
	if err != nil {
		return MonthView{}, err
	}

	edits := scenario.EditsFromDays(days)
	found := false
	for i := range edits {
		if dateutil.IsSameDay(edits[i].Date, date) {
			edits[i].Marks = status.Marks()
			if note != nil {
				edits[i].Note = *note
			}
			found = true
		}
	}
	if !found {
		return MonthView{}, fmt.Errorf("%w: %s is outside the scenario", apperr.ErrInvalidRange, dateutil.Format(date))
	}

	return p.applyMonthEdits(year, month, edits)
}

// SetBudgetDays changes the vacation budget
func (p *Planner) SetBudgetDays(days float64) (budget.Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.SetBudgetDays(days); err != nil {
		return budget.Summary{}, err
	}
	p.dirty = true
	p.logger.Info("Budget changed", zap.Float64("budget_days", days))
	return p.summary(), nil
}

// Summary returns the budget state of the current scenario
func (p *Planner) Summary() budget.Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summary()
}

// Report builds the plain summary export of the current scenario
func (p *Planner) Report(topN, holidaysN int) budget.Report {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.store.Current()
	r := budget.BuildReport(current.Days, p.store.BudgetDays(), p.opts.Overlay, p.opts.Now(), topN, holidaysN)
	r.Scenario = current.Name
	return r
}

// Save writes the whole store. On failure the in-memory plan is kept and the
// call may be retried. A local-only session saves only when storage is back
// and still holds no plan; otherwise it fails with apperr.ErrStalePlan and the
// saved plan is left alone.
func (p *Planner) Save(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.degraded {
		if err := p.checkNoSavedPlan(ctx); err != nil {
			p.logger.Warn("Save refused, session is local-only", zap.Error(err))
			return err
		}
	}

	if err := p.repo.Save(ctx, p.store); err != nil {
		p.logger.Warn("Save failed, plan kept in memory", zap.Error(err))
		return err
	}
	p.dirty = false
	p.degraded = false
	return nil
}

func (p *Planner) checkNoSavedPlan(ctx context.Context) error {
	_, err := p.repo.Load(ctx)
	switch {
	case err == nil:
		return apperr.ErrStalePlan
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case errors.Is(err, apperr.ErrSchema):
		return fmt.Errorf("%w: %w", apperr.ErrStalePlan, err)
	}
	return err
}

// Reload replaces the in-memory plan with the saved one. The current
// scenario is kept when it still exists. On failure nothing changes.
func (p *Planner) Reload(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	store, err := p.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload plan: %w", err)
	}
	_ = store.Select(p.store.CurrentName())
	p.store = store
	p.dirty = false
	p.degraded = false
	p.logger.Info("Plan reloaded", zap.String("scenario", store.CurrentName()))
	return nil
}

// Degraded reports whether the session runs without working storage
func (p *Planner) Degraded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.degraded
}

// Dirty reports whether the plan has changes that are not saved
func (p *Planner) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

func (p *Planner) summary() budget.Summary {
	return budget.Summarize(p.store.Current().Days, p.store.BudgetDays(), p.opts.Overlay)
}

func (p *Planner) overview() Overview {
	o := Overview{
		Current:  p.store.CurrentName(),
		Summary:  p.summary(),
		Degraded: p.degraded,
		Dirty:    p.dirty,
	}
	for _, name := range p.store.Names() {
		s, err := p.store.Scenario(name)
		if err != nil {
			continue
		}
		sum := budget.Summarize(s.Days, p.store.BudgetDays(), p.opts.Overlay)
		o.Scenarios = append(o.Scenarios, ScenarioInfo{
			Name:      name,
			Current:   name == o.Current,
			Consumed:  sum.Consumed,
			Remaining: sum.Remaining,
		})
	}
	return o
}

func (p *Planner) monthView(year int, month time.Month, days []calendar.Day) MonthView {
	view := MonthView{
		Scenario: p.store.CurrentName(),
		Year:     year,
		Month:    int(month),
		Days:     make([]DayView, 0, len(days)),
		Summary:  p.summary(),
	}
	for _, d := range days {
		view.Days = append(view.Days, NewDayView(d, p.opts.Overlay))
	}
	return view
}
