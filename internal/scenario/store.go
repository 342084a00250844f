// Package scenario holds named, independent day sequences ("what-if" plans)
// and merges month-scoped edit batches back into them.
package scenario

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
)

const (
	// DefaultName is the name of the scenario synthesized on first run
	DefaultName = "Utkast 1"
	// DefaultBudgetDays is the budget used when none is configured or persisted
	DefaultBudgetDays = 108.0
)

// Scenario is a named, date-ascending sequence of day records
type Scenario struct {
	Name string
	Days []calendar.Day
}

// Store maps scenario names to day sequences and carries the budget setting
// and the current-scenario pointer. Callers own the instance; every failed
// operation leaves it unchanged.
type Store struct {
	scenarios  map[string][]calendar.Day
	order      []string
	current    string
	budgetDays float64
}

// NewStore creates a store holding a single scenario, which becomes current
func NewStore(name string, days []calendar.Day, budgetDays float64) (*Store, error) {
	s := NewEmptyStore()
	if err := s.SetBudgetDays(budgetDays); err != nil {
		return nil, err
	}
	if err := s.Add(name, days); err != nil {
		return nil, err
	}
	return s, nil
}

// NewEmptyStore creates a store without scenarios and the default budget
func NewEmptyStore() *Store {
	return &Store{
		scenarios:  make(map[string][]calendar.Day),
		budgetDays: DefaultBudgetDays,
	}
}

// Add inserts a scenario. The name is trimmed and must not be blank. The
// first scenario added becomes current. Days must be strictly date-ascending.
func (s *Store) Add(name string, days []calendar.Day) error {
	name, err := validName(name)
	if err != nil {
		return err
	}
	return s.insert(name, days)
}

// Restore inserts a scenario under its name exactly as stored, including
// blank names or surrounding spaces. Used when loading saved plans.
func (s *Store) Restore(name string, days []calendar.Day) error {
	return s.insert(name, days)
}

func (s *Store) insert(name string, days []calendar.Day) error {
	if _, exists := s.scenarios[name]; exists {
		return fmt.Errorf("%w: %q", apperr.ErrScenarioExists, name)
	}
	for i := 1; i < len(days); i++ {
		if !days[i].Date.After(days[i-1].Date) {
			return fmt.Errorf("%w: scenario %q is not strictly date-ascending at %s",
				apperr.ErrInvalidRange, name, days[i].Key())
		}
	}

	if len(s.order) == 0 {
		s.current = name
	}
	s.scenarios[name] = slices.Clone(days)
	s.order = append(s.order, name)
	return nil
}

// Len returns the number of scenarios
func (s *Store) Len() int {
	return len(s.order)
}

// Names returns scenario names in insertion order
func (s *Store) Names() []string {
	return slices.Clone(s.order)
}

// CurrentName returns the name of the current scenario
func (s *Store) CurrentName() string {
	return s.current
}

// Current returns a copy of the current scenario
func (s *Store) Current() Scenario {
	return Scenario{Name: s.current, Days: slices.Clone(s.scenarios[s.current])}
}

// Scenario returns a copy of the named scenario
func (s *Store) Scenario(name string) (Scenario, error) {
	days, ok := s.scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", apperr.ErrUnknownScenario, name)
	}
	return Scenario{Name: name, Days: slices.Clone(days)}, nil
}

// Select makes name the current scenario
func (s *Store) Select(name string) error {
	if _, ok := s.scenarios[name]; !ok {
		return fmt.Errorf("%w: %q", apperr.ErrUnknownScenario, name)
	}
	s.current = name
	return nil
}

// Clone copies the current scenario under newName and selects the copy
func (s *Store) Clone(newName string) (Scenario, error) {
	if len(s.order) == 0 {
		return Scenario{}, fmt.Errorf("%w: store has no scenarios", apperr.ErrUnknownScenario)
	}
	newName, err := validName(newName)
	if err != nil {
		return Scenario{}, err
	}
	if err := s.Add(newName, s.scenarios[s.current]); err != nil {
		return Scenario{}, err
	}
	s.current = newName
	return s.Current(), nil
}

// BudgetDays returns the configured vacation budget
func (s *Store) BudgetDays() float64 {
	return s.budgetDays
}

// SetBudgetDays changes the vacation budget; it must be positive
func (s *Store) SetBudgetDays(days float64) error {
	if !(days > 0) {
		return fmt.Errorf("%w: budget must be positive, got %v", apperr.ErrInvalidBudget, days)
	}
	s.budgetDays = days
	return nil
}

// MonthSlice returns a copy of the current scenario's records in (year, month)
func (s *Store) MonthSlice(year int, month time.Month) ([]calendar.Day, error) {
	lo, hi := monthBounds(s.scenarios[s.current], year, month)
	if lo == hi {
		return nil, fmt.Errorf("%w: %d-%02d is outside scenario %q",
			apperr.ErrInvalidRange, year, int(month), s.current)
	}
	return slices.Clone(s.scenarios[s.current][lo:hi]), nil
}

// ApplyMonthEdits merges a month's edit batch into the current scenario and
// returns the updated scenario. On error the store is unchanged.
func (s *Store) ApplyMonthEdits(year int, month time.Month, edits []Edit) (Scenario, error) {
	merged, err := MergeMonth(s.scenarios[s.current], year, month, edits)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: %w", s.current, err)
	}
	s.scenarios[s.current] = merged
	return s.Current(), nil
}

// Equal reports whether both stores hold the same scenarios and budget.
// Scenario order and the current pointer are not compared.
func (s *Store) Equal(other *Store) bool {
	if s.budgetDays != other.budgetDays || len(s.scenarios) != len(other.scenarios) {
		return false
	}
	for name, days := range s.scenarios {
		otherDays, ok := other.scenarios[name]
		if !ok || !slices.EqualFunc(days, otherDays, dayEqual) {
			return false
		}
	}
	return true
}

func dayEqual(a, b calendar.Day) bool {
	return a.Date.Equal(b.Date) &&
		a.Week == b.Week &&
		a.Base == b.Base &&
		a.Label == b.Label &&
		a.Status == b.Status &&
		a.Note == b.Note
}

func validName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: name is empty", apperr.ErrInvalidName)
	}
	return trimmed, nil
}

// monthBounds returns the half-open index range of days in (year, month).
// days is date-ascending, so the range is contiguous.
func monthBounds(days []calendar.Day, year int, month time.Month) (int, int) {
	first := dateutil.StartOfMonth(year, month)
	lo, _ := slices.BinarySearchFunc(days, first, func(d calendar.Day, t time.Time) int {
		return d.Date.Compare(t)
	})
	hi := lo
	for hi < len(days) && dateutil.InMonth(days[hi].Date, year, month) {
		hi++
	}
	return lo, hi
}
