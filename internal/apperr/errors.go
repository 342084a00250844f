// Package apperr defines the error taxonomy shared by the planner packages.
// Callers match with errors.Is; producers wrap with fmt.Errorf("...: %w", ...).
package apperr

import "errors"

var (
	// ErrInvalidRange reports malformed date bounds or an edit outside its month.
	ErrInvalidRange = errors.New("invalid range")
	// ErrDateSetMismatch reports an edit batch whose dates do not align with the target month.
	ErrDateSetMismatch = errors.New("date set mismatch")
	// ErrSchema reports a malformed persisted blob.
	ErrSchema = errors.New("schema error")
	// ErrPersistenceUnavailable reports a transport, auth or config failure of the
	// persistence gateway. The in-memory store stays valid and the call may be retried.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	// ErrNotFound signals that no blob exists yet (first run). It is not a failure.
	ErrNotFound = errors.New("not found")
	// ErrStalePlan reports a save from a local-only session while a saved plan
	// it never loaded exists. Saving would replace that plan.
	ErrStalePlan = errors.New("saved plan exists, reload before saving")

	ErrScenarioExists  = errors.New("scenario already exists")
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrInvalidName     = errors.New("invalid scenario name")
	ErrInvalidBudget   = errors.New("invalid budget")
)
