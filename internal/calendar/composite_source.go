package calendar

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CompositeSource implements HolidaySource with fallback strategy
// Primary: usually the HTTP API
// Fallback: usually the builtin table or a local file
type CompositeSource struct {
	primary  HolidaySource
	fallback HolidaySource
	logger   *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(primary, fallback HolidaySource, logger *zap.Logger) *CompositeSource {
	return &CompositeSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Holidays returns the primary source's table, or the fallback's when the
// primary fails
func (cs *CompositeSource) Holidays(ctx context.Context, year int) (HolidayTable, error) {
	table, err := cs.primary.Holidays(ctx, year)
	if err == nil {
		return table, nil
	}

	cs.logger.Warn("Primary holiday source failed, falling back",
		zap.Int("year", year),
		zap.Error(err))

	table, fallbackErr := cs.fallback.Holidays(ctx, year)
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary and fallback both failed: primary=%w, fallback=%v", err, fallbackErr)
	}
	return table, nil
}
