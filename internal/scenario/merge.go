package scenario

import (
	"fmt"
	"slices"
	"time"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
)

// Edit is the post-edit state of one day as produced by an editing surface.
// Only the marks and the note are editable; date, week, base type and label
// of the stored record are kept.
type Edit struct {
	Date  time.Time
	Marks calendar.Marks
	Note  string
}

// EditFromDay returns the edit that leaves day unchanged
func EditFromDay(day calendar.Day) Edit {
	return Edit{Date: day.Date, Marks: day.Status.Marks(), Note: day.Note}
}

// EditsFromDays converts a month slice into an unchanged edit batch
func EditsFromDays(days []calendar.Day) []Edit {
	edits := make([]Edit, len(days))
	for i, d := range days {
		edits[i] = EditFromDay(d)
	}
	return edits
}

// MergeMonth writes edits into the (year, month) sub-range of days and
// returns a new slice; days itself is not modified. The edit dates must
// match the sub-range dates one to one. Records outside the month are copied
// unchanged.
func MergeMonth(days []calendar.Day, year int, month time.Month, edits []Edit) ([]calendar.Day, error) {
	for _, e := range edits {
		if !dateutil.InMonth(e.Date, year, month) {
			return nil, fmt.Errorf("%w: edit for %s is outside %d-%02d",
				apperr.ErrInvalidRange, dateutil.Format(e.Date), year, int(month))
		}
	}

	lo, hi := monthBounds(days, year, month)
	if lo == hi {
		return nil, fmt.Errorf("%w: %d-%02d is outside the scenario range",
			apperr.ErrInvalidRange, year, int(month))
	}

	byDate := make(map[string]Edit, len(edits))
	for _, e := range edits {
		key := dateutil.Format(e.Date)
		if _, dup := byDate[key]; dup {
			return nil, fmt.Errorf("%w: duplicate edit for %s", apperr.ErrDateSetMismatch, key)
		}
		byDate[key] = e
	}
	if len(byDate) != hi-lo {
		return nil, fmt.Errorf("%w: got %d edits for %d days in %d-%02d",
			apperr.ErrDateSetMismatch, len(byDate), hi-lo, year, int(month))
	}

	merged := slices.Clone(days)
	for i := lo; i < hi; i++ {
		e, ok := byDate[merged[i].Key()]
		if !ok {
			return nil, fmt.Errorf("%w: no edit for %s", apperr.ErrDateSetMismatch, merged[i].Key())
		}
		merged[i].Status = e.Marks.Normalize()
		merged[i].Note = e.Note
	}

	return merged, nil
}
