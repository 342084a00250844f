package calendar

import (
	"fmt"
	"time"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
)

// Generate returns one day record per date in [start, end] inclusive, in date
// order. Weekends and dates in holidays are RestrictedHoliday; only holiday
// matches carry a label. The result depends on nothing but the arguments.
func Generate(start, end time.Time, holidays HolidayTable) ([]Day, error) {
	start = dateutil.StartOfDay(start)
	end = dateutil.StartOfDay(end)
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: zero date bound", apperr.ErrInvalidRange)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s",
			apperr.ErrInvalidRange, dateutil.Format(start), dateutil.Format(end))
	}

	days := make([]Day, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		_, week := dateutil.GetWeekNumber(d)
		day := Day{
			Date: d,
			Week: week,
			Base: BaseWorkday,
		}

		label, isHoliday := holidays.Lookup(d)
		if isHoliday || dateutil.IsWeekend(d) {
			day.Base = BaseRestrictedHoliday
		}
		if isHoliday {
			day.Label = label
		}

		days = append(days, day)
	}

	return days, nil
}
