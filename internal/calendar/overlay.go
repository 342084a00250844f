package calendar

import (
	"time"

	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
)

// Overlay reclassifies days at read time without touching stored records.
// With LockoutFridays set, every workday Friday in an even ISO week becomes
// RestrictedWork.
type Overlay struct {
	LockoutFridays bool
}

// DefaultOverlay returns the overlay with the Friday lockout enabled
func DefaultOverlay() Overlay {
	return Overlay{LockoutFridays: true}
}

// Kind returns the effective kind of day
func (o Overlay) Kind(day Day) Kind {
	if day.Base == BaseRestrictedHoliday {
		return KindRestrictedHoliday
	}
	if o.LockoutFridays && IsLockoutFriday(day.Date) {
		return KindRestrictedWork
	}
	return KindWorkday
}

// IsLockoutFriday reports whether date is a Friday in an even ISO week
func IsLockoutFriday(date time.Time) bool {
	if date.Weekday() != time.Friday {
		return false
	}
	_, week := dateutil.GetWeekNumber(date)
	return week%2 == 0
}
