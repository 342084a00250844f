package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
)

// BaseType is the stored classification of a day, derived once at generation
type BaseType string

const (
	BaseWorkday           BaseType = "Workday"
	BaseRestrictedHoliday BaseType = "RestrictedHoliday"
)

// Valid reports whether b is a known base type
func (b BaseType) Valid() bool {
	return b == BaseWorkday || b == BaseRestrictedHoliday
}

// Kind is the effective, view-time classification of a day
type Kind string

const (
	KindWorkday           Kind = "Workday"
	KindRestrictedHoliday Kind = "RestrictedHoliday"
	// KindRestrictedWork is a workday locked for business reasons that still
	// accepts vacation marks.
	KindRestrictedWork Kind = "RestrictedWork"
)

// Bookable reports whether vacation and half-day marks count on this kind of day
func (k Kind) Bookable() bool {
	return k == KindWorkday || k == KindRestrictedWork
}

// Status is the single user mark on a day
type Status int

const (
	StatusNone Status = iota
	StatusVacation
	StatusHalfDay
	StatusExtraLeave
	StatusSick
)

var statusNames = map[Status]string{
	StatusNone:       "none",
	StatusVacation:   "vacation",
	StatusHalfDay:    "halfday",
	StatusExtraLeave: "extraleave",
	StatusSick:       "sick",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus parses a status name. Short aliases are accepted.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "clear":
		return StatusNone, nil
	case "vacation", "full", "semester":
		return StatusVacation, nil
	case "halfday", "half", "half-day":
		return StatusHalfDay, nil
	case "extraleave", "extra", "extra-leave", "leave":
		return StatusExtraLeave, nil
	case "sick":
		return StatusSick, nil
	}
	return StatusNone, fmt.Errorf("unknown status %q", s)
}

// Days returns the budget weight of the status: 1 for a full vacation day,
// 0.5 for a half day and 0 otherwise.
func (s Status) Days() float64 {
	switch s {
	case StatusVacation:
		return 1
	case StatusHalfDay:
		return 0.5
	}
	return 0
}

// Marks is the boolean form of a status as exchanged with edit surfaces and
// persisted blobs. Several flags may be set at once; Normalize collapses them.
type Marks struct {
	Vacation   bool
	HalfDay    bool
	ExtraLeave bool
	Sick       bool
}

// Normalize collapses the flags into a single status.
//
// Flags are resolved in a fixed order: extra leave clears vacation, sick clears
// vacation, half day clears vacation, extra leave and sick, and vacation
// clears half day. Extra leave and sick together resolve to sick. The
// resulting precedence is HalfDay > Sick > ExtraLeave > Vacation.
func (m Marks) Normalize() Status {
	switch {
	case m.HalfDay:
		return StatusHalfDay
	case m.Sick:
		return StatusSick
	case m.ExtraLeave:
		return StatusExtraLeave
	case m.Vacation:
		return StatusVacation
	}
	return StatusNone
}

// Marks returns the boolean form of the status; at most one flag is set
func (s Status) Marks() Marks {
	return Marks{
		Vacation:   s == StatusVacation,
		HalfDay:    s == StatusHalfDay,
		ExtraLeave: s == StatusExtraLeave,
		Sick:       s == StatusSick,
	}
}

// Day is the per-date record of calendar classification and user marks
type Day struct {
	Date   time.Time
	Week   int
	Base   BaseType
	Label  string
	Status Status
	Note   string
}

// Key returns the YYYY-MM-DD key of the day
func (d Day) Key() string {
	return dateutil.Format(d.Date)
}

// HolidayTable maps YYYY-MM-DD to a holiday label
type HolidayTable map[string]string

// Lookup returns the label of the holiday on date, if any
func (h HolidayTable) Lookup(date time.Time) (string, bool) {
	label, ok := h[dateutil.Format(date)]
	return label, ok
}

// Add records a holiday on date
func (h HolidayTable) Add(date time.Time, label string) {
	h[dateutil.Format(date)] = label
}

// Merge copies all entries of other into h; entries in other win
func (h HolidayTable) Merge(other HolidayTable) {
	for k, v := range other {
		h[k] = v
	}
}

// HolidaySource provides the public holidays of one country for a year
type HolidaySource interface {
	Holidays(ctx context.Context, year int) (HolidayTable, error)
}

// CollectHolidays gathers the holidays of every year spanned by [start, end]
func CollectHolidays(ctx context.Context, src HolidaySource, start, end time.Time) (HolidayTable, error) {
	table := HolidayTable{}
	for year := start.Year(); year <= end.Year(); year++ {
		yearTable, err := src.Holidays(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("holidays for %d: %w", year, err)
		}
		table.Merge(yearTable)
	}
	return table, nil
}
