// Package budget derives vacation consumption from a scenario's day records.
// Every value is computed on demand from the records; nothing is cached.
package budget

import (
	"cmp"
	"slices"
	"time"

	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
)

// Summary is the budget state of one scenario
type Summary struct {
	BudgetDays   float64 `json:"budgetDays"`
	Consumed     float64 `json:"consumed"`
	Remaining    float64 `json:"remaining"`
	VacationDays int     `json:"vacationDays"`
	HalfDays     int     `json:"halfDays"`
}

// Summarize counts full vacation days and half days on bookable days.
// Marks on restricted holidays are stored but do not consume budget.
func Summarize(days []calendar.Day, budgetDays float64, overlay calendar.Overlay) Summary {
	s := Summary{BudgetDays: budgetDays}
	for _, d := range days {
		if !overlay.Kind(d).Bookable() {
			continue
		}
		switch d.Status {
		case calendar.StatusVacation:
			s.VacationDays++
		case calendar.StatusHalfDay:
			s.HalfDays++
		}
		s.Consumed += d.Status.Days()
	}
	s.Remaining = budgetDays - s.Consumed
	return s
}

// MonthTotal is the consumption of one calendar month
type MonthTotal struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	Consumed float64    `json:"consumed"`
}

// MonthlyConsumption returns the consumption of every month spanned by days,
// in chronological order. Months without consumption are included.
func MonthlyConsumption(days []calendar.Day, overlay calendar.Overlay) []MonthTotal {
	var totals []MonthTotal
	for _, d := range days {
		y, m := d.Date.Year(), d.Date.Month()
		if n := len(totals); n == 0 || totals[n-1].Year != y || totals[n-1].Month != m {
			totals = append(totals, MonthTotal{Year: y, Month: m})
		}
		if overlay.Kind(d).Bookable() {
			totals[len(totals)-1].Consumed += d.Status.Days()
		}
	}
	return totals
}

// TopMonths returns up to n months with non-zero consumption, highest first.
// Ties keep chronological order.
func TopMonths(totals []MonthTotal, n int) []MonthTotal {
	top := make([]MonthTotal, 0, len(totals))
	for _, t := range totals {
		if t.Consumed > 0 {
			top = append(top, t)
		}
	}
	slices.SortStableFunc(top, func(a, b MonthTotal) int {
		return cmp.Compare(b.Consumed, a.Consumed)
	})
	if n >= 0 && len(top) > n {
		top = top[:n]
	}
	return top
}
