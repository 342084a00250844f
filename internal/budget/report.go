package budget

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
)

// Holiday is an upcoming public holiday in a scenario
type Holiday struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`
}

// Report is the read-only summary export handed to assistants and terminals
type Report struct {
	Scenario         string       `json:"scenario,omitempty"`
	Summary          Summary      `json:"summary"`
	TopMonths        []MonthTotal `json:"topMonths"`
	NextVacation     *time.Time   `json:"nextVacation,omitempty"`
	UpcomingHolidays []Holiday    `json:"upcomingHolidays"`
}

// BuildReport assembles the export. Only days on or after today are
// considered for the next vacation and the upcoming holidays.
func BuildReport(days []calendar.Day, budgetDays float64, overlay calendar.Overlay, today time.Time, topN, holidaysN int) Report {
	today = dateutil.StartOfDay(today)
	r := Report{
		Summary:   Summarize(days, budgetDays, overlay),
		TopMonths: TopMonths(MonthlyConsumption(days, overlay), topN),
	}

	for _, d := range days {
		if d.Date.Before(today) {
			continue
		}
		if r.NextVacation == nil && d.Status.Days() > 0 && overlay.Kind(d).Bookable() {
			date := d.Date
			r.NextVacation = &date
		}
		if d.Label != "" && len(r.UpcomingHolidays) < holidaysN {
			r.UpcomingHolidays = append(r.UpcomingHolidays, Holiday{Date: d.Date, Label: d.Label})
		}
	}

	return r
}

// Text renders the report as plain text
func (r Report) Text() string {
	var b strings.Builder
	if r.Scenario != "" {
		fmt.Fprintf(&b, "Scenario: %s\n", r.Scenario)
	}
	fmt.Fprintf(&b, "Budget: %s days\n", FormatDays(r.Summary.BudgetDays))
	fmt.Fprintf(&b, "Consumed: %s days\n", FormatDays(r.Summary.Consumed))
	fmt.Fprintf(&b, "Remaining: %s days\n", FormatDays(r.Summary.Remaining))

	b.WriteString("Top months:\n")
	if len(r.TopMonths) == 0 {
		b.WriteString("  none\n")
	}
	for _, m := range r.TopMonths {
		fmt.Fprintf(&b, "  %d-%02d: %s\n", m.Year, int(m.Month), FormatDays(m.Consumed))
	}

	if r.NextVacation != nil {
		fmt.Fprintf(&b, "Next vacation: %s\n", dateutil.Format(*r.NextVacation))
	} else {
		b.WriteString("Next vacation: none planned\n")
	}

	b.WriteString("Upcoming holidays:\n")
	if len(r.UpcomingHolidays) == 0 {
		b.WriteString("  none\n")
	}
	for _, h := range r.UpcomingHolidays {
		fmt.Fprintf(&b, "  %s %s\n", dateutil.Format(h.Date), h.Label)
	}

	return b.String()
}

// FormatDays prints a day count without trailing zeros (106, 1.5)
func FormatDays(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
