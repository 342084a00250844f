package planner

import (
	"github.com/PontusDahlberg/Semesterappen/internal/budget"
	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
)

// DayView is a day record as shown to an editing surface, with the overlay applied
type DayView struct {
	Date       string        `json:"date"`
	Week       int           `json:"week"`
	Weekday    string        `json:"weekday"`
	Kind       calendar.Kind `json:"kind"`
	Label      string        `json:"label,omitempty"`
	Status     string        `json:"status"`
	Vacation   bool          `json:"vacation"`
	HalfDay    bool          `json:"halfDay"`
	ExtraLeave bool          `json:"extraLeave"`
	Sick       bool          `json:"sick"`
	Note       string        `json:"note,omitempty"`
}

// NewDayView classifies d with overlay
func NewDayView(d calendar.Day, overlay calendar.Overlay) DayView {
	m := d.Status.Marks()
	return DayView{
		Date:       d.Key(),
		Week:       d.Week,
		Weekday:    d.Date.Weekday().String(),
		Kind:       overlay.Kind(d),
		Label:      d.Label,
		Status:     d.Status.String(),
		Vacation:   m.Vacation,
		HalfDay:    m.HalfDay,
		ExtraLeave: m.ExtraLeave,
		Sick:       m.Sick,
		Note:       d.Note,
	}
}

// MonthView is one month of the current scenario plus its budget state
type MonthView struct {
	Scenario string         `json:"scenario"`
	Year     int            `json:"year"`
	Month    int            `json:"month"`
	Days     []DayView      `json:"days"`
	Summary  budget.Summary `json:"summary"`
}

// ScenarioInfo is a scenario entry of the overview
type ScenarioInfo struct {
	Name      string  `json:"name"`
	Current   bool    `json:"current"`
	Consumed  float64 `json:"consumed"`
	Remaining float64 `json:"remaining"`
}

// Overview lists all scenarios of the session
type Overview struct {
	Current   string         `json:"current"`
	Scenarios []ScenarioInfo `json:"scenarios"`
	Summary   budget.Summary `json:"summary"`
	Degraded  bool           `json:"degraded"`
	Dirty     bool           `json:"dirty"`
}
