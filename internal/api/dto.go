package api

import (
	"fmt"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
	"github.com/PontusDahlberg/Semesterappen/internal/scenario"
	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
)

// NameRequest is the body of scenario clone and select calls
type NameRequest struct {
	Name string `json:"name"`
}

// BudgetRequest is the body of PUT /api/settings/budget
type BudgetRequest struct {
	BudgetDays float64 `json:"budgetDays"`
}

// DayEdit is the post-edit state of one day sent by an editing surface.
// Several flags may be set; they are normalized on merge.
type DayEdit struct {
	Date       string `json:"date"`
	Vacation   bool   `json:"vacation"`
	HalfDay    bool   `json:"halfDay"`
	ExtraLeave bool   `json:"extraLeave"`
	Sick       bool   `json:"sick"`
	Note       string `json:"note"`
}

func toEdits(in []DayEdit) ([]scenario.Edit, error) {
	edits := make([]scenario.Edit, 0, len(in))
	for _, e := range in {
		date, err := dateutil.ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidRange, err)
		}
		edits = append(edits, scenario.Edit{
			Date: date,
			Marks: calendar.Marks{
				Vacation:   e.Vacation,
				HalfDay:    e.HalfDay,
				ExtraLeave: e.ExtraLeave,
				Sick:       e.Sick,
			},
			Note: e.Note,
		})
	}
	return edits, nil
}
