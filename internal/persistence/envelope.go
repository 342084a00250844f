// Package persistence converts a scenario store to and from its JSON blob and
// moves that blob through a pluggable gateway.
package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
	"github.com/PontusDahlberg/Semesterappen/internal/scenario"
	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
)

// wireDay is the persisted form of a day record. Field names are fixed.
type wireDay struct {
	Date       string `json:"date"`
	Week       int    `json:"week"`
	BaseType   string `json:"baseType"`
	Label      string `json:"label,omitempty"`
	Vacation   bool   `json:"vacation"`
	HalfDay    bool   `json:"halfDay"`
	ExtraLeave bool   `json:"extraLeave"`
	Sick       bool   `json:"sick"`
	Note       string `json:"note,omitempty"`
}

type settings struct {
	BudgetDays float64 `json:"budgetDays"`
}

type envelope struct {
	Scenarios orderedScenarios `json:"scenarios"`
	Settings  settings         `json:"settings"`
}

// orderedScenarios keeps the store's scenario order in the blob
type orderedScenarios []namedDays

type namedDays struct {
	name string
	days []wireDay
}

func (o orderedScenarios) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.name)
		if err != nil {
			return nil, err
		}
		days, err := json.Marshal(s.days)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(days)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Serialize renders the store in the canonical envelope format. The current
// scenario pointer is session state and is not written.
func Serialize(store *scenario.Store) ([]byte, error) {
	env := envelope{Settings: settings{BudgetDays: store.BudgetDays()}}
	for _, name := range store.Names() {
		s, err := store.Scenario(name)
		if err != nil {
			return nil, err
		}
		days := make([]wireDay, 0, len(s.Days))
		for _, d := range s.Days {
			days = append(days, toWire(d))
		}
		env.Scenarios = append(env.Scenarios, namedDays{name: name, days: days})
	}

	blob, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return blob, nil
}

func toWire(d calendar.Day) wireDay {
	m := d.Status.Marks()
	return wireDay{
		Date:       d.Key(),
		Week:       d.Week,
		BaseType:   string(d.Base),
		Label:      d.Label,
		Vacation:   m.Vacation,
		HalfDay:    m.HalfDay,
		ExtraLeave: m.ExtraLeave,
		Sick:       m.Sick,
		Note:       d.Note,
	}
}

// Deserialize parses a blob in the canonical envelope format or the legacy
// flat format (a bare name -> records object, budget defaulted). Legacy
// records with Swedish keys are migrated. The default scenario is selected
// when present, otherwise the first scenario in the blob.
//
// A blob without scenarios yields an empty store.
func Deserialize(blob []byte) (*scenario.Store, error) {
	keys, top, err := decodeObject(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: top level: %v", apperr.ErrSchema, err)
	}

	budgetDays := scenario.DefaultBudgetDays
	names, scenarios := keys, top
	if raw, ok := top["scenarios"]; ok && isObject(raw) {
		names, scenarios, err = decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: scenarios: %v", apperr.ErrSchema, err)
		}
		budgetDays = decodeBudget(top["settings"])
	}

	store := scenario.NewEmptyStore()
	if err := store.SetBudgetDays(budgetDays); err != nil {
		return nil, err
	}
	for _, name := range names {
		days, err := decodeScenario(scenarios[name])
		if err != nil {
			return nil, fmt.Errorf("%w: scenario %q: %v", apperr.ErrSchema, name, err)
		}
		if err := store.Restore(name, days); err != nil {
			return nil, fmt.Errorf("%w: scenario %q: %v", apperr.ErrSchema, name, err)
		}
	}

	if slices.Contains(store.Names(), scenario.DefaultName) {
		if err := store.Select(scenario.DefaultName); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// decodeObject reads a JSON object and returns its keys in document order
func decodeObject(raw []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, errors.New("not a JSON object")
	}

	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, errors.New("trailing data after object")
	}
	return keys, values, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// storedBudget returns the budget an envelope blob stores, if it is positive
func storedBudget(blob []byte) (float64, bool) {
	var env struct {
		Settings *settings `json:"settings"`
	}
	if json.Unmarshal(blob, &env) != nil || env.Settings == nil || !(env.Settings.BudgetDays > 0) {
		return 0, false
	}
	return env.Settings.BudgetDays, true
}

func decodeBudget(raw json.RawMessage) float64 {
	var s settings
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil || !(s.BudgetDays > 0) {
		return scenario.DefaultBudgetDays
	}
	return s.BudgetDays
}

func decodeScenario(raw json.RawMessage) ([]calendar.Day, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, errors.New("records are not an array")
	}

	days := make([]calendar.Day, 0, len(records))
	for i, rec := range records {
		day, err := decodeDay(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		days = append(days, day)
	}

	slices.SortStableFunc(days, func(a, b calendar.Day) int {
		return a.Date.Compare(b.Date)
	})
	for i := 1; i < len(days); i++ {
		if days[i].Date.Equal(days[i-1].Date) {
			return nil, fmt.Errorf("duplicate date %s", days[i].Key())
		}
	}
	return days, nil
}

// legacyDay is a record written by the original single-mark app
type legacyDay struct {
	Datum       string      `json:"Datum"`
	Vecka       json.Number `json:"Vecka"`
	Typ         string      `json:"Typ"`
	Beskrivning string      `json:"Beskrivning"`
	Semester    bool        `json:"Semester"`
}

const legacyHolidayType = "Ledig"

func decodeDay(raw json.RawMessage) (calendar.Day, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return calendar.Day{}, errors.New("record is not an object")
	}

	if _, ok := fields["date"]; ok {
		return decodeWireDay(raw)
	}
	if _, ok := fields["Datum"]; ok {
		return decodeLegacyDay(raw)
	}
	return calendar.Day{}, errors.New("record has no date")
}

func decodeWireDay(raw json.RawMessage) (calendar.Day, error) {
	var w wireDay
	if err := json.Unmarshal(raw, &w); err != nil {
		return calendar.Day{}, err
	}
	date, err := dateutil.ParseDate(w.Date)
	if err != nil {
		return calendar.Day{}, err
	}

	day := calendar.Day{
		Date:  date,
		Week:  w.Week,
		Base:  calendar.BaseType(w.BaseType),
		Label: w.Label,
		Note:  w.Note,
		Status: calendar.Marks{
			Vacation:   w.Vacation,
			HalfDay:    w.HalfDay,
			ExtraLeave: w.ExtraLeave,
			Sick:       w.Sick,
		}.Normalize(),
	}
	fillDerived(&day)
	return day, nil
}

func decodeLegacyDay(raw json.RawMessage) (calendar.Day, error) {
	var l legacyDay
	if err := json.Unmarshal(raw, &l); err != nil {
		return calendar.Day{}, err
	}
	date, err := dateutil.ParseDate(l.Datum)
	if err != nil {
		return calendar.Day{}, err
	}

	day := calendar.Day{Date: date}
	if week, err := l.Vecka.Float64(); err == nil {
		day.Week = int(week)
	}
	if l.Semester {
		day.Status = calendar.StatusVacation
	}
	// Holidays carried their name in the description column; workdays
	// (including Fridays the old overlay wrote back as locked) used it
	// as a free-text note.
	if strings.HasPrefix(l.Typ, legacyHolidayType) {
		day.Base = calendar.BaseRestrictedHoliday
		day.Label = l.Beskrivning
	} else {
		day.Base = calendar.BaseWorkday
		day.Note = l.Beskrivning
	}
	fillDerived(&day)
	return day, nil
}

// fillDerived recomputes fields a record may lack
func fillDerived(day *calendar.Day) {
	if day.Week <= 0 {
		_, day.Week = dateutil.GetWeekNumber(day.Date)
	}
	if !day.Base.Valid() {
		day.Base = calendar.BaseWorkday
		if day.Label != "" || dateutil.IsWeekend(day.Date) {
			day.Base = calendar.BaseRestrictedHoliday
		}
	}
}
