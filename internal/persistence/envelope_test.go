package persistence

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/PontusDahlberg/Semesterappen/internal/apperr"
	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
	"github.com/PontusDahlberg/Semesterappen/internal/scenario"
	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
)

func newStore(t *testing.T) *scenario.Store {
	t.Helper()
	days, err := calendar.Generate(dateutil.Date(2026, 1, 1), dateutil.Date(2026, 2, 28), calendar.SwedishHolidays(2026))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	s, err := scenario.NewStore(scenario.DefaultName, days, 108)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func markJanuary(t *testing.T, s *scenario.Store, edit func([]scenario.Edit)) {
	t.Helper()
	month, err := s.MonthSlice(2026, time.January)
	if err != nil {
		t.Fatalf("MonthSlice() error = %v", err)
	}
	edits := scenario.EditsFromDays(month)
	edit(edits)
	if _, err := s.ApplyMonthEdits(2026, time.January, edits); err != nil {
		t.Fatalf("ApplyMonthEdits() error = %v", err)
	}
}

func TestSerialize_WireFormat(t *testing.T) {
	s := newStore(t)
	markJanuary(t, s, func(e []scenario.Edit) {
		e[1].Marks = calendar.Marks{Vacation: true}
		e[1].Note = "ledig"
	})

	blob, err := Serialize(s)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	var doc struct {
		Scenarios map[string][]map[string]any `json:"scenarios"`
		Settings  map[string]any              `json:"settings"`
	}
	if err := json.Unmarshal(blob, &doc); err != nil {
		t.Fatalf("blob is not valid JSON: %v", err)
	}
	if doc.Settings["budgetDays"] != 108.0 {
		t.Errorf("settings.budgetDays = %v, want 108", doc.Settings["budgetDays"])
	}

	records := doc.Scenarios[scenario.DefaultName]
	if len(records) != 59 {
		t.Fatalf("len(records) = %d, want 59", len(records))
	}

	newYear := records[0]
	if newYear["date"] != "2026-01-01" || newYear["baseType"] != "RestrictedHoliday" || newYear["label"] != "Nyårsdagen" {
		t.Errorf("records[0] = %v", newYear)
	}
	if _, ok := newYear["note"]; ok {
		t.Error("empty note should be omitted")
	}

	marked := records[1]
	want := map[string]any{
		"date":       "2026-01-02",
		"week":       1.0,
		"baseType":   "Workday",
		"vacation":   true,
		"halfDay":    false,
		"extraLeave": false,
		"sick":       false,
		"note":       "ledig",
	}
	if len(marked) != len(want) {
		t.Errorf("records[1] has fields %v, want %v", marked, want)
	}
	for k, v := range want {
		if marked[k] != v {
			t.Errorf("records[1][%q] = %v, want %v", k, marked[k], v)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	s := newStore(t)
	markJanuary(t, s, func(e []scenario.Edit) {
		e[4].Marks = calendar.Marks{Vacation: true}
		e[5].Marks = calendar.Marks{Vacation: true} // holiday, inert but stored
		e[6].Marks = calendar.Marks{HalfDay: true}
		e[7].Marks = calendar.Marks{Sick: true}
		e[8].Marks = calendar.Marks{ExtraLeave: true}
		e[9].Note = "åäö \"citat\" <tag>"
	})
	if _, err := s.Clone("Utkast 2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Clone("Alt"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBudgetDays(30.5); err != nil {
		t.Fatal(err)
	}

	blob, err := Serialize(s)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	got, err := Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}

	if !got.Equal(s) {
		t.Error("round trip changed the store")
	}
	names := got.Names()
	if len(names) != 3 || names[0] != scenario.DefaultName || names[1] != "Utkast 2" || names[2] != "Alt" {
		t.Errorf("Names() = %v, want blob order", names)
	}
	if got.CurrentName() != scenario.DefaultName {
		t.Errorf("CurrentName() = %q, want %q", got.CurrentName(), scenario.DefaultName)
	}

	again, err := Serialize(got)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(blob) {
		t.Error("second serialization differs from the first")
	}
}

func TestDeserialize_LegacyFlat(t *testing.T) {
	blob := []byte(`{
		"Plan B": [
			{"date": "2026-01-05", "week": 2, "baseType": "Workday", "vacation": true, "halfDay": false, "extraLeave": false, "sick": false},
			{"date": "2026-01-02", "week": 1, "baseType": "Workday", "vacation": true, "sick": true}
		],
		"Plan A": []
	}`)

	s, err := Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if s.BudgetDays() != scenario.DefaultBudgetDays {
		t.Errorf("BudgetDays() = %v, want %v", s.BudgetDays(), scenario.DefaultBudgetDays)
	}
	if s.CurrentName() != "Plan B" {
		t.Errorf("CurrentName() = %q, want first scenario in blob", s.CurrentName())
	}

	days := s.Current().Days
	if len(days) != 2 || days[0].Key() != "2026-01-02" {
		t.Fatalf("days not sorted by date: %+v", days)
	}
	if days[0].Status != calendar.StatusSick {
		t.Errorf("2026-01-02 Status = %v, want sick after normalization", days[0].Status)
	}
	if days[1].Status != calendar.StatusVacation {
		t.Errorf("2026-01-05 Status = %v, want vacation", days[1].Status)
	}
}

func TestDeserialize_ScenarioNamedScenarios(t *testing.T) {
	blob := []byte(`{"scenarios": [{"date": "2026-01-02", "week": 1, "baseType": "Workday"}]}`)

	s, err := Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if names := s.Names(); len(names) != 1 || names[0] != "scenarios" {
		t.Errorf("Names() = %v, want [scenarios]", names)
	}
}

func TestDeserialize_KeepsNamesVerbatim(t *testing.T) {
	tests := []struct {
		name  string
		blob  string
		names []string
	}{
		{"blank name", `{"": [{"date": "2026-01-02"}]}`, []string{""}},
		{"names differing by spaces", `{"A": [], "A ": [], " A": []}`, []string{"A", "A ", " A"}},
		{"envelope", `{"scenarios": {"": [], "Utkast 1 ": []}}`, []string{"", "Utkast 1 "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Deserialize([]byte(tt.blob))
			if err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}
			if got := s.Names(); !slices.Equal(got, tt.names) {
				t.Errorf("Names() = %q, want %q", got, tt.names)
			}
			if s.CurrentName() != tt.names[0] {
				t.Errorf("CurrentName() = %q, want %q", s.CurrentName(), tt.names[0])
			}

			back, err := Deserialize(mustSerialize(t, s))
			if err != nil {
				t.Fatalf("Deserialize(Serialize()) error = %v", err)
			}
			if !back.Equal(s) {
				t.Error("round trip changed the store")
			}
		})
	}
}

func mustSerialize(t *testing.T, s *scenario.Store) []byte {
	t.Helper()
	blob, err := Serialize(s)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	return blob
}

func TestDeserialize_LegacySwedishRecords(t *testing.T) {
	blob := []byte(`{
		"Utkast 1": [
			{"Datum": "2026-01-01", "Vecka": 1, "Typ": "Ledig (Helg/Röd)", "Beskrivning": "Nyårsdagen", "Semester": false},
			{"Datum": "2026-01-02", "Vecka": 1, "Typ": "Arbetsdag", "Beskrivning": "", "Semester": true},
			{"Datum": "2026-01-09", "Vecka": 2, "Typ": "Spärrad (Jobb)", "Beskrivning": "möte", "Semester": false},
			{"Datum": "2026-01-10", "Typ": "Ledig (Helg/Röd)", "Beskrivning": "", "Semester": null}
		],
		"Utkast 2": []
	}`)

	s, err := Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	days := s.Current().Days
	if len(days) != 4 {
		t.Fatalf("len(days) = %d, want 4", len(days))
	}

	tests := []struct {
		idx    int
		base   calendar.BaseType
		label  string
		note   string
		status calendar.Status
		week   int
	}{
		{0, calendar.BaseRestrictedHoliday, "Nyårsdagen", "", calendar.StatusNone, 1},
		{1, calendar.BaseWorkday, "", "", calendar.StatusVacation, 1},
		{2, calendar.BaseWorkday, "", "möte", calendar.StatusNone, 2},
		{3, calendar.BaseRestrictedHoliday, "", "", calendar.StatusNone, 2},
	}
	for _, tt := range tests {
		d := days[tt.idx]
		if d.Base != tt.base || d.Label != tt.label || d.Note != tt.note || d.Status != tt.status || d.Week != tt.week {
			t.Errorf("%s = %+v, want base %v label %q note %q status %v week %d",
				d.Key(), d, tt.base, tt.label, tt.note, tt.status, tt.week)
		}
	}

	// Migrated records are written back in the canonical format
	out, err := Serialize(s)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Deserialize(out)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(s) {
		t.Error("migrated store does not survive a round trip")
	}
}

func TestDeserialize_Settings(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want float64
	}{
		{"explicit budget", `{"scenarios": {}, "settings": {"budgetDays": 25}}`, 25},
		{"missing settings", `{"scenarios": {}}`, scenario.DefaultBudgetDays},
		{"non-positive budget", `{"scenarios": {}, "settings": {"budgetDays": 0}}`, scenario.DefaultBudgetDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Deserialize([]byte(tt.blob))
			if err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}
			if s.BudgetDays() != tt.want {
				t.Errorf("BudgetDays() = %v, want %v", s.BudgetDays(), tt.want)
			}
			if s.Len() != 0 {
				t.Errorf("Len() = %d, want 0", s.Len())
			}
		})
	}
}

func TestDeserialize_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"array", `[]`},
		{"string", `"hello"`},
		{"invalid json", `{"a": [`},
		{"trailing data", `{} {}`},
		{"record without date", `{"a": [{"week": 1, "baseType": "Workday"}]}`},
		{"record not an object", `{"a": [42]}`},
		{"scenario not an array", `{"a": 5}`},
		{"malformed date", `{"a": [{"date": "2026-13-40"}]}`},
		{"duplicate date", `{"a": [{"date": "2026-01-02"}, {"date": "2026-01-02"}]}`},
		{"blank name", `{" ": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize([]byte(tt.blob))
			if !errors.Is(err, apperr.ErrSchema) {
				t.Errorf("Deserialize(%s) error = %v, want ErrSchema", tt.blob, err)
			}
		})
	}
}

func TestDeserialize_DerivesMissingFields(t *testing.T) {
	s, err := Deserialize([]byte(`{"a": [{"date": "2026-01-03"}, {"date": "2026-01-05"}]}`))
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	days := s.Current().Days
	if days[0].Base != calendar.BaseRestrictedHoliday || days[0].Week != 1 {
		t.Errorf("Saturday = %+v, want RestrictedHoliday week 1", days[0])
	}
	if days[1].Base != calendar.BaseWorkday || days[1].Week != 2 {
		t.Errorf("Monday = %+v, want Workday week 2", days[1])
	}
}
