package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
	"go.uber.org/zap"
)

func TestSwedishHolidays_2026(t *testing.T) {
	table := SwedishHolidays(2026)

	tests := []struct {
		date  string
		label string
	}{
		{"2026-01-01", "Nyårsdagen"},
		{"2026-01-06", "Trettondedag jul"},
		{"2026-04-03", "Långfredagen"},
		{"2026-04-05", "Påskdagen"},
		{"2026-04-06", "Annandag påsk"},
		{"2026-05-14", "Kristi himmelsfärdsdag"},
		{"2026-05-24", "Pingstdagen"},
		{"2026-06-19", "Midsommarafton"},
		{"2026-06-20", "Midsommardagen"},
		{"2026-10-31", "Alla helgons dag"},
		{"2026-12-24", "Julafton"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := table[tt.date]; got != tt.label {
				t.Errorf("table[%s] = %q, want %q", tt.date, got, tt.label)
			}
		})
	}

	if _, ok := table["2026-01-04"]; ok {
		t.Error("Sundays must not be labeled")
	}
}

func TestEasterSunday(t *testing.T) {
	tests := map[int]string{
		2024: "2024-03-31",
		2025: "2025-04-20",
		2026: "2026-04-05",
		2027: "2027-03-28",
	}
	for year, want := range tests {
		if got := dateutil.Format(EasterSunday(year)); got != want {
			t.Errorf("EasterSunday(%d) = %s, want %s", year, got, want)
		}
	}
}

func TestFileSource_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.yaml")
	content := "- date: \"2026-01-01\"\n  label: Nyårsdagen\n- date: \"2027-01-01\"\n  label: Nyårsdagen\n- date: \"bogus\"\n  label: Broken\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path, zap.NewNop())
	table, err := src.Holidays(context.Background(), 2026)
	if err != nil {
		t.Fatalf("Holidays() error = %v", err)
	}
	if len(table) != 1 || table["2026-01-01"] != "Nyårsdagen" {
		t.Errorf("Holidays(2026) = %v", table)
	}

	if _, err := src.Holidays(context.Background(), 2030); err == nil {
		t.Error("Holidays(2030) expected error for missing year, got nil")
	}
}

func TestFileSource_Lines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.txt")
	content := "# Swedish holidays\n2026-06-06 Sveriges nationaldag\n\nnot-a-line\n2026-12-25 Juldagen\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path, zap.NewNop())
	if err := src.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	table, err := src.Holidays(context.Background(), 2026)
	if err != nil {
		t.Fatalf("Holidays() error = %v", err)
	}
	if table["2026-06-06"] != "Sveriges nationaldag" || table["2026-12-25"] != "Juldagen" {
		t.Errorf("Holidays(2026) = %v", table)
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.txt"), zap.NewNop())
	if _, err := src.Holidays(context.Background(), 2026); err == nil {
		t.Error("Holidays() expected error for missing file, got nil")
	}
}

func TestHTTPSource_FetchAndCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/api/v3/PublicHolidays/2026/SE" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"date":"2026-01-01","localName":"Nyårsdagen","name":"New Year's Day","countryCode":"SE","global":true},
			{"date":"2026-03-19","localName":"Regional","name":"Regional","countryCode":"SE","global":false}
		]`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, "se", time.Hour, zap.NewNop())

	table, err := src.Holidays(context.Background(), 2026)
	if err != nil {
		t.Fatalf("Holidays() error = %v", err)
	}
	if len(table) != 1 || table["2026-01-01"] != "Nyårsdagen" {
		t.Errorf("Holidays() = %v, want only the nationwide holiday", table)
	}

	// Mutating the returned table must not poison the cache
	table["2026-02-02"] = "mutated"

	again, err := src.Holidays(context.Background(), 2026)
	if err != nil {
		t.Fatalf("Holidays() second call error = %v", err)
	}
	if _, ok := again["2026-02-02"]; ok {
		t.Error("cache returned caller-mutated table")
	}
	if calls.Load() != 1 {
		t.Errorf("API calls = %d, want 1 (second call cached)", calls.Load())
	}

	src.ClearCache()
	if _, err := src.Holidays(context.Background(), 2026); err != nil {
		t.Fatalf("Holidays() after ClearCache error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("API calls = %d, want 2 after ClearCache", calls.Load())
	}
}

func TestHTTPSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, "SE", time.Hour, zap.NewNop())
	_, err := src.Holidays(context.Background(), 2026)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Holidays() error = %v, want status 500 error", err)
	}
}

type failingSource struct{}

func (failingSource) Holidays(context.Context, int) (HolidayTable, error) {
	return nil, errors.New("offline")
}

func TestCompositeSource_Fallback(t *testing.T) {
	cs := NewCompositeSource(failingSource{}, NewSwedishSource(), zap.NewNop())

	table, err := cs.Holidays(context.Background(), 2026)
	if err != nil {
		t.Fatalf("Holidays() error = %v", err)
	}
	if table["2026-06-19"] != "Midsommarafton" {
		t.Errorf("fallback table missing Midsommarafton: %v", table)
	}

	both := NewCompositeSource(failingSource{}, failingSource{}, zap.NewNop())
	if _, err := both.Holidays(context.Background(), 2026); err == nil {
		t.Error("Holidays() expected error when both sources fail")
	}
}

func TestCollectHolidays(t *testing.T) {
	table, err := CollectHolidays(context.Background(), NewSwedishSource(),
		dateutil.Date(2026, 1, 1), dateutil.Date(2027, 10, 15))
	if err != nil {
		t.Fatalf("CollectHolidays() error = %v", err)
	}
	if table["2026-01-01"] == "" || table["2027-03-28"] != "Påskdagen" {
		t.Errorf("CollectHolidays() missing expected entries")
	}

	if _, err := CollectHolidays(context.Background(), failingSource{},
		dateutil.Date(2026, 1, 1), dateutil.Date(2026, 1, 2)); err == nil {
		t.Error("CollectHolidays() expected error from failing source")
	}
}
