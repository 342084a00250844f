package calendar

import (
	"context"
	"time"

	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
)

// SwedishSource computes Swedish public holidays, including the de facto
// holidays Midsommarafton, Julafton and Nyårsafton. Sundays are not listed.
type SwedishSource struct{}

// NewSwedishSource creates the builtin Swedish holiday source
func NewSwedishSource() *SwedishSource {
	return &SwedishSource{}
}

// Holidays returns the holiday table for year
func (s *SwedishSource) Holidays(_ context.Context, year int) (HolidayTable, error) {
	return SwedishHolidays(year), nil
}

// SwedishHolidays returns the Swedish holiday table for year
func SwedishHolidays(year int) HolidayTable {
	easter := EasterSunday(year)
	midsummerDay := firstWeekdayFrom(dateutil.Date(year, time.June, 20), time.Saturday)
	allSaints := firstWeekdayFrom(dateutil.Date(year, time.October, 31), time.Saturday)

	table := HolidayTable{}
	table.Add(dateutil.Date(year, time.January, 1), "Nyårsdagen")
	table.Add(dateutil.Date(year, time.January, 6), "Trettondedag jul")
	table.Add(easter.AddDate(0, 0, -2), "Långfredagen")
	table.Add(easter, "Påskdagen")
	table.Add(easter.AddDate(0, 0, 1), "Annandag påsk")
	table.Add(dateutil.Date(year, time.May, 1), "Första maj")
	table.Add(easter.AddDate(0, 0, 39), "Kristi himmelsfärdsdag")
	table.Add(easter.AddDate(0, 0, 49), "Pingstdagen")
	table.Add(dateutil.Date(year, time.June, 6), "Sveriges nationaldag")
	table.Add(midsummerDay.AddDate(0, 0, -1), "Midsommarafton")
	table.Add(midsummerDay, "Midsommardagen")
	table.Add(allSaints, "Alla helgons dag")
	table.Add(dateutil.Date(year, time.December, 24), "Julafton")
	table.Add(dateutil.Date(year, time.December, 25), "Juldagen")
	table.Add(dateutil.Date(year, time.December, 26), "Annandag jul")
	table.Add(dateutil.Date(year, time.December, 31), "Nyårsafton")
	return table
}

// EasterSunday returns the Gregorian Easter Sunday of year (anonymous
// Gregorian algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return dateutil.Date(year, time.Month(month), day)
}

func firstWeekdayFrom(from time.Time, weekday time.Weekday) time.Time {
	offset := (int(weekday) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}
