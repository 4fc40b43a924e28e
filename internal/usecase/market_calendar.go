package usecase

import (
	"fmt"
	"time"

	"github.com/bidback/position_engine/internal/domain"
)

const earlyCloseTime = "13:00"

// MarketCalendar answers trading-day questions against per-year US holiday
// tables. Tables are generated once at construction and read-only after,
// so concurrent readers need no locking.
type MarketCalendar struct {
	holidays map[int]map[string]domain.HolidayEntry
}

// NewMarketCalendar builds holiday tables for the given years. Queries for
// any other year fail with ErrUnsupportedYear.
func NewMarketCalendar(years ...int) *MarketCalendar {
	c := &MarketCalendar{holidays: make(map[int]map[string]domain.HolidayEntry)}
	for _, y := range years {
		c.loadYear(y)
	}
	return c
}

func (c *MarketCalendar) loadYear(year int) {
	table := make(map[string]domain.HolidayEntry)
	for _, h := range usHolidays(year) {
		table[dateKey(h.Date)] = h
	}
	c.holidays[year] = table
}

func (c *MarketCalendar) table(year int) (map[string]domain.HolidayEntry, error) {
	t, ok := c.holidays[year]
	if !ok {
		return nil, fmt.Errorf("%w: no holiday table loaded for %d", domain.ErrUnsupportedYear, year)
	}
	return t, nil
}

// IsTradingDay reports whether date is neither a weekend day nor a
// full-close holiday. Early-close days count as trading days.
func (c *MarketCalendar) IsTradingDay(date time.Time) (bool, error) {
	table, err := c.table(date.Year())
	if err != nil {
		return false, err
	}
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false, nil
	}
	if h, ok := table[dateKey(date)]; ok && h.Kind == domain.HolidayFullClose {
		return false, nil
	}
	return true, nil
}

// IsEarlyClose reports whether date has a shortened session.
func (c *MarketCalendar) IsEarlyClose(date time.Time) (bool, error) {
	table, err := c.table(date.Year())
	if err != nil {
		return false, err
	}
	h, ok := table[dateKey(date)]
	return ok && h.Kind == domain.HolidayEarlyClose, nil
}

// AddTradingDays advances from start one calendar day at a time, counting
// only trading days, until n are counted. The count starts the day after
// start; n must be >= 1.
func (c *MarketCalendar) AddTradingDays(start time.Time, n int) (time.Time, error) {
	if n < 1 {
		return time.Time{}, fmt.Errorf("%w: trading-day count must be >= 1, got %d", domain.ErrInvalidInput, n)
	}
	d := normalizeDate(start)
	counted := 0
	for counted < n {
		d = d.AddDate(0, 0, 1)
		trading, err := c.IsTradingDay(d)
		if err != nil {
			return time.Time{}, err
		}
		if trading {
			counted++
		}
	}
	return d, nil
}

// Holidays returns the loaded table for a year, ordered by date.
func (c *MarketCalendar) Holidays(year int) ([]domain.HolidayEntry, error) {
	if _, err := c.table(year); err != nil {
		return nil, err
	}
	return usHolidays(year), nil
}

func dateKey(d time.Time) string {
	return d.Format("2006-01-02")
}

func normalizeDate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// usHolidays generates the NYSE closure table for a year: ten full-close
// holidays plus up to three early-close sessions (July 3, the Friday after
// Thanksgiving, Christmas Eve).
func usHolidays(year int) []domain.HolidayEntry {
	full := func(d time.Time, name string) domain.HolidayEntry {
		return domain.HolidayEntry{Date: d, Name: name, Kind: domain.HolidayFullClose}
	}
	early := func(d time.Time, name string) domain.HolidayEntry {
		return domain.HolidayEntry{Date: d, Name: name, Kind: domain.HolidayEarlyClose, CloseTime: earlyCloseTime}
	}

	thanksgiving := nthWeekday(year, time.November, time.Thursday, 4)
	goodFriday := easterSunday(year).AddDate(0, 0, -2)
	independence := observedFixed(date(year, time.July, 4))
	christmas := observedFixed(date(year, time.December, 25))

	var entries []domain.HolidayEntry

	// A Saturday New Year's Day observes the prior Dec 31, which belongs
	// to this year's table when next year's Jan 1 is the Saturday.
	if ny := observedFixed(date(year, time.January, 1)); ny.Year() == year {
		entries = append(entries, full(ny, "New Year's Day"))
	}
	entries = append(entries,
		full(nthWeekday(year, time.January, time.Monday, 3), "Martin Luther King Jr. Day"),
		full(nthWeekday(year, time.February, time.Monday, 3), "Washington's Birthday"),
		full(goodFriday, "Good Friday"),
		full(lastWeekday(year, time.May, time.Monday), "Memorial Day"),
		full(observedFixed(date(year, time.June, 19)), "Juneteenth"),
		full(independence, "Independence Day"),
		full(nthWeekday(year, time.September, time.Monday, 1), "Labor Day"),
		full(thanksgiving, "Thanksgiving Day"),
		full(christmas, "Christmas Day"),
	)
	if ny := observedFixed(date(year+1, time.January, 1)); ny.Year() == year {
		entries = append(entries, full(ny, "New Year's Day"))
	}

	julyThird := date(year, time.July, 3)
	if isWeekday(julyThird) && !julyThird.Equal(independence) {
		entries = append(entries, early(julyThird, "Independence Day Eve"))
	}
	entries = append(entries, early(thanksgiving.AddDate(0, 0, 1), "Day After Thanksgiving"))
	christmasEve := date(year, time.December, 24)
	if isWeekday(christmasEve) && !christmasEve.Equal(christmas) {
		entries = append(entries, early(christmasEve, "Christmas Eve"))
	}

	return entries
}

func isWeekday(d time.Time) bool {
	return d.Weekday() != time.Saturday && d.Weekday() != time.Sunday
}

// observedFixed shifts a fixed-date holiday falling on a weekend to the
// nearest weekday: Saturday observes Friday, Sunday observes Monday.
func observedFixed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+(n-1)*7)
}

func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := date(year, month+1, 1).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(weekday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// easterSunday computes Gregorian Easter via the anonymous (Meeus) algorithm.
func easterSunday(year int) time.Time {
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
	return date(year, time.Month(month), day)
}
