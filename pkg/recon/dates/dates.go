// Package dates implements the fiscal calendar arithmetic behind the
// reconciliation schedule.
//
// The month-end close runs on the "ultimo plus one" day, the first business
// day of a month. A run on or before that day reconciles the previous fiscal
// period against the last business day of the previous month; a run after it
// reconciles the current period as of the run day itself.
package dates

import "time"

// Calendar answers business-day questions. Saturdays, Sundays and the
// configured holidays are off days.
type Calendar struct {
	holidays map[time.Time]struct{}
}

// NewCalendar creates a calendar with the given holidays.
func NewCalendar(holidays []time.Time) Calendar {
	days := make(map[time.Time]struct{}, len(holidays))
	for _, day := range holidays {
		days[normalize(day)] = struct{}{}
	}
	return Calendar{holidays: days}
}

// IsBusinessDay reports whether day is a working day.
func (c Calendar) IsBusinessDay(day time.Time) bool {
	day = normalize(day)
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, off := c.holidays[day]
	return !off
}

// UltimoPlusOne returns the first business day of day's month.
func (c Calendar) UltimoPlusOne(day time.Time) time.Time {
	d := StartOfMonth(day)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// Ultimo returns the last business day before day, the month-end closing day
// when day is the ultimo plus one.
func (c Calendar) Ultimo(day time.Time) time.Time {
	d := normalize(day).AddDate(0, 0, -1)
	for !c.IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// StartOfMonth returns the first calendar day of day's month.
func StartOfMonth(day time.Time) time.Time {
	day = normalize(day)
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func normalize(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}
