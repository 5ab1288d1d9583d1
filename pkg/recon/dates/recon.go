package dates

import "time"

// ReconTimes are the time parameters of one reconciliation run.
type ReconTimes struct {
	FiscalYear   uint16
	FiscalPeriod uint8

	// ReconciliationDate is the day the figures are reconciled as of.
	ReconciliationDate time.Time

	// ConversionDate is the day whose exchange rate converts foreign
	// currency amounts.
	ConversionDate time.Time
}

// ReconciliationTimes derives the fiscal year, fiscal period and the
// reconciliation and conversion dates for a run on day.
//
// The company's fiscal year runs ahead of the calendar year: every period
// except the twelfth belongs to the next fiscal year. A run after the ultimo
// plus one day reconciles the current month as of day itself; a run on or
// before it reconciles the previous period as of the last business day of the
// previous month, converting at the ultimo rate.
func (c Calendar) ReconciliationTimes(day time.Time) ReconTimes {
	day = normalize(day)
	ultimoPlusOne := c.UltimoPlusOne(day)

	var times ReconTimes
	if day.After(ultimoPlusOne) {
		times.FiscalYear = uint16(day.Year() + 1)
		times.FiscalPeriod = uint8(day.Month())
		times.ReconciliationDate = day
	} else {
		period := int(day.Month()) - 1
		year := day.Year()
		if period == 0 {
			period = 12
		}
		if period != 12 {
			year++
		}
		times.FiscalYear = uint16(year)
		times.FiscalPeriod = uint8(period)

		closing := StartOfMonth(day).AddDate(0, 0, -1)
		for !c.IsBusinessDay(closing) {
			closing = closing.AddDate(0, 0, -1)
		}
		times.ReconciliationDate = closing
	}

	if times.ReconciliationDate.Equal(day) {
		times.ConversionDate = times.ReconciliationDate
	} else {
		times.ConversionDate = c.Ultimo(day)
	}
	return times
}

// ExportWindow returns the posting date range of the ledger export for a run
// on day. Runs after the ultimo plus one cover the previous month up to day;
// runs on or before it cover the two months closing with the previous one.
func (c Calendar) ExportWindow(day time.Time) (lower, upper time.Time) {
	day = normalize(day)
	lastPrevMonth := StartOfMonth(day).AddDate(0, 0, -1)
	firstPrevMonth := StartOfMonth(lastPrevMonth)

	if day.After(c.UltimoPlusOne(day)) {
		return firstPrevMonth, day
	}
	return StartOfMonth(firstPrevMonth.AddDate(0, 0, -1)), lastPrevMonth
}
