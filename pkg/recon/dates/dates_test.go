package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDay(t *testing.T) {
	c := NewCalendar([]time.Time{day(2026, 6, 5)})

	assert.True(t, c.IsBusinessDay(day(2026, 6, 1)))  // Monday
	assert.False(t, c.IsBusinessDay(day(2026, 6, 6))) // Saturday
	assert.False(t, c.IsBusinessDay(day(2026, 6, 7))) // Sunday
	assert.False(t, c.IsBusinessDay(day(2026, 6, 5))) // holiday

	// Time of day does not matter
	assert.False(t, c.IsBusinessDay(time.Date(2026, 6, 5, 15, 30, 0, 0, time.UTC)))
}

func TestUltimoPlusOne(t *testing.T) {
	c := NewCalendar(nil)

	// June 2026 starts on a Monday
	assert.Equal(t, day(2026, 6, 1), c.UltimoPlusOne(day(2026, 6, 17)))

	// August 2026 starts on a Saturday
	assert.Equal(t, day(2026, 8, 3), c.UltimoPlusOne(day(2026, 8, 1)))

	// A holiday on the first pushes it further
	withHoliday := NewCalendar([]time.Time{day(2026, 6, 1)})
	assert.Equal(t, day(2026, 6, 2), withHoliday.UltimoPlusOne(day(2026, 6, 17)))
}

func TestUltimo(t *testing.T) {
	c := NewCalendar(nil)

	// 30 and 31 May 2026 fall on a weekend
	assert.Equal(t, day(2026, 5, 29), c.Ultimo(day(2026, 6, 1)))

	// Holidays walk the ultimo back further
	withHoliday := NewCalendar([]time.Time{day(2026, 5, 29)})
	assert.Equal(t, day(2026, 5, 28), withHoliday.Ultimo(day(2026, 6, 1)))
}

func TestReconciliationTimes_OnUltimoPlusOne(t *testing.T) {
	c := NewCalendar(nil)

	times := c.ReconciliationTimes(day(2026, 6, 1))

	// Previous period, next fiscal year, closed on the last business day
	assert.Equal(t, uint16(2027), times.FiscalYear)
	assert.Equal(t, uint8(5), times.FiscalPeriod)
	assert.Equal(t, day(2026, 5, 29), times.ReconciliationDate)
	assert.Equal(t, day(2026, 5, 29), times.ConversionDate)
}

func TestReconciliationTimes_AfterUltimoPlusOne(t *testing.T) {
	c := NewCalendar(nil)

	times := c.ReconciliationTimes(day(2026, 6, 15))

	assert.Equal(t, uint16(2027), times.FiscalYear)
	assert.Equal(t, uint8(6), times.FiscalPeriod)
	assert.Equal(t, day(2026, 6, 15), times.ReconciliationDate)
	assert.Equal(t, day(2026, 6, 15), times.ConversionDate)
}

func TestReconciliationTimes_JanuaryRollsToPeriodTwelve(t *testing.T) {
	c := NewCalendar([]time.Time{day(2026, 1, 1)})

	times := c.ReconciliationTimes(day(2026, 1, 2))

	// Period twelve keeps the calendar year as fiscal year
	assert.Equal(t, uint16(2026), times.FiscalYear)
	assert.Equal(t, uint8(12), times.FiscalPeriod)
	assert.Equal(t, day(2025, 12, 31), times.ReconciliationDate)
	assert.Equal(t, day(2025, 12, 31), times.ConversionDate)
}

func TestExportWindow(t *testing.T) {
	c := NewCalendar(nil)

	t.Run("after ultimo plus one", func(t *testing.T) {
		lower, upper := c.ExportWindow(day(2026, 6, 15))
		assert.Equal(t, day(2026, 5, 1), lower)
		assert.Equal(t, day(2026, 6, 15), upper)
	})

	t.Run("on ultimo plus one", func(t *testing.T) {
		lower, upper := c.ExportWindow(day(2026, 6, 1))
		assert.Equal(t, day(2026, 4, 1), lower)
		assert.Equal(t, day(2026, 5, 31), upper)
	})
}

func TestStartOfMonth(t *testing.T) {
	assert.Equal(t, day(2026, 2, 1), StartOfMonth(day(2026, 2, 28)))
}
