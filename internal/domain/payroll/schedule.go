package payroll

import (
	"fmt"
	"time"
)

func civilDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day drops the clock and zone, keeping the calendar date as UTC midnight.
func Day(t time.Time) time.Time {
	return civilDate(t.Year(), t.Month(), t.Day())
}

func daysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// floorDiv rounds toward negative infinity, unlike Go's / operator.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Snap moves a date onto the biweekly payday calendar. Dates already on the
// cadence of the parity anchor are kept; anything else falls back to the
// closest schedule-epoch payday at or before it.
func Snap(date time.Time) time.Time {
	date = Day(date)
	if floorMod(daysBetween(parityAnchor, date), BiweeklyDays) == 0 {
		return date
	}
	offset := floorDiv(daysBetween(scheduleEpoch, date), BiweeklyDays) * BiweeklyDays
	return scheduleEpoch.AddDate(0, 0, offset)
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// PaymentIndex counts elapsed periods since the payroll program started.
// Biweekly schedules count in 14-day steps, everything else in 7-day steps.
func PaymentIndex(payday time.Time, periodsPerYear int) int {
	divisor := WeeklyDays
	if periodsPerYear == PeriodsBiweekly {
		divisor = BiweeklyDays
	}
	return floorDiv(daysBetween(programStart, payday), divisor)
}

// PeriodCount is the number of biweekly steps between two snapped dates.
func PeriodCount(start, end time.Time) int {
	n := floorDiv(daysBetween(start, end), BiweeklyDays)
	if n < 0 {
		return 0
	}
	return n
}

// Periods lists the paydays of a snapped range. The first payday is one
// cadence after start; the last is the final step still within the range.
func Periods(start, end time.Time) []time.Time {
	count := PeriodCount(start, end)
	paydays := make([]time.Time, 0, count)
	start = Day(start)
	for i := 1; i <= count; i++ {
		paydays = append(paydays, start.AddDate(0, 0, i*BiweeklyDays))
	}
	return paydays
}

// Range is a validated, snapped pay range.
type Range struct {
	Start   time.Time
	End     time.Time
	Paydays []time.Time
}

// ResolveRange snaps both bounds and enumerates the paydays in between.
func ResolveRange(start, end time.Time) (Range, error) {
	if start.IsZero() || end.IsZero() {
		return Range{}, fmt.Errorf("%w: start and end dates are required", ErrInvalidArgument)
	}
	if Day(end).Before(Day(start)) {
		return Range{}, fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidArgument, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	s, e := Snap(start), Snap(end)
	return Range{Start: s, End: e, Paydays: Periods(s, e)}, nil
}
