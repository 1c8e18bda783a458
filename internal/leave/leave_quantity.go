package leave

import (
	"time"

	leaveerrors "leavedesk/internal/leave/errors"

	"github.com/shopspring/decimal"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// WorkingDays counts the dates in the inclusive range [start, end] that fall
// on a working day. Friday and Saturday are the fixed weekend for this
// deployment; holidays holds the non-working calendar dates keyed YYYY-MM-DD.
// This is the single deduction formula for daily requests: every approval
// path must go through it.
func WorkingDays(start, end time.Time, holidays map[string]struct{}) decimal.Decimal {
	days := int64(0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Friday || d.Weekday() == time.Saturday {
			continue
		}
		if _, isHoliday := holidays[d.Format(DateLayout)]; isHoliday {
			continue
		}
		days++
	}
	return decimal.NewFromInt(days)
}

// LeaveHours is the time-of-day difference endTime-startTime in fractional
// hours. Both values are HH:MM strings projected onto the same reference day,
// so only the clock difference matters.
func LeaveHours(startTime, endTime string) (decimal.Decimal, error) {
	st, err := time.Parse(TimeLayout, startTime)
	if err != nil {
		return decimal.Zero, leaveerrors.ErrInvalidTime
	}
	et, err := time.Parse(TimeLayout, endTime)
	if err != nil {
		return decimal.Zero, leaveerrors.ErrInvalidTime
	}
	if !et.After(st) {
		return decimal.Zero, leaveerrors.ErrEndTimeNotAfterStart
	}

	minutes := int64(et.Sub(st) / time.Minute)
	return decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60)), nil
}
