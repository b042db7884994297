// Package dates computes the formula-derived countdown targets.
//
// Every function is pure: the caller passes "now" and gets a fresh value back.
// Nothing is cached, so "next Monday" stays correct across midnight.
package dates

import "time"

// NextWeekday returns midnight of the first day strictly after today that falls
// on weekday. If today already is that weekday the result is one week ahead.
func NextWeekday(today time.Time, weekday time.Weekday) time.Time {
	daysAhead := (int(weekday) - int(today.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	y, m, d := today.Date()
	return time.Date(y, m, d+daysAhead, 0, 0, 0, 0, today.Location())
}

// MonthEnd returns midnight of the last calendar day of today's month.
func MonthEnd(today time.Time) time.Time {
	y, m, _ := today.Date()
	// Day 0 of the following month normalizes to the last day of this one.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, today.Location())
}

// NextMonday is the start of the next Monday.
func NextMonday(now time.Time) time.Time {
	return NextWeekday(now, time.Monday)
}

// NextWeekend is the start of the next Saturday.
func NextWeekend(now time.Time) time.Time {
	return NextWeekday(now, time.Saturday)
}

// EndOfMonth is the last second of the current month.
func EndOfMonth(now time.Time) time.Time {
	y, m, d := MonthEnd(now).Date()
	return time.Date(y, m, d, 23, 59, 59, 0, now.Location())
}
