package domain

import "time"

// StartOfDay truncates t to midnight UTC. All calendar-day decisions in the
// app (refills, streaks, lockout windows) are made in UTC so that a device
// travelling across time zones cannot re-earn a daily allotment.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// DayDiff returns the number of UTC calendar days from a to b. The result is
// positive when b is on a later day than a, zero when they share a day, and
// negative when b is on an earlier day.
func DayDiff(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}
