package domain

import "time"

// Progression tracks the calendar-day streak and the same-day mastery
// counter for a learner. It is embedded in both Account and GuestLocalState
// so authenticated and guest sessions share one set of transition rules.
type Progression struct {
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityAt   *time.Time `json:"last_activity_at,omitempty"`
	TodaysMastered   int        `json:"todays_mastered"`
	TodaysMasteredOn *time.Time `json:"todays_mastered_on,omitempty"`
}

// ApplyActivity advances the streak state for an activity observed at now.
// The transition depends on the calendar-day difference between the stored
// last activity and now:
//
//	no prior activity: the streak starts at 1
//	same day:          no streak change
//	next day:          the streak grows by one
//	gap of 2+ days:    the streak restarts at 1, longest is preserved
//	stored date in the future: no streak mutation, bookkeeping only
//
// Crossing a day boundary also resets the same-day mastery counter, so the
// counter reset rides on any activity rather than on mastering a word.
func (p *Progression) ApplyActivity(now time.Time) {
	now = now.UTC()
	p.resetStaleMasteryCounter(now)

	if p.LastActivityAt == nil {
		if p.CurrentStreak < 1 {
			p.CurrentStreak = 1
		}
		if p.LongestStreak < p.CurrentStreak {
			p.LongestStreak = p.CurrentStreak
		}
		p.LastActivityAt = &now
		return
	}

	switch diff := DayDiff(*p.LastActivityAt, now); {
	case diff == 0:
		// Same day, streak unchanged.
	case diff == 1:
		p.CurrentStreak++
		if p.LongestStreak < p.CurrentStreak {
			p.LongestStreak = p.CurrentStreak
		}
		p.LastActivityAt = &now
	case diff > 1:
		previous := p.CurrentStreak
		p.CurrentStreak = 1
		if p.LongestStreak < previous {
			p.LongestStreak = previous
		}
		if p.LongestStreak < 1 {
			p.LongestStreak = 1
		}
		p.LastActivityAt = &now
	default:
		// The stored activity date is ahead of the trusted clock. Advance
		// the bookkeeping date without mutating the streak so a transient
		// clock anomaly cannot inflate or destroy a streak.
		p.LastActivityAt = &now
	}
}

// ApplyMastery records one newly mastered word at now, incrementing the
// same-day counter or restarting it when the stored counter belongs to an
// earlier day.
func (p *Progression) ApplyMastery(now time.Time) {
	now = now.UTC()
	if p.TodaysMasteredOn != nil && SameDay(*p.TodaysMasteredOn, now) {
		p.TodaysMastered++
		return
	}
	p.TodaysMastered = 1
	p.TodaysMasteredOn = &now
}

// resetStaleMasteryCounter zeroes the same-day counter when its stamp no
// longer falls on today.
func (p *Progression) resetStaleMasteryCounter(now time.Time) {
	if p.TodaysMasteredOn != nil && !SameDay(*p.TodaysMasteredOn, now) {
		p.TodaysMastered = 0
		p.TodaysMasteredOn = nil
	}
}

// Validate checks the progression invariants.
func (p *Progression) Validate() error {
	if p.CurrentStreak < 0 || p.LongestStreak < 0 || p.TodaysMastered < 0 {
		return ErrValidation
	}
	if p.CurrentStreak > p.LongestStreak {
		return ErrStreakInvariant
	}
	return nil
}
