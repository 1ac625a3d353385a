package domain

import "time"

// PremiumSource records how a premium window was obtained.
type PremiumSource string

// Known premium sources.
const (
	PremiumSourceNone     PremiumSource = ""
	PremiumSourceTrial    PremiumSource = "trial"
	PremiumSourcePurchase PremiumSource = "purchase"
)

// Entitlement holds the premium window state for a learner. Whether the
// window is currently active is always derived from PremiumActiveUntil and
// the trusted clock, never stored, so an account that simply ages past its
// window needs no background job to expire it.
type Entitlement struct {
	PremiumActiveUntil *time.Time    `json:"premium_active_until,omitempty"`
	PremiumStartedAt   *time.Time    `json:"premium_started_at,omitempty"`
	PremiumSource      PremiumSource `json:"premium_source,omitempty"`
	PremiumTrialUsed   bool          `json:"premium_trial_used"`
}

// IsPremiumActive reports whether a premium window is live at now.
func (e *Entitlement) IsPremiumActive(now time.Time) bool {
	return e.PremiumActiveUntil != nil && now.Before(*e.PremiumActiveUntil)
}

// IsTrialActive reports whether the live premium window, if any, came from
// the free trial.
func (e *Entitlement) IsTrialActive(now time.Time) bool {
	return e.IsPremiumActive(now) && e.PremiumSource == PremiumSourceTrial
}

// TrialEligible reports whether the learner may still start the one free
// trial: the trial has not been used and no window is currently active.
func (e *Entitlement) TrialEligible(now time.Time) bool {
	return !e.PremiumTrialUsed && !e.IsPremiumActive(now)
}

// PremiumRemaining returns how much of the live window is left, or zero when
// no window is active.
func (e *Entitlement) PremiumRemaining(now time.Time) time.Duration {
	if !e.IsPremiumActive(now) {
		return 0
	}
	return e.PremiumActiveUntil.Sub(now)
}

// StartTrial opens the one free trial window of the given length.
// It fails with ErrEntitlementActive while another window is live, and with
// ErrTrialAlreadyUsed once the trial has been consumed.
func (e *Entitlement) StartTrial(now time.Time, days int) error {
	if e.IsPremiumActive(now) {
		return ErrEntitlementActive
	}
	if e.PremiumTrialUsed {
		return ErrTrialAlreadyUsed
	}
	now = now.UTC()
	until := now.AddDate(0, 0, days)
	e.PremiumActiveUntil = &until
	e.PremiumStartedAt = &now
	e.PremiumSource = PremiumSourceTrial
	e.PremiumTrialUsed = true
	return nil
}

// ActivatePurchase opens or extends a paid premium window ending at until.
// A purchase may land while a trial is still running; the paid window simply
// replaces it.
func (e *Entitlement) ActivatePurchase(now, until time.Time) error {
	if !until.After(now) {
		return ErrValidation
	}
	now = now.UTC()
	until = until.UTC()
	e.PremiumActiveUntil = &until
	e.PremiumStartedAt = &now
	e.PremiumSource = PremiumSourcePurchase
	return nil
}
