package domain

import "time"

// GuestLocalState mirrors the resource and progression shape of an Account
// for an unauthenticated learner. It lives only on the device, has exactly
// one writer, and is destroyed after it has been reconciled into an account.
type GuestLocalState struct {
	Energy       ResourcePool `json:"energy"`
	RevealTokens ResourcePool `json:"reveal_tokens"`

	Progression
	Entitlement

	Words map[string]WordProgress `json:"words,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGuestLocalState seeds a fresh guest snapshot with the free-tier daily
// allotments, created lazily on first unauthenticated use.
func NewGuestLocalState(allot Allotments, now time.Time) *GuestLocalState {
	now = now.UTC()
	return &GuestLocalState{
		Energy: ResourcePool{
			Daily:       allot.For(ResourceEnergy, false),
			RefreshedAt: now,
		},
		RevealTokens: ResourcePool{
			Daily:       allot.For(ResourceRevealToken, false),
			RefreshedAt: now,
		},
		Words:     make(map[string]WordProgress),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Pool returns the guest resource pool for the given kind, or nil when the
// kind is unknown.
func (g *GuestLocalState) Pool(kind ResourceKind) *ResourcePool {
	switch kind {
	case ResourceEnergy:
		return &g.Energy
	case ResourceRevealToken:
		return &g.RevealTokens
	}
	return nil
}

// Empty reports whether the snapshot carries nothing worth merging into an
// account: no bonus balances, no streak, no mastery and no word records.
func (g *GuestLocalState) Empty() bool {
	return g.Energy.Bonus == 0 && g.RevealTokens.Bonus == 0 &&
		g.CurrentStreak == 0 && g.LongestStreak == 0 &&
		g.TodaysMastered == 0 && len(g.Words) == 0 &&
		!g.PremiumTrialUsed
}

// StartTrial runs the identical trial transition as an account, then raises
// the guest daily allotments to the premium tier. The result is persisted
// only on the device.
func (g *GuestLocalState) StartTrial(now time.Time, days int, allot Allotments) error {
	if err := g.Entitlement.StartTrial(now, days); err != nil {
		return err
	}
	g.Energy.Daily = allot.For(ResourceEnergy, true)
	g.RevealTokens.Daily = allot.For(ResourceRevealToken, true)
	g.UpdatedAt = now.UTC()
	return nil
}
