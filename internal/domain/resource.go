package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResourceKind identifies one of the consumable allowances the ledger tracks.
type ResourceKind string

// Resource kinds tracked by the ledger.
const (
	// ResourceEnergy is spent to start practice sessions.
	ResourceEnergy ResourceKind = "energy"
	// ResourceRevealToken is spent to reveal an answer during practice.
	ResourceRevealToken ResourceKind = "reveal_token"
)

// ResourceKinds lists every kind the ledger tracks, in a stable order.
var ResourceKinds = []ResourceKind{ResourceEnergy, ResourceRevealToken}

// Valid reports whether k is a known resource kind.
func (k ResourceKind) Valid() bool {
	return k == ResourceEnergy || k == ResourceRevealToken
}

// TransactionReason explains why a ledger balance changed. Reasons are
// recorded on the audit log and never interpreted by the ledger itself.
type TransactionReason string

// Known audit reasons.
const (
	ReasonDailyRefresh TransactionReason = "dailyRefresh"
	ReasonConsumption  TransactionReason = "consumption"
	ReasonAdGranted    TransactionReason = "adGranted"
	ReasonAdminGrant   TransactionReason = "adminGrant"
	ReasonManualAdjust TransactionReason = "manualAdjust"
	ReasonGuestMerge   TransactionReason = "guestMerge"
)

// ResourcePool holds the two balances of one resource kind: the daily pool
// that auto-refills once per calendar day, and the bonus pool that only ever
// changes through explicit grants.
type ResourcePool struct {
	Daily       int       `json:"daily"`
	Bonus       int       `json:"bonus"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Total returns the combined spendable balance of the pool.
func (p *ResourcePool) Total() int {
	return p.Daily + p.Bonus
}

// NeedsRefill reports whether the daily pool is due a refill at now, i.e.
// whether now is on a later calendar day than the last refresh.
func (p *ResourcePool) NeedsRefill(now time.Time) bool {
	return DayDiff(p.RefreshedAt, now) > 0
}

// Refill resets the daily pool to allotment and stamps the refresh time.
// It returns the delta applied to the daily pool. The bonus pool is never
// touched by a refill.
func (p *ResourcePool) Refill(allotment int, now time.Time) int {
	delta := allotment - p.Daily
	p.Daily = allotment
	p.RefreshedAt = now.UTC()
	return delta
}

// Consume draws amount from the pool, daily first, then the shortfall from
// the bonus pool. It reports false and leaves the pool untouched when the
// combined balances cannot cover the amount (all-or-nothing).
func (p *ResourcePool) Consume(amount int) bool {
	if amount > p.Total() {
		return false
	}
	fromDaily := amount
	if fromDaily > p.Daily {
		fromDaily = p.Daily
	}
	p.Daily -= fromDaily
	p.Bonus -= amount - fromDaily
	return true
}

// Grant adds delta to the bonus pool, clamping at zero so that a negative
// adjustment can never push the pool below empty. It returns the delta that
// was actually applied after clamping.
func (p *ResourcePool) Grant(delta int) int {
	next := p.Bonus + delta
	if next < 0 {
		next = 0
	}
	applied := next - p.Bonus
	p.Bonus = next
	return applied
}

// ResourceTransaction is one append-only audit record of a balance change.
// Rows are immutable once written and exist purely for audit: balances are
// authoritative on the Account record and are never reconstructed from the
// log.
type ResourceTransaction struct {
	ID        uuid.UUID         `json:"id"`
	AccountID uuid.UUID         `json:"account_id"`
	Kind      ResourceKind      `json:"kind"`
	Delta     int               `json:"delta"`
	Reason    TransactionReason `json:"reason"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewResourceTransaction creates an audit record for a balance change on the
// given account.
func NewResourceTransaction(
	accountID uuid.UUID,
	kind ResourceKind,
	delta int,
	reason TransactionReason,
	now time.Time,
) *ResourceTransaction {
	return &ResourceTransaction{
		ID:        uuid.New(),
		AccountID: accountID,
		Kind:      kind,
		Delta:     delta,
		Reason:    reason,
		CreatedAt: now.UTC(),
	}
}

// Allotments holds the per-tier daily allotment amounts for each resource
// kind. Values come from configuration; DefaultAllotments matches the
// product defaults.
type Allotments struct {
	FreeEnergy          int
	FreeRevealTokens    int
	PremiumEnergy       int
	PremiumRevealTokens int
}

// DefaultAllotments returns the product-default allotment amounts.
func DefaultAllotments() Allotments {
	return Allotments{
		FreeEnergy:          50,
		FreeRevealTokens:    3,
		PremiumEnergy:       200,
		PremiumRevealTokens: 10,
	}
}

// For returns the daily allotment for the given kind and tier.
func (a Allotments) For(kind ResourceKind, premium bool) int {
	switch kind {
	case ResourceEnergy:
		if premium {
			return a.PremiumEnergy
		}
		return a.FreeEnergy
	case ResourceRevealToken:
		if premium {
			return a.PremiumRevealTokens
		}
		return a.FreeRevealTokens
	}
	return 0
}
