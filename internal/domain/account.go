package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is the durable record for a registered learner. All mutations to
// an account go through a single atomic read-modify-write transaction
// against the backing store; the embedded Progression and Entitlement carry
// the streak and premium-window state.
type Account struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Never expose the password hash in JSON

	Energy       ResourcePool `json:"energy"`
	RevealTokens ResourcePool `json:"reveal_tokens"`

	Progression
	Entitlement

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccount creates an account for the given email with the free-tier
// daily allotments already stamped, so a fresh account can practice
// immediately without waiting for a refill.
// The caller supplies an already-hashed password.
func NewAccount(email, hashedPassword string, allot Allotments, now time.Time) (*Account, error) {
	now = now.UTC()
	account := &Account{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: hashedPassword,
		Energy: ResourcePool{
			Daily:       allot.For(ResourceEnergy, false),
			RefreshedAt: now,
		},
		RevealTokens: ResourcePool{
			Daily:       allot.For(ResourceRevealToken, false),
			RefreshedAt: now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	return account, nil
}

// Pool returns the resource pool for the given kind, or nil when the kind
// is unknown.
func (a *Account) Pool(kind ResourceKind) *ResourcePool {
	switch kind {
	case ResourceEnergy:
		return &a.Energy
	case ResourceRevealToken:
		return &a.RevealTokens
	}
	return nil
}

// Touch stamps the update time. Stores persist UpdatedAt verbatim.
func (a *Account) Touch(now time.Time) {
	a.UpdatedAt = now.UTC()
}

// Validate checks the account invariants: identity fields present, all
// resource balances non-negative, and the streak ordering intact.
func (a *Account) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAccountID
	}
	if a.Email == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if a.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	if a.Energy.Daily < 0 || a.Energy.Bonus < 0 ||
		a.RevealTokens.Daily < 0 || a.RevealTokens.Bonus < 0 {
		return ErrNegativeBalance
	}
	return a.Progression.Validate()
}
