package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewAccount(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	allot := DefaultAllotments()

	account, err := NewAccount("test@example.com", "hashedpassword123", allot, now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if account.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if account.Email != "test@example.com" {
		t.Errorf("Expected email test@example.com, got %s", account.Email)
	}

	// Fresh accounts start with the free daily allotments already stamped
	if account.Energy.Daily != allot.FreeEnergy {
		t.Errorf("Expected daily energy %d, got %d", allot.FreeEnergy, account.Energy.Daily)
	}
	if account.RevealTokens.Daily != allot.FreeRevealTokens {
		t.Errorf("Expected daily reveal tokens %d, got %d",
			allot.FreeRevealTokens, account.RevealTokens.Daily)
	}
	if account.Energy.Bonus != 0 || account.RevealTokens.Bonus != 0 {
		t.Error("Expected empty bonus pools on a fresh account")
	}
	if !account.Energy.RefreshedAt.Equal(now) {
		t.Errorf("Expected refresh stamp %v, got %v", now, account.Energy.RefreshedAt)
	}

	if account.CurrentStreak != 0 || account.PremiumTrialUsed {
		t.Error("Expected clean progression and entitlement state")
	}

	// Invalid inputs
	if _, err := NewAccount("", "hash", allot, now); err != ErrEmptyEmail {
		t.Errorf("Expected error %v, got %v", ErrEmptyEmail, err)
	}
	if _, err := NewAccount("noatsign", "hash", allot, now); err != ErrInvalidEmail {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}
	if _, err := NewAccount("test@example.com", "", allot, now); err != ErrEmptyHashedPassword {
		t.Errorf("Expected error %v, got %v", ErrEmptyHashedPassword, err)
	}
}

func TestAccountValidate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	valid, err := NewAccount("test@example.com", "hashedpassword123", DefaultAllotments(), now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	invalid := *valid
	invalid.ID = uuid.Nil
	if err := invalid.Validate(); err != ErrEmptyAccountID {
		t.Errorf("Expected error %v, got %v", ErrEmptyAccountID, err)
	}

	invalid = *valid
	invalid.Energy.Bonus = -1
	if err := invalid.Validate(); err != ErrNegativeBalance {
		t.Errorf("Expected error %v, got %v", ErrNegativeBalance, err)
	}

	invalid = *valid
	invalid.CurrentStreak = 3
	invalid.LongestStreak = 2
	if err := invalid.Validate(); err != ErrStreakInvariant {
		t.Errorf("Expected error %v, got %v", ErrStreakInvariant, err)
	}
}

func TestAccountPool(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	account, err := NewAccount("test@example.com", "hashedpassword123", DefaultAllotments(), now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if account.Pool(ResourceEnergy) != &account.Energy {
		t.Error("Expected the energy pool")
	}
	if account.Pool(ResourceRevealToken) != &account.RevealTokens {
		t.Error("Expected the reveal token pool")
	}
	if account.Pool(ResourceKind("mana")) != nil {
		t.Error("Expected nil pool for an unknown kind")
	}
}
