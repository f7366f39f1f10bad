package service

import (
	"errors"
	"testing"

	"github.com/postcraft/internal/db"
)

func TestEnsureDefaultPlansIsIdempotent(t *testing.T) {
	gdb := setupServiceTestDB(t)
	subscriptions := NewSubscriptionService(gdb)

	if err := subscriptions.EnsureDefaultPlans(); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	if err := subscriptions.EnsureDefaultPlans(); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}

	var count int64
	if err := gdb.Model(&db.Plan{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count plans: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 plans, got %d", count)
	}
}

func TestNewOrganizationGetsFreeSubscription(t *testing.T) {
	gdb := setupServiceTestDB(t)
	orgID, _ := seedOrgWithSubscription(t, gdb, 10000)
	subscriptions := NewSubscriptionService(gdb)

	subscription, err := subscriptions.ForOrganization(orgID)
	if err != nil {
		t.Fatalf("failed to load subscription: %v", err)
	}
	if subscription.Plan.Tier != db.PlanTierFree {
		t.Fatalf("expected free tier, got %s", subscription.Plan.Tier)
	}
	if subscription.Status != db.SubscriptionStatusActive {
		t.Fatalf("expected active status, got %s", subscription.Status)
	}
	if subscription.CurrentPeriodStart == nil || subscription.CurrentPeriodEnd == nil {
		t.Fatal("expected billing period to be set")
	}
}

func TestConsumeTokensFloorsAtZero(t *testing.T) {
	gdb := setupServiceTestDB(t)
	orgID, _ := seedOrgWithSubscription(t, gdb, 100)
	subscriptions := NewSubscriptionService(gdb)

	if err := subscriptions.ConsumeTokens(orgID, 60); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	remaining, err := subscriptions.TokensRemaining(orgID)
	if err != nil {
		t.Fatalf("failed to read quota: %v", err)
	}
	if remaining != 40 {
		t.Fatalf("expected 40 remaining, got %d", remaining)
	}

	if err := subscriptions.ConsumeTokens(orgID, 999); err != nil {
		t.Fatalf("overdraw consume failed: %v", err)
	}
	remaining, err = subscriptions.TokensRemaining(orgID)
	if err != nil {
		t.Fatalf("failed to read quota: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected remaining floored at 0, got %d", remaining)
	}

	subscription, err := subscriptions.ForOrganization(orgID)
	if err != nil {
		t.Fatalf("failed to load subscription: %v", err)
	}
	if subscription.TokensUsedThisPeriod != 60+999 {
		t.Fatalf("expected usage to keep accumulating, got %d", subscription.TokensUsedThisPeriod)
	}
}

func TestConsumeTokensIgnoresNonPositive(t *testing.T) {
	gdb := setupServiceTestDB(t)
	orgID, _ := seedOrgWithSubscription(t, gdb, 100)
	subscriptions := NewSubscriptionService(gdb)

	if err := subscriptions.ConsumeTokens(orgID, 0); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if err := subscriptions.ConsumeTokens(orgID, -10); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	remaining, err := subscriptions.TokensRemaining(orgID)
	if err != nil {
		t.Fatalf("failed to read quota: %v", err)
	}
	if remaining != 100 {
		t.Fatalf("expected quota untouched, got %d", remaining)
	}
}

func TestResetPeriodRestoresPlanQuota(t *testing.T) {
	gdb := setupServiceTestDB(t)
	orgID, _ := seedOrgWithSubscription(t, gdb, 100)
	subscriptions := NewSubscriptionService(gdb)

	if err := subscriptions.ConsumeTokens(orgID, 80); err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if err := subscriptions.ResetPeriod(orgID); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	subscription, err := subscriptions.ForOrganization(orgID)
	if err != nil {
		t.Fatalf("failed to load subscription: %v", err)
	}
	if subscription.TokensUsedThisPeriod != 0 {
		t.Fatalf("expected usage reset, got %d", subscription.TokensUsedThisPeriod)
	}
	if subscription.TokensRemaining != subscription.Plan.TokensPerMonth {
		t.Fatalf("expected quota restored to %d, got %d", subscription.Plan.TokensPerMonth, subscription.TokensRemaining)
	}
}

func TestSubscriptionMissingOrganization(t *testing.T) {
	gdb := setupServiceTestDB(t)
	subscriptions := NewSubscriptionService(gdb)

	if _, err := subscriptions.TokensRemaining("no-such-org"); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
	if err := subscriptions.ConsumeTokens("no-such-org", 10); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}
