package service

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/postcraft/internal/db"
	"gorm.io/gorm"
)

func seedContent(t *testing.T, gdb *gorm.DB, orgID string, userID uint) *db.Content {
	t.Helper()

	content := db.Content{
		OrganizationID: orgID,
		CreatedByID:    userID,
		Platform:       db.PlatformTwitter,
		Prompt:         "announce our launch",
		Tone:           "casual",
		Status:         db.ContentStatusDraft,
	}
	if err := gdb.Create(&content).Error; err != nil {
		t.Fatalf("failed to create content: %v", err)
	}
	return &content
}

func TestRecordInitialCreatesVersionOne(t *testing.T) {
	gdb := setupServiceTestDB(t)
	orgID, userID := seedOrgWithSubscription(t, gdb, 10000)
	ledger := NewVersionLedger(gdb)

	content := &db.Content{
		OrganizationID: orgID,
		CreatedByID:    userID,
		Platform:       db.PlatformTwitter,
		Prompt:         "announce our launch",
		Tone:           "casual",
		Status:         db.ContentStatusDraft,
	}
	result := GenerationResult{Text: "🚀 We just launched! #launch #exciting", Tokens: 42, Provider: AIProviderOpenAI}

	version, err := ledger.RecordInitial(content, result)
	if err != nil {
		t.Fatalf("record initial failed: %v", err)
	}
	if version.VersionNumber != 1 {
		t.Fatalf("expected version 1, got %d", version.VersionNumber)
	}
	if version.ContentID != content.ID {
		t.Fatalf("version not linked to content")
	}
	if content.Version != 1 || content.TokensUsed != 42 || content.Status != db.ContentStatusGenerated {
		t.Fatalf("content state not updated: %+v", content)
	}
	if content.GeneratedText != result.Text || content.AIProvider != AIProviderOpenAI {
		t.Fatalf("content text not recorded: %+v", content)
	}

	var count int64
	if err := gdb.Model(&db.ContentVersion{}).Where("content_id = ?", content.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count versions: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 version row, got %d", count)
	}
}

func TestRecordInitialRejectsSecondCall(t *testing.T) {
	gdb := setupServiceTestDB(t)
	orgID, userID := seedOrgWithSubscription(t, gdb, 10000)
	ledger := NewVersionLedger(gdb)

	content := seedContent(t, gdb, orgID, userID)
	result := GenerationResult{Text: "first", Tokens: 10, Provider: AIProviderOpenAI}
	if _, err := ledger.RecordInitial(content, result); err != nil {
		t.Fatalf("first record failed: %v", err)
	}

	_, err := ledger.RecordInitial(content, GenerationResult{Text: "second", Tokens: 5, Provider: AIProviderOpenAI})
	if !errors.Is(err, ErrVersionExists) {
		t.Fatalf("expected ErrVersionExists, got %v", err)
	}

	var count int64
	if err := gdb.Model(&db.ContentVersion{}).Where("content_id = ?", content.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count versions: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 version row after rejection, got %d", count)
	}
}

func TestRecordRegenerationAppendsVersion(t *testing.T) {
	gdb := setupServiceTestDB(t)
	orgID, userID := seedOrgWithSubscription(t, gdb, 10000)
	ledger := NewVersionLedger(gdb)

	content := seedContent(t, gdb, orgID, userID)
	if _, err := ledger.RecordInitial(content, GenerationResult{Text: "v1", Tokens: 40, Provider: AIProviderOpenAI}); err != nil {
		t.Fatalf("record initial failed: %v", err)
	}

	updated, version, err := ledger.RecordRegeneration(content.ID, GenerationResult{Text: "v2", Tokens: 30, Provider: AIProviderGemini})
	if err != nil {
		t.Fatalf("record regeneration failed: %v", err)
	}
	if version.VersionNumber != 2 {
		t.Fatalf("expected version 2, got %d", version.VersionNumber)
	}
	if updated.Version != 2 {
		t.Fatalf("expected content at version 2, got %d", updated.Version)
	}
	if updated.TokensUsed != 70 {
		t.Fatalf("expected tokens to accumulate to 70, got %d", updated.TokensUsed)
	}
	if updated.GeneratedText != "v2" || updated.AIProvider != AIProviderGemini {
		t.Fatalf("content not overwritten by latest version: %+v", updated)
	}
	if updated.Status != db.ContentStatusGenerated {
		t.Fatalf("regeneration must not change status, got %s", updated.Status)
	}
}

func TestRecordRegenerationMissingContent(t *testing.T) {
	gdb := setupServiceTestDB(t)
	ledger := NewVersionLedger(gdb)

	_, _, err := ledger.RecordRegeneration("no-such-content", GenerationResult{Text: "x", Tokens: 1})
	if !errors.Is(err, ErrContentNotFound) {
		t.Fatalf("expected ErrContentNotFound, got %v", err)
	}
}

func TestRecordRegenerationConcurrent(t *testing.T) {
	gdb := setupServiceTestDB(t)
	orgID, userID := seedOrgWithSubscription(t, gdb, 10000)
	ledger := NewVersionLedger(gdb)

	content := seedContent(t, gdb, orgID, userID)
	if _, err := ledger.RecordInitial(content, GenerationResult{Text: "v1", Tokens: 10, Provider: AIProviderOpenAI}); err != nil {
		t.Fatalf("record initial failed: %v", err)
	}

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _, errs[n] = ledger.RecordRegeneration(content.ID, GenerationResult{Text: "regen", Tokens: 1, Provider: AIProviderOpenAI})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d failed: %v", i, err)
		}
	}

	var numbers []int
	if err := gdb.Model(&db.ContentVersion{}).
		Where("content_id = ?", content.ID).
		Order("version_number").
		Pluck("version_number", &numbers).Error; err != nil {
		t.Fatalf("failed to load version numbers: %v", err)
	}

	want := workers + 1
	if len(numbers) != want {
		t.Fatalf("expected %d version rows, got %d: %v", want, len(numbers), numbers)
	}
	if !sort.IntsAreSorted(numbers) {
		t.Fatalf("version numbers out of order: %v", numbers)
	}
	for i, n := range numbers {
		if n != i+1 {
			t.Fatalf("expected contiguous numbering, got %v", numbers)
		}
	}

	var latest db.Content
	if err := gdb.Where("id = ?", content.ID).First(&latest).Error; err != nil {
		t.Fatalf("failed to reload content: %v", err)
	}
	if latest.Version != want {
		t.Fatalf("expected content at version %d, got %d", want, latest.Version)
	}
}
