package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/postcraft/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrInvalidPlatform 表示平台不在受支持的集合内。
	ErrInvalidPlatform = errors.New("unsupported platform")
	// ErrInvalidTone 表示语气不在受支持的集合内。
	ErrInvalidTone = errors.New("unsupported tone")
)

var supportedTones = []string{"professional", "casual", "humorous", "inspirational", "educational"}

// GenerateContentInput 描述一次新内容生成所需的全部字段。
type GenerateContentInput struct {
	OrganizationID string
	WorkspaceID    *string
	CreatedByID    uint
	Platform       string
	Tone           string
	Audience       string
	Prompt         string
	Provider       string
}

// ContentService 把编排器、版本账本与订阅配额粘合成对外的生成/再生成操作。
type ContentService struct {
	db            *gorm.DB
	orchestrator  *Orchestrator
	ledger        *VersionLedger
	subscriptions *SubscriptionService
}

// NewContentService 构造 ContentService。
func NewContentService(gdb *gorm.DB, orchestrator *Orchestrator, subscriptions *SubscriptionService) *ContentService {
	return &ContentService{
		db:            gdb,
		orchestrator:  orchestrator,
		ledger:        NewVersionLedger(gdb),
		subscriptions: subscriptions,
	}
}

// Generate 生成一条新内容：读取配额、调用编排器，成功后落库为首个版本并扣减令牌。
func (s *ContentService) Generate(ctx context.Context, input GenerateContentInput) (*db.Content, error) {
	platform := strings.ToLower(strings.TrimSpace(input.Platform))
	if _, ok := platformCharLimits[platform]; !ok {
		return nil, ErrInvalidPlatform
	}

	tone, err := normalizeTone(input.Tone)
	if err != nil {
		return nil, err
	}

	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	tokensAvailable, err := s.subscriptions.TokensRemaining(input.OrganizationID)
	if err != nil {
		return nil, err
	}

	result, err := s.orchestrator.Generate(ctx, GenerationRequest{
		Platform:        platform,
		Tone:            tone,
		Audience:        strings.TrimSpace(input.Audience),
		Prompt:          prompt,
		Provider:        input.Provider,
		TokensAvailable: tokensAvailable,
	})
	if err != nil {
		return nil, err
	}

	content := &db.Content{
		OrganizationID: input.OrganizationID,
		WorkspaceID:    input.WorkspaceID,
		CreatedByID:    input.CreatedByID,
		Platform:       platform,
		Prompt:         prompt,
		Tone:           tone,
		Audience:       strings.TrimSpace(input.Audience),
		Status:         db.ContentStatusDraft,
	}

	if _, err := s.ledger.RecordInitial(content, result); err != nil {
		return nil, err
	}

	s.consumeTokens(input.OrganizationID, result.Tokens)

	return content, nil
}

// Regenerate 基于修改意见再生成：把修改说明拼接到原始提示之后，
// 交给编排器后由账本追加新版本，配额同样在调用前校验。
func (s *ContentService) Regenerate(ctx context.Context, contentID, modification string) (*db.Content, error) {
	modification = strings.TrimSpace(modification)
	if modification == "" {
		return nil, fmt.Errorf("modification prompt is required")
	}

	content, err := s.Get(contentID)
	if err != nil {
		return nil, err
	}

	tokensAvailable, err := s.subscriptions.TokensRemaining(content.OrganizationID)
	if err != nil {
		return nil, err
	}

	newPrompt := fmt.Sprintf("%s\n\nModification: %s", content.Prompt, modification)

	result, err := s.orchestrator.Generate(ctx, GenerationRequest{
		Platform:        content.Platform,
		Tone:            content.Tone,
		Audience:        content.Audience,
		Prompt:          newPrompt,
		Provider:        content.AIProvider,
		TokensAvailable: tokensAvailable,
	})
	if err != nil {
		return nil, err
	}

	updated, _, err := s.ledger.RecordRegeneration(contentID, result)
	if err != nil {
		return nil, err
	}

	s.consumeTokens(content.OrganizationID, result.Tokens)

	return updated, nil
}

// Get 返回指定内容。
func (s *ContentService) Get(contentID string) (*db.Content, error) {
	var content db.Content
	if err := s.db.Where("id = ?", contentID).First(&content).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return &content, nil
}

// ListForOrganizations 返回给定组织集合下的内容，按创建时间倒序。
func (s *ContentService) ListForOrganizations(organizationIDs []string) ([]db.Content, error) {
	if len(organizationIDs) == 0 {
		return []db.Content{}, nil
	}

	var contents []db.Content
	err := s.db.Where("organization_id IN ?", organizationIDs).
		Order("created_at desc").
		Find(&contents).Error
	if err != nil {
		return nil, err
	}
	return contents, nil
}

// Versions 返回内容的全部历史版本，按版本号倒序。
func (s *ContentService) Versions(contentID string) ([]db.ContentVersion, error) {
	var versions []db.ContentVersion
	err := s.db.Where("content_id = ?", contentID).
		Order("version_number desc").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// Delete 删除内容及其版本历史。
func (s *ContentService) Delete(contentID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_id = ?", contentID).Delete(&db.ContentVersion{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", contentID).Delete(&db.Content{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrContentNotFound
		}
		return nil
	})
}

// consumeTokens 扣减订阅配额。内容已经落库，扣减失败只记日志，
// 实际用量仍可从版本账本重新汇总。
func (s *ContentService) consumeTokens(organizationID string, tokens int) {
	if err := s.subscriptions.ConsumeTokens(organizationID, tokens); err != nil {
		log.Printf("[content] failed to consume %d tokens for org %s: %v", tokens, organizationID, err)
	}
}

// normalizeTone 校验并归一化语气取值。
func normalizeTone(tone string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(tone))
	for _, candidate := range supportedTones {
		if normalized == candidate {
			return candidate, nil
		}
	}
	return "", ErrInvalidTone
}
