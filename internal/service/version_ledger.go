package service

import (
	"errors"
	"log"
	"strings"

	"github.com/postcraft/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// versionConflictRetries 限定并发版本号冲突时的内部重试次数。
const versionConflictRetries = 3

var (
	// ErrContentNotFound 表示目标内容不存在。
	ErrContentNotFound = errors.New("content not found")
	// ErrVersionExists 表示内容已有历史版本，不允许再次记录初始版本。
	ErrVersionExists = errors.New("content already has a recorded version")
	// ErrVersionConflict 表示并发再生成在重试耗尽后仍未抢到版本号。
	ErrVersionConflict = errors.New("version numbering conflict")
)

// VersionLedger 维护内容的追加式版本账本。
// 每次成功生成恰好落一行 ContentVersion，并同步内容的当前状态，两者同事务提交。
type VersionLedger struct {
	db *gorm.DB
}

// NewVersionLedger 构造 VersionLedger。
func NewVersionLedger(gdb *gorm.DB) *VersionLedger {
	return &VersionLedger{db: gdb}
}

// RecordInitial 持久化首次生成：写入内容本体并创建版本号为 1 的快照。
// 内容已存在历史版本时返回 ErrVersionExists。
func (l *VersionLedger) RecordInitial(content *db.Content, result GenerationResult) (*db.ContentVersion, error) {
	version := &db.ContentVersion{
		VersionNumber: 1,
		GeneratedText: result.Text,
		TokensUsed:    result.Tokens,
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		if content.ID != "" {
			var existing int64
			if err := tx.Model(&db.ContentVersion{}).
				Where("content_id = ?", content.ID).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return ErrVersionExists
			}
		}

		content.GeneratedText = result.Text
		content.AIProvider = result.Provider
		content.TokensUsed = result.Tokens
		content.Version = 1
		content.Status = db.ContentStatusGenerated

		if err := tx.Save(content).Error; err != nil {
			return err
		}

		version.ContentID = content.ID
		return tx.Create(version).Error
	})
	if err != nil {
		return nil, err
	}

	return version, nil
}

// RecordRegeneration 追加一个新版本：版本号取当前最大值加一，
// 覆盖内容的当前文本与服务商并累加令牌用量，生命周期状态保持不变。
// 并发冲突时在内部有限重试，耗尽后返回 ErrVersionConflict。
func (l *VersionLedger) RecordRegeneration(contentID string, result GenerationResult) (*db.Content, *db.ContentVersion, error) {
	for attempt := 0; attempt <= versionConflictRetries; attempt++ {
		content, version, err := l.appendVersion(contentID, result)
		if err == nil {
			return content, version, nil
		}
		if !isUniqueViolation(err) {
			return nil, nil, err
		}
		log.Printf("[version ledger] version conflict on content %s (attempt %d), retrying", contentID, attempt+1)
	}

	return nil, nil, ErrVersionConflict
}

func (l *VersionLedger) appendVersion(contentID string, result GenerationResult) (*db.Content, *db.ContentVersion, error) {
	var content db.Content
	var version db.ContentVersion

	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", contentID).
			First(&content).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContentNotFound
			}
			return err
		}

		var maxNumber int
		if err := tx.Model(&db.ContentVersion{}).
			Where("content_id = ?", contentID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return err
		}

		next := maxNumber + 1
		if content.Version >= next {
			next = content.Version + 1
		}

		version = db.ContentVersion{
			ContentID:     contentID,
			VersionNumber: next,
			GeneratedText: result.Text,
			TokensUsed:    result.Tokens,
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}

		content.GeneratedText = result.Text
		content.AIProvider = result.Provider
		content.TokensUsed += result.Tokens
		content.Version = next

		return tx.Save(&content).Error
	})
	if err != nil {
		return nil, nil, err
	}

	return &content, &version, nil
}

// isUniqueViolation 识别 (content_id, version_number) 唯一索引冲突。
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
