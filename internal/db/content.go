package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 支持的目标平台。
const (
	PlatformTwitter   = "twitter"
	PlatformLinkedIn  = "linkedin"
	PlatformInstagram = "instagram"
)

// 内容生命周期状态。
const (
	ContentStatusDraft     = "draft"
	ContentStatusGenerated = "generated"
	ContentStatusScheduled = "scheduled"
	ContentStatusPublished = "published"
	ContentStatusFailed    = "failed"
)

// Content 表示一条处于迭代中的 AI 社交帖子。
// Version 始终等于关联 ContentVersion 行数，GeneratedText 与最新版本保持一致。
type Content struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	OrganizationID string `gorm:"type:uuid;index:idx_contents_org_status;not null"`
	Organization   Organization
	WorkspaceID    *string `gorm:"type:uuid"`
	Workspace      *Workspace
	CreatedByID    uint `gorm:"index;not null"`
	CreatedBy      User `gorm:"foreignKey:CreatedByID"`
	Platform       string `gorm:"size:20;not null"`
	Prompt         string `gorm:"type:text;not null"`
	GeneratedText  string `gorm:"type:text"`
	Tone           string `gorm:"size:20;not null"`
	Audience       string `gorm:"size:100"`
	AIProvider     string `gorm:"size:20;default:openai"`
	TokensUsed     int    `gorm:"default:0"`
	Version        int    `gorm:"default:0"`
	Status         string `gorm:"size:20;default:draft;index:idx_contents_org_status"`
	IsPublic       bool   `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName 指定自定义表名。
func (Content) TableName() string {
	return "contents"
}

// BeforeCreate 在入库前补齐 UUID 主键。
func (c *Content) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// ContentVersion 记录内容生成结果的不可变历史快照。
// (content_id, version_number) 唯一，版本号从 1 起连续递增。
type ContentVersion struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	ContentID     string `gorm:"type:uuid;uniqueIndex:idx_content_versions_number;not null"`
	Content       Content
	VersionNumber int    `gorm:"uniqueIndex:idx_content_versions_number;not null"`
	GeneratedText string `gorm:"type:text"`
	TokensUsed    int    `gorm:"default:0"`
	CreatedAt     time.Time
}

// TableName 指定自定义表名。
func (ContentVersion) TableName() string {
	return "content_versions"
}

// BeforeCreate 在入库前补齐 UUID 主键。
func (v *ContentVersion) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
