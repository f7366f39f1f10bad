package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 排期任务状态，实际的任务执行在外部调度服务中完成。
const (
	ScheduleStatusQueued    = "queued"
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusPublished = "published"
	ScheduleStatusFailed    = "failed"
	ScheduleStatusCanceled  = "canceled"
)

// ScheduledPost 仅保存排期元数据，JobID 指向外部调度服务的任务。
type ScheduledPost struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	ContentID      string `gorm:"type:uuid;index;not null"`
	Content        Content
	OrganizationID string `gorm:"type:uuid;index:idx_scheduled_posts_org_status;not null"`
	Organization   Organization
	CreatedByID    uint `gorm:"not null"`
	CreatedBy      User `gorm:"foreignKey:CreatedByID"`
	Platform       string    `gorm:"size:20;not null"`
	ScheduledAt    time.Time `gorm:"index;not null"`
	Status         string    `gorm:"size:20;default:queued;index:idx_scheduled_posts_org_status"`
	JobID          string
	PlatformPostID string
	PublishedAt    *time.Time
	ErrorMessage   string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName 指定自定义表名。
func (ScheduledPost) TableName() string {
	return "scheduled_posts"
}

// BeforeCreate 在入库前补齐 UUID 主键。
func (p *ScheduledPost) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
