package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/postcraft/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrScheduledPostNotFound 表示排期记录不存在。
	ErrScheduledPostNotFound = errors.New("scheduled post not found")
	// ErrContentNotSchedulable 表示内容还没有可发布的生成结果。
	ErrContentNotSchedulable = errors.New("content has no generated text to schedule")
)

// SchedulePostInput 描述一次排期请求。
type SchedulePostInput struct {
	ContentID   string
	UserID      uint
	ScheduledAt time.Time
	AccessToken string
}

// SchedulingService 维护排期元数据并把任务转交给外部调度服务。
type SchedulingService struct {
	db     *gorm.DB
	client *SchedulerClient
}

// NewSchedulingService 构造 SchedulingService。
func NewSchedulingService(gdb *gorm.DB, client *SchedulerClient) *SchedulingService {
	return &SchedulingService{db: gdb, client: client}
}

// SchedulePost 为内容创建排期：先落一条 queued 记录，投递成功后
// 记录任务 ID 并把内容显式转入 scheduled 状态；投递失败则标记 failed。
func (s *SchedulingService) SchedulePost(ctx context.Context, input SchedulePostInput) (*db.ScheduledPost, error) {
	if input.ScheduledAt.Before(time.Now()) {
		return nil, fmt.Errorf("scheduled time must be in the future")
	}

	var content db.Content
	if err := s.db.Where("id = ?", input.ContentID).First(&content).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	if content.GeneratedText == "" {
		return nil, ErrContentNotSchedulable
	}

	scheduled := db.ScheduledPost{
		ContentID:      content.ID,
		OrganizationID: content.OrganizationID,
		CreatedByID:    input.UserID,
		Platform:       content.Platform,
		ScheduledAt:    input.ScheduledAt,
		Status:         db.ScheduleStatusQueued,
	}
	if err := s.db.Create(&scheduled).Error; err != nil {
		return nil, err
	}

	result, err := s.client.ScheduleJob(ctx, ScheduleJobInput{
		ContentID:      content.ID,
		Platform:       content.Platform,
		ScheduledAt:    input.ScheduledAt,
		UserID:         input.UserID,
		OrganizationID: content.OrganizationID,
		AccessToken:    input.AccessToken,
	})
	if err != nil {
		scheduled.Status = db.ScheduleStatusFailed
		scheduled.ErrorMessage = err.Error()
		if saveErr := s.db.Save(&scheduled).Error; saveErr != nil {
			return nil, saveErr
		}
		return &scheduled, fmt.Errorf("schedule hand-off failed: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		scheduled.JobID = result.JobID
		scheduled.Status = db.ScheduleStatusScheduled
		if err := tx.Save(&scheduled).Error; err != nil {
			return err
		}
		return tx.Model(&db.Content{}).
			Where("id = ?", content.ID).
			Update("status", db.ContentStatusScheduled).Error
	})
	if err != nil {
		return nil, err
	}

	return &scheduled, nil
}

// Cancel 取消一条排期并通知调度服务，内容状态回退到 generated。
func (s *SchedulingService) Cancel(ctx context.Context, scheduledPostID string, userID uint) (*db.ScheduledPost, error) {
	var scheduled db.ScheduledPost
	if err := s.db.Where("id = ?", scheduledPostID).First(&scheduled).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduledPostNotFound
		}
		return nil, err
	}

	if scheduled.JobID != "" {
		if err := s.client.CancelJob(ctx, scheduled.JobID, userID); err != nil {
			return nil, err
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		scheduled.Status = db.ScheduleStatusCanceled
		if err := tx.Save(&scheduled).Error; err != nil {
			return err
		}
		return tx.Model(&db.Content{}).
			Where("id = ? AND status = ?", scheduled.ContentID, db.ContentStatusScheduled).
			Update("status", db.ContentStatusGenerated).Error
	})
	if err != nil {
		return nil, err
	}

	return &scheduled, nil
}

// ListForOrganizations 返回给定组织集合下的排期记录，按计划时间排序。
func (s *SchedulingService) ListForOrganizations(organizationIDs []string) ([]db.ScheduledPost, error) {
	if len(organizationIDs) == 0 {
		return []db.ScheduledPost{}, nil
	}

	var scheduled []db.ScheduledPost
	err := s.db.Where("organization_id IN ?", organizationIDs).
		Order("scheduled_at asc").
		Find(&scheduled).Error
	if err != nil {
		return nil, err
	}
	return scheduled, nil
}
