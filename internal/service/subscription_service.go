package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/postcraft/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrSubscriptionNotFound 表示组织没有关联的订阅。
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrPlanNotFound 表示订阅套餐不存在。
	ErrPlanNotFound = errors.New("plan not found")
)

// defaultPlans 是首次启动时播种的套餐，ScheduledPosts 为 -1 表示不限。
var defaultPlans = []db.Plan{
	{Name: "Free", Tier: db.PlanTierFree, PriceMonthly: 0, TokensPerMonth: 10000, ScheduledPosts: 5, Workspaces: 1, TeamMembers: 1},
	{Name: "Pro", Tier: db.PlanTierPro, PriceMonthly: 19, TokensPerMonth: 100000, ScheduledPosts: -1, Workspaces: 5, TeamMembers: 5},
	{Name: "Team", Tier: db.PlanTierTeam, PriceMonthly: 49, TokensPerMonth: 500000, ScheduledPosts: -1, Workspaces: 20, TeamMembers: 25},
}

// SubscriptionService 维护组织订阅及其令牌配额，是生成流程的配额来源。
type SubscriptionService struct {
	db *gorm.DB
}

// NewSubscriptionService 构造 SubscriptionService。
func NewSubscriptionService(gdb *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: gdb}
}

// EnsureDefaultPlans 播种默认套餐，已存在的层级保持不变。
func (s *SubscriptionService) EnsureDefaultPlans() error {
	for _, plan := range defaultPlans {
		record := plan
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tier"}},
			DoNothing: true,
		}).Create(&record).Error; err != nil {
			return fmt.Errorf("seed plan %s: %w", plan.Tier, err)
		}
	}
	return nil
}

// CreateForOrganization 在给定事务内为新组织开通免费订阅，并按套餐填满令牌配额。
func (s *SubscriptionService) CreateForOrganization(tx *gorm.DB, organizationID string) error {
	var plan db.Plan
	if err := tx.Where("tier = ?", db.PlanTierFree).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)
	subscription := db.Subscription{
		OrganizationID:     organizationID,
		PlanID:             plan.ID,
		Status:             db.SubscriptionStatusActive,
		TokensRemaining:    plan.TokensPerMonth,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &periodEnd,
	}

	return tx.Create(&subscription).Error
}

// ForOrganization 返回组织的订阅（含套餐）。
func (s *SubscriptionService) ForOrganization(organizationID string) (*db.Subscription, error) {
	var subscription db.Subscription
	if err := s.db.Preload("Plan").
		Where("organization_id = ?", organizationID).
		First(&subscription).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &subscription, nil
}

// TokensRemaining 返回组织当前剩余的令牌预算。
func (s *SubscriptionService) TokensRemaining(organizationID string) (int, error) {
	subscription, err := s.ForOrganization(organizationID)
	if err != nil {
		return 0, err
	}
	return subscription.TokensRemaining, nil
}

// ConsumeTokens 扣减一次生成消耗的令牌。剩余额度最低扣到 0，用量持续累计。
func (s *SubscriptionService) ConsumeTokens(organizationID string, tokens int) error {
	if tokens <= 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var subscription db.Subscription
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("organization_id = ?", organizationID).
			First(&subscription).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return err
		}

		subscription.TokensUsedThisPeriod += tokens
		subscription.TokensRemaining -= tokens
		if subscription.TokensRemaining < 0 {
			subscription.TokensRemaining = 0
		}

		return tx.Save(&subscription).Error
	})
}

// ResetPeriod 开启新的计费周期：清零用量并按套餐重置剩余令牌。
// 触发续费的支付回调属于外部系统，这里只负责状态翻转。
func (s *SubscriptionService) ResetPeriod(organizationID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var subscription db.Subscription
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Plan").
			Where("organization_id = ?", organizationID).
			First(&subscription).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return err
		}

		now := time.Now()
		periodEnd := now.AddDate(0, 1, 0)
		subscription.TokensUsedThisPeriod = 0
		subscription.TokensRemaining = subscription.Plan.TokensPerMonth
		subscription.CurrentPeriodStart = &now
		subscription.CurrentPeriodEnd = &periodEnd

		return tx.Save(&subscription).Error
	})
}
