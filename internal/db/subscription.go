package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 订阅套餐层级。
const (
	PlanTierFree = "free"
	PlanTierPro  = "pro"
	PlanTierTeam = "team"
)

// 订阅状态。
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusTrialing = "trialing"
)

// Plan 定义订阅套餐及其配额。ScheduledPosts 为 -1 表示不限。
type Plan struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	Name           string `gorm:"size:50;not null"`
	Tier           string `gorm:"size:20;uniqueIndex;not null"`
	PriceMonthly   float64
	TokensPerMonth int
	ScheduledPosts int
	Workspaces     int
	TeamMembers    int
	IsActive       bool `gorm:"default:true"`
	CreatedAt      time.Time
}

// TableName 指定自定义表名。
func (Plan) TableName() string {
	return "plans"
}

// BeforeCreate 在入库前补齐 UUID 主键。
func (p *Plan) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Subscription 将组织绑定到套餐，并跟踪本周期的令牌用量。
type Subscription struct {
	ID                   string `gorm:"type:uuid;primaryKey"`
	OrganizationID       string `gorm:"type:uuid;uniqueIndex;not null"`
	Organization         Organization
	PlanID               string `gorm:"type:uuid;not null"`
	Plan                 Plan
	Status               string `gorm:"size:20;default:active"`
	TokensUsedThisPeriod int    `gorm:"default:0"`
	TokensRemaining      int    `gorm:"default:0"`
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool `gorm:"default:false"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName 指定自定义表名。
func (Subscription) TableName() string {
	return "subscriptions"
}

// BeforeCreate 在入库前补齐 UUID 主键。
func (s *Subscription) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
