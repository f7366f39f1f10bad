package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 组织成员角色。
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Organization 是多租户的顶层单位，拥有成员、工作区与订阅。
type Organization struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Name        string `gorm:"not null"`
	Slug        string `gorm:"uniqueIndex;size:100;not null"`
	OwnerID     uint   `gorm:"index;not null"`
	Owner       User
	Description string `gorm:"type:text"`
	LogoURL     string
	Website     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName 指定自定义表名。
func (Organization) TableName() string {
	return "organizations"
}

// BeforeCreate 在入库前补齐 UUID 主键。
func (o *Organization) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrganizationMember 将用户与组织按角色关联。
type OrganizationMember struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	OrganizationID string `gorm:"type:uuid;uniqueIndex:idx_org_members_org_user;not null"`
	Organization   Organization
	UserID         uint `gorm:"uniqueIndex:idx_org_members_org_user;not null"`
	User           User
	Role           string `gorm:"size:20;default:member"`
	JoinedAt       time.Time
}

// TableName 指定自定义表名。
func (OrganizationMember) TableName() string {
	return "organization_members"
}

// BeforeCreate 在入库前补齐 UUID 主键与加入时间。
func (m *OrganizationMember) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}

// Workspace 是组织内部用于归类内容的子空间。
type Workspace struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	OrganizationID string `gorm:"type:uuid;uniqueIndex:idx_workspaces_org_slug;not null"`
	Organization   Organization
	Name           string `gorm:"not null"`
	Slug           string `gorm:"size:100;uniqueIndex:idx_workspaces_org_slug;not null"`
	Description    string `gorm:"type:text"`
	IsActive       bool   `gorm:"default:true"`
	CreatedByID    uint
	CreatedBy      User `gorm:"foreignKey:CreatedByID"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName 指定自定义表名。
func (Workspace) TableName() string {
	return "workspaces"
}

// BeforeCreate 在入库前补齐 UUID 主键。
func (w *Workspace) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
