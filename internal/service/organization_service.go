package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/postcraft/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrOrganizationNotFound 表示组织不存在。
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrWorkspaceNotFound 表示工作区不存在。
	ErrWorkspaceNotFound = errors.New("workspace not found")
	// ErrNotMember 表示用户不是组织成员。
	ErrNotMember = errors.New("user is not a member of this organization")
	// ErrForbidden 表示成员角色不足以执行该操作。
	ErrForbidden = errors.New("insufficient role for this operation")
	// ErrAlreadyMember 表示用户已经在组织中。
	ErrAlreadyMember = errors.New("user is already a member")
	// ErrSlugTaken 表示组织标识已被占用。
	ErrSlugTaken = errors.New("slug is already taken")
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// OrganizationInput 描述创建组织所需的字段。
type OrganizationInput struct {
	Name        string
	Slug        string
	Description string
	LogoURL     string
	Website     string
	OwnerID     uint
}

// WorkspaceInput 描述创建工作区所需的字段。
type WorkspaceInput struct {
	OrganizationID string
	Name           string
	Slug           string
	Description    string
	CreatedByID    uint
}

// OrganizationService 覆盖组织、成员与工作区的多租户管理。
type OrganizationService struct {
	db            *gorm.DB
	subscriptions *SubscriptionService
}

// NewOrganizationService 构造 OrganizationService。
func NewOrganizationService(gdb *gorm.DB, subscriptions *SubscriptionService) *OrganizationService {
	return &OrganizationService{db: gdb, subscriptions: subscriptions}
}

// Create 在一个事务内创建组织、所有者成员关系与免费订阅。
func (s *OrganizationService) Create(input OrganizationInput) (*db.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("organization name is required")
	}

	slug := slugify(input.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return nil, fmt.Errorf("organization slug is required")
	}

	organization := db.Organization{
		Name:        name,
		Slug:        slug,
		OwnerID:     input.OwnerID,
		Description: strings.TrimSpace(input.Description),
		LogoURL:     strings.TrimSpace(input.LogoURL),
		Website:     strings.TrimSpace(input.Website),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Organization{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlugTaken
		}

		if err := tx.Create(&organization).Error; err != nil {
			return err
		}

		membership := db.OrganizationMember{
			OrganizationID: organization.ID,
			UserID:         input.OwnerID,
			Role:           db.RoleOwner,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		return s.subscriptions.CreateForOrganization(tx, organization.ID)
	})
	if err != nil {
		return nil, err
	}

	return &organization, nil
}

// Get 返回指定组织。
func (s *OrganizationService) Get(organizationID string) (*db.Organization, error) {
	var organization db.Organization
	if err := s.db.Where("id = ?", organizationID).First(&organization).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &organization, nil
}

// ListForUser 返回用户参与的全部组织，按创建时间倒序。
func (s *OrganizationService) ListForUser(userID uint) ([]db.Organization, error) {
	var organizations []db.Organization
	err := s.db.
		Joins("JOIN organization_members ON organization_members.organization_id = organizations.id").
		Where("organization_members.user_id = ?", userID).
		Order("organizations.created_at desc").
		Find(&organizations).Error
	if err != nil {
		return nil, err
	}
	return organizations, nil
}

// OrganizationIDsForUser 返回用户所属组织的 ID 列表，用于内容范围过滤。
func (s *OrganizationService) OrganizationIDsForUser(userID uint) ([]string, error) {
	var ids []string
	err := s.db.Model(&db.OrganizationMember{}).
		Where("user_id = ?", userID).
		Pluck("organization_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// IsMember 判断用户是否是组织成员。
func (s *OrganizationService) IsMember(organizationID string, userID uint) (bool, error) {
	var count int64
	err := s.db.Model(&db.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MemberRole 返回用户在组织内的角色，非成员返回 ErrNotMember。
func (s *OrganizationService) MemberRole(organizationID string, userID uint) (string, error) {
	var membership db.OrganizationMember
	err := s.db.Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotMember
		}
		return "", err
	}
	return membership.Role, nil
}

// AddMember 由 owner/admin 把用户加入组织。
func (s *OrganizationService) AddMember(organizationID string, actorID, userID uint, role string) (*db.OrganizationMember, error) {
	actorRole, err := s.MemberRole(organizationID, actorID)
	if err != nil {
		return nil, err
	}
	if actorRole != db.RoleOwner && actorRole != db.RoleAdmin {
		return nil, ErrForbidden
	}

	normalizedRole := strings.ToLower(strings.TrimSpace(role))
	switch normalizedRole {
	case db.RoleAdmin, db.RoleMember, db.RoleViewer:
	case "":
		normalizedRole = db.RoleMember
	default:
		return nil, fmt.Errorf("unsupported role %q", role)
	}

	exists, err := s.IsMember(organizationID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyMember
	}

	membership := db.OrganizationMember{
		OrganizationID: organizationID,
		UserID:         userID,
		Role:           normalizedRole,
	}
	if err := s.db.Create(&membership).Error; err != nil {
		return nil, err
	}

	return &membership, nil
}

// CreateWorkspace 在组织内创建工作区，slug 组织内唯一。
func (s *OrganizationService) CreateWorkspace(input WorkspaceInput) (*db.Workspace, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("workspace name is required")
	}

	slug := slugify(input.Slug)
	if slug == "" {
		slug = slugify(name)
	}

	workspace := db.Workspace{
		OrganizationID: input.OrganizationID,
		Name:           name,
		Slug:           slug,
		Description:    strings.TrimSpace(input.Description),
		IsActive:       true,
		CreatedByID:    input.CreatedByID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.Workspace{}).
			Where("organization_id = ? AND slug = ?", input.OrganizationID, slug).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlugTaken
		}
		return tx.Create(&workspace).Error
	})
	if err != nil {
		return nil, err
	}

	return &workspace, nil
}

// ListWorkspaces 返回组织下的全部工作区。
func (s *OrganizationService) ListWorkspaces(organizationID string) ([]db.Workspace, error) {
	var workspaces []db.Workspace
	err := s.db.Where("organization_id = ?", organizationID).
		Order("created_at desc").
		Find(&workspaces).Error
	if err != nil {
		return nil, err
	}
	return workspaces, nil
}

// slugify 把名称归一化为小写连字符标识。
func slugify(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	slug := slugInvalidChars.ReplaceAllString(lowered, "-")
	return strings.Trim(slug, "-")
}
