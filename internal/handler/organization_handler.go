package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/postcraft/internal/db"
	"github.com/postcraft/internal/service"
)

type organizationRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
	Website     string `json:"website"`
}

type addMemberRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

type workspaceRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// CreateOrganization 创建组织，当前用户成为所有者并获得免费订阅。
func (a *API) CreateOrganization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req organizationRequest
	if !bindJSON(c, &req, "organization name is required") {
		return
	}

	organization, err := a.organizations.Create(service.OrganizationInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		LogoURL:     req.LogoURL,
		Website:     req.Website,
		OwnerID:     userID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSlugTaken):
			respondError(c, http.StatusBadRequest, "slug is already taken")
		case errors.Is(err, service.ErrPlanNotFound):
			respondError(c, http.StatusInternalServerError, "default plan is not seeded")
		default:
			respondError(c, http.StatusBadRequest, "failed to create organization")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"organization": organizationView(organization)})
}

// ListOrganizations 返回当前用户所属的组织。
func (a *API) ListOrganizations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	organizations, err := a.organizations.ListForUser(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list organizations")
		return
	}

	views := make([]gin.H, 0, len(organizations))
	for i := range organizations {
		views = append(views, organizationView(&organizations[i]))
	}

	c.JSON(http.StatusOK, gin.H{"organizations": views})
}

// GetOrganization 返回组织详情，仅成员可见。
func (a *API) GetOrganization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	organizationID := trimmedParam(c, "id")
	if !a.requireMembership(c, organizationID, userID) {
		return
	}

	organization, err := a.organizations.Get(organizationID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load organization")
		return
	}

	c.JSON(http.StatusOK, gin.H{"organization": organizationView(organization)})
}

// AddOrganizationMember 把用户加入组织，要求操作者是 owner 或 admin。
func (a *API) AddOrganizationMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req addMemberRequest
	if !bindJSON(c, &req, "user_id is required") {
		return
	}

	membership, err := a.organizations.AddMember(trimmedParam(c, "id"), userID, req.UserID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotMember):
			respondError(c, http.StatusForbidden, "access denied to this organization")
		case errors.Is(err, service.ErrForbidden):
			respondError(c, http.StatusForbidden, "only owners and admins can add members")
		case errors.Is(err, service.ErrAlreadyMember):
			respondError(c, http.StatusBadRequest, "user is already a member")
		default:
			respondError(c, http.StatusBadRequest, "failed to add member")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"member": gin.H{
		"id":        membership.ID,
		"user_id":   membership.UserID,
		"role":      membership.Role,
		"joined_at": membership.JoinedAt,
	}})
}

// CreateWorkspace 在组织内创建工作区。
func (a *API) CreateWorkspace(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	organizationID := trimmedParam(c, "id")
	if !a.requireMembership(c, organizationID, userID) {
		return
	}

	var req workspaceRequest
	if !bindJSON(c, &req, "workspace name is required") {
		return
	}

	workspace, err := a.organizations.CreateWorkspace(service.WorkspaceInput{
		OrganizationID: organizationID,
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		CreatedByID:    userID,
	})
	if err != nil {
		if errors.Is(err, service.ErrSlugTaken) {
			respondError(c, http.StatusBadRequest, "workspace slug is already taken")
		} else {
			respondError(c, http.StatusBadRequest, "failed to create workspace")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"workspace": workspaceView(workspace)})
}

// ListWorkspaces 返回组织下的工作区。
func (a *API) ListWorkspaces(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	organizationID := trimmedParam(c, "id")
	if !a.requireMembership(c, organizationID, userID) {
		return
	}

	workspaces, err := a.organizations.ListWorkspaces(organizationID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list workspaces")
		return
	}

	views := make([]gin.H, 0, len(workspaces))
	for i := range workspaces {
		views = append(views, workspaceView(&workspaces[i]))
	}

	c.JSON(http.StatusOK, gin.H{"workspaces": views})
}

func organizationView(organization *db.Organization) gin.H {
	return gin.H{
		"id":          organization.ID,
		"name":        organization.Name,
		"slug":        organization.Slug,
		"owner_id":    organization.OwnerID,
		"description": organization.Description,
		"logo_url":    organization.LogoURL,
		"website":     organization.Website,
		"created_at":  organization.CreatedAt,
	}
}

func workspaceView(workspace *db.Workspace) gin.H {
	return gin.H{
		"id":              workspace.ID,
		"organization_id": workspace.OrganizationID,
		"name":            workspace.Name,
		"slug":            workspace.Slug,
		"description":     workspace.Description,
		"is_active":       workspace.IsActive,
		"created_at":      workspace.CreatedAt,
	}
}
