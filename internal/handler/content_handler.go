package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/postcraft/internal/db"
	"github.com/postcraft/internal/service"
)

type generateContentRequest struct {
	Platform       string  `json:"platform" binding:"required"`
	Tone           string  `json:"tone" binding:"required"`
	Prompt         string  `json:"prompt" binding:"required"`
	Audience       string  `json:"audience"`
	OrganizationID string  `json:"organization_id" binding:"required"`
	WorkspaceID    *string `json:"workspace_id"`
	AIProvider     string  `json:"ai_provider"`
}

type regenerateContentRequest struct {
	ModificationPrompt string `json:"modification_prompt" binding:"required"`
}

// GenerateContent 生成一条新内容并落为首个版本。
func (a *API) GenerateContent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req generateContentRequest
	if !bindJSON(c, &req, "platform, tone, prompt and organization_id are required") {
		return
	}

	if !a.requireMembership(c, req.OrganizationID, userID) {
		return
	}

	content, err := a.contents.Generate(c.Request.Context(), service.GenerateContentInput{
		OrganizationID: req.OrganizationID,
		WorkspaceID:    req.WorkspaceID,
		CreatedByID:    userID,
		Platform:       req.Platform,
		Tone:           req.Tone,
		Audience:       req.Audience,
		Prompt:         req.Prompt,
		Provider:       req.AIProvider,
	})
	if err != nil {
		respondGenerationError(c, "AI generation failed", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"content": contentView(content)})
}

// RegenerateContent 依据修改意见为已有内容追加一个新版本。
func (a *API) RegenerateContent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	contentID := trimmedParam(c, "id")

	var req regenerateContentRequest
	if !bindJSON(c, &req, "modification_prompt is required") {
		return
	}

	existing, err := a.contents.Get(contentID)
	if err != nil {
		if errors.Is(err, service.ErrContentNotFound) {
			respondError(c, http.StatusNotFound, "content not found")
		} else {
			respondError(c, http.StatusInternalServerError, "failed to load content")
		}
		return
	}

	if !a.requireMembership(c, existing.OrganizationID, userID) {
		return
	}

	content, err := a.contents.Regenerate(c.Request.Context(), contentID, req.ModificationPrompt)
	if err != nil {
		respondGenerationError(c, "regeneration failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": contentView(content)})
}

// ListContent 返回当前用户所属组织下的全部内容。
func (a *API) ListContent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	orgIDs, err := a.organizations.OrganizationIDsForUser(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list content")
		return
	}

	contents, err := a.contents.ListForOrganizations(orgIDs)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list content")
		return
	}

	views := make([]gin.H, 0, len(contents))
	for i := range contents {
		views = append(views, contentView(&contents[i]))
	}

	c.JSON(http.StatusOK, gin.H{"contents": views})
}

// GetContent 返回单条内容及其版本历史。
func (a *API) GetContent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	content, err := a.contents.Get(trimmedParam(c, "id"))
	if err != nil {
		if errors.Is(err, service.ErrContentNotFound) {
			respondError(c, http.StatusNotFound, "content not found")
		} else {
			respondError(c, http.StatusInternalServerError, "failed to load content")
		}
		return
	}

	if !a.requireMembership(c, content.OrganizationID, userID) {
		return
	}

	versions, err := a.contents.Versions(content.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load versions")
		return
	}

	versionViews := make([]gin.H, 0, len(versions))
	for i := range versions {
		versionViews = append(versionViews, versionView(&versions[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"content":  contentView(content),
		"versions": versionViews,
	})
}

// DeleteContent 删除内容及其全部版本。
func (a *API) DeleteContent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	content, err := a.contents.Get(trimmedParam(c, "id"))
	if err != nil {
		if errors.Is(err, service.ErrContentNotFound) {
			respondError(c, http.StatusNotFound, "content not found")
		} else {
			respondError(c, http.StatusInternalServerError, "failed to load content")
		}
		return
	}

	if !a.requireMembership(c, content.OrganizationID, userID) {
		return
	}

	if err := a.contents.Delete(content.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete content")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "content deleted"})
}

// requireMembership 做组织级访问控制：组织必须存在且当前用户是其成员。
func (a *API) requireMembership(c *gin.Context, organizationID string, userID uint) bool {
	if _, err := a.organizations.Get(organizationID); err != nil {
		if errors.Is(err, service.ErrOrganizationNotFound) {
			respondError(c, http.StatusNotFound, "organization not found")
		} else {
			respondError(c, http.StatusInternalServerError, "failed to verify organization")
		}
		return false
	}

	member, err := a.organizations.IsMember(organizationID, userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to verify membership")
		return false
	}
	if !member {
		respondError(c, http.StatusForbidden, "access denied to this organization")
		return false
	}

	return true
}

// respondGenerationError 把生成链路的错误分层映射：
// 配额拒绝与服务商故障要能被调用方区分开。
func respondGenerationError(c *gin.Context, operation string, err error) {
	var providerErr *service.ProviderError

	switch {
	case errors.Is(err, service.ErrInvalidPlatform):
		respondError(c, http.StatusBadRequest, "platform must be one of twitter, linkedin, instagram")
	case errors.Is(err, service.ErrInvalidTone):
		respondError(c, http.StatusBadRequest, "unsupported tone")
	case errors.Is(err, service.ErrQuotaExceeded):
		respondError(c, http.StatusPaymentRequired, "token quota exceeded, upgrade your plan to continue")
	case errors.Is(err, service.ErrSubscriptionNotFound):
		respondError(c, http.StatusNotFound, "organization has no active subscription")
	case errors.Is(err, service.ErrContentNotFound):
		respondError(c, http.StatusNotFound, "content not found")
	case errors.Is(err, service.ErrVersionConflict):
		respondError(c, http.StatusConflict, "content was modified concurrently, try again")
	case errors.As(err, &providerErr):
		respondError(c, http.StatusBadGateway, operation+": "+providerErr.Message)
	default:
		respondError(c, http.StatusInternalServerError, operation)
	}
}

func contentView(content *db.Content) gin.H {
	return gin.H{
		"id":              content.ID,
		"organization_id": content.OrganizationID,
		"workspace_id":    content.WorkspaceID,
		"platform":        content.Platform,
		"prompt":          content.Prompt,
		"generated_text":  content.GeneratedText,
		"tone":            content.Tone,
		"audience":        content.Audience,
		"ai_provider":     content.AIProvider,
		"tokens_used":     content.TokensUsed,
		"version":         content.Version,
		"status":          content.Status,
		"is_public":       content.IsPublic,
		"created_at":      content.CreatedAt,
		"updated_at":      content.UpdatedAt,
	}
}

func versionView(version *db.ContentVersion) gin.H {
	return gin.H{
		"id":             version.ID,
		"version_number": version.VersionNumber,
		"generated_text": version.GeneratedText,
		"tokens_used":    version.TokensUsed,
		"created_at":     version.CreatedAt,
	}
}
