package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/postcraft/internal/db"
	"github.com/postcraft/internal/service"
)

type schedulePostRequest struct {
	ContentID   string `json:"content_id" binding:"required"`
	ScheduledAt string `json:"scheduled_at" binding:"required"`
	AccessToken string `json:"access_token"`
}

// SchedulePost 把一条已生成的内容投递给外部调度服务。
func (a *API) SchedulePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req schedulePostRequest
	if !bindJSON(c, &req, "content_id and scheduled_at are required") {
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		respondError(c, http.StatusBadRequest, "scheduled_at must be an RFC 3339 timestamp")
		return
	}

	content, err := a.contents.Get(req.ContentID)
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

	scheduled, err := a.scheduling.SchedulePost(c.Request.Context(), service.SchedulePostInput{
		ContentID:   content.ID,
		UserID:      userID,
		ScheduledAt: scheduledAt,
		AccessToken: req.AccessToken,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContentNotSchedulable):
			respondError(c, http.StatusBadRequest, "content has no generated text to schedule")
		case scheduled != nil:
			// 排期记录已落库为 failed，把投递失败暴露给调用方。
			respondError(c, http.StatusBadGateway, "scheduling hand-off failed")
		default:
			respondError(c, http.StatusInternalServerError, "failed to schedule post")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"scheduled_post": scheduledPostView(scheduled)})
}

// CancelScheduledPost 取消一条排期。
func (a *API) CancelScheduledPost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	scheduledID := trimmedParam(c, "id")

	var existing db.ScheduledPost
	if err := a.db.Where("id = ?", scheduledID).First(&existing).Error; err != nil {
		respondError(c, http.StatusNotFound, "scheduled post not found")
		return
	}

	if !a.requireMembership(c, existing.OrganizationID, userID) {
		return
	}

	scheduled, err := a.scheduling.Cancel(c.Request.Context(), scheduledID, userID)
	if err != nil {
		if errors.Is(err, service.ErrScheduledPostNotFound) {
			respondError(c, http.StatusNotFound, "scheduled post not found")
		} else {
			respondError(c, http.StatusBadGateway, "failed to cancel scheduled post")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"scheduled_post": scheduledPostView(scheduled)})
}

// ListScheduledPosts 返回当前用户所属组织的排期记录。
func (a *API) ListScheduledPosts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	orgIDs, err := a.organizations.OrganizationIDsForUser(userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list scheduled posts")
		return
	}

	scheduled, err := a.scheduling.ListForOrganizations(orgIDs)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to list scheduled posts")
		return
	}

	views := make([]gin.H, 0, len(scheduled))
	for i := range scheduled {
		views = append(views, scheduledPostView(&scheduled[i]))
	}

	c.JSON(http.StatusOK, gin.H{"scheduled_posts": views})
}

func scheduledPostView(scheduled *db.ScheduledPost) gin.H {
	return gin.H{
		"id":               scheduled.ID,
		"content_id":       scheduled.ContentID,
		"organization_id":  scheduled.OrganizationID,
		"platform":         scheduled.Platform,
		"scheduled_at":     scheduled.ScheduledAt,
		"status":           scheduled.Status,
		"job_id":           scheduled.JobID,
		"platform_post_id": scheduled.PlatformPostID,
		"published_at":     scheduled.PublishedAt,
		"error_message":    scheduled.ErrorMessage,
		"created_at":       scheduled.CreatedAt,
	}
}
