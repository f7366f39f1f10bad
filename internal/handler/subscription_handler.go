package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/postcraft/internal/service"
)

// GetSubscription 返回组织的订阅与本周期令牌用量。
func (a *API) GetSubscription(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	organizationID := trimmedParam(c, "id")
	if !a.requireMembership(c, organizationID, userID) {
		return
	}

	subscription, err := a.subscriptions.ForOrganization(organizationID)
	if err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			respondError(c, http.StatusNotFound, "organization has no active subscription")
		} else {
			respondError(c, http.StatusInternalServerError, "failed to load subscription")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": gin.H{
		"id":     subscription.ID,
		"status": subscription.Status,
		"plan": gin.H{
			"name":             subscription.Plan.Name,
			"tier":             subscription.Plan.Tier,
			"tokens_per_month": subscription.Plan.TokensPerMonth,
			"scheduled_posts":  subscription.Plan.ScheduledPosts,
			"workspaces":       subscription.Plan.Workspaces,
			"team_members":     subscription.Plan.TeamMembers,
		},
		"tokens_used_this_period": subscription.TokensUsedThisPeriod,
		"tokens_remaining":        subscription.TokensRemaining,
		"current_period_start":    subscription.CurrentPeriodStart,
		"current_period_end":      subscription.CurrentPeriodEnd,
		"cancel_at_period_end":    subscription.CancelAtPeriodEnd,
	}})
}
