package router

import (
	"github.com/gin-gonic/gin"
	"github.com/postcraft/internal/handler"
)

// Setup 配置 Gin 引擎和路由。
func Setup(api *handler.API, jwtSecret string) *gin.Engine {
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	v1 := r.Group("/api/v1")
	v1.Use(handler.AuthRequired(jwtSecret))
	{
		content := v1.Group("/content")
		{
			content.POST("/generate", api.GenerateContent)
			content.POST("/:id/regenerate", api.RegenerateContent)
			content.GET("", api.ListContent)
			content.GET("/:id", api.GetContent)
			content.DELETE("/:id", api.DeleteContent)
		}

		organizations := v1.Group("/organizations")
		{
			organizations.POST("", api.CreateOrganization)
			organizations.GET("", api.ListOrganizations)
			organizations.GET("/:id", api.GetOrganization)
			organizations.POST("/:id/members", api.AddOrganizationMember)
			organizations.POST("/:id/workspaces", api.CreateWorkspace)
			organizations.GET("/:id/workspaces", api.ListWorkspaces)
			organizations.GET("/:id/subscription", api.GetSubscription)
		}

		schedule := v1.Group("/schedule")
		{
			schedule.POST("", api.SchedulePost)
			schedule.GET("", api.ListScheduledPosts)
			schedule.DELETE("/:id", api.CancelScheduledPost)
		}
	}

	return r
}
