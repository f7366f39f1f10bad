package service

import (
	"fmt"
	"strings"

	"github.com/postcraft/internal/db"
)

// defaultCharLimit 用于未知平台，按最严格的平台处理。
const defaultCharLimit = 280

var platformCharLimits = map[string]int{
	db.PlatformTwitter:   280,
	db.PlatformLinkedIn:  1300,
	db.PlatformInstagram: 2200,
}

// PlatformCharLimit 返回平台的字符上限，未知平台回退到 280。
func PlatformCharLimit(platform string) int {
	if limit, ok := platformCharLimits[platform]; ok {
		return limit
	}
	return defaultCharLimit
}

// BuildPrompt 将平台、语气、受众与用户请求组装成 system/user 指令对。
// 纯函数，不做任何 I/O。
func BuildPrompt(platform, tone, audience, userPrompt string) (systemPrompt, userMessage string) {
	charLimit := PlatformCharLimit(platform)

	targetAudience := strings.TrimSpace(audience)
	if targetAudience == "" {
		targetAudience = "general"
	}

	hashtagGuidance := "3-5"
	if platform == db.PlatformTwitter {
		hashtagGuidance = "2-3"
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "You are an expert social media copywriter. Generate engaging content for %s.\n\n", platform)
	fmt.Fprintf(&builder, "Platform: %s\n", platform)
	fmt.Fprintf(&builder, "Tone: %s\n", tone)
	fmt.Fprintf(&builder, "Audience: %s\n", targetAudience)
	fmt.Fprintf(&builder, "Character Limit: %d\n\n", charLimit)
	builder.WriteString("Requirements:\n")
	builder.WriteString("- Stay within character limit\n")
	fmt.Fprintf(&builder, "- Include relevant hashtags (%s)\n", hashtagGuidance)
	builder.WriteString("- Optimize for engagement\n")
	builder.WriteString("- Respect platform norms and culture\n")
	builder.WriteString("- Use emojis appropriately\n\n")
	builder.WriteString("Output only the final post text, ready to publish.")

	return builder.String(), userPrompt
}
