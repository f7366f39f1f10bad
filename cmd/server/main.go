package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/postcraft/internal/config"
	"github.com/postcraft/internal/db"
	"github.com/postcraft/internal/handler"
	"github.com/postcraft/internal/router"
	"github.com/postcraft/internal/service"
)

func main() {
	// .env 仅用于本地开发，不存在时忽略
	_ = godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatalf("failed to ensure root user: %v", err)
	}

	subscriptions := service.NewSubscriptionService(db.DB)
	if err := subscriptions.EnsureDefaultPlans(); err != nil {
		log.Fatalf("failed to seed plans: %v", err)
	}

	// 服务商适配器在进程启动时构造一次，凭据缺失立即失败
	estimator := service.NewTokenEstimator()
	openAI, err := service.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("openai provider: %v", err)
	}
	gemini, err := service.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel, estimator)
	if err != nil {
		log.Fatalf("gemini provider: %v", err)
	}

	primary, secondary := service.Provider(openAI), service.Provider(gemini)
	if cfg.DefaultAIProvider == service.AIProviderGemini {
		primary, secondary = secondary, primary
	}

	orchestrator, err := service.NewOrchestrator(primary, secondary)
	if err != nil {
		log.Fatalf("orchestrator: %v", err)
	}

	contents := service.NewContentService(db.DB, orchestrator, subscriptions)
	schedulerClient := service.NewSchedulerClient(cfg.SchedulerBaseURL, cfg.SchedulerToken, cfg.JWTSecret)
	scheduling := service.NewSchedulingService(db.DB, schedulerClient)

	api := handler.NewAPI(db.DB, contents, scheduling)

	// 设置并运行 Gin 服务器
	r := router.Setup(api, cfg.JWTSecret)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
