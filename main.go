package main

import (
	"context"
	"log"
	"time"

	"pulse_social/config"
	"pulse_social/handler"
	"pulse_social/middleware"
	"pulse_social/model"
	"pulse_social/ratelimit"
	"pulse_social/service"
	"pulse_social/store"
	"pulse_social/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func init() {
	// 设置时区为 UTC（推荐服务端统一使用 UTC）
	time.Local = time.UTC
}

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库（可选：未配置则关闭审计落库和垃圾举报持久化）
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = utils.InitDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer utils.CloseDB(db)

		if err := db.AutoMigrate(&model.RelationshipJournal{}, &model.SpamReport{}); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	} else {
		log.Println("DATABASE_URL not set, audit journal disabled")
	}

	// 初始化 Redis（可选：未配置则关闭缓存失效和跨 Pod 广播）
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = utils.InitRedis(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer utils.CloseRedis(rdb)
	} else {
		log.Println("REDIS_URL not set, cache invalidation disabled")
	}

	// 初始化认证中间件
	middleware.InitAuth(cfg.JWTSecret)

	// 创建限流器并启动后台清理
	limiters := ratelimit.NewSet(time.Minute, map[string]int{
		ratelimit.ActionFollow:  cfg.FollowRateLimit,
		ratelimit.ActionBlock:   cfg.BlockRateLimit,
		ratelimit.ActionUnblock: cfg.UnblockRateLimit,
		ratelimit.ActionMute:    cfg.MuteRateLimit,
		ratelimit.ActionGeneral: cfg.APIRateLimit,
	})
	limiterCtx, stopJanitors := context.WithCancel(context.Background())
	defer stopJanitors()
	limiters.StartJanitors(limiterCtx)

	// 创建关系存储和服务
	st := store.New()
	metrics := service.NewMetrics()
	svc := service.NewFollowService(st, db, rdb, metrics, cfg.MaxBulkTargets)

	// 创建 WebSocket Hub 并注入事件推送
	hub := handler.NewHub(svc, rdb)
	svc.SetNotifier(hub)
	hub.StartPubSub()
	defer hub.StopPubSub()

	// 创建处理器
	followHandler := handler.NewFollowHandler(svc)
	blockHandler := handler.NewBlockHandler(svc)
	relHandler := handler.NewRelationshipHandler(svc)
	analyticsHandler := handler.NewAnalyticsHandler(svc)

	// 创建 Gin 路由
	r := gin.Default()

	// 注册统一错误处理中间件
	r.Use(middleware.ErrorHandlerMiddleware())
	if cfg.EnableCORS {
		r.Use(middleware.CORSMiddleware())
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{"status": "ok"})
	})

	// Prometheus 指标
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// WebSocket 连接（使用 token 认证，不需要 HTTP 中间件）
	r.GET("/ws", handler.HandleWebSocket(hub))

	// HTTP API 路由组（需要认证）
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	api.Use(middleware.RateLimitMiddleware(limiters, ratelimit.ActionGeneral))
	{
		// 关注
		api.POST("/follow/bulk", middleware.RateLimitMiddleware(limiters, ratelimit.ActionFollow), followHandler.BulkFollow)
		api.DELETE("/follow/bulk", middleware.RateLimitMiddleware(limiters, ratelimit.ActionFollow), followHandler.BulkUnfollow)
		api.POST("/follow/:user_id", middleware.RateLimitMiddleware(limiters, ratelimit.ActionFollow), followHandler.Follow)
		api.DELETE("/follow/:user_id", middleware.RateLimitMiddleware(limiters, ratelimit.ActionFollow), followHandler.Unfollow)

		// 拉黑
		api.POST("/block/:user_id", middleware.RateLimitMiddleware(limiters, ratelimit.ActionBlock), blockHandler.Block)
		api.DELETE("/block/:user_id", middleware.RateLimitMiddleware(limiters, ratelimit.ActionUnblock), blockHandler.Unblock)
		api.GET("/blocks", blockHandler.Blocks)

		// 静音
		api.POST("/mute/:user_id", middleware.RateLimitMiddleware(limiters, ratelimit.ActionMute), blockHandler.Mute)
		api.DELETE("/mute/:user_id", middleware.RateLimitMiddleware(limiters, ratelimit.ActionMute), blockHandler.Unmute)
		api.GET("/mutes", blockHandler.Mutes)

		// 密友
		api.POST("/close-friends/:user_id", relHandler.AddCloseFriend)
		api.DELETE("/close-friends/:user_id", relHandler.RemoveCloseFriend)

		// 互动与关系查询
		api.POST("/interactions/:user_id", relHandler.RecordInteraction)
		api.GET("/relationship/:user_id", relHandler.Get)

		// 粉丝/关注列表
		api.GET("/users/:user_id/followers", followHandler.Followers)
		api.GET("/users/:user_id/following", followHandler.Following)

		// 分析
		api.GET("/analytics/social-metrics/:user_id", analyticsHandler.SocialMetrics)
	}

	// 启动服务
	log.Printf("🚀 pulse_social service starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
