package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailpanel/backend/internal/config"
	"mailpanel/backend/internal/middleware"
	"mailpanel/backend/internal/monitoring"
	"mailpanel/backend/internal/service"
	"mailpanel/backend/internal/storage"
)

// Handler 聚合所有 HTTP 处理逻辑。
type Handler struct {
	sessions *service.SessionService
	messages *service.MessageService
	export   *service.ExportService
	store    storage.Store
}

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	SessionService *service.SessionService
	MessageService *service.MessageService
	ExportService  *service.ExportService
	Store          storage.Store
	Metrics        *monitoring.Metrics
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 使用自定义中间件替代默认中间件
	router.Use(middleware.RecoveryHandler(deps.Logger, deps.Metrics))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())

	// 面板请求体都是小 JSON，1MB 足够
	router.Use(middleware.BodySizeLimit(middleware.SmallBodyLimit))

	if deps.Metrics != nil {
		router.Use(middleware.HTTPMetrics(deps.Metrics))
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:  deps.Config.CORS.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	router.Use(gincors.New(corsConfig))

	// 创建处理器
	handler := &Handler{
		sessions: deps.SessionService,
		messages: deps.MessageService,
		export:   deps.ExportService,
		store:    deps.Store,
	}

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// ========== Session Routes ==========
		api.POST("/email/generate", handler.generateEmail)
		api.POST("/inbox/check", handler.checkInbox)
		api.GET("/sessions", handler.listSessions)
		api.POST("/sessions/reactivate", handler.reactivateSession)
		api.POST("/sessions/delete", handler.deleteSession)
		api.POST("/sessions/stats", handler.sessionStats)

		// ========== Message Routes ==========
		api.POST("/messages/list", handler.listMessages)
		api.POST("/messages/get", handler.getMessage)
		api.POST("/messages/mark-read", handler.markMessageRead)
		api.POST("/messages/mark-all-read", handler.markAllMessagesRead)
		api.POST("/messages/delete", handler.deleteMessage)
		api.POST("/messages/delete-all", handler.deleteAllMessages)

		// ========== Export / Stats Routes ==========
		api.POST("/export", handler.exportMessages)
		api.GET("/stats", handler.globalStats)

		// ========== Admin Routes ==========
		admin := api.Group("/admin")
		{
			admin.POST("/clear", handler.clearStore)
			admin.POST("/purge-inactive", handler.purgeInactive)
			admin.POST("/deactivate-all", handler.deactivateAll)
			admin.GET("/snapshot", handler.downloadSnapshot)
		}
	}

	return router
}
