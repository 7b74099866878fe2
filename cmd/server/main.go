package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailpanel/backend/internal/config"
	"mailpanel/backend/internal/gateway"
	"mailpanel/backend/internal/health"
	"mailpanel/backend/internal/ingest"
	"mailpanel/backend/internal/logger"
	"mailpanel/backend/internal/monitoring"
	"mailpanel/backend/internal/registry"
	"mailpanel/backend/internal/service"
	"mailpanel/backend/internal/storage/sqlite"
	httptransport "mailpanel/backend/internal/transport/http"
)

// main 启动面板后端：HTTP API + 定时清退任务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.File,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting mailpanel server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			panic(fmt.Sprintf("failed to create data directory: %v", err))
		}
	}
	store, err := sqlite.Open(cfg.Database.Path, cfg.Database.MaxOpenConns)
	if err != nil {
		panic(fmt.Sprintf("failed to open sqlite store: %v", err))
	}
	defer store.Close()
	log.Info("sqlite store opened", zap.String("path", cfg.Database.Path))

	// 初始化监控系统
	metrics := monitoring.NewMetrics()

	// 初始化健康检查
	healthChecker := health.NewHealthChecker(store, log)

	// 初始化核心组件
	reg := registry.New(store, cfg.Session.Retention, log)
	gw := gateway.New(gateway.Config{
		BaseURL:         cfg.Gateway.BaseURL,
		GenerateTimeout: cfg.Gateway.GenerateTimeout,
		InboxTimeout:    cfg.Gateway.InboxTimeout,
		FallbackDomain:  cfg.Gateway.FallbackDomain,
		RatePerSecond:   cfg.Gateway.RatePerSecond,
		RateBurst:       cfg.Gateway.RateBurst,
	}, log)
	engine := ingest.New(store, log)

	// 初始化服务层
	sessionService := service.NewSessionService(gw, reg, engine, store, metrics, log)
	messageService := service.NewMessageService(store)
	exportService := service.NewExportService(store, cfg.Session.ExportLimit)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		SessionService: sessionService,
		MessageService: messageService,
		ExportService:  exportService,
		Store:          store,
		Metrics:        metrics,
		Logger:         log,
	})

	// 健康检查处理器（用于 Kubernetes 等）
	router.GET("/health/live", gin.WrapH(healthChecker.Handler()))
	router.GET("/health/ready", gin.WrapH(healthChecker.Handler()))

	// Prometheus 指标端点
	router.GET("/metrics", gin.WrapH(metrics.HTTPHandler()))

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 定时清退非活跃会话 goroutine
	group.Go(func() error {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Info("starting inactive session purge task",
			zap.Duration("interval", 1*time.Hour),
			zap.Duration("retention", cfg.Session.Retention),
		)

		for {
			select {
			case <-groupCtx.Done():
				log.Info("purge task stopped")
				return nil
			case <-ticker.C:
				count, err := sessionService.PurgeInactive()
				if err != nil {
					log.Error("failed to purge inactive sessions", zap.Error(err))
				} else if count > 0 {
					log.Info("inactive sessions purged", zap.Int("count", count))
				}
			}
		}
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		log.Info("server stopped")
		return nil
	})

	// 等待所有 goroutine 完成
	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}
