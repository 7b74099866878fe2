package health

import (
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"mailpanel/backend/internal/storage"
)

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	store  storage.Store
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(store storage.Store, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		logger: logger,
	}

	hc.addChecks()

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks() {
	// 数据库连接检查
	hc.health.AddLivenessCheck("database", func() error {
		return hc.store.Health()
	})

	// goroutine 数量检查：泄漏的轮询 goroutine 在这里暴露
	hc.health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(500))

	// 就绪检查复用数据库检查
	hc.health.AddReadinessCheck("database", func() error {
		return hc.store.Health()
	})
}

// Handler 返回健康检查处理器
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

// CheckHealth 执行健康检查
func (hc *HealthChecker) CheckHealth() map[string]string {
	results := make(map[string]string)

	if err := hc.store.Health(); err != nil {
		results["database"] = "ERROR: " + err.Error()
	} else {
		results["database"] = "OK"
	}

	results["timestamp"] = time.Now().Format(time.RFC3339)

	return results
}
