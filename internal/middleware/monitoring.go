package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mailpanel/backend/internal/monitoring"
)

// HTTPMetrics HTTP 指标中间件
func HTTPMetrics(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := strconv.Itoa(c.Writer.Status())

		// 用路由模板而不是实际路径做标签，避免标签基数爆炸
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.RecordHTTPRequest(c.Request.Method, endpoint, statusCode, duration)
	}
}
