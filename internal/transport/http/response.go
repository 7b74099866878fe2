package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailpanel/backend/internal/service"
	"mailpanel/backend/internal/storage"
)

// 面板 API 的响应契约：所有响应体携带布尔 success 判别字段。业务
// 失败（包括资源不存在）返回 HTTP 200 + success:false，前端轮询循环
// 只看判别字段；400 只留给无法绑定的畸形请求体。

// OK 成功响应：在载荷上合并 success:true。
func OK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Fail 业务失败响应（HTTP 200）。
func Fail(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "error": msg})
}

// FailBinding 请求体绑定失败响应（HTTP 400）。
func FailBinding(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": MsgInvalidRequest})
}

// FailWithError 按错误映射表返回业务失败响应。
func FailWithError(c *gin.Context, err error) {
	Fail(c, errorMessage(err))
}

// 通用错误消息
const (
	MsgInvalidRequest    = "invalid request body"
	MsgSessionNotFound   = "session not found"
	MsgMessageNotFound   = "message not found"
	MsgUnknownFormat     = "unknown export format"
	MsgInternalError     = "internal server error"
	MsgSnapshotEphemeral = "store is in-memory, no snapshot file exists"
)

// errorMessage 获取错误的对外消息。
func errorMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		return MsgSessionNotFound
	case errors.Is(err, storage.ErrMessageNotFound):
		return MsgMessageNotFound
	case errors.Is(err, service.ErrUnknownExportFormat):
		return MsgUnknownFormat
	}
	return err.Error()
}
