package httptransport

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// globalStats 返回全库统计。
//
// GET /api/stats
func (h *Handler) globalStats(c *gin.Context) {
	stats, err := h.sessions.GlobalStats()
	if err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{"stats": stats})
}

// clearStore 清空整个存储。
//
// POST /api/admin/clear
func (h *Handler) clearStore(c *gin.Context) {
	if err := h.sessions.ClearAll(); err != nil {
		FailWithError(c, err)
		return
	}
	OK(c, gin.H{"cleared": true})
}

// purgeInactive 清退超过保留阈值的非活跃会话。
//
// POST /api/admin/purge-inactive
func (h *Handler) purgeInactive(c *gin.Context) {
	count, err := h.sessions.PurgeInactive()
	if err != nil {
		FailWithError(c, err)
		return
	}
	OK(c, gin.H{"deletedCount": count})
}

// deactivateAll 停用全部会话（邮件保留）。
//
// POST /api/admin/deactivate-all
func (h *Handler) deactivateAll(c *gin.Context) {
	if err := h.sessions.DeactivateAll(); err != nil {
		FailWithError(c, err)
		return
	}
	OK(c, gin.H{"deactivated": true})
}

// downloadSnapshot 下载数据库文件快照。
//
// GET /api/admin/snapshot
func (h *Handler) downloadSnapshot(c *gin.Context) {
	path := h.store.Path()
	if path == "" {
		Fail(c, MsgSnapshotEphemeral)
		return
	}

	// 不先做检查点的话，附件可能缺失还留在 WAL 里的提交
	if err := h.store.Checkpoint(); err != nil {
		FailWithError(c, err)
		return
	}

	filename := fmt.Sprintf("mailpanel-%s.db", time.Now().UTC().Format("20060102-150405"))
	c.FileAttachment(path, filename)
}
