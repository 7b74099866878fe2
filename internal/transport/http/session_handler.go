package httptransport

import (
	"github.com/gin-gonic/gin"
)

// generateEmail 生成一次性地址并建立会话。
//
// POST /api/email/generate
func (h *Handler) generateEmail(c *gin.Context) {
	var req struct {
		Prefix string `json:"prefix"`
	}
	// 请求体整体可选：空体等价于无前缀
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			FailBinding(c)
			return
		}
	}

	out, err := h.sessions.Generate(c.Request.Context(), req.Prefix)
	if err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{
		"email":        out.Email,
		"sessionId":    out.SessionID,
		"usedFallback": out.UsedFallback,
	})
}

// checkInbox 抓取外部收件箱并合并新邮件。
//
// POST /api/inbox/check
func (h *Handler) checkInbox(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required"`
		SessionID string `json:"sessionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailBinding(c)
		return
	}

	out, err := h.sessions.CheckInbox(c.Request.Context(), req.Email, req.SessionID)
	if err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{
		"newUnreadCount": out.NewUnreadCount,
		"status":         out.Status,
	})
}

// listSessions 列出全部已知会话。
//
// GET /api/sessions
func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.sessions.List()
	if err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// reactivateSession 重新拉活一个已知会话。
//
// POST /api/sessions/reactivate
func (h *Handler) reactivateSession(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailBinding(c)
		return
	}

	session, err := h.sessions.Reactivate(req.SessionID)
	if err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{
		"email":     session.Email,
		"sessionId": session.SessionID,
	})
}

// deleteSession 停用会话并删除其全部邮件。
//
// POST /api/sessions/delete
func (h *Handler) deleteSession(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailBinding(c)
		return
	}

	if err := h.sessions.Delete(req.SessionID); err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{"sessionId": req.SessionID})
}

// sessionStats 返回单会话统计。
//
// POST /api/sessions/stats
func (h *Handler) sessionStats(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailBinding(c)
		return
	}

	stats, err := h.sessions.Stats(req.SessionID)
	if err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{"stats": stats})
}
