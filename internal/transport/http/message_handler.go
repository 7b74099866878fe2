package httptransport

import (
	"github.com/gin-gonic/gin"
)

// messageRef 指向单封邮件的请求体。
type messageRef struct {
	SessionID string `json:"sessionId" binding:"required"`
	MessageID string `json:"messageId" binding:"required"`
}

// listMessages 分页列出会话邮件。
//
// POST /api/messages/list
func (h *Handler) listMessages(c *gin.Context) {
	var req struct {
		SessionID  string `json:"sessionId" binding:"required"`
		Limit      int    `json:"limit"`
		Offset     int    `json:"offset"`
		UnreadOnly bool   `json:"unreadOnly"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailBinding(c)
		return
	}

	out, err := h.messages.List(req.SessionID, req.Limit, req.Offset, req.UnreadOnly)
	if err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{
		"messages": out.Messages,
		"total":    out.Total,
		"unread":   out.Unread,
		"hasMore":  out.HasMore,
	})
}

// getMessage 获取单封邮件详情。
//
// POST /api/messages/get
func (h *Handler) getMessage(c *gin.Context) {
	var req messageRef
	if err := c.ShouldBindJSON(&req); err != nil {
		FailBinding(c)
		return
	}

	message, err := h.messages.Get(req.SessionID, req.MessageID)
	if err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{"message": message})
}

// markMessageRead 标记单封邮件为已读。
//
// POST /api/messages/mark-read
func (h *Handler) markMessageRead(c *gin.Context) {
	var req messageRef
	if err := c.ShouldBindJSON(&req); err != nil {
		FailBinding(c)
		return
	}

	if err := h.messages.MarkRead(req.SessionID, req.MessageID); err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{"messageId": req.MessageID})
}

// markAllMessagesRead 标记会话全部邮件为已读。
//
// POST /api/messages/mark-all-read
func (h *Handler) markAllMessagesRead(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailBinding(c)
		return
	}

	if err := h.messages.MarkAllRead(req.SessionID); err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{"sessionId": req.SessionID})
}

// deleteMessage 删除单封邮件。
//
// POST /api/messages/delete
func (h *Handler) deleteMessage(c *gin.Context) {
	var req messageRef
	if err := c.ShouldBindJSON(&req); err != nil {
		FailBinding(c)
		return
	}

	if err := h.messages.Delete(req.SessionID, req.MessageID); err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{"messageId": req.MessageID})
}

// deleteAllMessages 删除会话的全部邮件。
//
// POST /api/messages/delete-all
func (h *Handler) deleteAllMessages(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailBinding(c)
		return
	}

	deleted, err := h.messages.DeleteAll(req.SessionID)
	if err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{"deletedCount": deleted})
}

// exportMessages 按指定格式导出会话邮件。
//
// POST /api/export
func (h *Handler) exportMessages(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId" binding:"required"`
		Format    string `json:"format" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		FailBinding(c)
		return
	}

	out, err := h.export.Export(req.SessionID, req.Format)
	if err != nil {
		FailWithError(c, err)
		return
	}

	OK(c, gin.H{
		"content":  out.Content,
		"mimeType": out.MimeType,
		"format":   out.Format,
	})
}
