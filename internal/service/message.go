package service

import (
	"mailpanel/backend/internal/domain"
	"mailpanel/backend/internal/storage"
)

// 分页默认值与上限
const (
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// MessageService 封装邮件查询与状态维护。
type MessageService struct {
	repo storage.MessageRepository
}

// NewMessageService 创建邮件业务服务。
func NewMessageService(repo storage.MessageRepository) *MessageService {
	return &MessageService{repo: repo}
}

// ListOutput 分页列表结果。
type ListOutput struct {
	Messages []domain.Message
	Total    int
	Unread   int
	HasMore  bool
}

// List 分页列出会话邮件。
func (s *MessageService) List(sessionID string, limit, offset int, unreadOnly bool) (*ListOutput, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	messages, total, unread, err := s.repo.ListMessages(sessionID, limit, offset, unreadOnly)
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Messages: messages,
		Total:    total,
		Unread:   unread,
		HasMore:  total > offset+limit,
	}, nil
}

// Get 获取单封邮件详情。
func (s *MessageService) Get(sessionID, messageID string) (*domain.Message, error) {
	return s.repo.GetMessage(sessionID, messageID)
}

// MarkRead 将单封邮件标记为已读。
func (s *MessageService) MarkRead(sessionID, messageID string) error {
	return s.repo.MarkMessageRead(sessionID, messageID)
}

// MarkAllRead 将会话内全部邮件标记为已读。
func (s *MessageService) MarkAllRead(sessionID string) error {
	return s.repo.MarkAllMessagesRead(sessionID)
}

// Delete 删除单封邮件。
func (s *MessageService) Delete(sessionID, messageID string) error {
	return s.repo.DeleteMessage(sessionID, messageID)
}

// DeleteAll 删除会话的全部邮件，返回删除数量。
func (s *MessageService) DeleteAll(sessionID string) (int, error) {
	return s.repo.DeleteSessionMessages(sessionID)
}
