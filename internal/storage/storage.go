package storage

import (
	"errors"
	"time"

	"mailpanel/backend/internal/domain"
)

var (
	// ErrSessionNotFound 会话未找到错误
	ErrSessionNotFound = errors.New("session not found")
	// ErrMessageNotFound 邮件未找到错误
	ErrMessageNotFound = errors.New("message not found")
)

// SessionRepository 定义会话数据存取操作。
type SessionRepository interface {
	SaveSession(session *domain.Session) error
	GetSession(id string) (*domain.Session, error)
	ListSessions() ([]domain.Session, error)
	TouchSession(id string, at time.Time) error
	SetSessionActive(id string, active bool) error
	DeactivateAllSessions() error
	// PurgeInactiveSessions 删除 last_activity 早于 cutoff 的非活跃会话
	// 及其全部邮件，返回被删除的会话 ID 列表。
	PurgeInactiveSessions(cutoff time.Time) ([]string, error)
}

// MessageRepository 定义邮件数据存取操作。
type MessageRepository interface {
	// SaveMessageBatch 在单个事务内合并一批邮件；已存在的标识被跳过
	// 且不改写其已读状态。返回实际新插入的行数。
	SaveMessageBatch(messages []*domain.Message) (int, error)
	ListMessages(sessionID string, limit, offset int, unreadOnly bool) (messages []domain.Message, total, unread int, err error)
	GetMessage(sessionID, messageID string) (*domain.Message, error)
	MarkMessageRead(sessionID, messageID string) error
	MarkAllMessagesRead(sessionID string) error
	DeleteMessage(sessionID, messageID string) error
	DeleteSessionMessages(sessionID string) (int, error)
}

// StatsRepository 定义统计查询操作。
type StatsRepository interface {
	SessionStats(sessionID string) (*domain.SessionStats, error)
	GlobalStats() (*domain.GlobalStats, error)
}

// Maintenance 定义维护类操作。
type Maintenance interface {
	// ClearAll 清空 sessions/messages/archives 三张表。
	ClearAll() error
	// Path 返回数据库文件路径（快照下载用），内存库返回空串。
	Path() string
	// Checkpoint 把未回写的已提交事务刷进 Path 指向的文件。
	// 回传文件快照前必须调用；内存库是空操作。
	Checkpoint() error
	Health() error
	Close() error
}

// Store 聚合持久层的全部能力。
type Store interface {
	SessionRepository
	MessageRepository
	StatsRepository
	Maintenance
}
