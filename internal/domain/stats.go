package domain

import "time"

// SessionStats 单个会话的统计视图。
type SessionStats struct {
	SessionID      string     `json:"sessionId"`
	Email          string     `json:"email"`
	CreatedAt      time.Time  `json:"createdAt"`
	TotalMessages  int        `json:"totalMessages"`
	UnreadMessages int        `json:"unreadMessages"`
	FirstMessageAt *time.Time `json:"firstMessageAt,omitempty"`
	LastMessageAt  *time.Time `json:"lastMessageAt,omitempty"`
	Live           bool       `json:"live"`
}

// GlobalStats 全库统计视图。
//
// DeletedEstimate 是启发式近似值（max(0, total-unread-100)），不是
// 被跟踪的删除计数器，字段命名刻意带 Estimate 以免被当成精确值。
type GlobalStats struct {
	TotalMessages   int `json:"totalMessages"`
	UnreadMessages  int `json:"unreadMessages"`
	ActiveSessions  int `json:"activeSessions"`
	DeletedEstimate int `json:"deletedEstimate"`
}
