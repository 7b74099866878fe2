package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"mailpanel/backend/internal/domain"
)

// SessionStats 汇总单个会话的邮件统计。
//
// 首末到达时间用 ORDER BY + LIMIT 1 取直接列而非 MIN/MAX 表达式，
// 让驱动按列声明类型还原 time.Time。
func (s *Store) SessionStats(sessionID string) (*domain.SessionStats, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	stats := &domain.SessionStats{
		SessionID: session.SessionID,
		Email:     session.Email,
		CreatedAt: session.CreatedAt,
	}

	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE session_id = ?", sessionID,
	).Scan(&stats.TotalMessages)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE session_id = ? AND is_read = 0", sessionID,
	).Scan(&stats.UnreadMessages)
	if err != nil {
		return nil, err
	}

	if stats.TotalMessages > 0 {
		var first, last time.Time
		err = s.db.QueryRow(
			"SELECT received_at FROM messages WHERE session_id = ? ORDER BY received_at ASC, message_id ASC LIMIT 1",
			sessionID,
		).Scan(&first)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		err = s.db.QueryRow(
			"SELECT received_at FROM messages WHERE session_id = ? ORDER BY received_at DESC, message_id DESC LIMIT 1",
			sessionID,
		).Scan(&last)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if !first.IsZero() {
			stats.FirstMessageAt = &first
		}
		if !last.IsZero() {
			stats.LastMessageAt = &last
		}
	}

	return stats, nil
}

// GlobalStats 汇总全库统计。
func (s *Store) GlobalStats() (*domain.GlobalStats, error) {
	stats := &domain.GlobalStats{}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&stats.TotalMessages); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages WHERE is_read = 0").Scan(&stats.UnreadMessages); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE is_active = 1").Scan(&stats.ActiveSessions); err != nil {
		return nil, err
	}

	// 启发式近似，不是删除计数器（沿用原行为，勿默默"修正"）
	stats.DeletedEstimate = stats.TotalMessages - stats.UnreadMessages - 100
	if stats.DeletedEstimate < 0 {
		stats.DeletedEstimate = 0
	}

	return stats, nil
}
