package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mailpanel/backend/internal/domain"
	"mailpanel/backend/internal/storage"
)

// SaveSession 以 insert-or-replace 语义写入会话行。
func (s *Store) SaveSession(session *domain.Session) error {
	query := `
		INSERT INTO sessions (session_id, email, created_at, last_activity, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			email = excluded.email,
			last_activity = excluded.last_activity,
			is_active = excluded.is_active
	`
	_, err := s.db.Exec(query,
		session.SessionID,
		session.Email,
		session.CreatedAt,
		session.LastActivity,
		session.IsActive,
	)
	return err
}

// GetSession 根据 ID 获取会话行。
func (s *Store) GetSession(id string) (*domain.Session, error) {
	query := `
		SELECT session_id, email, created_at, last_activity, is_active
		FROM sessions
		WHERE session_id = ?
	`
	var session domain.Session
	err := s.db.QueryRow(query, id).Scan(
		&session.SessionID,
		&session.Email,
		&session.CreatedAt,
		&session.LastActivity,
		&session.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions 返回全部会话及其邮件总数/未读数，按最近活动排序。
func (s *Store) ListSessions() ([]domain.Session, error) {
	query := `
		SELECT s.session_id, s.email, s.created_at, s.last_activity, s.is_active,
		       COUNT(m.message_id),
		       COALESCE(SUM(CASE WHEN m.is_read = 0 THEN 1 ELSE 0 END), 0)
		FROM sessions s
		LEFT JOIN messages m ON s.session_id = m.session_id
		GROUP BY s.session_id
		ORDER BY s.last_activity DESC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.Session, 0)
	for rows.Next() {
		var session domain.Session
		if err := rows.Scan(
			&session.SessionID,
			&session.Email,
			&session.CreatedAt,
			&session.LastActivity,
			&session.IsActive,
			&session.TotalMessages,
			&session.UnreadMessages,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// TouchSession 更新会话的最近活动时间。
func (s *Store) TouchSession(id string, at time.Time) error {
	_, err := s.db.Exec(
		"UPDATE sessions SET last_activity = ? WHERE session_id = ?",
		at, id,
	)
	return err
}

// SetSessionActive 设置会话行的活跃标记。
func (s *Store) SetSessionActive(id string, active bool) error {
	result, err := s.db.Exec(
		"UPDATE sessions SET is_active = ? WHERE session_id = ?",
		active, id,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrSessionNotFound
	}
	return nil
}

// DeactivateAllSessions 将所有会话行置为非活跃。邮件保留，这与
// 单会话停用（连带删除邮件）的不对称是刻意保持的可观测行为。
func (s *Store) DeactivateAllSessions() error {
	_, err := s.db.Exec("UPDATE sessions SET is_active = 0")
	return err
}

// PurgeInactiveSessions 删除 last_activity 早于 cutoff 的非活跃会话
// 及其邮件，返回被删除的会话 ID。
//
// 清退条件在 DELETE 语句内判定，候选筛选与删除之间没有可被并发
// 拉活穿插的窗口：两次请求之间被重新激活的会话不会被误删。
func (s *Store) PurgeInactiveSessions(cutoff time.Time) ([]string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(
		"DELETE FROM sessions WHERE is_active = 0 AND last_activity < ? RETURNING session_id",
		cutoff,
	)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// 级联删除由应用层保证，数据库侧没有外键级联；只清真正被
	// 删掉的会话的邮件
	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM messages WHERE session_id = ?", id); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}
