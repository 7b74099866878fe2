package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"mailpanel/backend/internal/domain"
	"mailpanel/backend/internal/storage"
)

// SaveMessageBatch 在单个事务内合并一批邮件。
//
// INSERT OR IGNORE 实现幂等合并：已存在的 message_id 直接跳过，
// 不会覆盖已读状态。单行写入失败不中断批次，事务在循环结束后
// 一次性提交（批粒度的持久化边界）。
func (s *Store) SaveMessageBatch(messages []*domain.Message) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT OR IGNORE INTO messages
			(message_id, session_id, sender, recipient, subject, body_preview, full_content, received_at, is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	inserted := 0
	var rowErr error
	for _, msg := range messages {
		result, err := tx.Exec(query,
			msg.MessageID,
			msg.SessionID,
			msg.Sender,
			msg.Recipient,
			msg.Subject,
			msg.BodyPreview,
			msg.FullContent,
			msg.ReceivedAt,
			msg.IsRead,
		)
		if err != nil {
			if rowErr == nil {
				rowErr = err
			}
			continue
		}
		if affected, err := result.RowsAffected(); err == nil {
			inserted += int(affected)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return inserted, rowErr
}

// ListMessages 分页列出会话邮件，按到达时间倒序、message_id 倒序
// 兜底，保证无新邮件到达时分页稳定。同时返回总数与未读数。
func (s *Store) ListMessages(sessionID string, limit, offset int, unreadOnly bool) ([]domain.Message, int, int, error) {
	query := `
		SELECT message_id, session_id, sender, recipient, subject, body_preview,
		       full_content, received_at, is_read
		FROM messages
		WHERE session_id = ?
	`
	args := []any{sessionID}

	if unreadOnly {
		query += " AND is_read = 0"
	}

	query += " ORDER BY received_at DESC, message_id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	messages := make([]domain.Message, 0, limit)
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.MessageID,
			&msg.SessionID,
			&msg.Sender,
			&msg.Recipient,
			&msg.Subject,
			&msg.BodyPreview,
			&msg.FullContent,
			&msg.ReceivedAt,
			&msg.IsRead,
		); err != nil {
			return nil, 0, 0, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	var total, unread int
	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE session_id = ?", sessionID,
	).Scan(&total)
	if err != nil {
		return nil, 0, 0, err
	}
	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE session_id = ? AND is_read = 0", sessionID,
	).Scan(&unread)
	if err != nil {
		return nil, 0, 0, err
	}

	return messages, total, unread, nil
}

// GetMessage 获取单封邮件。
func (s *Store) GetMessage(sessionID, messageID string) (*domain.Message, error) {
	query := `
		SELECT message_id, session_id, sender, recipient, subject, body_preview,
		       full_content, received_at, is_read
		FROM messages
		WHERE session_id = ? AND message_id = ?
	`
	var msg domain.Message
	err := s.db.QueryRow(query, sessionID, messageID).Scan(
		&msg.MessageID,
		&msg.SessionID,
		&msg.Sender,
		&msg.Recipient,
		&msg.Subject,
		&msg.BodyPreview,
		&msg.FullContent,
		&msg.ReceivedAt,
		&msg.IsRead,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkMessageRead 将单封邮件标记为已读。
func (s *Store) MarkMessageRead(sessionID, messageID string) error {
	result, err := s.db.Exec(
		"UPDATE messages SET is_read = 1 WHERE session_id = ? AND message_id = ?",
		sessionID, messageID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrMessageNotFound
	}
	return nil
}

// MarkAllMessagesRead 将会话内全部邮件标记为已读。
func (s *Store) MarkAllMessagesRead(sessionID string) error {
	_, err := s.db.Exec(
		"UPDATE messages SET is_read = 1 WHERE session_id = ?",
		sessionID,
	)
	return err
}

// DeleteMessage 删除单封邮件。
func (s *Store) DeleteMessage(sessionID, messageID string) error {
	result, err := s.db.Exec(
		"DELETE FROM messages WHERE session_id = ? AND message_id = ?",
		sessionID, messageID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrMessageNotFound
	}
	return nil
}

// DeleteSessionMessages 删除会话的全部邮件，返回删除数量。
func (s *Store) DeleteSessionMessages(sessionID string) (int, error) {
	result, err := s.db.Exec(
		"DELETE FROM messages WHERE session_id = ?",
		sessionID,
	)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
