package domain

import "time"

// Message 表示归属于某个会话的一封已入库邮件。
//
// MessageID 由规范字段摘要派生（见 ids.go），不使用网关提供的任何
// 外部标识，网关并不保证唯一 ID。
type Message struct {
	MessageID   string    `json:"messageId" gorm:"primaryKey;column:message_id;type:varchar(32)"`
	SessionID   string    `json:"sessionId" gorm:"column:session_id;type:varchar(16);index;not null"`
	Sender      string    `json:"sender" gorm:"type:varchar(255)"`
	Recipient   string    `json:"recipient" gorm:"type:varchar(255)"`
	Subject     string    `json:"subject" gorm:"type:varchar(500)"`
	BodyPreview string    `json:"preview" gorm:"column:body_preview;type:text"`
	FullContent string    `json:"content,omitempty" gorm:"column:full_content;type:text"`
	ReceivedAt  time.Time `json:"receivedAt" gorm:"index"`
	IsRead      bool      `json:"isRead" gorm:"default:false;index"`
}
