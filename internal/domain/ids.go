package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// NewSessionID 由邮箱地址与创建时间派生稳定的会话标识。
//
// SHA-256 截断 12 个十六进制字符，碰撞概率可忽略。
func NewSessionID(email string, createdAt time.Time) string {
	sum := sha256.Sum256([]byte(email + createdAt.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:12]
}

// NewMessageID 由规范字段摘要派生邮件标识。
//
// 到达时间按整秒截断后参与摘要：同一秒内规范字段完全相同的两封
// 邮件会合并为一行。这是沿用原设计的已知取舍，换来的是同一次
// 外部抓取结果重复摄取时的幂等合并。
func NewMessageID(sender, subject, preview string, receivedAt time.Time) string {
	stamp := receivedAt.UTC().Truncate(time.Second).Format(time.RFC3339)
	sum := sha256.Sum256([]byte(sender + subject + preview + stamp))
	return hex.EncodeToString(sum[:])[:16]
}
