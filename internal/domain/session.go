package domain

import "time"

// Session 表示一个一次性邮箱会话。
//
// 数据库中的行是会话存在性的唯一依据；Registry 中的活跃句柄只是
// 可随时重建的活性缓存（见 registry 包）。
type Session struct {
	SessionID    string    `json:"sessionId" gorm:"primaryKey;column:session_id;type:varchar(16)"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;index"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity" gorm:"index"`
	IsActive     bool      `json:"isActive" gorm:"default:true;index"`

	// 聚合字段（列表查询时填充，不入库）
	TotalMessages  int  `json:"totalMessages" gorm:"-"`
	UnreadMessages int  `json:"unreadMessages" gorm:"-"`
	Live           bool `json:"live" gorm:"-"`
}
