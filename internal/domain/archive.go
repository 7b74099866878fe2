package domain

import "time"

// Archive 表示会话的命名快照关联。
//
// 预留给未来的导出归档功能：表随迁移创建、随清库清空，但摄取层与
// 查询层均不读写它。
type Archive struct {
	ArchiveID   string    `json:"archiveId" gorm:"primaryKey;column:archive_id;type:varchar(36)"`
	SessionID   string    `json:"sessionId" gorm:"column:session_id;type:varchar(16);index;not null"`
	ArchiveName string    `json:"archiveName" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"createdAt"`
	FilePath    string    `json:"filePath" gorm:"type:varchar(500)"`
}
