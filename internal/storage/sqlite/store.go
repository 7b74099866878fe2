package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mailpanel/backend/internal/domain"
)

// Store SQLite 数据库存储实现。
//
// 整库落在单个文件上，快照下载端点直接以附件形式回传该文件。
// GORM 仅用于建表迁移，所有查询走原生 SQL。
type Store struct {
	db   *sql.DB
	path string
}

// Open 打开（或创建）SQLite 数据库存储。
//
// path 为空或 ":memory:" 时使用内存库，主要用于测试。
func Open(path string, maxOpenConns int) (*Store, error) {
	dsn := strings.TrimSpace(path)
	inMemory := dsn == "" || dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	if dsn == "" {
		dsn = ":memory:"
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	gormDB, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}

	// 内存库的连接池必须收敛到 1，否则每个连接各见一个空库
	if inMemory || maxOpenConns < 1 {
		maxOpenConns = 1
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if !inMemory {
		if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}

	if err := gormDB.AutoMigrate(
		&domain.Session{},
		&domain.Message{},
		&domain.Archive{},
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	storePath := ""
	if !inMemory {
		storePath = dsn
	}

	return &Store{db: db, path: storePath}, nil
}

// Path 返回数据库文件路径，内存库返回空串。
func (s *Store) Path() string {
	return s.path
}

// Close 关闭数据库连接。
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Checkpoint 把 WAL 中已提交的事务回写进主库文件并截断 WAL。
//
// 快照下载前必须调用：WAL 模式下提交先累积在 -wal 伴生文件里，
// 只回传主文件会丢掉尚未回写的全部提交。内存库无文件，直接返回。
func (s *Store) Checkpoint() error {
	if s.path == "" {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}

// Health 检查数据库健康状态。
func (s *Store) Health() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Ping()
}

// ClearAll 清空全部业务表（会话、邮件、归档）。
func (s *Store) ClearAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"messages", "archives", "sessions"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	return tx.Commit()
}
