package registry

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"mailpanel/backend/internal/domain"
	"mailpanel/backend/internal/storage"
)

// handle 是会话的进程内活跃句柄。
type handle struct {
	email       string
	activatedAt time.Time
	lastCheck   time.Time
}

// Registry 维护"活跃"会话的进程内句柄缓存。
//
// 两层结构：数据库行是会话存在性的唯一权威，句柄只是可丢弃、可
// 随时经 Reactivate 重建的活性标记。进程崩溃后没有句柄的行自然
// 退化为"已知但非活跃"，不需要任何恢复逻辑。同一 session_id 最多
// 持有一个句柄。
type Registry struct {
	mu        sync.RWMutex
	live      map[string]*handle
	store     storage.Store
	retention time.Duration
	log       *zap.Logger
	now       func() time.Time
}

// New 创建会话注册表。retention 是非活跃会话的清退阈值。
func New(store storage.Store, retention time.Duration, log *zap.Logger) *Registry {
	return &Registry{
		live:      make(map[string]*handle),
		store:     store,
		retention: retention,
		log:       log,
		now:       time.Now,
	}
}

// Create 为地址建立新会话：写库（insert-or-replace）并安装句柄。
//
// 写库与装句柄不跨进程崩溃原子。崩溃后留下的孤行只是"已知但
// 非活跃"，由 Reactivate 重新拉活。
func (r *Registry) Create(email string) (*domain.Session, error) {
	now := r.now().UTC()
	return r.install(email, domain.NewSessionID(email, now), now)
}

// CreateWithID 以既有标识重建会话（Reactivate 的底层路径）。
func (r *Registry) CreateWithID(email, sessionID string) (*domain.Session, error) {
	return r.install(email, sessionID, r.now().UTC())
}

func (r *Registry) install(email, sessionID string, now time.Time) (*domain.Session, error) {
	session := &domain.Session{
		SessionID:    sessionID,
		Email:        email,
		CreatedAt:    now,
		LastActivity: now,
		IsActive:     true,
	}

	if err := r.store.SaveSession(session); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.live[sessionID] = &handle{email: email, activatedAt: now, lastCheck: now}
	r.mu.Unlock()

	return session, nil
}

// Touch 更新会话的最近活动时间。
//
// 没有活跃句柄时静默返回（不是错误）：查询层可能触碰在另一请求
// 中被拉活过又失活的会话。
func (r *Registry) Touch(sessionID string) error {
	now := r.now().UTC()

	r.mu.Lock()
	h, ok := r.live[sessionID]
	if ok {
		h.lastCheck = now
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return r.store.TouchSession(sessionID, now)
}

// Deactivate 停用单个会话：行置非活跃、硬删其全部邮件、丢弃句柄。
// 邮件删除不可恢复，这是破坏性清理而不是软隐藏。
func (r *Registry) Deactivate(sessionID string) error {
	if err := r.store.SetSessionActive(sessionID, false); err != nil {
		return err
	}

	deleted, err := r.store.DeleteSessionMessages(sessionID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.live, sessionID)
	r.mu.Unlock()

	r.log.Info("session deactivated",
		zap.String("session_id", sessionID),
		zap.Int("messages_deleted", deleted),
	)
	return nil
}

// Reactivate 从库中找回会话地址并重装句柄，忽略行当前的活跃标记。
// 这是会话跨进程重启存续的路径：身份在库里，活性按需重建。
func (r *Registry) Reactivate(sessionID string) (*domain.Session, error) {
	session, err := r.store.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	revived, err := r.CreateWithID(session.Email, sessionID)
	if err != nil {
		return nil, err
	}

	// 行的 created_at 不参与 upsert 更新，返回值同样保留原始建立时间
	revived.CreatedAt = session.CreatedAt
	return revived, nil
}

// DeactivateAll 翻转所有行的活跃标记并清空句柄。邮件保留，与
// 单会话 Deactivate 的不对称是刻意保持的。
func (r *Registry) DeactivateAll() error {
	if err := r.store.DeactivateAllSessions(); err != nil {
		return err
	}

	r.mu.Lock()
	r.live = make(map[string]*handle)
	r.mu.Unlock()
	return nil
}

// PurgeInactive 清退超过保留阈值的非活跃会话，返回删除数量。
func (r *Registry) PurgeInactive() (int, error) {
	cutoff := r.now().UTC().Add(-r.retention)

	ids, err := r.store.PurgeInactiveSessions(cutoff)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	for _, id := range ids {
		delete(r.live, id)
	}
	r.mu.Unlock()

	if len(ids) > 0 {
		r.log.Info("inactive sessions purged", zap.Int("count", len(ids)))
	}
	return len(ids), nil
}

// Clear 丢弃全部句柄（配合清库操作使用）。
func (r *Registry) Clear() {
	r.mu.Lock()
	r.live = make(map[string]*handle)
	r.mu.Unlock()
}

// IsLive 报告会话当前是否持有活跃句柄。
func (r *Registry) IsLive(sessionID string) bool {
	r.mu.RLock()
	_, ok := r.live[sessionID]
	r.mu.RUnlock()
	return ok
}

// LiveCount 返回活跃句柄数量。
func (r *Registry) LiveCount() int {
	r.mu.RLock()
	n := len(r.live)
	r.mu.RUnlock()
	return n
}

// SetClock 注入时钟（仅测试使用）。
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}
