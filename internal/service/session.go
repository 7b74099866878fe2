package service

import (
	"context"

	"go.uber.org/zap"

	"mailpanel/backend/internal/domain"
	"mailpanel/backend/internal/gateway"
	"mailpanel/backend/internal/ingest"
	"mailpanel/backend/internal/monitoring"
	"mailpanel/backend/internal/registry"
	"mailpanel/backend/internal/storage"
)

// SessionService 封装会话相关业务操作：地址生成、收件箱同步、
// 生命周期管理与统计。
type SessionService struct {
	gw       *gateway.Client
	registry *registry.Registry
	engine   *ingest.Engine
	store    storage.Store
	metrics  *monitoring.Metrics
	log      *zap.Logger
}

// NewSessionService 创建会话业务服务。
func NewSessionService(
	gw *gateway.Client,
	reg *registry.Registry,
	engine *ingest.Engine,
	store storage.Store,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *SessionService {
	return &SessionService{
		gw:       gw,
		registry: reg,
		engine:   engine,
		store:    store,
		metrics:  metrics,
		log:      log,
	}
}

// GenerateOutput 地址生成结果。
type GenerateOutput struct {
	Email        string
	SessionID    string
	UsedFallback bool
}

// Generate 请求一个新地址并建立会话。
//
// 网关全部策略失败时走本地兜底地址，因此这条路径只会因存储写入
// 失败而出错。
func (s *SessionService) Generate(ctx context.Context, prefix string) (*GenerateOutput, error) {
	result, err := s.gw.Generate(ctx, prefix)
	if err != nil {
		return nil, err
	}

	session, err := s.registry.Create(result.Email)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordSessionCreated(result.UsedFallback)
	}
	s.log.Info("session created",
		zap.String("session_id", session.SessionID),
		zap.String("email", session.Email),
		zap.Bool("fallback", result.UsedFallback),
	)

	return &GenerateOutput{
		Email:        session.Email,
		SessionID:    session.SessionID,
		UsedFallback: result.UsedFallback,
	}, nil
}

// CheckInboxOutput 收件箱同步结果。
type CheckInboxOutput struct {
	NewUnreadCount int
	Status         string
}

// CheckInbox 抓取外部收件箱并把新邮件合并入库。
//
// 抓取失败不是致命错误：返回 error 状态让调用方自行决定重试，
// 未读数在这种情况下保持为 0。
func (s *SessionService) CheckInbox(ctx context.Context, email, sessionID string) (*CheckInboxOutput, error) {
	if err := s.registry.Touch(sessionID); err != nil {
		s.log.Warn("touch failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	result := s.gw.FetchInbox(ctx, email)
	if result.Status == gateway.StatusError {
		if s.metrics != nil {
			s.metrics.RecordGatewayError("fetch_inbox")
		}
		return &CheckInboxOutput{NewUnreadCount: 0, Status: result.Status}, nil
	}

	if len(result.Messages) > 0 {
		inserted := s.engine.Ingest(result.Messages, sessionID, email)
		if s.metrics != nil {
			s.metrics.RecordIngestion(len(result.Messages), inserted)
		}
	}

	stats, err := s.store.SessionStats(sessionID)
	if err != nil {
		return nil, err
	}

	return &CheckInboxOutput{
		NewUnreadCount: stats.UnreadMessages,
		Status:         result.Status,
	}, nil
}

// List 返回全部已知会话，并按注册表标注进程内活性。
func (s *SessionService) List() ([]domain.Session, error) {
	sessions, err := s.store.ListSessions()
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Live = s.registry.IsLive(sessions[i].SessionID)
	}
	return sessions, nil
}

// Reactivate 重新拉活一个已知会话。
func (s *SessionService) Reactivate(sessionID string) (*domain.Session, error) {
	return s.registry.Reactivate(sessionID)
}

// Delete 停用会话并删除其全部邮件。
func (s *SessionService) Delete(sessionID string) error {
	return s.registry.Deactivate(sessionID)
}

// DeactivateAll 停用全部会话（邮件保留）。
func (s *SessionService) DeactivateAll() error {
	return s.registry.DeactivateAll()
}

// PurgeInactive 清退超过保留阈值的非活跃会话。
func (s *SessionService) PurgeInactive() (int, error) {
	count, err := s.registry.PurgeInactive()
	if err != nil {
		return 0, err
	}
	if s.metrics != nil && count > 0 {
		s.metrics.RecordSessionsPurged(count)
	}
	return count, nil
}

// ClearAll 清空整个存储并丢弃全部活跃句柄。
func (s *SessionService) ClearAll() error {
	if err := s.store.ClearAll(); err != nil {
		return err
	}
	s.registry.Clear()
	s.log.Warn("store cleared")
	return nil
}

// Stats 返回单会话统计，带进程内活性标记。
func (s *SessionService) Stats(sessionID string) (*domain.SessionStats, error) {
	stats, err := s.store.SessionStats(sessionID)
	if err != nil {
		return nil, err
	}
	stats.Live = s.registry.IsLive(sessionID)
	return stats, nil
}

// GlobalStats 返回全库统计。
func (s *SessionService) GlobalStats() (*domain.GlobalStats, error) {
	return s.store.GlobalStats()
}
