package ingest

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailpanel/backend/internal/domain"
	"mailpanel/backend/internal/storage"
)

const (
	defaultSender  = "Unknown"
	defaultSubject = "No Subject"
	defaultPreview = "No preview"
)

var errEmptyRawMessage = errors.New("raw message carries no usable content")

// parsedMessage 归一化后的邮件字段。
type parsedMessage struct {
	Sender  string
	Subject string
	Preview string
	Content string
}

// Engine 把网关的原始邮件合并进持久层，带去重。
//
// 摄取满足 at-least-once 安全：同一批原始邮件重复摄取不会产生
// 重复行，也不会重置已有行的已读状态。
type Engine struct {
	repo storage.MessageRepository
	log  *zap.Logger
	now  func() time.Time
}

// New 创建摄取引擎。
func New(repo storage.MessageRepository, log *zap.Logger) *Engine {
	return &Engine{repo: repo, log: log, now: time.Now}
}

// SetClock 注入时钟（仅测试使用）。
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Ingest 归一化并合并一批原始邮件，返回实际新插入的行数。
//
// 到达时间在此刻盖章（外部格式不可靠地携带时间），整批共用一个
// 按秒截断的时间戳，标识摘要由此保持可重算。单封邮件的解析失败
// 只记日志并跳过，绝不中断批次；全部插入在一个事务内提交。
func (e *Engine) Ingest(raw []domain.RawMessage, sessionID, recipient string) int {
	if len(raw) == 0 {
		return 0
	}

	arrival := e.now().UTC().Truncate(time.Second)

	batch := make([]*domain.Message, 0, len(raw))
	for _, rm := range raw {
		parsed, err := parseRaw(rm)
		if err != nil {
			e.log.Warn("skipping unparsable raw message",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			continue
		}

		batch = append(batch, &domain.Message{
			MessageID:   domain.NewMessageID(parsed.Sender, parsed.Subject, parsed.Preview, arrival),
			SessionID:   sessionID,
			Sender:      parsed.Sender,
			Recipient:   recipient,
			Subject:     parsed.Subject,
			BodyPreview: parsed.Preview,
			FullContent: parsed.Content,
			ReceivedAt:  arrival,
			IsRead:      false,
		})
	}

	if len(batch) == 0 {
		return 0
	}

	inserted, err := e.repo.SaveMessageBatch(batch)
	if err != nil {
		// 批内单行失败已被存储层跳过，这里只剩日志可做
		e.log.Warn("message batch committed with row errors",
			zap.String("session_id", sessionID),
			zap.Int("inserted", inserted),
			zap.Error(err),
		)
	}

	e.log.Debug("batch ingested",
		zap.String("session_id", sessionID),
		zap.Int("raw", len(raw)),
		zap.Int("inserted", inserted),
	)
	return inserted
}

// parseRaw 把带标签的原始变体解成规范字段。
func parseRaw(rm domain.RawMessage) (parsedMessage, error) {
	switch rm.Kind {
	case domain.RawStructured:
		return parseStructured(rm.Fields)
	default:
		return parseTextBlob(rm.Text)
	}
}

// parseStructured 解析结构化记录。全文默认取整条记录的序列化
// 形式，除非存在专门的 text 字段。
func parseStructured(fields map[string]any) (parsedMessage, error) {
	if len(fields) == 0 {
		return parsedMessage{}, errEmptyRawMessage
	}

	parsed := parsedMessage{
		Sender:  stringField(fields, "sender", defaultSender),
		Subject: stringField(fields, "subject", defaultSubject),
		Preview: stringField(fields, "preview", defaultPreview),
	}

	if text, ok := fields["text"].(string); ok {
		parsed.Content = text
	} else if blob, err := json.Marshal(fields); err == nil {
		parsed.Content = string(blob)
	}
	return parsed, nil
}

// parseTextBlob 解析多行文本块。
//
// 行位置约定（第 1 行去掉 NEW 标记后是发件人，第 3 行主题，第 4
// 行预览）对齐当前范围内唯一的外部提供方，属于明示的脆弱假设：
// 提供方换了格式就换这个适配器，去重逻辑不受影响。
func parseTextBlob(text string) (parsedMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return parsedMessage{}, errEmptyRawMessage
	}

	parsed := parsedMessage{
		Sender:  defaultSender,
		Subject: defaultSubject,
		Preview: defaultPreview,
		Content: text,
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) >= 3 {
		parsed.Sender = strings.TrimSpace(strings.Replace(lines[0], "NEW", "", 1))
		parsed.Subject = strings.TrimSpace(lines[2])
		if len(lines) > 3 {
			parsed.Preview = strings.TrimSpace(lines[3])
		}
	}
	return parsed, nil
}

func stringField(fields map[string]any, key, fallback string) string {
	if value, ok := fields[key].(string); ok && value != "" {
		return value
	}
	return fallback
}
