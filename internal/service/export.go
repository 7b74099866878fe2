package service

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mailpanel/backend/internal/storage"
)

// ErrUnknownExportFormat 未知导出格式错误
var ErrUnknownExportFormat = errors.New("unknown export format")

// 导出格式
const (
	FormatStructured = "structured"
	FormatTabular    = "tabular"
	FormatText       = "text"
)

// 表格导出的固定列序
var tabularHeader = []string{"Sender", "Recipient", "Subject", "Preview", "Received At", "Read"}

// ExportService 把会话的邮件集序列化为三种外部表示之一。
type ExportService struct {
	repo  storage.MessageRepository
	limit int
}

// NewExportService 创建导出服务。limit 是单次导出的邮件上限。
func NewExportService(repo storage.MessageRepository, limit int) *ExportService {
	if limit <= 0 {
		limit = 1000
	}
	return &ExportService{repo: repo, limit: limit}
}

// ExportOutput 导出结果。
type ExportOutput struct {
	Content  string
	MimeType string
	Format   string
}

// Export 序列化会话的邮件集（受上限约束，到达时间倒序）。
//
// 同时接受原面板使用的别名 json/csv/txt。
func (s *ExportService) Export(sessionID, format string) (*ExportOutput, error) {
	canonical, err := canonicalFormat(format)
	if err != nil {
		return nil, err
	}

	messages, _, _, err := s.repo.ListMessages(sessionID, s.limit, 0, false)
	if err != nil {
		return nil, err
	}

	switch canonical {
	case FormatStructured:
		blob, err := json.MarshalIndent(messages, "", "  ")
		if err != nil {
			return nil, err
		}
		return &ExportOutput{Content: string(blob), MimeType: "application/json", Format: canonical}, nil

	case FormatTabular:
		var buf strings.Builder
		writer := csv.NewWriter(&buf)
		if err := writer.Write(tabularHeader); err != nil {
			return nil, err
		}
		for _, msg := range messages {
			read := "No"
			if msg.IsRead {
				read = "Yes"
			}
			record := []string{
				msg.Sender,
				msg.Recipient,
				msg.Subject,
				msg.BodyPreview,
				msg.ReceivedAt.UTC().Format(time.RFC3339),
				read,
			}
			if err := writer.Write(record); err != nil {
				return nil, err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, err
		}
		return &ExportOutput{Content: buf.String(), MimeType: "text/csv", Format: canonical}, nil

	case FormatText:
		var buf strings.Builder
		for _, msg := range messages {
			fmt.Fprintf(&buf, "From: %s\n", msg.Sender)
			fmt.Fprintf(&buf, "To: %s\n", msg.Recipient)
			fmt.Fprintf(&buf, "Subject: %s\n", msg.Subject)
			fmt.Fprintf(&buf, "Time: %s\n", msg.ReceivedAt.UTC().Format(time.RFC3339))
			fmt.Fprintf(&buf, "Preview: %s\n", msg.BodyPreview)
			buf.WriteString(strings.Repeat("-", 50) + "\n")
		}
		return &ExportOutput{Content: buf.String(), MimeType: "text/plain", Format: canonical}, nil
	}

	return nil, ErrUnknownExportFormat
}

func canonicalFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatStructured, "json":
		return FormatStructured, nil
	case FormatTabular, "csv":
		return FormatTabular, nil
	case FormatText, "flat-text", "txt":
		return FormatText, nil
	}
	return "", ErrUnknownExportFormat
}
